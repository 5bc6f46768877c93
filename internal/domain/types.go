package domain

import "math"

// JobStatus is the lifecycle state of a remote analysis job.
type JobStatus string

const (
	StatusSubmitted  JobStatus = "submitted"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusTimedOut   JobStatus = "timed_out"
)

// Terminal reports whether no further polling can change the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return true
	}
	return false
}

// MediaAsset is the uploaded media for one session. The payload is never
// mutated after upload.
type MediaAsset struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Payload []byte `json:"-"`
}

func (a MediaAsset) Size() int64 {
	return int64(len(a.Payload))
}

// AnalysisJob is the result of a remote transcription job. It is populated
// only by poll results and is immutable once its status is terminal.
type AnalysisJob struct {
	ID             string             `json:"id"`
	Status         JobStatus          `json:"status"`
	TranscriptText string             `json:"transcript_text"`
	Chapters       []RawChapter       `json:"chapters"`
	Sentiments     []SentimentSegment `json:"sentiments"`
}

// RawChapter is a provider-identified contiguous time segment. Chapters are
// non-overlapping and arrive in provider order.
type RawChapter struct {
	StartMs int64  `json:"start"`
	EndMs   int64  `json:"end"`
	Summary string `json:"summary"`
}

// SentimentSegment carries one sentiment label for a time window of the
// transcript. Several segments may fall inside a single chapter.
type SentimentSegment struct {
	StartMs    int64   `json:"start"`
	EndMs      int64   `json:"end"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// EnrichedChapter is a chapter with its merged dominant emotion. An empty
// DominantEmotion means no sentiment could be assigned.
type EnrichedChapter struct {
	RawChapter
	DominantEmotion string `json:"dominantEmotion,omitempty"`
}

// Clip is one extracted video segment, or a placeholder standing in for a
// segment that could not be cut. Immutable after creation.
type Clip struct {
	ID          int     `json:"id"` // 1-based chapter index
	Name        string  `json:"name"`
	Payload     []byte  `json:"-"`
	IsFallback  bool    `json:"is_fallback"`
	DurationSec float64 `json:"duration_sec"`
	Error       string  `json:"error,omitempty"`
}

// TranscodeRequest is one unit of cutting work submitted to the queue.
type TranscodeRequest struct {
	ChapterID int
	StartMs   int64
	EndMs     int64
}

// DurationSec computes the request duration in seconds. Both boundaries are
// truncated to two decimals before subtraction, so a 2999ms request reads as
// 2.99s and fails the 3-second floor while exactly 3000ms passes.
func (r TranscodeRequest) DurationSec() float64 {
	return TruncateSeconds(r.EndMs) - TruncateSeconds(r.StartMs)
}

// TruncateSeconds converts milliseconds to seconds truncated at two decimals.
func TruncateSeconds(ms int64) float64 {
	return math.Trunc(float64(ms)/10) / 100
}
