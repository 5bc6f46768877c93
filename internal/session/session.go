package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/internal/highlight"
	"github.com/Adedotun019/EventSense-AI/internal/transcode"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

// State is the per-session pipeline position.
type State string

const (
	StateIdle       State = "idle"
	StateUploaded   State = "uploaded"
	StateAnalyzing  State = "analyzing"
	StateAnalyzed   State = "analyzed"
	StateExtracting State = "extracting"
	StateReady      State = "ready"
)

// Analyzer is the remote job client surface a session drives.
type Analyzer interface {
	Submit(ctx context.Context, asset domain.MediaAsset) (string, error)
	AwaitCompletion(ctx context.Context, jobID string) (*domain.AnalysisJob, error)
}

type deps struct {
	analyzer Analyzer
	merger   *highlight.Merger
	queue    *transcode.Queue
}

// Session coordinates one upload through analysis and clip extraction. All
// state mutations happen under the session mutex; remote calls and queue
// waits run outside it.
type Session struct {
	ID string

	d deps

	mu          sync.Mutex
	state       State
	asset       domain.MediaAsset
	transcript  string
	chapters    []domain.EnrichedChapter
	clips       []domain.Clip
	lastTouched time.Time
}

// ResultPayload is the analysis result returned to the presentation layer.
type ResultPayload struct {
	Transcription string           `json:"transcription"`
	Chapters      []ChapterPayload `json:"chapters"`
}

type ChapterPayload struct {
	Start           int64   `json:"start"`
	End             int64   `json:"end"`
	Summary         string  `json:"summary"`
	DominantEmotion *string `json:"dominantEmotion"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

func (s *Session) touchLocked() {
	s.lastTouched = time.Now()
}

// setAsset installs a new upload, discarding all prior analysis and clips.
func (s *Session) setAsset(asset domain.MediaAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAnalyzing || s.state == StateExtracting {
		return domain.NewError(domain.KindValidation, "session is busy").
			WithContext("state", string(s.state))
	}

	s.asset = asset
	s.transcript = ""
	s.chapters = nil
	s.clips = nil
	s.state = StateUploaded
	s.touchLocked()
	return nil
}

// Analyze submits the asset to the remote provider, awaits the job, and
// merges sentiment onto chapters. Provider failures revert the session to
// Uploaded so the caller may retry the whole submission.
func (s *Session) Analyze(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUploaded {
		state := s.state
		s.mu.Unlock()
		if state == StateAnalyzing {
			return domain.NewError(domain.KindValidation, "analysis already in progress")
		}
		return domain.NewError(domain.KindValidation, "session has no pending upload").
			WithContext("state", string(state))
	}
	s.state = StateAnalyzing
	s.touchLocked()
	asset := s.asset
	s.mu.Unlock()

	revert := func() {
		s.mu.Lock()
		s.state = StateUploaded
		s.touchLocked()
		s.mu.Unlock()
	}

	jobID, err := s.d.analyzer.Submit(ctx, asset)
	if err != nil {
		revert()
		return err
	}

	job, err := s.d.analyzer.AwaitCompletion(ctx, jobID)
	if err != nil {
		revert()
		return err
	}

	enriched := s.d.merger.Merge(ctx, job.Chapters, job.Sentiments)
	log.Info("session %s analyzed: %d chapters", s.ID, len(enriched))

	s.mu.Lock()
	s.transcript = job.TranscriptText
	s.chapters = enriched
	s.state = StateAnalyzed
	s.touchLocked()
	s.mu.Unlock()
	return nil
}

// Result returns the analysis payload. Valid once the session is Analyzed.
func (s *Session) Result() (ResultPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.analyzedLocked() {
		return ResultPayload{}, domain.NewError(domain.KindValidation, "session is not analyzed yet").
			WithContext("state", string(s.state))
	}

	payload := ResultPayload{
		Transcription: s.transcript,
		Chapters:      make([]ChapterPayload, 0, len(s.chapters)),
	}
	for _, ch := range s.chapters {
		cp := ChapterPayload{
			Start:   ch.StartMs,
			End:     ch.EndMs,
			Summary: ch.Summary,
		}
		if ch.DominantEmotion != "" {
			emotion := ch.DominantEmotion
			cp.DominantEmotion = &emotion
		}
		payload.Chapters = append(payload.Chapters, cp)
	}
	return payload, nil
}

// ExtractAll cuts one clip per chapter through the serialized queue. The
// result always has one clip per chapter in chapter order, fallbacks
// included.
func (s *Session) ExtractAll(ctx context.Context) ([]domain.Clip, error) {
	s.mu.Lock()
	if s.state != StateAnalyzed && s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return nil, domain.NewError(domain.KindValidation, "session is not ready for extraction").
			WithContext("state", string(state))
	}
	s.state = StateExtracting
	s.touchLocked()
	batch := transcode.Batch{
		SessionID: s.ID,
		Source:    s.asset.Payload,
		Requests:  s.requestsLocked(),
	}
	s.mu.Unlock()

	res := <-s.d.queue.Submit(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Err != nil {
		s.state = StateAnalyzed
		s.touchLocked()
		return nil, res.Err
	}
	s.clips = res.Clips
	s.state = StateReady
	s.touchLocked()
	return res.Clips, nil
}

// ExtractOne cuts a single chapter. Sub-3-second chapters are refused before
// any work is queued.
func (s *Session) ExtractOne(ctx context.Context, chapterID int) (domain.Clip, error) {
	s.mu.Lock()
	if !s.analyzedLocked() {
		state := s.state
		s.mu.Unlock()
		return domain.Clip{}, domain.NewError(domain.KindValidation, "session is not analyzed yet").
			WithContext("state", string(state))
	}
	if chapterID < 1 || chapterID > len(s.chapters) {
		s.mu.Unlock()
		return domain.Clip{}, domain.NewError(domain.KindValidation, "no such chapter").
			WithContext("chapter", chapterID)
	}
	ch := s.chapters[chapterID-1]
	req := domain.TranscodeRequest{ChapterID: chapterID, StartMs: ch.StartMs, EndMs: ch.EndMs}
	if req.DurationSec() < 3.0 {
		s.mu.Unlock()
		return domain.Clip{}, domain.NewError(domain.KindValidation,
			fmt.Sprintf("chapter %d is shorter than 3 seconds", chapterID)).
			WithContext("duration_sec", req.DurationSec())
	}
	batch := transcode.Batch{
		SessionID: s.ID,
		Source:    s.asset.Payload,
		Requests:  []domain.TranscodeRequest{req},
	}
	s.touchLocked()
	s.mu.Unlock()

	res := <-s.d.queue.Submit(ctx, batch)
	if res.Err != nil {
		return domain.Clip{}, res.Err
	}
	return res.Clips[0], nil
}

// Clips returns the extracted batch. Valid once the session is Ready.
func (s *Session) Clips() ([]domain.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil, domain.NewError(domain.KindValidation, "clips have not been extracted yet").
			WithContext("state", string(s.state))
	}
	return s.clips, nil
}

func (s *Session) analyzedLocked() bool {
	switch s.state {
	case StateAnalyzed, StateExtracting, StateReady:
		return true
	}
	return false
}

func (s *Session) requestsLocked() []domain.TranscodeRequest {
	reqs := make([]domain.TranscodeRequest, 0, len(s.chapters))
	for i, ch := range s.chapters {
		reqs = append(reqs, domain.TranscodeRequest{
			ChapterID: i + 1,
			StartMs:   ch.StartMs,
			EndMs:     ch.EndMs,
		})
	}
	return reqs
}
