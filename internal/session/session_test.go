package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/internal/highlight"
	"github.com/Adedotun019/EventSense-AI/internal/transcode"
)

// fakeAnalyzer returns a canned job without touching the network.
type fakeAnalyzer struct {
	job       *domain.AnalysisJob
	submitErr error
	awaitErr  error
	submits   int
}

func (f *fakeAnalyzer) Submit(_ context.Context, _ domain.MediaAsset) (string, error) {
	f.submits++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-1", nil
}

func (f *fakeAnalyzer) AwaitCompletion(context.Context, string) (*domain.AnalysisJob, error) {
	if f.awaitErr != nil {
		return nil, f.awaitErr
	}
	return f.job, nil
}

// memEngine cuts clips in memory.
type memEngine struct {
	probeDur float64
	cuts     int
}

func (e *memEngine) Init(context.Context) error { return nil }

func (e *memEngine) WriteSource(_ context.Context, sessionID string, _ []byte) (string, error) {
	return "/mem/" + sessionID, nil
}

func (e *memEngine) Probe(context.Context, string) (float64, error) {
	if e.probeDur == 0 {
		return 120, nil
	}
	return e.probeDur, nil
}

func (e *memEngine) Cut(_ context.Context, _ string, startMs, _ int64, _ string) ([]byte, error) {
	e.cuts++
	return []byte{byte(startMs / 1000)}, nil
}

func analyzedJob() *domain.AnalysisJob {
	return &domain.AnalysisJob{
		ID:             "job-1",
		Status:         domain.StatusCompleted,
		TranscriptText: "full transcript",
		Chapters: []domain.RawChapter{
			{StartMs: 0, EndMs: 5000, Summary: "intro"},
			{StartMs: 5000, EndMs: 7000, Summary: "blip"}, // 2s: fallback territory
			{StartMs: 7000, EndMs: 20000, Summary: "main"},
		},
		Sentiments: []domain.SentimentSegment{
			{StartMs: 0, EndMs: 5000, Label: "joy", Confidence: 0.9},
			{StartMs: 1000, EndMs: 2000, Label: "sad", Confidence: 0.95},
		},
	}
}

func newTestManager(analyzer Analyzer, engine transcode.Engine) *Manager {
	return NewManager(analyzer, highlight.NewMerger(nil), transcode.NewQueue(engine), 500*1024*1024)
}

func TestManager_Upload_CreatesSession(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{}, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateUploaded, s.State())
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestManager_Upload_RejectsEmptyAndOversized(t *testing.T) {
	m := NewManager(&fakeAnalyzer{}, highlight.NewMerger(nil),
		transcode.NewQueue(&memEngine{}), 10)

	_, err := m.Upload("", "empty.mp4", nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUpload))

	_, err = m.Upload("", "big.mp4", []byte("this payload is larger than ten bytes"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUpload))
	assert.Zero(t, m.Count())
}

func TestManager_Upload_UnknownSession(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{}, &memEngine{})

	_, err := m.Upload("nope", "talk.mp4", []byte("video"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestSession_AnalyzeProducesOrderedEnrichedChapters(t *testing.T) {
	fa := &fakeAnalyzer{job: analyzedJob()}
	m := newTestManager(fa, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))
	assert.Equal(t, StateAnalyzed, s.State())

	result, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, "full transcript", result.Transcription)
	require.Len(t, result.Chapters, 3)

	// both sentiment segments sit inside chapter 1; highest confidence wins
	require.NotNil(t, result.Chapters[0].DominantEmotion)
	assert.Equal(t, "sad", *result.Chapters[0].DominantEmotion)
	assert.Nil(t, result.Chapters[1].DominantEmotion)
	assert.Equal(t, "intro", result.Chapters[0].Summary)
	assert.Equal(t, int64(20000), result.Chapters[2].End)
}

func TestSession_AnalyzeRequiresUpload(t *testing.T) {
	fa := &fakeAnalyzer{job: analyzedJob()}
	m := newTestManager(fa, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))

	// already analyzed: a second analyze without re-upload is refused
	err = s.Analyze(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestSession_AnalyzeFailureRevertsToUploaded(t *testing.T) {
	fa := &fakeAnalyzer{awaitErr: domain.NewError(domain.KindTimeout, "transcription timed out")}
	m := newTestManager(fa, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)

	err = s.Analyze(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindTimeout))
	assert.Equal(t, StateUploaded, s.State())

	// the whole submission can be retried
	fa.awaitErr = nil
	fa.job = analyzedJob()
	require.NoError(t, s.Analyze(context.Background()))
	assert.Equal(t, StateAnalyzed, s.State())
	assert.Equal(t, 2, fa.submits)
}

func TestSession_ExtractAllMapsChaptersToClips(t *testing.T) {
	engine := &memEngine{}
	m := newTestManager(&fakeAnalyzer{job: analyzedJob()}, engine)

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))

	clips, err := s.ExtractAll(context.Background())
	require.NoError(t, err)
	require.Len(t, clips, 3)
	assert.Equal(t, StateReady, s.State())

	assert.False(t, clips[0].IsFallback)
	assert.True(t, clips[1].IsFallback, "2-second chapter degrades to fallback")
	assert.False(t, clips[2].IsFallback)
	assert.Equal(t, 2, engine.cuts, "fallback chapter never reaches the engine")

	stored, err := s.Clips()
	require.NoError(t, err)
	assert.Equal(t, clips, stored)
}

func TestSession_ExtractBeforeAnalyzeIsRefused(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{}, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)

	_, err = s.ExtractAll(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = s.Clips()
	require.Error(t, err)
}

func TestSession_ExtractOne(t *testing.T) {
	engine := &memEngine{}
	m := newTestManager(&fakeAnalyzer{job: analyzedJob()}, engine)

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))

	clip, err := s.ExtractOne(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, clip.ID)
	assert.False(t, clip.IsFallback)

	// extraction may be invoked repeatedly once analyzed
	again, err := s.ExtractOne(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, clip.IsFallback, again.IsFallback)
	assert.Equal(t, clip.DurationSec, again.DurationSec)
}

func TestSession_ExtractOneRefusesShortChapterBeforeQueuing(t *testing.T) {
	engine := &memEngine{}
	m := newTestManager(&fakeAnalyzer{job: analyzedJob()}, engine)

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))

	// chapter 2 spans 2 seconds
	_, err = s.ExtractOne(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Zero(t, engine.cuts, "refusal happens before any work is queued")
}

func TestSession_ExtractOneUnknownChapter(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{job: analyzedJob()}, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))

	_, err = s.ExtractOne(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestSession_ReuploadResetsAnalysis(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{job: analyzedJob()}, &memEngine{})

	s, err := m.Upload("", "talk.mp4", []byte("video"))
	require.NoError(t, err)
	require.NoError(t, s.Analyze(context.Background()))
	_, err = s.ExtractAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())

	same, err := m.Upload(s.ID, "other.mp4", []byte("new video"))
	require.NoError(t, err)
	assert.Same(t, s, same)
	assert.Equal(t, StateUploaded, s.State())

	_, err = s.Result()
	require.Error(t, err, "prior analysis is discarded")
	_, err = s.Clips()
	require.Error(t, err, "prior clips are discarded")
}

func TestManager_SweepExpired(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{}, &memEngine{})

	s1, err := m.Upload("", "a.mp4", []byte("video"))
	require.NoError(t, err)
	s2, err := m.Upload("", "b.mp4", []byte("video"))
	require.NoError(t, err)

	// age s1 artificially
	s1.mu.Lock()
	s1.lastTouched = time.Now().Add(-2 * time.Hour)
	s1.mu.Unlock()

	evicted := m.SweepExpired(time.Hour)
	assert.Equal(t, []string{s1.ID}, evicted)
	assert.Equal(t, 1, m.Count())

	_, ok := m.Get(s1.ID)
	assert.False(t, ok)
	_, ok = m.Get(s2.ID)
	assert.True(t, ok)
}

func TestManager_SweepSkipsBusySessions(t *testing.T) {
	m := newTestManager(&fakeAnalyzer{}, &memEngine{})

	s, err := m.Upload("", "a.mp4", []byte("video"))
	require.NoError(t, err)

	s.mu.Lock()
	s.state = StateAnalyzing
	s.lastTouched = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	evicted := m.SweepExpired(time.Hour)
	assert.Empty(t, evicted)
	assert.Equal(t, 1, m.Count())
}
