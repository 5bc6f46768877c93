package transcode

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

// minClipSeconds is the hard floor for transcoding a chapter. Durations are
// compared after two-decimal truncation: 2.99s fails, exactly 3.00s passes.
const minClipSeconds = 3.0

// Batch is one unit of serialized work: the source media plus the chapter
// ranges to cut from it.
type Batch struct {
	SessionID string
	Source    []byte
	Requests  []domain.TranscodeRequest
}

// Result carries the outcome of one batch. Err is set only for batch-level
// failures (engine init, staging, unusable source); per-request failures
// degrade to fallback clips inside Clips instead.
type Result struct {
	Clips []domain.Clip
	Err   error
}

// Queue serializes all transcoding through one shared engine instance. The
// engine corrupts its internal state under concurrent invocations, so the
// queue is the system's single ordering point: at most one batch runs at any
// instant, batches run in submission order, and a failing batch never blocks
// the ones submitted after it.
type Queue struct {
	engine Engine

	mu   sync.Mutex
	tail chan struct{} // closed when the most recently scheduled batch finishes

	busy atomic.Bool

	cardOnce sync.Once
	card     []byte
}

func NewQueue(engine Engine) *Queue {
	done := make(chan struct{})
	close(done)
	return &Queue{engine: engine, tail: done}
}

// Submit attaches batch as a continuation of the current tail and returns
// immediately. The returned channel receives exactly one Result, in FIFO
// order relative to other submissions.
func (q *Queue) Submit(ctx context.Context, batch Batch) <-chan Result {
	results := make(chan Result, 1)

	q.mu.Lock()
	prev := q.tail
	done := make(chan struct{})
	q.tail = done
	q.mu.Unlock()

	// In-flight engine work runs to completion even when the submitter's
	// context is cancelled; a caller may only ignore the result.
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		<-prev
		clips, err := q.run(ctx, batch)
		results <- Result{Clips: clips, Err: err}
	}()

	return results
}

// Busy reports whether a batch is currently executing.
func (q *Queue) Busy() bool {
	return q.busy.Load()
}

func (q *Queue) run(ctx context.Context, batch Batch) ([]domain.Clip, error) {
	q.busy.Store(true)
	defer q.busy.Store(false)

	if len(batch.Source) == 0 {
		return nil, domain.NewError(domain.KindValidation, "the uploaded file is empty")
	}
	if err := q.engine.Init(ctx); err != nil {
		return nil, domain.WrapError(err, domain.KindEngine, "initialize engine")
	}

	src, err := q.engine.WriteSource(ctx, batch.SessionID, batch.Source)
	if err != nil {
		return nil, domain.WrapError(err, domain.KindEngine, "stage source media")
	}

	duration, err := q.engine.Probe(ctx, src)
	if err != nil {
		return nil, domain.WrapError(err, domain.KindEngine, "probe source media")
	}
	if duration < minClipSeconds {
		return nil, domain.NewError(domain.KindValidation, "video must be at least 3 seconds long").
			WithContext("duration_sec", duration)
	}

	clips := make([]domain.Clip, 0, len(batch.Requests))
	for _, req := range batch.Requests {
		clips = append(clips, q.cut(ctx, src, req))
	}
	return clips, nil
}

// cut produces exactly one clip per request: a real clip on success, a
// fallback otherwise. One failure never aborts sibling requests.
func (q *Queue) cut(ctx context.Context, src string, req domain.TranscodeRequest) domain.Clip {
	name := fmt.Sprintf("clip_%d.mp4", req.ChapterID)
	duration := req.DurationSec()

	if duration < minClipSeconds {
		log.Warn("skipping clip %d: too short (%.2fs)", req.ChapterID, duration)
		return q.fallbackClip(req.ChapterID, name, duration, "")
	}

	payload, err := q.engine.Cut(ctx, src, req.StartMs, req.EndMs, name)
	if err != nil {
		log.Error("cutting clip %d failed: %v", req.ChapterID, err)
		return q.fallbackClip(req.ChapterID, name, duration, err.Error())
	}

	return domain.Clip{
		ID:          req.ChapterID,
		Name:        name,
		Payload:     payload,
		DurationSec: duration,
	}
}

func (q *Queue) fallbackClip(id int, name string, duration float64, errMsg string) domain.Clip {
	q.cardOnce.Do(func() {
		card, err := RenderFallbackCard()
		if err != nil {
			log.Error("rendering fallback card failed: %v", err)
			return
		}
		q.card = card
	})

	return domain.Clip{
		ID:          id,
		Name:        name,
		Payload:     q.card,
		IsFallback:  true,
		DurationSec: duration,
		Error:       errMsg,
	}
}
