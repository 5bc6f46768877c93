package highlight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Adedotun019/EventSense-AI/internal/classifier"
	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

// Merger assigns each chapter a dominant emotion from the provider's
// sentiment segments, optionally refined by a secondary text classifier.
// Classifier failures never abort the merge; the provider label is kept.
type Merger struct {
	classifier classifier.Classifier
}

// NewMerger builds a Merger. A nil classifier disables refinement.
func NewMerger(c classifier.Classifier) *Merger {
	return &Merger{classifier: c}
}

// Merge enriches chapters concurrently. The result preserves the original
// chapter order and always has one entry per input chapter.
func (m *Merger) Merge(ctx context.Context, chapters []domain.RawChapter, sentiments []domain.SentimentSegment) []domain.EnrichedChapter {
	enriched := make([]domain.EnrichedChapter, len(chapters))

	g, ctx := errgroup.WithContext(ctx)
	for i, ch := range chapters {
		i, ch := i, ch
		g.Go(func() error {
			enriched[i] = m.enrich(ctx, ch, sentiments)
			return nil
		})
	}
	// enrich never returns an error: classifier failures are swallowed
	_ = g.Wait()

	return enriched
}

func (m *Merger) enrich(ctx context.Context, ch domain.RawChapter, sentiments []domain.SentimentSegment) domain.EnrichedChapter {
	out := domain.EnrichedChapter{
		RawChapter:      ch,
		DominantEmotion: dominantLabel(ch, sentiments),
	}

	if m.classifier == nil || !m.classifier.Enabled() {
		return out
	}

	label, err := m.classifier.Classify(ctx, ch.Summary)
	if err != nil {
		log.Warn("classifier failed for chapter [%d,%d], keeping provider label: %v",
			ch.StartMs, ch.EndMs, err)
		return out
	}
	if label != "" {
		// summary-based classification is authoritative when available
		out.DominantEmotion = label
	}
	return out
}

// dominantLabel picks the highest-confidence sentiment segment fully
// contained in the chapter window. Segments straddling a chapter boundary
// are excluded to avoid bleed from adjacent chapters. Equal confidence is
// broken by earliest start.
func dominantLabel(ch domain.RawChapter, sentiments []domain.SentimentSegment) string {
	var best *domain.SentimentSegment
	for i := range sentiments {
		s := &sentiments[i]
		if s.StartMs < ch.StartMs || s.EndMs > ch.EndMs {
			continue
		}
		if best == nil ||
			s.Confidence > best.Confidence ||
			(s.Confidence == best.Confidence && s.StartMs < best.StartMs) {
			best = s
		}
	}
	if best == nil {
		return ""
	}
	return best.Label
}
