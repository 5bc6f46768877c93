package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/internal/highlight"
	"github.com/Adedotun019/EventSense-AI/internal/transcode"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

// Manager owns all live sessions. Sessions are memory-only and scoped to the
// process lifetime; the janitor evicts them once idle past their TTL.
type Manager struct {
	analyzer       Analyzer
	merger         *highlight.Merger
	queue          *transcode.Queue
	maxUploadBytes int64

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(analyzer Analyzer, merger *highlight.Merger, queue *transcode.Queue, maxUploadBytes int64) *Manager {
	return &Manager{
		analyzer:       analyzer,
		merger:         merger,
		queue:          queue,
		maxUploadBytes: maxUploadBytes,
		sessions:       make(map[string]*Session),
	}
}

// Upload installs a media asset. An empty sessionID creates a new session;
// an existing one is reset to Uploaded, discarding prior chapters and clips.
// The size ceiling is enforced here, before anything touches the provider.
func (m *Manager) Upload(sessionID, name string, payload []byte) (*Session, error) {
	if len(payload) == 0 {
		return nil, domain.NewError(domain.KindUpload, "the uploaded file is empty")
	}
	if int64(len(payload)) > m.maxUploadBytes {
		return nil, domain.NewError(domain.KindUpload, "uploaded file exceeds the size ceiling").
			WithContext("size", len(payload)).
			WithContext("limit", m.maxUploadBytes)
	}

	asset := domain.MediaAsset{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
	}

	if sessionID != "" {
		s, ok := m.Get(sessionID)
		if !ok {
			return nil, domain.NewError(domain.KindValidation, "unknown session").
				WithContext("session", sessionID)
		}
		if err := s.setAsset(asset); err != nil {
			return nil, err
		}
		log.Info("session %s: replaced asset with %s (%d bytes)", s.ID, name, len(payload))
		return s, nil
	}

	s := &Session{
		ID: uuid.NewString(),
		d: deps{
			analyzer: m.analyzer,
			merger:   m.merger,
			queue:    m.queue,
		},
		state: StateIdle,
	}
	if err := s.setAsset(asset); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Info("session %s: created for %s (%d bytes)", s.ID, name, len(payload))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepExpired evicts sessions idle for longer than ttl. Sessions with work
// in flight are skipped and picked up on a later sweep. Returns the evicted
// session IDs so the caller can clean their workspaces.
func (m *Manager) SweepExpired(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []string
	for id, s := range m.sessions {
		state := s.State()
		if state == StateAnalyzing || state == StateExtracting {
			continue
		}
		if s.LastTouched().Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		log.Info("evicted %d expired session(s)", len(evicted))
	}
	return evicted
}
