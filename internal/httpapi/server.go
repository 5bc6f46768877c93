package httpapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Adedotun019/EventSense-AI/internal/session"
	"github.com/Adedotun019/EventSense-AI/internal/transcode"
	"github.com/Adedotun019/EventSense-AI/pkg/file"
	"github.com/Adedotun019/EventSense-AI/pkg/icron"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

type Server struct {
	manager        *session.Manager
	queue          *transcode.Queue
	maxUploadBytes int64

	janitorExpr string
	sessionTTL  time.Duration
	workDir     string
	cron        *cron.Cron

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithJanitor schedules periodic eviction of idle sessions and removal of
// their engine workspaces.
func WithJanitor(cronExpr string, ttl time.Duration, workDir string) Option {
	return func(s *Server) {
		s.janitorExpr = cronExpr
		s.sessionTTL = ttl
		s.workDir = workDir
	}
}

// WithQueue exposes queue state on the status endpoint.
func WithQueue(q *transcode.Queue) Option {
	return func(s *Server) {
		s.queue = q
	}
}

func NewServer(manager *session.Manager, maxUploadBytes int64, opts ...Option) *Server {
	s := &Server{
		manager:        manager,
		maxUploadBytes: maxUploadBytes,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.startJanitor()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/sessions/", s.handleSession)
	s.mux.HandleFunc("/api/status", s.handleStatus)
}

func (s *Server) startJanitor() {
	if s.janitorExpr == "" {
		return
	}

	s.cron = cron.New(cron.WithParser(icron.Parser()))
	if _, err := s.cron.AddFunc(s.janitorExpr, s.sweep); err != nil {
		log.Error("janitor schedule rejected: %v", err)
		s.cron = nil
		return
	}
	s.cron.Start()

	if next, err := icron.Next(s.janitorExpr, time.Now()); err == nil {
		log.Info("janitor scheduled (%s), first sweep at %s", s.janitorExpr, next.Format(time.RFC3339))
	}
}

// sweep evicts idle sessions and clears their engine workspaces, plus any
// orphaned workspace directory left behind by an earlier run.
func (s *Server) sweep() {
	for _, id := range s.manager.SweepExpired(s.sessionTTL) {
		s.removeWorkspace(id)
	}

	if s.workDir == "" {
		return
	}
	stale, err := file.FindStaleDirs(s.workDir, time.Now().Add(-s.sessionTTL))
	if err != nil {
		log.Warn("janitor workspace scan failed: %v", err)
		return
	}
	for _, dir := range stale {
		if _, live := s.manager.Get(filepath.Base(dir)); live {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("janitor failed to remove %s: %v", dir, err)
		}
	}
}

func (s *Server) removeWorkspace(sessionID string) {
	if s.workDir == "" {
		return
	}
	dir := filepath.Join(s.workDir, sessionID)
	if err := os.RemoveAll(dir); err != nil {
		log.Warn("failed to remove workspace %s: %v", dir, err)
	}
}
