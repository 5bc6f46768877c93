package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adedotun019/EventSense-AI/internal/config"
	"github.com/Adedotun019/EventSense-AI/internal/httpapi"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

func runServe(ctx context.Context) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return err
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	deps, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(deps.manager, cfg.Provider.MaxUploadBytes,
		httpapi.WithQueue(deps.queue),
		httpapi.WithJanitor(cfg.Session.CleanupCron, cfg.Session.TTL, cfg.Transcode.WorkDir),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe(cfg.HTTP.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		log.Info("received %s, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
