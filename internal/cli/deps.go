package cli

import (
	"github.com/Adedotun019/EventSense-AI/internal/classifier"
	"github.com/Adedotun019/EventSense-AI/internal/config"
	"github.com/Adedotun019/EventSense-AI/internal/highlight"
	"github.com/Adedotun019/EventSense-AI/internal/provider"
	"github.com/Adedotun019/EventSense-AI/internal/session"
	"github.com/Adedotun019/EventSense-AI/internal/transcode"
)

type appDeps struct {
	manager *session.Manager
	queue   *transcode.Queue
}

func buildDeps(cfg *config.Config) (*appDeps, error) {
	analyzer, err := provider.NewClient(cfg.Provider)
	if err != nil {
		return nil, err
	}

	merger := highlight.NewMerger(classifier.NewHuggingFace(cfg.Classifier))
	queue := transcode.NewQueue(transcode.NewFFmpegEngine(cfg.Transcode))
	manager := session.NewManager(analyzer, merger, queue, cfg.Provider.MaxUploadBytes)

	return &appDeps{manager: manager, queue: queue}, nil
}
