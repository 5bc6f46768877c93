package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Adedotun019/EventSense-AI/internal/config"
	"github.com/Adedotun019/EventSense-AI/internal/packager"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

// runProcess runs the full pipeline against a local file: analyze, cut every
// chapter, and write the clips plus the batch archive to outDir.
func runProcess(ctx context.Context, input, outDir string) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return err
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	payload, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	deps, err := buildDeps(cfg)
	if err != nil {
		return err
	}

	sess, err := deps.manager.Upload("", filepath.Base(input), payload)
	if err != nil {
		return err
	}

	log.Info("analyzing %s (%d bytes)", input, len(payload))
	if err := sess.Analyze(ctx); err != nil {
		return err
	}

	result, err := sess.Result()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "result.json"), resultJSON, 0o644); err != nil {
		return fmt.Errorf("write result.json: %w", err)
	}
	for _, ch := range result.Chapters {
		emotion := "none"
		if ch.DominantEmotion != nil {
			emotion = *ch.DominantEmotion
		}
		log.Info("chapter [%d-%d] %s (emotion: %s)", ch.Start, ch.End, ch.Summary, emotion)
	}

	clips, err := sess.ExtractAll(ctx)
	if err != nil {
		return err
	}

	for _, clip := range clips {
		d := packager.For(clip)
		dst := filepath.Join(outDir, d.Name)
		if err := os.WriteFile(dst, d.Payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		if clip.IsFallback {
			log.Warn("chapter %d could not be cut (%s), wrote placeholder %s", clip.ID, clip.Error, dst)
		} else {
			log.Info("wrote %s (%.2fs)", dst, clip.DurationSec)
		}
	}

	archivePath := filepath.Join(outDir, packager.ArchiveName)
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	packed, err := packager.WriteArchive(f, clips)
	if err != nil {
		return err
	}
	log.Info("packed %d clips into %s", packed, archivePath)
	return nil
}
