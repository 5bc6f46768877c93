package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Adedotun019/EventSense-AI/internal/config"
	"github.com/Adedotun019/EventSense-AI/internal/domain"
)

// Engine is the black-box transcoding processor. It is non-reentrant: all
// access must be serialized through the Queue.
type Engine interface {
	// Init prepares the engine. Idempotent; done once per process lifetime.
	Init(ctx context.Context) error
	// WriteSource stages the batch's media in the engine's working storage
	// and returns the staged path.
	WriteSource(ctx context.Context, sessionID string, payload []byte) (string, error)
	// Probe returns the source duration in seconds.
	Probe(ctx context.Context, src string) (float64, error)
	// Cut extracts [startMs, endMs] into an independent output and returns
	// the encoded bytes.
	Cut(ctx context.Context, src string, startMs, endMs int64, outName string) ([]byte, error)
}

// FFmpegEngine shells out to ffmpeg/ffprobe. The fast preset trades
// compression ratio for speed: this is an interactive tool, not a batch
// encoder.
type FFmpegEngine struct {
	ffmpegCmd  string
	ffprobeCmd string
	workDir    string

	initOnce    sync.Once
	initErr     error
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpegEngine(cfg config.TranscodeConfig) *FFmpegEngine {
	ffmpegCmd := cfg.FFmpegPath
	if ffmpegCmd == "" {
		ffmpegCmd = "ffmpeg"
	}
	ffprobeCmd := cfg.FFprobePath
	if ffprobeCmd == "" {
		ffprobeCmd = "ffprobe"
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "eventsense")
	}
	return &FFmpegEngine{
		ffmpegCmd:  ffmpegCmd,
		ffprobeCmd: ffprobeCmd,
		workDir:    workDir,
	}
}

func (e *FFmpegEngine) WorkDir() string {
	return e.workDir
}

func (e *FFmpegEngine) Init(_ context.Context) error {
	e.initOnce.Do(func() {
		ffmpegPath, err := exec.LookPath(e.ffmpegCmd)
		if err != nil {
			e.initErr = fmt.Errorf("locate ffmpeg: %w", err)
			return
		}
		ffprobePath, err := exec.LookPath(e.ffprobeCmd)
		if err != nil {
			e.initErr = fmt.Errorf("locate ffprobe: %w", err)
			return
		}
		if err := os.MkdirAll(e.workDir, 0o755); err != nil {
			e.initErr = fmt.Errorf("create work dir: %w", err)
			return
		}
		e.ffmpegPath = ffmpegPath
		e.ffprobePath = ffprobePath
	})
	return e.initErr
}

func (e *FFmpegEngine) WriteSource(_ context.Context, sessionID string, payload []byte) (string, error) {
	dir := filepath.Join(e.workDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, "input.mp4")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("stage source media: %w", err)
	}
	return path, nil
}

func (e *FFmpegEngine) Probe(ctx context.Context, src string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(out))
	}
	s := strings.TrimSpace(string(out))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func (e *FFmpegEngine) Cut(ctx context.Context, src string, startMs, endMs int64, outName string) ([]byte, error) {
	outPath := filepath.Join(filepath.Dir(src), outName)
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-y",
		"-i", src,
		"-ss", formatSeconds(startMs),
		"-to", formatSeconds(endMs),
		"-preset", "ultrafast",
		"-crf", "28",
		"-c:v", "libx264",
		"-c:a", "aac",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg cut: %w\n%s", err, string(out))
	}
	defer os.Remove(outPath)

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read cut output: %w", err)
	}
	return data, nil
}

// formatSeconds renders milliseconds as seconds with two-decimal truncation,
// matching the boundary arithmetic used for the duration floor.
func formatSeconds(ms int64) string {
	return strconv.FormatFloat(domain.TruncateSeconds(ms), 'f', 2, 64)
}
