package transcode

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adedotun019/EventSense-AI/internal/config"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "2.50", formatSeconds(2500))
	assert.Equal(t, "2.99", formatSeconds(2999)) // truncated, not rounded
	assert.Equal(t, "3.00", formatSeconds(3000))
	assert.Equal(t, "0.00", formatSeconds(0))
	assert.Equal(t, "125.37", formatSeconds(125379))
}

func TestNewFFmpegEngine_Defaults(t *testing.T) {
	e := NewFFmpegEngine(config.TranscodeConfig{})
	assert.Equal(t, "ffmpeg", e.ffmpegCmd)
	assert.Equal(t, "ffprobe", e.ffprobeCmd)
	assert.NotEmpty(t, e.WorkDir())
}

func TestFFmpegEngine_WriteSource(t *testing.T) {
	work := t.TempDir()
	e := NewFFmpegEngine(config.TranscodeConfig{WorkDir: work})

	path, err := e.WriteSource(context.Background(), "session-1", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "session-1", "input.mp4"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	// restaging overwrites in place
	_, err = e.WriteSource(context.Background(), "session-1", []byte("other"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), data)
}

func TestFFmpegEngine_InitMissingBinary(t *testing.T) {
	e := NewFFmpegEngine(config.TranscodeConfig{
		FFmpegPath: "definitely-not-a-real-binary",
		WorkDir:    t.TempDir(),
	})

	err := e.Init(context.Background())
	require.Error(t, err)
	// Init is sticky: the second call reports the same failure
	assert.Equal(t, err, e.Init(context.Background()))
}

func TestRenderFallbackCard(t *testing.T) {
	card, err := RenderFallbackCard()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(card))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 360, img.Bounds().Dy())

	// deterministic output
	again, err := RenderFallbackCard()
	require.NoError(t, err)
	assert.Equal(t, card, again)
}
