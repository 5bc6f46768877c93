package packager

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
)

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = buf.Bytes()
	}
	return entries
}

func TestWriteArchive_ExcludesFallbacks(t *testing.T) {
	clips := []domain.Clip{
		{ID: 1, Name: "clip_1.mp4", Payload: []byte("placeholder"), IsFallback: true},
		{ID: 2, Name: "a", Payload: []byte("video-a")},
	}

	var buf bytes.Buffer
	packed, err := WriteArchive(&buf, clips)
	require.NoError(t, err)
	assert.Equal(t, 1, packed)

	entries := readArchive(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("video-a"), entries["a"])
}

func TestWriteArchive_AllFallbacksYieldsEmptyArchive(t *testing.T) {
	clips := []domain.Clip{
		{ID: 1, Name: "clip_1.mp4", IsFallback: true},
		{ID: 2, Name: "clip_2.mp4", IsFallback: true},
	}

	var buf bytes.Buffer
	packed, err := WriteArchive(&buf, clips)
	require.NoError(t, err)
	assert.Zero(t, packed)
	assert.Empty(t, readArchive(t, buf.Bytes()))
}

func TestWriteArchive_EntryNamesMatchClipNames(t *testing.T) {
	clips := []domain.Clip{
		{ID: 1, Name: "clip_1.mp4", Payload: []byte("one")},
		{ID: 2, Name: "clip_2.mp4", Payload: []byte("two")},
	}

	var buf bytes.Buffer
	packed, err := WriteArchive(&buf, clips)
	require.NoError(t, err)
	assert.Equal(t, 2, packed)

	entries := readArchive(t, buf.Bytes())
	assert.Equal(t, []byte("one"), entries["clip_1.mp4"])
	assert.Equal(t, []byte("two"), entries["clip_2.mp4"])
}

func TestFor_RealClip(t *testing.T) {
	d := For(domain.Clip{ID: 3, Name: "clip_3.mp4", Payload: []byte("video")})
	assert.Equal(t, "clip_3.mp4", d.Name)
	assert.Equal(t, "video/mp4", d.ContentType)
	assert.Equal(t, []byte("video"), d.Payload)
}

func TestFor_FallbackClipIsServedAsImage(t *testing.T) {
	d := For(domain.Clip{ID: 3, Name: "clip_3.mp4", Payload: []byte("png-bytes"), IsFallback: true})
	assert.Equal(t, "clip_3.png", d.Name)
	assert.Equal(t, "image/png", d.ContentType)
	assert.Equal(t, []byte("png-bytes"), d.Payload)
}
