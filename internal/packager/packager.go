package packager

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/pkg/file"
)

// ArchiveName is the download name of the batch deliverable.
const ArchiveName = "event_clips.zip"

// Deliverable is a single downloadable artifact: a real clip or the
// placeholder card standing in for one.
type Deliverable struct {
	Name        string
	ContentType string
	Payload     []byte
}

// For returns the deliverable for a single clip. Fallback clips stay
// downloadable so the user can see the placeholder; they ship as PNG.
func For(clip domain.Clip) Deliverable {
	if clip.IsFallback {
		return Deliverable{
			Name:        file.ReplaceExt(clip.Name, ".png"),
			ContentType: "image/png",
			Payload:     clip.Payload,
		}
	}
	return Deliverable{
		Name:        clip.Name,
		ContentType: "video/mp4",
		Payload:     clip.Payload,
	}
}

// WriteArchive streams a zip of all non-fallback clips to w and returns how
// many clips were packed. Fallbacks are silently excluded; an all-fallback
// input produces an empty archive, not an error.
func WriteArchive(w io.Writer, clips []domain.Clip) (int, error) {
	zw := zip.NewWriter(w)

	packed := 0
	for _, clip := range clips {
		if clip.IsFallback {
			continue
		}
		entry, err := zw.Create(clip.Name)
		if err != nil {
			return packed, fmt.Errorf("create archive entry %s: %w", clip.Name, err)
		}
		if _, err := entry.Write(clip.Payload); err != nil {
			return packed, fmt.Errorf("write archive entry %s: %w", clip.Name, err)
		}
		packed++
	}

	if err := zw.Close(); err != nil {
		return packed, fmt.Errorf("finalize archive: %w", err)
	}
	return packed, nil
}
