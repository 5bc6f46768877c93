package file

import (
	"os"
	"path/filepath"
	"time"
)

// FindStaleDirs returns the direct child directories of root whose last
// modification is older than cutoff. Root itself is never returned.
func FindStaleDirs(root string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var stale []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, filepath.Join(root, entry.Name()))
		}
	}
	return stale, nil
}
