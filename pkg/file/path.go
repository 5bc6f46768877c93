package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of the final path element. A missing leading
// dot on ext is tolerated.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return filepath.Join(dir, name+ext)
}
