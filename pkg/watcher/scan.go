package watcher

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/bft-labs/labship/internal/domain"
)

// scan lists the eligible files of dir in name order. Subdirectories,
// including Archives/ and Rejected/, are never descended into.
func scan(fs afero.Fs, dir, ext string, now time.Time) ([]domain.SourceFile, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	var files []domain.SourceFile
	for _, e := range entries {
		if !e.Mode().IsRegular() || !matchExt(e.Name(), ext) {
			continue
		}
		files = append(files, domain.NewSourceFile(filepath.Join(dir, e.Name()), e.Size(), now))
	}
	return files, nil
}

func matchExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}
