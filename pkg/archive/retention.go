package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bft-labs/labship/pkg/log"
)

// Retention bounds the size of each Archives directory. When a
// directory grows past HighWatermark bytes, the oldest archived files are
// removed until it is at or below LowWatermark. Rejected/ is never
// pruned; those files wait for an operator.
type Retention struct {
	HighWatermark int64
	LowWatermark  int64
}

// Enabled reports whether pruning is configured.
func (r Retention) Enabled() bool {
	return r.HighWatermark > 0
}

// Validate checks the watermarks.
func (r Retention) Validate() error {
	if r.HighWatermark < 0 || r.LowWatermark < 0 {
		return fmt.Errorf("archive watermarks must not be negative")
	}
	if r.Enabled() && r.LowWatermark >= r.HighWatermark {
		return fmt.Errorf("archive low watermark %d must be below high watermark %d", r.LowWatermark, r.HighWatermark)
	}
	return nil
}

type archived struct {
	path string
	size int64
	mod  int64
}

// Prune applies r to the Archives directory beside the watched
// directory dir. It returns the bytes freed. A missing Archives
// directory is not an error.
func (m *Manager) Prune(ctx context.Context, dir string, r Retention) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	archiveDir := filepath.Join(dir, ArchiveDir)

	files, total, err := m.listArchived(archiveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		m.logger.Error("archive cleanup: list failed", log.String("dir", archiveDir), log.Err(err))
		return 0, err
	}
	if total <= r.HighWatermark {
		return 0, nil
	}

	var freed int64
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if total <= r.LowWatermark {
			break
		}
		if err := m.fs.Remove(f.path); err != nil {
			m.logger.Error("archive cleanup: remove failed", log.String("file", f.path), log.Err(err))
			continue
		}
		total -= f.size
		freed += f.size
	}

	if freed > 0 {
		m.logger.Info("archive cleanup completed",
			log.String("dir", archiveDir),
			log.Int64("bytes_freed", freed),
			log.Int64("bytes_kept", total))
	}
	return freed, ctx.Err()
}

// listArchived returns the regular files in archiveDir, oldest first, and
// their total size.
func (m *Manager) listArchived(archiveDir string) ([]archived, int64, error) {
	f, err := m.fs.Open(archiveDir)
	if err != nil {
		return nil, 0, err
	}
	infos, err := f.Readdir(-1)
	f.Close()
	if err != nil {
		return nil, 0, err
	}

	var total int64
	out := make([]archived, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		out = append(out, archived{
			path: filepath.Join(archiveDir, info.Name()),
			size: info.Size(),
			mod:  info.ModTime().UnixNano(),
		})
		total += info.Size()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].mod != out[j].mod {
			return out[i].mod < out[j].mod
		}
		return out[i].path < out[j].path
	})
	return out, total, nil
}
