package domain

import (
	"path/filepath"
	"time"
)

// SourceFile is an eligible file found by a watcher scan.
// It is consumed by exactly one transfer attempt per cycle.
type SourceFile struct {
	// Path is the absolute or watcher-relative path of the file.
	Path string

	// Name is the base name sent on the wire.
	Name string

	// Dir is the watched directory the file was found in.
	Dir string

	Size         int64
	DiscoveredAt time.Time
}

// NewSourceFile derives Name and Dir from path.
func NewSourceFile(path string, size int64, at time.Time) SourceFile {
	return SourceFile{
		Path:         path,
		Name:         filepath.Base(path),
		Dir:          filepath.Dir(path),
		Size:         size,
		DiscoveredAt: at,
	}
}

// Destination is the resolved server-side location of a routed file.
type Destination struct {
	GroupID string
	Type    string

	// Dir is <root>/<group>/<sub_path>.
	Dir string

	// Path is Dir joined with the filename.
	Path string
}

// ArchiveRecord is the outcome of one archive or dead-letter relocation.
// It is logged, never persisted.
type ArchiveRecord struct {
	Source      string
	Destination string
	Bytes       int64
	Digest      string
	ArchivedAt  time.Time
	Err         error
}

// OK reports whether the relocation completed and the source was removed.
func (r ArchiveRecord) OK() bool { return r.Err == nil }
