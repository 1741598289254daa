package archive

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/lifecycle"
	"github.com/bft-labs/labship/pkg/log"
)

const (
	// ArchiveDir holds successfully shipped files, beside the watched files.
	ArchiveDir = "Archives"

	// RejectDir holds files the server refused too often.
	RejectDir = "Rejected"

	// TimestampLayout is the suffix added before the extension, in UTC.
	TimestampLayout = "02_Jan_2006__15_04_05"

	// maxCollisions bounds the _1, _2, ... suffixes tried for one name.
	maxCollisions = 1000
)

// Manager relocates files. It is safe for sequential use by one watcher.
type Manager struct {
	fs     afero.Fs
	clock  lifecycle.Clock
	logger log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithFs sets the filesystem. Default is the OS filesystem.
func WithFs(fs afero.Fs) Option { return func(m *Manager) { m.fs = fs } }

// WithClock sets the clock used for timestamps.
func WithClock(c lifecycle.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option { return func(m *Manager) { m.logger = l } }

// NewManager returns a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		fs:     afero.NewOsFs(),
		clock:  lifecycle.RealClock(),
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Archive moves path into the sibling Archives directory under a
// timestamped name. The returned record carries the same error as the
// second return value.
func (m *Manager) Archive(path string) (domain.ArchiveRecord, error) {
	return m.relocate("archive", path, ArchiveDir, nil)
}

// Sent describes what a transfer delivered. A nil Digest compares the
// byte count only.
type Sent struct {
	Bytes  int64
	Digest []byte
}

// ArchiveSent is Archive for a file that was just shipped. If the file no
// longer matches what was sent, e.g. because the instrument was still
// writing it, the copy is dropped, the source stays and the error wraps
// ErrSourceChanged.
func (m *Manager) ArchiveSent(path string, sent Sent) (domain.ArchiveRecord, error) {
	return m.relocate("archive", path, ArchiveDir, &sent)
}

// Reject moves path into the sibling Rejected directory.
func (m *Manager) Reject(path string) (domain.ArchiveRecord, error) {
	return m.relocate("reject", path, RejectDir, nil)
}

// Name returns the timestamped base name for base at the manager's
// current time, without collision suffix.
func (m *Manager) Name(base string) string {
	return stampedName(base, m.clock.Now(), 0)
}

func (m *Manager) relocate(op, path, sub string, sent *Sent) (domain.ArchiveRecord, error) {
	now := m.clock.Now()
	rec := domain.ArchiveRecord{Source: path, ArchivedAt: now}
	fail := func(err error) (domain.ArchiveRecord, error) {
		rec.Err = err
		m.logger.Error(op+" failed",
			log.String("file", path),
			log.String("dest", rec.Destination),
			log.Err(err))
		return rec, err
	}

	info, err := m.fs.Stat(path)
	if err != nil {
		return fail(domain.NewError(domain.KindIO, op, path, err))
	}
	if !info.Mode().IsRegular() {
		return fail(domain.Errorf(domain.KindIO, op, path, "not a regular file"))
	}

	dir := filepath.Join(filepath.Dir(path), sub)
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return fail(domain.NewError(domain.KindIO, op, dir, err))
	}

	dst, name, err := m.createExclusive(dir, filepath.Base(path), now)
	if err != nil {
		return fail(domain.NewError(domain.KindIO, op, path, err))
	}
	rec.Destination = name

	n, digest, err := m.copyInto(dst, path)
	rec.Bytes = n
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = m.verify(name, info.Size(), n, digest)
	}
	if err == nil && sent != nil {
		err = sent.match(n, digest)
	}
	if err != nil {
		if rerr := m.fs.Remove(name); rerr != nil && !os.IsNotExist(rerr) {
			m.logger.Warn("could not remove partial copy", log.String("dest", name), log.Err(rerr))
		}
		rec.Destination = ""
		return fail(domain.NewError(domain.KindIO, op, path, err))
	}
	rec.Digest = hex.EncodeToString(digest)

	if err := m.fs.Remove(path); err != nil {
		// The verified copy stays; the source will be shipped again.
		return fail(domain.NewError(domain.KindIO, op, path, fmt.Errorf("remove source: %w", err)))
	}

	m.logger.Info("file relocated",
		log.String("op", op),
		log.String("file", path),
		log.String("dest", name),
		log.Int64("bytes", n),
		log.String("blake3", rec.Digest))
	return rec, nil
}

// createExclusive creates a new file for base in dir, adding _1, _2, ...
// before the extension while the name is taken.
func (m *Manager) createExclusive(dir, base string, at time.Time) (afero.File, string, error) {
	for i := 0; i < maxCollisions; i++ {
		name := filepath.Join(dir, stampedName(base, at, i))
		f, err := m.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s after %d attempts", base, dir, maxCollisions)
}

func (m *Manager) copyInto(dst io.Writer, path string) (int64, []byte, error) {
	src, err := m.fs.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer src.Close()

	h := blake3.New()
	n, err := io.Copy(io.MultiWriter(dst, h), src)
	if err != nil {
		return n, nil, err
	}
	return n, h.Sum(nil), nil
}

var errMismatch = errors.New("archive copy does not match source")

// ErrSourceChanged reports a source that differs from the bytes shipped.
var ErrSourceChanged = errors.New("source changed since it was sent")

func (s *Sent) match(n int64, digest []byte) error {
	if n != s.Bytes {
		return fmt.Errorf("%w: %d bytes on disk, %d sent", ErrSourceChanged, n, s.Bytes)
	}
	if s.Digest != nil && !bytes.Equal(digest, s.Digest) {
		return fmt.Errorf("%w: digest differs", ErrSourceChanged)
	}
	return nil
}

func (m *Manager) verify(name string, srcSize, copied int64, digest []byte) error {
	info, err := m.fs.Stat(name)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if info.Size() != srcSize || copied != srcSize {
		return fmt.Errorf("%w: size %d, source %d", errMismatch, info.Size(), srcSize)
	}
	got, err := m.digest(name)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !bytes.Equal(got, digest) {
		return fmt.Errorf("%w: digest differs", errMismatch)
	}
	return nil
}

func (m *Manager) digest(name string) ([]byte, error) {
	f, err := m.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// stampedName turns "run.csv" into "run_01_Mar_2024__12_00_00.csv", or with
// n > 0 into "run_01_Mar_2024__12_00_00_n.csv".
func stampedName(base string, at time.Time, n int) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := stem + "_" + at.UTC().Format(TimestampLayout)
	if n > 0 {
		name += fmt.Sprintf("_%d", n)
	}
	return name + ext
}
