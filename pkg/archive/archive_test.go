package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/lifecycle"
)

var t0 = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

func newTestManager(fs afero.Fs) *Manager {
	return NewManager(WithFs(fs), WithClock(lifecycle.NewFakeClock(t0)))
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestArchive_MovesVerifiedCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/Sample_GLMXC_NGS.csv", "well,rlu\nA1,1200\n")

	rec, err := newTestManager(fs).Archive("/in/Sample_GLMXC_NGS.csv")
	require.NoError(t, err)
	assert.True(t, rec.OK())

	want := "/in/Archives/Sample_GLMXC_NGS_01_Mar_2024__12_30_45.csv"
	assert.Equal(t, want, rec.Destination)
	assert.Equal(t, int64(17), rec.Bytes)
	assert.Len(t, rec.Digest, 64)
	assert.Equal(t, t0, rec.ArchivedAt)

	got, err := afero.ReadFile(fs, want)
	require.NoError(t, err)
	assert.Equal(t, "well,rlu\nA1,1200\n", string(got))

	exists, _ := afero.Exists(fs, "/in/Sample_GLMXC_NGS.csv")
	assert.False(t, exists, "source must be removed after a verified copy")
}

func TestArchive_SameSecondCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := newTestManager(fs)

	writeFile(t, fs, "/in/run.csv", "first")
	first, err := m.Archive("/in/run.csv")
	require.NoError(t, err)

	writeFile(t, fs, "/in/run.csv", "second")
	second, err := m.Archive("/in/run.csv")
	require.NoError(t, err)

	assert.Equal(t, "/in/Archives/run_01_Mar_2024__12_30_45.csv", first.Destination)
	assert.Equal(t, "/in/Archives/run_01_Mar_2024__12_30_45_1.csv", second.Destination)

	a, _ := afero.ReadFile(fs, first.Destination)
	b, _ := afero.ReadFile(fs, second.Destination)
	assert.Equal(t, "first", string(a))
	assert.Equal(t, "second", string(b))
}

func TestArchive_EmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/empty.csv", "")

	rec, err := newTestManager(fs).Archive("/in/empty.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Bytes)
}

func TestArchive_MissingSource(t *testing.T) {
	_, err := newTestManager(afero.NewMemMapFs()).Archive("/in/none.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestArchive_ReadOnlyKeepsSource(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/in/run.csv", "data")

	rec, err := newTestManager(afero.NewReadOnlyFs(base)).Archive("/in/run.csv")
	require.Error(t, err)
	assert.False(t, rec.OK())

	got, err := afero.ReadFile(base, "/in/run.csv")
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

// shortFs silently drops the second half of every write to files it
// creates, which the size check must catch.
type shortFs struct{ afero.Fs }

func (s shortFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := s.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&os.O_CREATE == 0 {
		return f, err
	}
	return shortFile{f}, nil
}

type shortFile struct{ afero.File }

func (f shortFile) Write(p []byte) (int, error) {
	if _, err := f.File.Write(p[:len(p)/2]); err != nil {
		return 0, err
	}
	return len(p), nil
}

func TestArchive_VerificationFailureRemovesPartialCopy(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/in/run.csv", "0123456789")

	rec, err := newTestManager(shortFs{base}).Archive("/in/run.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMismatch))
	assert.Empty(t, rec.Destination)

	entries, err := afero.ReadDir(base, "/in/Archives")
	require.NoError(t, err)
	assert.Empty(t, entries, "partial copy must be removed")

	got, _ := afero.ReadFile(base, "/in/run.csv")
	assert.Equal(t, "0123456789", string(got))
}

func blake3Sum(s string) []byte {
	sum := blake3.Sum256([]byte(s))
	return sum[:]
}

func TestArchiveSent_MatchingContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/run.csv", "well,rlu\n")

	rec, err := newTestManager(fs).ArchiveSent("/in/run.csv", Sent{Bytes: 9, Digest: blake3Sum("well,rlu\n")})
	require.NoError(t, err)
	assert.True(t, rec.OK())
	exists, _ := afero.Exists(fs, "/in/run.csv")
	assert.False(t, exists)
}

func TestArchiveSent_SourceChangedKeepsSource(t *testing.T) {
	tests := []struct {
		name string
		sent Sent
	}{
		{"grew after send", Sent{Bytes: 9, Digest: blake3Sum("well,rlu\n")}},
		{"same size, other bytes", Sent{Bytes: 17, Digest: blake3Sum("well,rlu\nA1,9999\n")}},
		{"size only", Sent{Bytes: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, "/in/run.csv", "well,rlu\nA1,1200\n")

			rec, err := newTestManager(fs).ArchiveSent("/in/run.csv", tt.sent)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSourceChanged), "%v", err)
			assert.True(t, errors.Is(err, domain.ErrIO))
			assert.False(t, rec.OK())

			entries, err := afero.ReadDir(fs, "/in/Archives")
			require.NoError(t, err)
			assert.Empty(t, entries)
			got, _ := afero.ReadFile(fs, "/in/run.csv")
			assert.Equal(t, "well,rlu\nA1,1200\n", string(got))
		})
	}
}

func TestReject_MovesToRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/in/random.csv", "x")

	rec, err := newTestManager(fs).Reject("/in/random.csv")
	require.NoError(t, err)
	assert.Equal(t, "/in/Rejected/random_01_Mar_2024__12_30_45.csv", rec.Destination)
}

func TestStampedName(t *testing.T) {
	local := time.Date(2024, 3, 1, 13, 30, 45, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "run_01_Mar_2024__12_30_45.csv", stampedName("run.csv", local, 0))
	assert.Equal(t, "noext_01_Mar_2024__12_30_45_2", stampedName("noext", local, 2))
	assert.Equal(t, "a.b_01_Mar_2024__12_30_45.csv", stampedName("a.b.csv", local, 0))
}
