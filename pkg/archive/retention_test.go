package archive

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedArchives writes n files of size bytes each into /in/Archives, the
// first being the oldest.
func seedArchives(t *testing.T, fs afero.Fs, n, size int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		p := fmt.Sprintf("/in/Archives/run%02d.csv", i)
		writeFile(t, fs, p, strings.Repeat("x", size))
		mod := t0.Add(time.Duration(i) * time.Minute)
		require.NoError(t, fs.Chtimes(p, mod, mod))
		paths = append(paths, p)
	}
	return paths
}

func TestPrune_RemovesOldestDownToLowWatermark(t *testing.T) {
	fs := afero.NewMemMapFs()
	paths := seedArchives(t, fs, 5, 100)

	freed, err := newTestManager(fs).Prune(context.Background(), "/in", Retention{HighWatermark: 400, LowWatermark: 250})
	require.NoError(t, err)
	assert.Equal(t, int64(300), freed)

	for i, p := range paths {
		exists, _ := afero.Exists(fs, p)
		assert.Equal(t, i >= 3, exists, p)
	}
}

func TestPrune_BelowHighWatermarkKeepsEverything(t *testing.T) {
	fs := afero.NewMemMapFs()
	paths := seedArchives(t, fs, 3, 100)

	freed, err := newTestManager(fs).Prune(context.Background(), "/in", Retention{HighWatermark: 300, LowWatermark: 100})
	require.NoError(t, err)
	assert.Zero(t, freed)
	for _, p := range paths {
		exists, _ := afero.Exists(fs, p)
		assert.True(t, exists, p)
	}
}

func TestPrune_LeavesRejectedAlone(t *testing.T) {
	fs := afero.NewMemMapFs()
	seedArchives(t, fs, 4, 100)
	writeFile(t, fs, "/in/Rejected/bad.csv", strings.Repeat("y", 1000))

	_, err := newTestManager(fs).Prune(context.Background(), "/in", Retention{HighWatermark: 200, LowWatermark: 0})
	require.NoError(t, err)

	exists, _ := afero.Exists(fs, "/in/Rejected/bad.csv")
	assert.True(t, exists)
	left, err := afero.ReadDir(fs, "/in/Archives")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestPrune_MissingDirAndDisabled(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := newTestManager(fs)

	freed, err := m.Prune(context.Background(), "/nowhere", Retention{HighWatermark: 10})
	require.NoError(t, err)
	assert.Zero(t, freed)

	seedArchives(t, fs, 2, 100)
	freed, err = m.Prune(context.Background(), "/in", Retention{})
	require.NoError(t, err)
	assert.Zero(t, freed)
}

func TestRetention_Validate(t *testing.T) {
	assert.NoError(t, Retention{}.Validate())
	assert.NoError(t, Retention{HighWatermark: 10, LowWatermark: 5}.Validate())
	assert.Error(t, Retention{HighWatermark: 10, LowWatermark: 10}.Validate())
	assert.Error(t, Retention{HighWatermark: -1}.Validate())
}
