package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const stateFileName = "rejections.json"

// FileRepository implements Repository using a JSON file.
type FileRepository struct {
	fs  afero.Fs
	dir string
}

// NewFileRepository creates a FileRepository storing its file in dir.
// A nil fs means the OS filesystem.
func NewFileRepository(fs afero.Fs, dir string) *FileRepository {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileRepository{fs: fs, dir: dir}
}

// Load retrieves the last saved state from disk.
// Returns an empty state and nil error if no state file exists.
func (r *FileRepository) Load(ctx context.Context) (State, error) {
	data, err := afero.ReadFile(r.fs, r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode state %s: %w", r.Path(), err)
	}
	return state, nil
}

// Save persists the state atomically: write to a temp file, then rename.
func (r *FileRepository) Save(ctx context.Context, state State) error {
	if err := r.fs.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return r.fs.Rename(tmp, path)
}

// Path returns the full path to the state file.
func (r *FileRepository) Path() string {
	return filepath.Join(r.dir, stateFileName)
}
