package state

import "context"

// Repository handles ledger persistence.
type Repository interface {
	// Load retrieves the last saved state.
	// Returns an empty state and nil error if no state exists.
	Load(ctx context.Context) (State, error)

	// Save persists the state atomically.
	Save(ctx context.Context, state State) error
}

// MemoryRepository keeps the state in memory. It is used when no state
// directory is configured.
type MemoryRepository struct {
	state State
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (r *MemoryRepository) Load(ctx context.Context) (State, error) {
	return clone(r.state), nil
}

func (r *MemoryRepository) Save(ctx context.Context, state State) error {
	r.state = clone(state)
	return nil
}

func clone(s State) State {
	out := State{UpdatedAt: s.UpdatedAt}
	if s.Rejections != nil {
		out.Rejections = make(map[string]Rejection, len(s.Rejections))
		for k, v := range s.Rejections {
			out.Rejections[k] = v
		}
	}
	return out
}
