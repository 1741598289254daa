package state

import "time"

// State is the persisted rejection ledger.
type State struct {
	// Rejections is keyed by the source file's absolute path.
	Rejections map[string]Rejection `json:"rejections"`

	// UpdatedAt is the time of the last change.
	UpdatedAt time.Time `json:"updated_at"`
}

// Rejection records how often a file was refused by the server.
type Rejection struct {
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// Reject records one more rejection of path at now and returns the new count.
func (s *State) Reject(path string, now time.Time) int {
	if s.Rejections == nil {
		s.Rejections = make(map[string]Rejection)
	}
	r := s.Rejections[path]
	if r.Count == 0 {
		r.First = now
	}
	r.Count++
	r.Last = now
	s.Rejections[path] = r
	s.UpdatedAt = now
	return r.Count
}

// Count returns the recorded rejections of path.
func (s *State) Count(path string) int {
	return s.Rejections[path].Count
}

// Forget drops path from the ledger and reports whether it was present.
func (s *State) Forget(path string) bool {
	if _, ok := s.Rejections[path]; !ok {
		return false
	}
	delete(s.Rejections, path)
	return true
}

// Prune drops every entry for which keep returns false and returns the
// number dropped. The watcher prunes files that disappeared from disk.
func (s *State) Prune(keep func(path string) bool) int {
	n := 0
	for p := range s.Rejections {
		if !keep(p) {
			delete(s.Rejections, p)
			n++
		}
	}
	return n
}
