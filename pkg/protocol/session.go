package protocol

import (
	"fmt"

	"github.com/bft-labs/labship/internal/domain"
)

// State is the progress of one transfer session.
type State int

const (
	StateIdle State = iota
	// StateNameSent: the client has written FILE_NAME and awaits the reply.
	StateNameSent
	// StateAwaitName: the server has accepted and awaits FILE_NAME.
	StateAwaitName
	StateNameAcked
	StateStreaming
	StateDataAcked
	StateClosed
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateNameSent:
		return "NameSent"
	case StateAwaitName:
		return "AwaitName"
	case StateNameAcked:
		return "NameAcked"
	case StateStreaming:
		return "Streaming"
	case StateDataAcked:
		return "DataAcked"
	case StateClosed:
		return "Closed"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Role selects which half of the protocol a Session tracks.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Session tracks one connection's state. Every state may move to
// StateError; Closed and Error are terminal. A Session belongs to the
// goroutine running its Send or Receive and is not safe for concurrent use.
type Session struct {
	role  Role
	state State
	name  string
	err   error
}

// NewSession returns a session in StateIdle.
func NewSession(role Role) *Session {
	return &Session{role: role, state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Name returns the filename once the handshake has been sent or read.
func (s *Session) Name() string {
	return s.name
}

// Err returns the error that moved the session to StateError.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) next() State {
	switch s.state {
	case StateIdle:
		if s.role == RoleClient {
			return StateNameSent
		}
		return StateAwaitName
	case StateNameSent, StateAwaitName:
		return StateNameAcked
	case StateNameAcked:
		return StateStreaming
	case StateStreaming:
		return StateDataAcked
	case StateDataAcked:
		return StateClosed
	}
	return StateError
}

// Advance moves to the next state of the session's role. to must be that
// state; anything else is a protocol error and leaves the session in
// StateError.
func (s *Session) Advance(to State) error {
	if s.state == StateClosed || s.state == StateError || s.next() != to {
		err := domain.Errorf(domain.KindProtocol, "session", s.name, "invalid transition %s -> %s", s.state, to)
		s.state, s.err = StateError, err
		return err
	}
	s.state = to
	return nil
}

// Fail moves the session to StateError and returns err.
func (s *Session) Fail(err error) error {
	if s.state != StateError {
		s.state, s.err = StateError, err
	}
	return err
}

func (s *Session) setName(name string) {
	s.name = name
}

func (s *Session) String() string {
	return fmt.Sprintf("session(%s, %s)", s.Name(), s.State())
}
