package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// AnonymousName is the display label used until identity resolution
// completes, or forever if it never does.
const AnonymousName = "Anonymous"

// State tracks a connection through its lifecycle. A session joins at most
// one board at a time; what happens on a second join while joined is the
// broadcaster's policy decision, the session only records membership.
type State int

const (
	StateConnected State = iota
	StateJoined
	StateClosed
)

var ErrClosed = errors.New("session closed")

// Session is one live connection's identity and room membership. The
// display name is resolved asynchronously and best-effort; a session with
// an unresolved name is fully functional.
type Session struct {
	ID string

	mu      sync.Mutex
	state   State
	boardID string
	name    string
}

// New allocates a session in the Connected state with a fresh connection id.
func New() *Session {
	return &Session{ID: uuid.NewString(), state: StateConnected}
}

// Name returns the resolved display name, or the anonymous label.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name == "" {
		return AnonymousName
	}
	return s.name
}

// SetName records the resolved display name. Empty names are ignored so a
// failed resolution cannot clobber an earlier successful one.
func (s *Session) SetName(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BoardID returns the board this session is joined to, or "".
func (s *Session) BoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardID
}

// Join records membership of boardID and returns the board the session was
// previously joined to, if any, so the caller can run its implicit-leave
// policy.
func (s *Session) Join(boardID string) (prev string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return "", ErrClosed
	}
	prev = s.boardID
	s.boardID = boardID
	s.state = StateJoined
	return prev, nil
}

// Leave clears membership without closing the session. Only the first call
// after a join reports the board that was left.
func (s *Session) Leave() (boardID string, left bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateJoined {
		return "", false
	}
	boardID = s.boardID
	s.boardID = ""
	s.state = StateConnected
	return boardID, true
}

// Close marks the session disconnected. Idempotent: only the first call
// reports a board that still needs leaving.
func (s *Session) Close() (boardID string, wasJoined bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return "", false
	}
	wasJoined = s.state == StateJoined
	boardID = s.boardID
	s.boardID = ""
	s.state = StateClosed
	return boardID, wasJoined
}
