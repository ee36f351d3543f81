package session

import "testing"

func TestNewSession(t *testing.T) {
	s := New()
	if s.ID == "" {
		t.Error("Session should have a connection id")
	}
	if s.State() != StateConnected {
		t.Errorf("Expected StateConnected, got %v", s.State())
	}
	if s.BoardID() != "" {
		t.Errorf("New session should not be joined, got %q", s.BoardID())
	}
}

func TestNameFallback(t *testing.T) {
	s := New()
	if s.Name() != AnonymousName {
		t.Errorf("Expected %q before resolution, got %q", AnonymousName, s.Name())
	}

	s.SetName("")
	if s.Name() != AnonymousName {
		t.Error("Empty name should be ignored")
	}

	s.SetName("Ada")
	if s.Name() != "Ada" {
		t.Errorf("Expected Ada, got %q", s.Name())
	}
}

func TestJoinReturnsPreviousBoard(t *testing.T) {
	s := New()

	prev, err := s.Join("b1")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if prev != "" {
		t.Errorf("First join should report no previous board, got %q", prev)
	}
	if s.State() != StateJoined || s.BoardID() != "b1" {
		t.Errorf("Expected joined to b1, got state=%v board=%q", s.State(), s.BoardID())
	}

	prev, err = s.Join("b2")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if prev != "b1" {
		t.Errorf("Second join should report b1, got %q", prev)
	}
}

func TestLeave(t *testing.T) {
	s := New()
	s.Join("b1")

	boardID, left := s.Leave()
	if !left || boardID != "b1" {
		t.Errorf("Expected to leave b1, got %q left=%v", boardID, left)
	}
	if s.State() != StateConnected {
		t.Errorf("Expected StateConnected after leave, got %v", s.State())
	}

	if _, left := s.Leave(); left {
		t.Error("Second leave should be a no-op")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New()
	s.Join("b1")

	boardID, wasJoined := s.Close()
	if !wasJoined || boardID != "b1" {
		t.Errorf("First close should report b1, got %q joined=%v", boardID, wasJoined)
	}

	if _, wasJoined := s.Close(); wasJoined {
		t.Error("Second close must be a no-op")
	}
	if s.State() != StateClosed {
		t.Errorf("Expected StateClosed, got %v", s.State())
	}
}

func TestJoinAfterCloseFails(t *testing.T) {
	s := New()
	s.Close()

	if _, err := s.Join("b1"); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
