package board

import (
	"errors"
	"sync"
)

var ErrBoardFull = errors.New("board element limit reached")

// Room is the authoritative in-memory state for one board: the ordered
// element list and the set of joined sessions. Element order is arrival
// order at the server; updates patch in place and never reorder. All
// mutations go through the room's own mutex, and the lock is never held
// across a network send.
type Room struct {
	ID string

	maxElements int
	seed        sync.Once

	mu       sync.RWMutex
	elements []Element
	sessions map[string]struct{}
	dirty    bool
}

func newRoom(id string, maxElements int) *Room {
	return &Room{
		ID:          id,
		maxElements: maxElements,
		elements:    make([]Element, 0),
		sessions:    make(map[string]struct{}),
	}
}

// Seed populates the element list from the last durable snapshot. The
// loader runs at most once per room incarnation; concurrent first joiners
// block here until it completes, so no snapshot ever misses the seeded
// elements.
func (r *Room) Seed(load func() []Element) {
	r.seed.Do(func() {
		els := load()
		if len(els) == 0 {
			return
		}
		r.mu.Lock()
		r.elements = append(r.elements, els...)
		r.mu.Unlock()
	})
}

// Append adds a new element at the end of the list.
func (r *Room) Append(el Element) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxElements > 0 && len(r.elements) >= r.maxElements {
		return ErrBoardFull
	}
	r.elements = append(r.elements, el)
	r.dirty = true
	return nil
}

// Update patches the element with the given id in place, reporting whether
// it was found. A miss is not an error for the registry; the caller decides
// how loudly to complain.
func (r *Room) Update(elementID string, p Patch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.elements {
		if r.elements[i].ID == elementID {
			p.apply(&r.elements[i])
			r.dirty = true
			return true
		}
	}
	return false
}

// Clear removes every element.
func (r *Room) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements = make([]Element, 0)
	r.dirty = true
}

// Snapshot returns a copy of the element list in server-processing order.
func (r *Room) Snapshot() []Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	els := make([]Element, len(r.elements))
	copy(els, r.elements)
	return els
}

func (r *Room) ElementCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}

// DirtySnapshot returns a copy of the element list and clears the dirty
// flag when the room has unsaved changes. The second return is false when
// nothing changed since the last save.
func (r *Room) DirtySnapshot() ([]Element, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil, false
	}
	r.dirty = false
	els := make([]Element, len(r.elements))
	copy(els, r.elements)
	return els, true
}

// MarkDirty restores the dirty flag, used when a save attempt fails so the
// next interval retries.
func (r *Room) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// MarkClean drops the dirty flag after an out-of-band save of the full
// element list.
func (r *Room) MarkClean() {
	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()
}

// AddSession adds a session id to the room's membership set.
func (r *Room) AddSession(sessionID string) {
	r.mu.Lock()
	r.sessions[sessionID] = struct{}{}
	r.mu.Unlock()
}

// RemoveSession drops a session id and returns how many remain.
func (r *Room) RemoveSession(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return len(r.sessions)
}

// Sessions returns the ids of the currently joined sessions.
func (r *Room) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (r *Room) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
