package board

import (
	"errors"
	"sync"
)

var ErrTooManyBoards = errors.New("active board limit reached")

// Registry owns the boardID → Room mapping. It is the only state shared
// across every connection; each room guards its own contents, so the
// registry lock covers membership of the map and nothing else.
type Registry struct {
	maxBoards   int
	maxElements int

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry. maxBoards and maxElementsPerBoard
// bound memory growth; zero disables the respective limit.
func NewRegistry(maxBoards, maxElementsPerBoard int) *Registry {
	return &Registry{
		maxBoards:   maxBoards,
		maxElements: maxElementsPerBoard,
		rooms:       make(map[string]*Room),
	}
}

// GetOrCreate returns the room for boardID, creating an empty one if
// absent. Two simultaneous first joiners always resolve to the same Room
// instance. Creation does not touch persistence; callers seed the room via
// Room.Seed.
func (g *Registry) GetOrCreate(boardID string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[boardID]; ok {
		return room, nil
	}
	if g.maxBoards > 0 && len(g.rooms) >= g.maxBoards {
		return nil, ErrTooManyBoards
	}
	room := newRoom(boardID, g.maxElements)
	g.rooms[boardID] = room
	return room, nil
}

// Get returns the room for boardID if it is active.
func (g *Registry) Get(boardID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[boardID]
	return room, ok
}

// Remove evicts the room for boardID. The eviction is skipped if a session
// joined between the caller's emptiness check and this call.
func (g *Registry) Remove(boardID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[boardID]
	if !ok {
		return
	}
	if room.SessionCount() > 0 {
		return
	}
	delete(g.rooms, boardID)
}

// Count returns the number of active rooms.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Rooms returns the active rooms. The slice is a copy; the rooms are live.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// ActiveBoards maps each active board id to its joined session count.
func (g *Registry) ActiveBoards() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	counts := make(map[string]int, len(g.rooms))
	for id, room := range g.rooms {
		counts[id] = room.SessionCount()
	}
	return counts
}
