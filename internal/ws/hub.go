package ws

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/easelhq/easel/backend/internal/board"
	"github.com/easelhq/easel/backend/internal/identity"
	"github.com/easelhq/easel/backend/internal/metrics"
	"github.com/easelhq/easel/backend/internal/session"
	"github.com/easelhq/easel/backend/internal/store"
)

const loadTimeout = 5 * time.Second

// RejoinPolicy decides what a join does when the session is already joined
// to a different board.
type RejoinPolicy string

const (
	// RejoinLeave implicitly leaves the current board first.
	RejoinLeave RejoinPolicy = "leave"
	// RejoinReject refuses the join and keeps the current membership.
	RejoinReject RejoinPolicy = "reject"
)

// Hub is the event broadcaster: it maps each inbound event to a registry
// operation plus its outbound fan-out, owns the set of live clients, and
// seeds rooms from the persistence bridge on first creation. Event handlers
// run on the sender's reader goroutine; per-room mutexes in the registry
// serialize mutations, and no lock is held across a send.
type Hub struct {
	registry *board.Registry
	bridge   store.Bridge
	resolver identity.Resolver
	policy   RejoinPolicy
	log      zerolog.Logger

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(registry *board.Registry, bridge store.Bridge, resolver identity.Resolver, policy RejoinPolicy, log zerolog.Logger) *Hub {
	if policy != RejoinReject {
		policy = RejoinLeave
	}
	return &Hub{
		registry:   registry,
		bridge:     bridge,
		resolver:   resolver,
		policy:     policy,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run owns client registration and disconnect cleanup until ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sess.ID] = client
			total := len(h.clients)
			h.mu.Unlock()

			metrics.ActiveClients.Set(float64(total))
			client.log.Info().Int("total", total).Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			_, known := h.clients[client.sess.ID]
			if known {
				delete(h.clients, client.sess.ID)
			}
			total := len(h.clients)
			h.mu.Unlock()

			if !known {
				continue
			}
			metrics.ActiveClients.Set(float64(total))
			close(client.done)
			h.handleDisconnect(client)

		case <-ctx.Done():
			return
		}
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// dispatch validates one inbound frame and routes it. A rejected frame
// produces an error event and a log line; the connection stays open.
func (h *Hub) dispatch(c *Client, raw []byte) {
	ev, err := ParseInbound(raw)
	if err != nil {
		metrics.EventsRejected.WithLabelValues("malformed").Inc()
		c.log.Warn().Err(err).Msg("rejected inbound event")
		c.enqueue(errorMsg(err.Error()))
		return
	}

	metrics.EventsTotal.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case EventJoin:
		h.handleJoin(c, ev.BoardID)
	case EventDraw:
		h.handleDraw(c, ev)
	case EventUpdate:
		h.handleUpdate(c, ev)
	case EventViewport:
		h.handleViewport(c, ev)
	case EventClear:
		h.handleClear(c, ev.BoardID)
	}
}

func (h *Hub) handleJoin(c *Client, boardID string) {
	prev := c.sess.BoardID()
	if prev == boardID && prev != "" {
		// Rejoining the current board just refreshes the client's view.
		if room, ok := h.registry.Get(boardID); ok {
			c.enqueue(snapshotMsg(room.Snapshot()))
			h.broadcastRoom(room, presenceMsg(h.presence(room)), "")
		}
		return
	}

	if prev != "" {
		if h.policy == RejoinReject {
			metrics.EventsRejected.WithLabelValues("already_joined").Inc()
			c.log.Warn().Str("board", boardID).Str("current", prev).Msg("join rejected, session already joined")
			c.enqueue(errorMsg("already joined to board " + prev))
			return
		}
		h.leaveBoard(c, prev)
	}

	room, err := h.registry.GetOrCreate(boardID)
	if err != nil {
		metrics.EventsRejected.WithLabelValues("capacity").Inc()
		c.log.Warn().Err(err).Str("board", boardID).Msg("join rejected")
		c.enqueue(errorMsg(err.Error()))
		return
	}

	room.Seed(func() []board.Element {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		elements, found, err := h.bridge.LoadSnapshot(ctx, boardID)
		if err != nil {
			h.log.Warn().Err(err).Str("board", boardID).Msg("snapshot load failed, starting empty")
			return nil
		}
		if !found {
			return nil
		}
		return elements
	})

	if _, err := c.sess.Join(boardID); err != nil {
		// Disconnected while joining; the unregister path cleans up.
		return
	}
	room.AddSession(c.sess.ID)
	metrics.ActiveBoards.Set(float64(h.registry.Count()))

	c.enqueue(snapshotMsg(room.Snapshot()))
	h.broadcastRoom(room, presenceMsg(h.presence(room)), "")
	h.broadcastRoom(room, userJoinedMsg(c.sess.ID, c.sess.Name()), c.sess.ID)

	c.log.Info().Str("board", boardID).Int("peers", room.SessionCount()).Msg("joined board")
}

func (h *Hub) handleDraw(c *Client, ev *Inbound) {
	room, ok := h.joinedRoom(c, ev.BoardID)
	if !ok {
		return
	}

	if err := room.Append(*ev.Element); err != nil {
		metrics.EventsRejected.WithLabelValues("capacity").Inc()
		c.log.Warn().Err(err).Str("board", ev.BoardID).Msg("draw rejected")
		c.enqueue(errorMsg(err.Error()))
		return
	}

	h.broadcastRoom(room, elementAddedMsg(*ev.Element), c.sess.ID)
}

func (h *Hub) handleUpdate(c *Client, ev *Inbound) {
	room, ok := h.joinedRoom(c, ev.BoardID)
	if !ok {
		return
	}

	if !room.Update(ev.ElementID, *ev.Fields) {
		// Nothing changed, so no broadcast; echoing a phantom update would
		// desync peers.
		c.log.Warn().Str("board", ev.BoardID).Str("element", ev.ElementID).Msg("update for unknown element dropped")
		return
	}

	h.broadcastRoom(room, elementUpdatedMsg(ev.ElementID, ev.Fields), c.sess.ID)
}

func (h *Hub) handleViewport(c *Client, ev *Inbound) {
	room, ok := h.joinedRoom(c, ev.BoardID)
	if !ok {
		return
	}
	// Viewport state is relayed, never stored.
	h.broadcastRoom(room, viewportChangedMsg(ev.Viewport, c.sess.ID), c.sess.ID)
}

func (h *Hub) handleClear(c *Client, boardID string) {
	room, ok := h.joinedRoom(c, boardID)
	if !ok {
		return
	}

	room.Clear()

	// Clear is all-inclusive: the sender also resets to the verified-empty
	// canonical state instead of trusting its optimistic local clear.
	h.broadcastRoom(room, boardClearedMsg(), "")
	c.log.Info().Str("board", boardID).Msg("board cleared")
}

// handleDisconnect runs once per connection, from the unregister path.
// Session.Close makes a second invocation a no-op.
func (h *Hub) handleDisconnect(c *Client) {
	boardID, wasJoined := c.sess.Close()
	if !wasJoined {
		return
	}
	h.removeFromBoard(c.sess.ID, boardID)
	c.log.Info().Str("board", boardID).Msg("client disconnected")
}

// leaveBoard is the implicit-leave path taken when a joined session joins
// another board.
func (h *Hub) leaveBoard(c *Client, boardID string) {
	if _, left := c.sess.Leave(); !left {
		return
	}
	h.removeFromBoard(c.sess.ID, boardID)
}

// removeFromBoard drops a session from a room, then either broadcasts the
// new presence or evicts the emptied room. An evicted board comes back
// fresh on the next join, seeded from whatever snapshot was saved.
func (h *Hub) removeFromBoard(sessionID, boardID string) {
	room, ok := h.registry.Get(boardID)
	if !ok {
		return
	}

	if room.RemoveSession(sessionID) == 0 {
		h.registry.Remove(boardID)
		metrics.ActiveBoards.Set(float64(h.registry.Count()))
		h.log.Info().Str("board", boardID).Msg("board evicted, no sessions left")
		return
	}

	h.broadcastRoom(room, userLeftMsg(sessionID), "")
	h.broadcastRoom(room, presenceMsg(h.presence(room)), "")
}

// joinedRoom enforces the joined-to-board precondition shared by draw,
// update, viewport and clear.
func (h *Hub) joinedRoom(c *Client, boardID string) (*board.Room, bool) {
	if c.sess.BoardID() != boardID {
		metrics.EventsRejected.WithLabelValues("unjoined").Inc()
		c.log.Warn().Str("board", boardID).Msg("event for a board the session has not joined")
		c.enqueue(errorMsg("not joined to board " + boardID))
		return nil, false
	}
	room, ok := h.registry.Get(boardID)
	if !ok {
		c.enqueue(errorMsg("board " + boardID + " is not active"))
		return nil, false
	}
	return room, true
}

// presence builds the current user list for a room, sorted by id for
// stable output. Names fall back to the anonymous label while identity
// resolution is still in flight.
func (h *Hub) presence(room *board.Room) []User {
	ids := room.Sessions()
	sort.Strings(ids)

	users := make([]User, 0, len(ids))
	h.mu.RLock()
	for _, id := range ids {
		name := session.AnonymousName
		if c, ok := h.clients[id]; ok {
			name = c.sess.Name()
		}
		users = append(users, User{ID: id, Name: name})
	}
	h.mu.RUnlock()
	return users
}

// broadcastRoom fans a message out to every client joined to the room,
// skipping exceptID when set. Delivery is a non-blocking enqueue.
func (h *Hub) broadcastRoom(room *board.Room, msg []byte, exceptID string) {
	ids := room.Sessions()
	h.mu.RLock()
	for _, id := range ids {
		if id == exceptID {
			continue
		}
		if c, ok := h.clients[id]; ok {
			c.enqueue(msg)
		}
	}
	h.mu.RUnlock()
}
