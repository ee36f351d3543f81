package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/easelhq/easel/backend/internal/board"
)

// Event types sent by clients.
const (
	EventJoin     = "join"
	EventDraw     = "draw"
	EventUpdate   = "update"
	EventViewport = "viewport"
	EventClear    = "clear"
)

// Event types sent by the server.
const (
	EventSnapshot        = "snapshot"
	EventElementAdded    = "elementAdded"
	EventElementUpdated  = "elementUpdated"
	EventBoardCleared    = "boardCleared"
	EventPresenceList    = "presenceList"
	EventUserJoined      = "userJoined"
	EventUserLeft        = "userLeft"
	EventViewportChanged = "viewportChanged"
	EventError           = "error"
)

var ErrMalformed = errors.New("malformed event")

// Viewport is a client's pan/zoom state. It is relayed, never stored.
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// User is one entry of a presence list.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Inbound is the tagged envelope every client frame decodes into. Frames
// with an unknown type or missing required fields are rejected here and
// never reach the board registry.
type Inbound struct {
	Type      string         `json:"type"`
	BoardID   string         `json:"boardId"`
	Element   *board.Element `json:"element,omitempty"`
	ElementID string         `json:"elementId,omitempty"`
	Fields    *board.Patch   `json:"fields,omitempty"`
	Viewport  *Viewport      `json:"viewport,omitempty"`
}

// ParseInbound decodes and validates one client frame.
func ParseInbound(data []byte) (*Inbound, error) {
	var ev Inbound
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.BoardID == "" {
		return nil, fmt.Errorf("%w: missing boardId", ErrMalformed)
	}

	switch ev.Type {
	case EventJoin, EventClear:
	case EventDraw:
		if ev.Element == nil {
			return nil, fmt.Errorf("%w: draw without element", ErrMalformed)
		}
		if err := ev.Element.Validate(); err != nil {
			return nil, err
		}
	case EventUpdate:
		if ev.ElementID == "" {
			return nil, fmt.Errorf("%w: update without elementId", ErrMalformed)
		}
		if ev.Fields == nil || ev.Fields.IsZero() {
			return nil, fmt.Errorf("%w: update without fields", ErrMalformed)
		}
	case EventViewport:
		if ev.Viewport == nil {
			return nil, fmt.Errorf("%w: viewport event without viewport state", ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformed, ev.Type)
	}
	return &ev, nil
}

type snapshotEvent struct {
	Type     string          `json:"type"`
	Elements []board.Element `json:"elements"`
}

type elementAddedEvent struct {
	Type    string        `json:"type"`
	Element board.Element `json:"element"`
}

type elementUpdatedEvent struct {
	Type      string       `json:"type"`
	ElementID string       `json:"elementId"`
	Fields    *board.Patch `json:"fields"`
}

type typeOnlyEvent struct {
	Type string `json:"type"`
}

type presenceEvent struct {
	Type  string `json:"type"`
	Users []User `json:"users"`
}

type userEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type viewportEvent struct {
	Type     string    `json:"type"`
	Viewport *Viewport `json:"viewport"`
	FromID   string    `json:"fromId"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("ws: marshal outbound event: %v", err))
	}
	return b
}

func snapshotMsg(elements []board.Element) []byte {
	if elements == nil {
		elements = []board.Element{}
	}
	return mustMarshal(snapshotEvent{Type: EventSnapshot, Elements: elements})
}

func elementAddedMsg(el board.Element) []byte {
	return mustMarshal(elementAddedEvent{Type: EventElementAdded, Element: el})
}

func elementUpdatedMsg(elementID string, fields *board.Patch) []byte {
	return mustMarshal(elementUpdatedEvent{Type: EventElementUpdated, ElementID: elementID, Fields: fields})
}

func boardClearedMsg() []byte {
	return mustMarshal(typeOnlyEvent{Type: EventBoardCleared})
}

func presenceMsg(users []User) []byte {
	if users == nil {
		users = []User{}
	}
	return mustMarshal(presenceEvent{Type: EventPresenceList, Users: users})
}

func userJoinedMsg(id, name string) []byte {
	return mustMarshal(userEvent{Type: EventUserJoined, ID: id, Name: name})
}

func userLeftMsg(id string) []byte {
	return mustMarshal(userEvent{Type: EventUserLeft, ID: id})
}

func viewportChangedMsg(v *Viewport, fromID string) []byte {
	return mustMarshal(viewportEvent{Type: EventViewportChanged, Viewport: v, FromID: fromID})
}

func errorMsg(message string) []byte {
	return mustMarshal(errorEvent{Type: EventError, Message: message})
}
