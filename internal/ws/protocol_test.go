package ws

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/easelhq/easel/backend/internal/board"
)

func TestParseInboundValid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		typ  string
	}{
		{"join", `{"type":"join","boardId":"b1"}`, EventJoin},
		{"clear", `{"type":"clear","boardId":"b1"}`, EventClear},
		{"draw pencil", `{"type":"draw","boardId":"b1","element":{"id":"e1","tool":"pencil","points":[0,0,5,5]}}`, EventDraw},
		{"draw rectangle", `{"type":"draw","boardId":"b1","element":{"id":"e1","tool":"rectangle","x":10,"y":20,"width":30,"height":40}}`, EventDraw},
		{"draw text", `{"type":"draw","boardId":"b1","element":{"id":"e1","tool":"text","x":1,"y":2,"text":"hi"}}`, EventDraw},
		{"update", `{"type":"update","boardId":"b1","elementId":"e1","fields":{"width":60}}`, EventUpdate},
		{"viewport", `{"type":"viewport","boardId":"b1","viewport":{"x":0,"y":0,"scale":1}}`, EventViewport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseInbound([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Expected valid event, got error: %v", err)
			}
			if ev.Type != tc.typ {
				t.Errorf("Expected type %s, got %s", tc.typ, ev.Type)
			}
			if ev.BoardID != "b1" {
				t.Errorf("Expected boardId b1, got %s", ev.BoardID)
			}
		})
	}
}

func TestParseInboundRejected(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `not json at all`},
		{"unknown type", `{"type":"teleport","boardId":"b1"}`},
		{"missing boardId", `{"type":"join"}`},
		{"draw without element", `{"type":"draw","boardId":"b1"}`},
		{"draw unknown tool", `{"type":"draw","boardId":"b1","element":{"id":"e1","tool":"spray","points":[0,0]}}`},
		{"draw pencil odd points", `{"type":"draw","boardId":"b1","element":{"id":"e1","tool":"pencil","points":[0,0,5]}}`},
		{"draw rectangle without box", `{"type":"draw","boardId":"b1","element":{"id":"e1","tool":"rectangle"}}`},
		{"update without elementId", `{"type":"update","boardId":"b1","fields":{"width":60}}`},
		{"update without fields", `{"type":"update","boardId":"b1","elementId":"e1"}`},
		{"update with empty fields", `{"type":"update","boardId":"b1","elementId":"e1","fields":{}}`},
		{"viewport without state", `{"type":"viewport","boardId":"b1"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseInbound([]byte(tc.raw)); err == nil {
				t.Errorf("Expected %s to be rejected", tc.raw)
			}
		})
	}
}

func TestParseInboundMalformedWrapsSentinel(t *testing.T) {
	_, err := ParseInbound([]byte(`{"type":"join"}`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestSnapshotMsgNeverNull(t *testing.T) {
	raw := snapshotMsg(nil)
	if strings.Contains(string(raw), `"elements":null`) {
		t.Errorf("Empty snapshot must serialize as [], got %s", raw)
	}

	var decoded struct {
		Type     string          `json:"type"`
		Elements []board.Element `json:"elements"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if decoded.Type != EventSnapshot {
		t.Errorf("Expected type %s, got %s", EventSnapshot, decoded.Type)
	}
}

func TestPresenceMsgNeverNull(t *testing.T) {
	raw := presenceMsg(nil)
	if strings.Contains(string(raw), `"users":null`) {
		t.Errorf("Empty presence list must serialize as [], got %s", raw)
	}
}

func TestElementUpdatedMsgShape(t *testing.T) {
	w := 60.0
	raw := elementUpdatedMsg("e1", &board.Patch{Width: &w})

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if string(decoded["type"]) != `"elementUpdated"` {
		t.Errorf("Unexpected type field: %s", decoded["type"])
	}
	if string(decoded["elementId"]) != `"e1"` {
		t.Errorf("Unexpected elementId field: %s", decoded["elementId"])
	}
	if _, ok := decoded["fields"]; !ok {
		t.Error("Expected a fields object")
	}
}

func TestUserLeftMsgOmitsName(t *testing.T) {
	raw := userLeftMsg("s1")
	if strings.Contains(string(raw), "name") {
		t.Errorf("userLeft should not carry a name, got %s", raw)
	}
}
