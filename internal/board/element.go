package board

import (
	"errors"
	"fmt"
)

// Tool identifies the drawing tool that produced an element.
type Tool string

const (
	ToolPencil    Tool = "pencil"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolText      Tool = "text"
)

// Element is one drawn object. The attribute set depends on the tool:
// pencil and eraser strokes carry a flat point sequence, shapes and text
// carry a bounding box, text additionally carries content and font size.
// Numeric box fields are pointers so that zero coordinates survive partial
// updates and JSON round trips.
type Element struct {
	ID          string    `json:"id"`
	Tool        Tool      `json:"tool"`
	Points      []float64 `json:"points,omitempty"`
	X           *float64  `json:"x,omitempty"`
	Y           *float64  `json:"y,omitempty"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth *float64  `json:"strokeWidth,omitempty"`
	Fill        string    `json:"fill,omitempty"`
	Text        string    `json:"text,omitempty"`
	FontSize    *float64  `json:"fontSize,omitempty"`
}

var ErrInvalidElement = errors.New("invalid element")

// Validate rejects elements with an unknown tool or with the required
// geometry for their tool missing. Invalid elements never reach a room.
func (e *Element) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidElement)
	}
	switch e.Tool {
	case ToolPencil, ToolEraser:
		if len(e.Points) == 0 {
			return fmt.Errorf("%w: %s element needs a point sequence", ErrInvalidElement, e.Tool)
		}
		if len(e.Points)%2 != 0 {
			return fmt.Errorf("%w: odd coordinate count in point sequence", ErrInvalidElement)
		}
	case ToolRectangle, ToolCircle:
		if e.X == nil || e.Y == nil || e.Width == nil || e.Height == nil {
			return fmt.Errorf("%w: %s element needs x/y/width/height", ErrInvalidElement, e.Tool)
		}
	case ToolText:
		if e.X == nil || e.Y == nil {
			return fmt.Errorf("%w: text element needs x/y", ErrInvalidElement)
		}
		if e.Text == "" {
			return fmt.Errorf("%w: text element needs text content", ErrInvalidElement)
		}
	default:
		return fmt.Errorf("%w: unknown tool %q", ErrInvalidElement, e.Tool)
	}
	return nil
}

// Patch is a partial element update. Nil fields are left untouched. The
// last accepted patch wins; there is no per-element history.
type Patch struct {
	Points      []float64 `json:"points,omitempty"`
	X           *float64  `json:"x,omitempty"`
	Y           *float64  `json:"y,omitempty"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Stroke      *string   `json:"stroke,omitempty"`
	StrokeWidth *float64  `json:"strokeWidth,omitempty"`
	Fill        *string   `json:"fill,omitempty"`
	Text        *string   `json:"text,omitempty"`
	FontSize    *float64  `json:"fontSize,omitempty"`
}

// IsZero reports whether the patch names no fields at all.
func (p *Patch) IsZero() bool {
	return p.Points == nil && p.X == nil && p.Y == nil && p.Width == nil &&
		p.Height == nil && p.Stroke == nil && p.StrokeWidth == nil &&
		p.Fill == nil && p.Text == nil && p.FontSize == nil
}

func (p *Patch) apply(e *Element) {
	if p.Points != nil {
		e.Points = p.Points
	}
	if p.X != nil {
		e.X = p.X
	}
	if p.Y != nil {
		e.Y = p.Y
	}
	if p.Width != nil {
		e.Width = p.Width
	}
	if p.Height != nil {
		e.Height = p.Height
	}
	if p.Stroke != nil {
		e.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		e.StrokeWidth = p.StrokeWidth
	}
	if p.Fill != nil {
		e.Fill = *p.Fill
	}
	if p.Text != nil {
		e.Text = *p.Text
	}
	if p.FontSize != nil {
		e.FontSize = p.FontSize
	}
}
