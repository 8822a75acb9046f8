package geometry

import "github.com/menta2k/image-cropper/pkg/types"

// Mode classifies what a gesture does to the crop bounds
type Mode int

const (
	ModeNone Mode = iota
	ModeNewSelection
	ModeMove
	ModeResize
)

func (m Mode) String() string {
	switch m {
	case ModeNewSelection:
		return "new-selection"
	case ModeMove:
		return "move"
	case ModeResize:
		return "resize"
	default:
		return "none"
	}
}

// Handle is a draggable control point on the crop rectangle
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

var handleNames = map[Handle]string{
	HandleNone:        "none",
	HandleTopLeft:     "top-left",
	HandleTop:         "top",
	HandleTopRight:    "top-right",
	HandleRight:       "right",
	HandleBottomRight: "bottom-right",
	HandleBottom:      "bottom",
	HandleBottomLeft:  "bottom-left",
	HandleLeft:        "left",
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return "unknown"
}

// corners are tested before edges so a corner wins where their radii overlap
var (
	cornerHandles = []Handle{HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft}
	edgeHandles   = []Handle{HandleTop, HandleRight, HandleBottom, HandleLeft}
)

// Handles returns all resize handles in hit-test order
func Handles() []Handle {
	return append(append([]Handle{}, cornerHandles...), edgeHandles...)
}

// Position returns where the handle sits on b
func (h Handle) Position(b types.Bounds) types.Point {
	c := b.Center()
	switch h {
	case HandleTopLeft:
		return types.Point{X: b.Left, Y: b.Top}
	case HandleTop:
		return types.Point{X: c.X, Y: b.Top}
	case HandleTopRight:
		return types.Point{X: b.Right, Y: b.Top}
	case HandleRight:
		return types.Point{X: b.Right, Y: c.Y}
	case HandleBottomRight:
		return types.Point{X: b.Right, Y: b.Bottom}
	case HandleBottom:
		return types.Point{X: c.X, Y: b.Bottom}
	case HandleBottomLeft:
		return types.Point{X: b.Left, Y: b.Bottom}
	case HandleLeft:
		return types.Point{X: b.Left, Y: c.Y}
	default:
		return c
	}
}

func (h Handle) ownsLeft() bool {
	return h == HandleTopLeft || h == HandleLeft || h == HandleBottomLeft
}

func (h Handle) ownsRight() bool {
	return h == HandleTopRight || h == HandleRight || h == HandleBottomRight
}

func (h Handle) ownsTop() bool {
	return h == HandleTopLeft || h == HandleTop || h == HandleTopRight
}

func (h Handle) ownsBottom() bool {
	return h == HandleBottomLeft || h == HandleBottom || h == HandleBottomRight
}

// Hit is the result of classifying a pointer-down position
type Hit struct {
	Mode   Mode
	Handle Handle
}

func (h Hit) String() string {
	if h.Mode == ModeResize {
		return h.Mode.String() + ":" + h.Handle.String()
	}
	return h.Mode.String()
}

// Anchor is the state captured when a gesture starts
type Anchor struct {
	Point  types.Point
	Bounds types.Bounds
}
