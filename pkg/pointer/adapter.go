package pointer

import "github.com/menta2k/image-cropper/pkg/types"

// Phase is the stage of a pointer interaction
type Phase int

const (
	Down Phase = iota
	Move
	Up
)

func (p Phase) String() string {
	switch p {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Event is the unified pointer event consumed by the gesture machine.
// HasPoint is false for releases that carry no position (touch end).
type Event struct {
	Point    types.Point
	Phase    Phase
	HasPoint bool
}

// Adapter turns raw mouse or touch events into unified events
type Adapter struct {
	layout Layout
}

// NewAdapter creates an adapter for the given canvas layout
func NewAdapter(layout Layout) *Adapter {
	return &Adapter{layout: layout}
}

// SetLayout replaces the canvas layout, e.g. after the host re-flows
func (a *Adapter) SetLayout(layout Layout) {
	a.layout = layout
}

// Layout returns the current canvas layout
func (a *Adapter) Layout() Layout {
	return a.layout
}

// Mouse adapts a mouse event
func (a *Adapter) Mouse(e MouseEvent, phase Phase) (Event, bool) {
	return a.adapt(e, phase)
}

// Touch adapts a touch event. Down and Move without an active touch are
// dropped; Up is always delivered.
func (a *Adapter) Touch(e TouchEvent, phase Phase) (Event, bool) {
	return a.adapt(e, phase)
}

func (a *Adapter) adapt(src Source, phase Phase) (Event, bool) {
	p, ok := a.layout.ToCanvasPoint(src)
	if !ok && phase != Up {
		return Event{}, false
	}
	return Event{Point: p, Phase: phase, HasPoint: ok}, true
}
