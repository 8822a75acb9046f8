// Package pointer maps mouse and touch events from viewport space into
// canvas-local pixel coordinates and coalesces both input types into a single
// event model.
package pointer

import (
	"github.com/menta2k/image-cropper/pkg/types"
)

// Layout describes where the canvas sits in the viewport and how it is scaled.
//
// BufferWidth/BufferHeight are the canvas pixel buffer dimensions; the rendered
// size is the on-screen size after any CSS-style scaling.
type Layout struct {
	Left           float64
	Top            float64
	RenderedWidth  float64
	RenderedHeight float64
	BufferWidth    int
	BufferHeight   int
}

// Unscaled returns a layout whose rendered size equals its buffer size
func Unscaled(left, top float64, width, height int) Layout {
	return Layout{
		Left:           left,
		Top:            top,
		RenderedWidth:  float64(width),
		RenderedHeight: float64(height),
		BufferWidth:    width,
		BufferHeight:   height,
	}
}

// Source is any raw input event that can report a viewport position
type Source interface {
	ViewportPoint() (x, y float64, ok bool)
}

// MouseEvent is a raw mouse event in viewport coordinates
type MouseEvent struct {
	ClientX float64
	ClientY float64
}

// ViewportPoint implements Source
func (e MouseEvent) ViewportPoint() (float64, float64, bool) {
	return e.ClientX, e.ClientY, true
}

// Touch is a single active touch point
type Touch struct {
	ClientX float64
	ClientY float64
}

// TouchEvent carries the currently active touch points
type TouchEvent struct {
	Touches []Touch
}

// ViewportPoint implements Source using the first active touch
func (e TouchEvent) ViewportPoint() (float64, float64, bool) {
	if len(e.Touches) == 0 {
		return 0, 0, false
	}
	t := e.Touches[0]
	return t.ClientX, t.ClientY, true
}

// ToCanvasPoint converts a raw event into canvas pixel coordinates.
// No clamping is applied. ok is false when the event carries no position
// or the position is not finite.
func (l Layout) ToCanvasPoint(src Source) (types.Point, bool) {
	if src == nil {
		return types.Point{}, false
	}
	x, y, ok := src.ViewportPoint()
	if !ok {
		return types.Point{}, false
	}

	x -= l.Left
	y -= l.Top

	if l.RenderedWidth > 0 && l.BufferWidth > 0 && l.RenderedWidth != float64(l.BufferWidth) {
		x *= float64(l.BufferWidth) / l.RenderedWidth
	}
	if l.RenderedHeight > 0 && l.BufferHeight > 0 && l.RenderedHeight != float64(l.BufferHeight) {
		y *= float64(l.BufferHeight) / l.RenderedHeight
	}

	p := types.Point{X: x, Y: y}
	if !p.Finite() {
		return types.Point{}, false
	}
	return p, true
}
