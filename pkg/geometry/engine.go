// Package geometry owns the crop rectangle and the image placement on the
// canvas. It computes fit-to-canvas placement, classifies pointer positions
// into handles, and turns pointer deltas into clamped crop bounds.
//
// All coordinates are canvas pixels. Any delta is clamped rather than
// rejected, so the crop bounds are always ordered, non-degenerate and
// contained in the image placement once an image is placed.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/menta2k/image-cropper/pkg/types"
)

// ErrInvalidConfig is returned by New for unusable settings
var ErrInvalidConfig = errors.New("geometry: invalid config")

// Config holds the static geometry settings
type Config struct {
	CanvasWidth     int
	CanvasHeight    int
	MinWidth        float64
	MinHeight       float64
	AspectRatio     float64 // width/height, 0 for free selection
	HandleTolerance float64
	AllowUpscaling  bool
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d must be positive", ErrInvalidConfig, c.CanvasWidth, c.CanvasHeight)
	}
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return fmt.Errorf("%w: minimum crop size must not be negative", ErrInvalidConfig)
	}
	if c.AspectRatio < 0 || math.IsNaN(c.AspectRatio) || math.IsInf(c.AspectRatio, 0) {
		return fmt.Errorf("%w: aspect ratio %v", ErrInvalidConfig, c.AspectRatio)
	}
	if c.HandleTolerance < 0 {
		return fmt.Errorf("%w: handle tolerance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Engine tracks the image placement and the crop bounds
type Engine struct {
	config    Config
	placement types.Bounds
	bounds    types.Bounds
	imageW    int
	imageH    int
	placed    bool
}

// New creates an engine for a fixed canvas
func New(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: config}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config { return e.config }

// IsPlaced reports whether an image has been placed
func (e *Engine) IsPlaced() bool { return e.placed }

// Placement returns the rectangle the image is drawn at
func (e *Engine) Placement() types.Bounds { return e.placement }

// Bounds returns the current crop bounds
func (e *Engine) Bounds() types.Bounds { return e.bounds }

// ImageSize returns the dimensions of the placed image
func (e *Engine) ImageSize() (int, int) { return e.imageW, e.imageH }

// Scale returns canvas pixels per source pixel
func (e *Engine) Scale() float64 {
	if !e.placed || e.imageW == 0 {
		return 0
	}
	return e.placement.Width() / float64(e.imageW)
}

// PlaceImage fits an image of the given size into the canvas, centers it
// on the non-fitting axis and resets the crop bounds to the default.
func (e *Engine) PlaceImage(width, height int) types.Bounds {
	if width <= 0 || height <= 0 {
		e.Clear()
		return types.Bounds{}
	}

	cw, ch := float64(e.config.CanvasWidth), float64(e.config.CanvasHeight)
	scale := math.Min(cw/float64(width), ch/float64(height))
	if !e.config.AllowUpscaling && scale > 1 {
		scale = 1
	}

	pw, ph := float64(width)*scale, float64(height)*scale
	e.placement = types.BoundsFromSize((cw-pw)/2, (ch-ph)/2, pw, ph)
	e.imageW, e.imageH = width, height
	e.placed = true
	e.bounds = e.DefaultBounds()
	return e.placement
}

// Clear forgets the placed image
func (e *Engine) Clear() {
	e.placement = types.Bounds{}
	e.bounds = types.Bounds{}
	e.imageW, e.imageH = 0, 0
	e.placed = false
}

// DefaultBounds returns the full placement, or the largest centered
// rectangle of the configured aspect ratio.
func (e *Engine) DefaultBounds() types.Bounds {
	p := e.placement
	ratio := e.config.AspectRatio
	if ratio <= 0 {
		return p
	}

	w, h := p.Width(), p.Height()
	if w/h > ratio {
		w = h * ratio
	} else {
		h = w / ratio
	}
	c := p.Center()
	return types.BoundsFromSize(c.X-w/2, c.Y-h/2, w, h)
}

// SetBounds replaces the crop bounds. The rectangle is normalized, clamped
// to the placement and grown to the minimum size if needed.
func (e *Engine) SetBounds(b types.Bounds) types.Bounds {
	if !e.placed {
		return e.bounds
	}
	b = types.BoundsFromPoints(types.Point{X: b.Left, Y: b.Top}, types.Point{X: b.Right, Y: b.Bottom})
	b = containIn(b, e.placement)

	mw, mh := e.minSize()
	if b.Width() < mw {
		b.Right = b.Left + mw
	}
	if b.Height() < mh {
		b.Bottom = b.Top + mh
	}
	e.bounds = e.slideInto(b)
	return e.bounds
}

// HitTest classifies a pointer position against the current crop bounds
func (e *Engine) HitTest(p types.Point) Hit {
	if !e.placed {
		return Hit{Mode: ModeNone}
	}
	tol := e.config.HandleTolerance
	for _, h := range Handles() {
		if p.Dist(h.Position(e.bounds)) <= tol {
			return Hit{Mode: ModeResize, Handle: h}
		}
	}
	if e.bounds.Contains(p) {
		return Hit{Mode: ModeMove}
	}
	return Hit{Mode: ModeNewSelection}
}

// Apply computes the bounds for a delta and stores them
func (e *Engine) Apply(hit Hit, anchor Anchor, dx, dy float64) types.Bounds {
	if !e.placed {
		return e.bounds
	}
	e.bounds = e.ApplyDelta(hit, anchor, dx, dy)
	return e.bounds
}

// ApplyDelta returns the crop bounds that result from dragging by (dx, dy)
// since the gesture started at anchor. It does not modify the engine.
func (e *Engine) ApplyDelta(hit Hit, anchor Anchor, dx, dy float64) types.Bounds {
	if !e.placed {
		return anchor.Bounds
	}
	var b types.Bounds
	switch hit.Mode {
	case ModeMove:
		b = e.move(anchor.Bounds, dx, dy)
	case ModeResize:
		b = e.resize(hit.Handle, anchor.Bounds, dx, dy)
	case ModeNewSelection:
		b = e.newSelection(anchor.Point, dx, dy)
	default:
		return anchor.Bounds
	}
	return containIn(b, e.placement)
}

func (e *Engine) move(a types.Bounds, dx, dy float64) types.Bounds {
	return e.slideInto(a.Translate(dx, dy))
}

// slideInto shifts b back inside the placement without resizing it
func (e *Engine) slideInto(b types.Bounds) types.Bounds {
	p := e.placement
	w, h := math.Min(b.Width(), p.Width()), math.Min(b.Height(), p.Height())
	b.Right, b.Bottom = b.Left+w, b.Top+h

	if b.Left < p.Left {
		b.Left, b.Right = p.Left, p.Left+w
	} else if b.Right > p.Right {
		b.Left, b.Right = p.Right-w, p.Right
	}
	if b.Top < p.Top {
		b.Top, b.Bottom = p.Top, p.Top+h
	} else if b.Bottom > p.Bottom {
		b.Top, b.Bottom = p.Bottom-h, p.Bottom
	}
	return b
}

func (e *Engine) resize(handle Handle, a types.Bounds, dx, dy float64) types.Bounds {
	p := e.placement
	var xs, ys *span
	switch {
	case handle.ownsLeft():
		xs = &span{fixed: a.Right, sign: -1, length: a.Right - (a.Left + dx), lo: p.Left, hi: p.Right}
	case handle.ownsRight():
		xs = &span{fixed: a.Left, sign: 1, length: a.Right + dx - a.Left, lo: p.Left, hi: p.Right}
	}
	switch {
	case handle.ownsTop():
		ys = &span{fixed: a.Bottom, sign: -1, length: a.Bottom - (a.Top + dy), lo: p.Top, hi: p.Bottom}
	case handle.ownsBottom():
		ys = &span{fixed: a.Top, sign: 1, length: a.Bottom + dy - a.Top, lo: p.Top, hi: p.Bottom}
	}
	if xs == nil && ys == nil {
		return a
	}

	if e.config.AspectRatio <= 0 {
		mw, mh := e.minSize()
		out := a
		if xs != nil {
			out.Left, out.Right = xs.edges(clamp(xs.length, mw, xs.room()))
		}
		if ys != nil {
			out.Top, out.Bottom = ys.edges(clamp(ys.length, mh, ys.room()))
		}
		return out
	}

	// An edge handle drives one axis; the other axis follows from the
	// ratio, growing away from the fixed corner.
	driver := driveBoth
	if ys == nil {
		driver = driveX
		ys = &span{fixed: a.Top, sign: 1, lo: p.Top, hi: p.Bottom}
	} else if xs == nil {
		driver = driveY
		xs = &span{fixed: a.Left, sign: 1, lo: p.Left, hi: p.Right}
	}
	return e.fitRatio(*xs, *ys, driver)
}

func (e *Engine) newSelection(start types.Point, dx, dy float64) types.Bounds {
	p := e.placement
	mw, mh := e.minSize()
	start = types.Point{X: clamp(start.X, p.Left, p.Right), Y: clamp(start.Y, p.Top, p.Bottom)}
	end := start.Add(dx, dy)

	xs := span{sign: 1, lo: p.Left, hi: p.Right}
	if end.X < start.X {
		xs.sign = -1
	}
	ys := span{sign: 1, lo: p.Top, hi: p.Bottom}
	if end.Y < start.Y {
		ys.sign = -1
	}

	// the fixed corner slides so that a minimum-size selection still fits
	xs.fixed = clamp(start.X, p.Left+mw*(1-xs.sign)/2, p.Right-mw*(1+xs.sign)/2)
	ys.fixed = clamp(start.Y, p.Top+mh*(1-ys.sign)/2, p.Bottom-mh*(1+ys.sign)/2)
	xs.length = math.Abs(end.X - xs.fixed)
	ys.length = math.Abs(end.Y - ys.fixed)

	if e.config.AspectRatio > 0 {
		return e.fitRatio(xs, ys, driveBoth)
	}
	var b types.Bounds
	b.Left, b.Right = xs.edges(clamp(xs.length, mw, xs.room()))
	b.Top, b.Bottom = ys.edges(clamp(ys.length, mh, ys.room()))
	return b
}

type driver int

const (
	driveBoth driver = iota
	driveX
	driveY
)

// fitRatio sizes the rectangle to the aspect ratio from the fixed corner.
// Containment wins over the minimum size when both cannot hold.
func (e *Engine) fitRatio(xs, ys span, d driver) types.Bounds {
	ratio := e.config.AspectRatio
	w, h := xs.length, ys.length
	switch d {
	case driveX:
		h = w / ratio
	case driveY:
		w = h * ratio
	default:
		if w >= h*ratio {
			h = w / ratio
		} else {
			w = h * ratio
		}
	}

	mw, _ := e.minSize()
	if w < mw {
		w, h = mw, mw/ratio
	}
	maxW, maxH := xs.room(), ys.room()
	if w > maxW {
		w, h = maxW, maxW/ratio
	}
	if h > maxH {
		w, h = maxH*ratio, maxH
	}

	var b types.Bounds
	b.Left, b.Right = xs.edges(w)
	b.Top, b.Bottom = ys.edges(h)
	return b
}

// minSize returns the effective minimum crop size, capped at the placement
// and adjusted to the aspect ratio when one is set.
func (e *Engine) minSize() (float64, float64) {
	p := e.placement
	mw, mh := math.Max(e.config.MinWidth, 1), math.Max(e.config.MinHeight, 1)
	mw, mh = math.Min(mw, p.Width()), math.Min(mh, p.Height())

	ratio := e.config.AspectRatio
	if ratio <= 0 {
		return mw, mh
	}
	mw = math.Max(mw, mh*ratio)
	if mw > p.Width() {
		mw = p.Width()
	}
	mh = mw / ratio
	if mh > p.Height() {
		mh = p.Height()
		mw = mh * ratio
	}
	return mw, mh
}

// span is one axis of a rectangle being resized from a fixed edge
type span struct {
	fixed  float64
	sign   float64 // +1 grows toward hi, -1 toward lo
	length float64
	lo, hi float64
}

// room is the largest length that stays inside [lo, hi]
func (s span) room() float64 {
	if s.sign > 0 {
		return s.hi - s.fixed
	}
	return s.fixed - s.lo
}

func (s span) edges(length float64) (float64, float64) {
	if s.sign > 0 {
		return s.fixed, s.fixed + length
	}
	return s.fixed - length, s.fixed
}

func containIn(b, p types.Bounds) types.Bounds {
	b.Left = clamp(b.Left, p.Left, p.Right)
	b.Right = clamp(b.Right, b.Left, p.Right)
	b.Top = clamp(b.Top, p.Top, p.Bottom)
	b.Bottom = clamp(b.Bottom, b.Top, p.Bottom)
	return b
}

// clamp limits v to [lo, hi]; hi wins when the range is inverted
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
