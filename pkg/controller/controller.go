// Package controller owns the crop canvas: it places the loaded image,
// routes pointer input through the gesture machine, redraws after every
// change and publishes a crop-changed notification once per completed
// gesture.
package controller

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"

	"github.com/menta2k/image-cropper/pkg/gesture"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/loader"
	"github.com/menta2k/image-cropper/pkg/orientation"
	"github.com/menta2k/image-cropper/pkg/pointer"
	"github.com/menta2k/image-cropper/pkg/render"
	"github.com/menta2k/image-cropper/pkg/types"
)

// CropChanged is published when the crop selection settles
type CropChanged struct {
	Bounds types.Bounds
	Result types.CroppedResult
}

// Controller is the interactive crop-region controller. All methods are
// safe for concurrent use; listeners are invoked without internal locks
// held.
type Controller struct {
	mu       sync.Mutex
	settings Settings
	logger   zerolog.Logger

	engine   *geometry.Engine
	machine  *gesture.Machine
	renderer *render.Renderer
	loader   *loader.Loader
	adapter  *pointer.Adapter
	hub      *gesture.ReleaseHub
	release  *gesture.Subscription

	image      image.Image
	tag        orientation.Tag
	canvas     *image.NRGBA
	generation uint64
	poll       *loader.Poller

	listeners map[uint64]func(CropChanged)
	nextID    uint64
	pending   []CropChanged
}

// New creates a controller from validated settings
func New(settings Settings) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid controller settings: %w", err)
	}

	engine, err := geometry.New(settings.geometry())
	if err != nil {
		return nil, err
	}
	ld, err := loader.NewWithConfig(settings.loader(), settings.Logger)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		settings:  settings,
		logger:    settings.Logger,
		engine:    engine,
		renderer:  render.NewRenderer(settings.CanvasWidth, settings.CanvasHeight, settings.style(), settings.Output),
		loader:    ld,
		adapter:   pointer.NewAdapter(settings.layout()),
		hub:       gesture.NewReleaseHub(),
		listeners: make(map[uint64]func(CropChanged)),
	}

	c.machine, err = gesture.NewMachine(engine, gesture.Options{
		DragThreshold: settings.DragThreshold,
		OnChange:      c.onDrag,
		OnComplete:    c.onComplete,
		Logger:        settings.Logger,
	})
	if err != nil {
		return nil, err
	}

	c.canvas = c.renderer.Redraw(nil, types.Bounds{}, types.Bounds{})
	return c, nil
}

// Settings returns the settings the controller was created with
func (c *Controller) Settings() Settings {
	return c.settings
}

// Close stops the gesture machine, drops pending release listeners and
// cancels any readiness poll
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersede()
	c.cancelRelease()
	c.machine.Stop()
}

// OnCropChanged registers fn for crop-changed notifications. The returned
// function unregisters it.
func (c *Controller) OnCropChanged(fn func(CropChanged)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// SetImage places an upright image on the canvas, resets the selection to
// the default bounds and publishes the initial crop. A nil image clears
// the canvas.
func (c *Controller) SetImage(img image.Image) {
	if img == nil {
		c.ClearImage()
		return
	}
	c.mu.Lock()
	c.supersede()
	c.setImageLocked(img, orientation.Normal)
	events := c.takePending()
	c.mu.Unlock()
	c.publish(events)
}

// ClearImage removes the image. Any gesture in flight is abandoned.
func (c *Controller) ClearImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersede()
	c.abortGesture()
	c.image = nil
	c.tag = orientation.Normal
	c.engine.Clear()
	c.renderer.Reset()
	c.redraw()
	c.logger.Debug().Msg("image cleared")
}

// IsImageSet reports whether an image is placed
func (c *Controller) IsImageSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image != nil && c.engine.IsPlaced()
}

// Allowed reports whether a selected file name passes the file filter
func (c *Controller) Allowed(name string) bool {
	return c.loader.Allowed(name)
}

// LoadFile decodes a selected file and places it. Names rejected by the
// file filter are ignored. Decode failures are logged and leave the
// current image in place. It reports whether the image was placed.
func (c *Controller) LoadFile(ctx context.Context, name string, data []byte) bool {
	f, gen := c.startLoad(name, data)
	if f == nil {
		return false
	}
	res, err := f.Wait(ctx)
	return c.finishLoad(name, gen, res, err)
}

// LoadFileAsync starts loading a selected file and places it when decoding
// finishes, unless a newer image was set in the meantime. It returns nil
// for names rejected by the file filter.
func (c *Controller) LoadFileAsync(name string, data []byte) *loader.Future {
	f, gen := c.startLoad(name, data)
	if f == nil {
		return nil
	}
	f.Then(func(res loader.Result, err error) {
		c.finishLoad(name, gen, res, err)
	})
	return f
}

func (c *Controller) startLoad(name string, data []byte) (*loader.Future, uint64) {
	if !c.loader.Allowed(name) {
		c.logger.Debug().Str("file", name).Msg("file ignored: name not allowed")
		return nil, 0
	}
	c.mu.Lock()
	gen := c.supersede()
	c.mu.Unlock()
	return c.loader.LoadAsync(data), gen
}

func (c *Controller) finishLoad(name string, gen uint64, res loader.Result, err error) bool {
	if err != nil {
		c.logger.Warn().Err(err).Str("file", name).Msg("failed to load image")
		return false
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug().Str("file", name).Msg("stale load discarded")
		return false
	}
	c.setImageLocked(res.Image, res.Orientation)
	events := c.takePending()
	c.mu.Unlock()

	c.publish(events)
	return true
}

// SetImageWhenReady polls s until it reports non-zero dimensions and then
// places img. Cancel the returned poller to give up. Setting or loading
// another image, clearing, or closing the controller cancels it too.
func (c *Controller) SetImageWhenReady(img image.Image, s loader.Sizer) *loader.Poller {
	p := loader.NewPoller(loader.DefaultPollInterval)

	c.mu.Lock()
	gen := c.supersede()
	c.poll = p
	c.mu.Unlock()

	p.Start(s, func(int, int) {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		c.poll = nil
		c.setImageLocked(img, orientation.Normal)
		events := c.takePending()
		c.mu.Unlock()
		c.publish(events)
	})
	return p
}

// supersede invalidates in-flight loads and stops the active readiness
// poll. It returns the new generation.
func (c *Controller) supersede() uint64 {
	c.generation++
	if c.poll != nil {
		c.poll.Cancel()
		c.poll = nil
	}
	return c.generation
}

// SetLayout updates where the canvas sits in viewport space
func (c *Controller) SetLayout(layout pointer.Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapter.SetLayout(layout)
}

// Mouse feeds a raw mouse event
func (c *Controller) Mouse(e pointer.MouseEvent, phase pointer.Phase) bool {
	c.mu.Lock()
	evt, ok := c.adapter.Mouse(e, phase)
	c.mu.Unlock()
	if !ok {
		return false
	}
	return c.Handle(evt)
}

// Touch feeds a raw touch event
func (c *Controller) Touch(e pointer.TouchEvent, phase pointer.Phase) bool {
	c.mu.Lock()
	evt, ok := c.adapter.Touch(e, phase)
	c.mu.Unlock()
	if !ok {
		return false
	}
	return c.Handle(evt)
}

// Handle feeds a unified pointer event in canvas coordinates. It reports
// whether the event advanced the gesture.
func (c *Controller) Handle(evt pointer.Event) bool {
	c.mu.Lock()
	wasIdle := !c.machine.InProgress()
	handled := c.machine.Handle(evt)
	switch {
	case wasIdle && c.machine.InProgress():
		c.subscribeRelease()
	case !c.machine.InProgress():
		c.cancelRelease()
	}
	events := c.takePending()
	c.mu.Unlock()

	c.publish(events)
	return handled
}

// ReleaseHub returns the global release source. Hosts forward every
// pointer-up, including those outside the canvas, via Release, or use
// ReleaseMouse and ReleaseTouch for viewport events.
func (c *Controller) ReleaseHub() *gesture.ReleaseHub {
	return c.hub
}

// ReleaseMouse forwards a global mouse-up in viewport coordinates to the
// release hub. It returns the number of listeners fired.
func (c *Controller) ReleaseMouse(e pointer.MouseEvent) int {
	c.mu.Lock()
	evt, _ := c.adapter.Mouse(e, pointer.Up)
	c.mu.Unlock()
	return c.hub.Release(evt)
}

// ReleaseTouch forwards a global touch-end to the release hub
func (c *Controller) ReleaseTouch(e pointer.TouchEvent) int {
	c.mu.Lock()
	evt, _ := c.adapter.Touch(e, pointer.Up)
	c.mu.Unlock()
	return c.hub.Release(evt)
}

// CropBounds returns the current selection in canvas pixels
func (c *Controller) CropBounds() types.Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Bounds()
}

// SetCropBounds replaces the selection programmatically. The bounds are
// normalized and clamped like a gesture result, and a notification is
// published. It is ignored while a gesture is in progress or without an
// image.
func (c *Controller) SetCropBounds(b types.Bounds) (types.Bounds, bool) {
	c.mu.Lock()
	if c.image == nil || c.machine.InProgress() {
		bounds := c.engine.Bounds()
		c.mu.Unlock()
		return bounds, false
	}
	bounds := c.engine.SetBounds(b)
	c.redraw()
	c.emitLocked()
	events := c.takePending()
	c.mu.Unlock()

	c.publish(events)
	return bounds, true
}

// Placement returns where the image is drawn on the canvas
func (c *Controller) Placement() types.Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Placement()
}

// Orientation returns the tag corrected on the last file load
func (c *Controller) Orientation() orientation.Tag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tag
}

// Canvas returns the most recent canvas frame
func (c *Controller) Canvas() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvas
}

// Image returns the upright source image, or nil
func (c *Controller) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

// State returns the gesture phase
func (c *Controller) State() gesture.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Export encodes the current selection. It reports false while a gesture
// is in progress, without an image or when encoding fails.
func (c *Controller) Export() (types.CroppedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.image == nil || c.machine.InProgress() {
		return types.CroppedResult{}, false
	}
	res, err := c.exportLocked()
	if err != nil {
		return types.CroppedResult{}, false
	}
	return res, true
}

func (c *Controller) setImageLocked(img image.Image, tag orientation.Tag) {
	c.abortGesture()
	c.image = img
	c.tag = tag
	c.renderer.Reset()

	b := img.Bounds()
	placement := c.engine.PlaceImage(b.Dx(), b.Dy())
	if !c.engine.IsPlaced() {
		c.logger.Warn().Int("width", b.Dx()).Int("height", b.Dy()).Msg("image has no pixels")
		c.image = nil
		c.redraw()
		return
	}
	c.logger.Debug().
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Str("placement", placement.String()).
		Str("bounds", c.engine.Bounds().String()).
		Msg("image placed")

	c.redraw()
	c.emitLocked()
}

// onDrag runs inside Handle with c.mu held
func (c *Controller) onDrag(types.Bounds) {
	c.redraw()
}

// onComplete runs inside Handle with c.mu held
func (c *Controller) onComplete(types.Bounds, gesture.Gesture) {
	c.cancelRelease()
	c.redraw()
	c.emitLocked()
}

func (c *Controller) abortGesture() {
	c.machine.Reset()
	c.cancelRelease()
}

func (c *Controller) subscribeRelease() {
	c.cancelRelease()
	c.release = c.hub.Once(func(evt pointer.Event) {
		evt.Phase = pointer.Up
		c.Handle(evt)
	})
}

func (c *Controller) cancelRelease() {
	c.release.Cancel()
	c.release = nil
}

func (c *Controller) redraw() {
	c.canvas = c.renderer.Redraw(c.image, c.engine.Placement(), c.engine.Bounds())
}

func (c *Controller) exportLocked() (types.CroppedResult, error) {
	res, err := c.renderer.ExportCrop(c.image, c.engine.Placement(), c.engine.Bounds())
	if err != nil {
		c.logger.Warn().Err(err).Msg("crop export failed")
		return types.CroppedResult{}, err
	}
	c.logger.Debug().
		Str("format", res.Format).
		Int("width", res.Width).
		Int("height", res.Height).
		Msg("crop exported")
	return res, nil
}

func (c *Controller) emitLocked() {
	res, _ := c.exportLocked()
	c.pending = append(c.pending, CropChanged{Bounds: c.engine.Bounds(), Result: res})
}

func (c *Controller) takePending() []CropChanged {
	if len(c.pending) == 0 {
		return nil
	}
	events := c.pending
	c.pending = nil
	return events
}

func (c *Controller) publish(events []CropChanged) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	fns := make([]func(CropChanged), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, evt := range events {
		for _, fn := range fns {
			fn(evt)
		}
	}
}
