// Package gesture interprets unified pointer events as crop gestures.
//
// The statechart has three states. A pointer-down in idle classifies the
// gesture and records its anchor; the first move beyond the drag threshold
// starts dragging; every move while dragging mutates the crop bounds; the
// pointer release finalizes the gesture. Mouse and touch input share this
// single code path.
package gesture

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/statekit"
	"github.com/rs/zerolog"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/pointer"
	"github.com/menta2k/image-cropper/pkg/types"
)

// State is the gesture phase
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting"
	StateDragging State = "dragging"
)

const (
	stateIdle     statekit.StateID = statekit.StateID(StateIdle)
	stateAwaiting statekit.StateID = statekit.StateID(StateAwaiting)
	stateDragging statekit.StateID = statekit.StateID(StateDragging)
)

// Events understood by the statechart
const (
	EventDown  statekit.EventType = "DOWN"
	EventMove  statekit.EventType = "MOVE"
	EventUp    statekit.EventType = "UP"
	EventReset statekit.EventType = "RESET"
)

// DefaultDragThreshold is the motion in canvas pixels below which a
// pointer-down followed by a move is not yet a drag.
const DefaultDragThreshold = 2.0

// Surface is the geometry the gesture machine drives
type Surface interface {
	IsPlaced() bool
	HitTest(p types.Point) geometry.Hit
	Bounds() types.Bounds
	Apply(hit geometry.Hit, anchor geometry.Anchor, dx, dy float64) types.Bounds
}

// Gesture is the in-flight interaction from pointer-down to release
type Gesture struct {
	Hit    geometry.Hit
	Anchor geometry.Anchor
	Last   types.Point
	Moves  int
}

// Options configures a Machine
type Options struct {
	// DragThreshold is the minimum distance from the anchor before
	// dragging starts. Zero selects DefaultDragThreshold; use a negative
	// value to start dragging on any motion.
	DragThreshold float64
	// OnChange is called after each bounds mutation during a drag.
	OnChange func(bounds types.Bounds)
	// OnComplete is called exactly once when a gesture is released.
	OnComplete func(bounds types.Bounds, g Gesture)
	Logger     zerolog.Logger
}

// Context carries gesture state through the statechart
type Context struct {
	surface   Surface
	threshold float64
	active    *Gesture
	options   Options
	logger    zerolog.Logger
}

// Machine wraps the statekit interpreter for crop gestures
type Machine struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewMachine creates and starts a gesture machine driving surface
func NewMachine(surface Surface, options Options) (*Machine, error) {
	if surface == nil {
		return nil, fmt.Errorf("gesture: surface is required")
	}
	threshold := options.DragThreshold
	if threshold == 0 {
		threshold = DefaultDragThreshold
	}
	ctx := &Context{
		surface:   surface,
		threshold: math.Max(threshold, 0),
		options:   options,
		logger:    options.Logger,
	}

	config, err := newGestureMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to build gesture machine: %w", err)
	}

	interp := statekit.NewInterpreter(config)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()

	return &Machine{interp: interp, ctx: ctx}, nil
}

func newGestureMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("gesture").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("begin", beginGesture).
		WithAction("track", trackGesture).
		WithAction("finish", finishGesture).
		WithAction("abort", abortGesture).
		WithGuard("imageSet", guardImageSet).
		WithGuard("pastThreshold", guardPastThreshold).
		State(stateIdle).
			On(EventDown).Target(stateAwaiting).Guard("imageSet").Do("begin").
			Done().
		State(stateAwaiting).
			On(EventMove).Target(stateDragging).Guard("pastThreshold").Do("track").
			On(EventUp).Target(stateIdle).Do("finish").
			On(EventReset).Target(stateIdle).Do("abort").
			Done().
		State(stateDragging).
			On(EventMove).Target(stateDragging).Do("track").
			On(EventUp).Target(stateIdle).Do("finish").
			On(EventReset).Target(stateIdle).Do("abort").
			Done().
		Build()
}

// State returns the current gesture phase
func (m *Machine) State() State {
	return State(m.interp.State().Value)
}

// Active returns the in-flight gesture, if any
func (m *Machine) Active() (Gesture, bool) {
	if m.ctx.active == nil {
		return Gesture{}, false
	}
	return *m.ctx.active, true
}

// InProgress reports whether a pointer is held down
func (m *Machine) InProgress() bool {
	return m.State() != StateIdle
}

// Handle dispatches a unified pointer event. It reports whether the event
// changed or advanced the gesture. Down and Move events without a finite
// point are dropped; an Up with a non-finite point is treated as carrying
// none.
func (m *Machine) Handle(evt pointer.Event) bool {
	if evt.HasPoint && !evt.Point.Finite() {
		if evt.Phase != pointer.Up {
			m.ctx.logger.Debug().Str("phase", evt.Phase.String()).Msg("pointer event dropped: point not finite")
			return false
		}
		evt.HasPoint = false
	}
	switch evt.Phase {
	case pointer.Down:
		return m.Down(evt.Point)
	case pointer.Move:
		return m.Move(evt.Point)
	case pointer.Up:
		if evt.HasPoint && m.State() == StateDragging {
			m.Move(evt.Point)
		}
		return m.Up()
	default:
		return false
	}
}

// Down starts a gesture. It is ignored while another pointer is held
// down or when no image is set.
func (m *Machine) Down(p types.Point) bool {
	if !p.Finite() {
		return false
	}
	if m.State() != StateIdle {
		m.ctx.logger.Debug().Msg("pointer down ignored: gesture already in progress")
		return false
	}
	m.send(EventDown, p)
	return m.State() == StateAwaiting
}

// Move advances the gesture
func (m *Machine) Move(p types.Point) bool {
	if m.State() == StateIdle || !p.Finite() {
		return false
	}
	if !m.ctx.surface.IsPlaced() {
		m.Reset()
		return false
	}
	moves := m.moves()
	m.send(EventMove, p)
	return m.moves() > moves
}

// Up releases the pointer and completes the gesture
func (m *Machine) Up() bool {
	if m.State() == StateIdle {
		return false
	}
	if !m.ctx.surface.IsPlaced() {
		m.Reset()
		return false
	}
	m.send(EventUp, nil)
	return true
}

// Reset abandons any in-flight gesture without completing it
func (m *Machine) Reset() {
	if m.State() == StateIdle {
		return
	}
	m.send(EventReset, nil)
}

// Stop stops the interpreter
func (m *Machine) Stop() {
	m.interp.Stop()
}

func (m *Machine) moves() int {
	if m.ctx.active == nil {
		return 0
	}
	return m.ctx.active.Moves
}

func (m *Machine) send(t statekit.EventType, payload any) {
	m.interp.Send(statekit.Event{Type: t, Payload: payload})
}
