package gesture

import (
	"math"
	"testing"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/pointer"
	"github.com/menta2k/image-cropper/pkg/types"
)

type recorder struct {
	changes   []types.Bounds
	completed []types.Bounds
	gestures  []Gesture
}

func (r *recorder) options() Options {
	return Options{
		OnChange: func(b types.Bounds) { r.changes = append(r.changes, b) },
		OnComplete: func(b types.Bounds, g Gesture) {
			r.completed = append(r.completed, b)
			r.gestures = append(r.gestures, g)
		},
	}
}

func newTestSurface(t *testing.T, placed bool) *geometry.Engine {
	t.Helper()
	e, err := geometry.New(geometry.Config{
		CanvasWidth:     300,
		CanvasHeight:    300,
		MinWidth:        20,
		MinHeight:       20,
		HandleTolerance: 8,
		AllowUpscaling:  true,
	})
	if err != nil {
		t.Fatalf("geometry.New failed: %v", err)
	}
	if placed {
		e.PlaceImage(300, 300)
		e.SetBounds(types.Bounds{Left: 100, Top: 100, Right: 200, Bottom: 200})
	}
	return e
}

func newTestMachine(t *testing.T, surface Surface, r *recorder) *Machine {
	t.Helper()
	m, err := NewMachine(surface, r.options())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	return m
}

func TestNewMachineRequiresSurface(t *testing.T) {
	if _, err := NewMachine(nil, Options{}); err == nil {
		t.Error("Expected error for nil surface")
	}
}

func TestInitialState(t *testing.T) {
	m := newTestMachine(t, newTestSurface(t, true), &recorder{})
	if m.State() != StateIdle {
		t.Errorf("Expected initial state idle, got %s", m.State())
	}
	if m.InProgress() {
		t.Error("Expected no gesture in progress")
	}
}

func TestMoveSelection(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	if !m.Down(types.Point{X: 150, Y: 150}) {
		t.Fatal("Expected pointer down to start a gesture")
	}
	if m.State() != StateAwaiting {
		t.Fatalf("Expected awaiting, got %s", m.State())
	}
	g, ok := m.Active()
	if !ok || g.Hit.Mode != geometry.ModeMove {
		t.Fatalf("Expected active move gesture, got %+v", g)
	}

	m.Move(types.Point{X: 160, Y: 155})
	if m.State() != StateDragging {
		t.Fatalf("Expected dragging, got %s", m.State())
	}
	m.Up()

	want := types.Bounds{Left: 110, Top: 105, Right: 210, Bottom: 205}
	if surface.Bounds() != want {
		t.Errorf("Expected bounds %v, got %v", want, surface.Bounds())
	}
	if len(r.completed) != 1 {
		t.Fatalf("Expected exactly one completion, got %d", len(r.completed))
	}
	if r.completed[0] != want {
		t.Errorf("Expected completion bounds %v, got %v", want, r.completed[0])
	}
	if m.State() != StateIdle {
		t.Errorf("Expected idle after release, got %s", m.State())
	}
	if _, ok := m.Active(); ok {
		t.Error("Expected gesture to be discarded after release")
	}
}

func TestMicroMotionIgnored(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	m.Down(types.Point{X: 150, Y: 150})
	if m.Move(types.Point{X: 151, Y: 151}) {
		t.Error("Expected sub-threshold move to be ignored")
	}
	if m.State() != StateAwaiting {
		t.Errorf("Expected to stay awaiting, got %s", m.State())
	}
	if len(r.changes) != 0 {
		t.Errorf("Expected no bounds change, got %d", len(r.changes))
	}
}

func TestNonFinitePointsIgnored(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	if m.Handle(pointer.Event{Point: types.Point{X: math.NaN(), Y: 150}, Phase: pointer.Down, HasPoint: true}) {
		t.Error("Expected non-finite pointer down to be dropped")
	}
	if m.State() != StateIdle {
		t.Fatalf("Expected idle, got %s", m.State())
	}

	m.Handle(pointer.Event{Point: types.Point{X: 150, Y: 150}, Phase: pointer.Down, HasPoint: true})
	m.Handle(pointer.Event{Point: types.Point{X: 160, Y: 155}, Phase: pointer.Move, HasPoint: true})
	if m.Handle(pointer.Event{Point: types.Point{X: math.NaN(), Y: 160}, Phase: pointer.Move, HasPoint: true}) {
		t.Error("Expected NaN move to be dropped")
	}
	if m.Move(types.Point{X: 160, Y: math.Inf(1)}) {
		t.Error("Expected infinite move to be dropped")
	}
	m.Handle(pointer.Event{Point: types.Point{X: math.Inf(-1), Y: 0}, Phase: pointer.Up, HasPoint: true})

	want := types.Bounds{Left: 110, Top: 105, Right: 210, Bottom: 205}
	if surface.Bounds() != want {
		t.Errorf("Expected bounds %v, got %v", want, surface.Bounds())
	}
	if m.State() != StateIdle {
		t.Errorf("Expected non-finite release to still end the gesture, got %s", m.State())
	}
	if len(r.completed) != 1 || r.completed[0] != want {
		t.Errorf("Expected one completion at %v, got %v", want, r.completed)
	}
}

func TestEveryDragMoveApplies(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	m.Down(types.Point{X: 200, Y: 200})
	for i := 1; i <= 5; i++ {
		m.Move(types.Point{X: 200 + float64(i*10), Y: 200 + float64(i*10)})
	}
	if len(r.changes) != 5 {
		t.Fatalf("Expected 5 bounds changes, got %d", len(r.changes))
	}
	m.Up()

	want := types.Bounds{Left: 100, Top: 100, Right: 250, Bottom: 250}
	if surface.Bounds() != want {
		t.Errorf("Expected resized bounds %v, got %v", want, surface.Bounds())
	}
	if r.gestures[0].Hit.Handle != geometry.HandleBottomRight {
		t.Errorf("Expected bottom-right handle, got %s", r.gestures[0].Hit.Handle)
	}
}

func TestSecondDownIgnored(t *testing.T) {
	surface := newTestSurface(t, true)
	m := newTestMachine(t, surface, &recorder{})

	m.Down(types.Point{X: 150, Y: 150})
	anchor, _ := m.Active()
	if m.Down(types.Point{X: 10, Y: 10}) {
		t.Error("Expected a second pointer down to be ignored")
	}
	g, _ := m.Active()
	if g.Anchor != anchor.Anchor {
		t.Error("Expected anchor to be unchanged by second pointer down")
	}
}

func TestNoImageGate(t *testing.T) {
	surface := newTestSurface(t, false)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	if m.Down(types.Point{X: 10, Y: 10}) {
		t.Error("Expected pointer down without image to be ignored")
	}
	m.Move(types.Point{X: 50, Y: 50})
	m.Up()
	if m.State() != StateIdle {
		t.Errorf("Expected idle, got %s", m.State())
	}
	if len(r.completed) != 0 {
		t.Errorf("Expected no completion without image, got %d", len(r.completed))
	}
}

func TestImageClearedMidGesture(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	m.Down(types.Point{X: 150, Y: 150})
	m.Move(types.Point{X: 170, Y: 170})
	surface.Clear()
	m.Move(types.Point{X: 180, Y: 180})

	if m.State() != StateIdle {
		t.Errorf("Expected idle after image cleared, got %s", m.State())
	}
	if len(r.completed) != 0 {
		t.Error("Expected aborted gesture not to complete")
	}
}

func TestClickCompletesWithoutChange(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)
	before := surface.Bounds()

	m.Down(types.Point{X: 20, Y: 20})
	m.Up()

	if surface.Bounds() != before {
		t.Errorf("Expected bounds unchanged by a click, got %v", surface.Bounds())
	}
	if len(r.completed) != 1 {
		t.Errorf("Expected one completion, got %d", len(r.completed))
	}
}

func TestHandleUnifiedEvents(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)
	adapter := pointer.NewAdapter(pointer.Unscaled(0, 0, 300, 300))

	down, _ := adapter.Touch(pointer.TouchEvent{Touches: []pointer.Touch{{ClientX: 20, ClientY: 20}}}, pointer.Down)
	move, _ := adapter.Touch(pointer.TouchEvent{Touches: []pointer.Touch{{ClientX: 120, ClientY: 90}}}, pointer.Move)
	up, _ := adapter.Touch(pointer.TouchEvent{}, pointer.Up)

	m.Handle(down)
	m.Handle(move)
	m.Handle(up)

	want := types.Bounds{Left: 20, Top: 20, Right: 120, Bottom: 90}
	if surface.Bounds() != want {
		t.Errorf("Expected new selection %v, got %v", want, surface.Bounds())
	}
	if len(r.completed) != 1 {
		t.Errorf("Expected one completion, got %d", len(r.completed))
	}
}

func TestMouseUpWithPointAppliesFinalPosition(t *testing.T) {
	surface := newTestSurface(t, true)
	m := newTestMachine(t, surface, &recorder{})

	m.Handle(pointer.Event{Point: types.Point{X: 150, Y: 150}, Phase: pointer.Down, HasPoint: true})
	m.Handle(pointer.Event{Point: types.Point{X: 160, Y: 150}, Phase: pointer.Move, HasPoint: true})
	m.Handle(pointer.Event{Point: types.Point{X: 170, Y: 150}, Phase: pointer.Up, HasPoint: true})

	if surface.Bounds().Left != 120 {
		t.Errorf("Expected final left 120, got %v", surface.Bounds().Left)
	}
}

func TestReset(t *testing.T) {
	surface := newTestSurface(t, true)
	r := &recorder{}
	m := newTestMachine(t, surface, r)

	m.Reset() // no-op in idle
	m.Down(types.Point{X: 150, Y: 150})
	m.Reset()
	if m.State() != StateIdle {
		t.Errorf("Expected idle after reset, got %s", m.State())
	}
	m.Up()
	if len(r.completed) != 0 {
		t.Error("Expected no completion after reset")
	}
}
