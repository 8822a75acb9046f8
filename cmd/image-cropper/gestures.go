package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/image-cropper/pkg/controller"
	"github.com/menta2k/image-cropper/pkg/pointer"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Drag is a scripted pointer gesture from one canvas point to another
type Drag struct {
	From types.Point
	To   types.Point
}

// UnmarshalText parses "x0,y0:x1,y1"
func (d *Drag) UnmarshalText(text []byte) error {
	from, to, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("invalid drag %q (want x0,y0:x1,y1)", text)
	}
	var err error
	if d.From, err = parsePoint(from); err != nil {
		return err
	}
	if d.To, err = parsePoint(to); err != nil {
		return err
	}
	return nil
}

func (d Drag) String() string {
	return fmt.Sprintf("%g,%g:%g,%g", d.From.X, d.From.Y, d.To.X, d.To.Y)
}

func parsePoint(s string) (types.Point, error) {
	vals, err := parseFloats(s, 2)
	if err != nil {
		return types.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return types.Point{X: vals[0], Y: vals[1]}, nil
}

// parseBounds parses "left,top,right,bottom"
func parseBounds(s string) (types.Bounds, error) {
	vals, err := parseFloats(s, 4)
	if err != nil {
		return types.Bounds{}, fmt.Errorf("invalid selection %q: %w", s, err)
	}
	return types.Bounds{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %d", n, len(parts))
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// replay drives a full gesture through the session: press, steps evenly
// spaced moves, release.
func replay(s *controller.Controller, d Drag, steps int) {
	steps = max(steps, 1)
	s.Handle(pointer.Event{Point: d.From, Phase: pointer.Down, HasPoint: true})
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := types.Point{
			X: d.From.X + (d.To.X-d.From.X)*t,
			Y: d.From.Y + (d.To.Y-d.From.Y)*t,
		}
		s.Handle(pointer.Event{Point: p, Phase: pointer.Move, HasPoint: true})
	}
	s.Handle(pointer.Event{Point: d.To, Phase: pointer.Up, HasPoint: true})
}
