package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Common aspect ratios
var (
	Free       = AspectRatio{0, 0, "free"}
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// Ratio returns width/height, or 0 for a free ratio
func (a AspectRatio) Ratio() float64 {
	if a.Width <= 0 || a.Height <= 0 {
		return 0
	}
	return float64(a.Width) / float64(a.Height)
}

// ParseAspectRatio accepts a preset name, "free", or "W:H"
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == Free.Name {
		return Free, nil
	}
	for _, r := range CommonAspectRatios() {
		if r.Name == s {
			return r, nil
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q (want name or W:H)", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("aspect ratio %q must be positive", s)
	}
	return AspectRatio{Width: w, Height: h, Name: s}, nil
}
