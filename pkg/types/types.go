package types

import (
	"encoding/base64"
	"fmt"
	"math"
)

// Point is a position in canvas pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy)
func (p Point) Add(dx, dy float64) Point { return Point{p.X + dx, p.Y + dy} }

// Sub returns the vector from q to p
func (p Point) Sub(q Point) (float64, float64) { return p.X - q.X, p.Y - q.Y }

// Finite reports whether both coordinates are finite numbers
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Dist returns the euclidean distance between p and q
func (p Point) Dist(q Point) float64 {
	dx, dy := p.Sub(q)
	return math.Sqrt(dx*dx + dy*dy)
}

// Bounds is an axis-aligned rectangle in canvas pixel space
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// BoundsFromSize builds bounds from an origin and a size
func BoundsFromSize(x, y, w, h float64) Bounds {
	return Bounds{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// BoundsFromPoints returns the normalized rectangle spanned by a and b
func BoundsFromPoints(a, b Point) Bounds {
	return Bounds{
		Left:   math.Min(a.X, b.X),
		Top:    math.Min(a.Y, b.Y),
		Right:  math.Max(a.X, b.X),
		Bottom: math.Max(a.Y, b.Y),
	}
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Center returns the center point of the rectangle
func (b Bounds) Center() Point {
	return Point{(b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2}
}

// Translate shifts all four edges by (dx, dy)
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{b.Left + dx, b.Top + dy, b.Right + dx, b.Bottom + dy}
}

// Contains reports whether p lies inside or on the rectangle
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// Within reports whether b lies fully inside outer
func (b Bounds) Within(outer Bounds) bool {
	return b.Left >= outer.Left && b.Top >= outer.Top && b.Right <= outer.Right && b.Bottom <= outer.Bottom
}

// Valid reports whether the edges are ordered
func (b Bounds) Valid() bool {
	return b.Left <= b.Right && b.Top <= b.Bottom
}

// Empty reports whether the rectangle has zero area
func (b Bounds) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%.1f,%.1f)-(%.1f,%.1f)", b.Left, b.Top, b.Right, b.Bottom)
}

// CroppedResult is an encoded crop of the current selection
type CroppedResult struct {
	Data   []byte `json:"-"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MIMEType returns the media type of the encoded data
func (r CroppedResult) MIMEType() string {
	switch r.Format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// DataURL returns the encoded image as a base64 data URL
func (r CroppedResult) DataURL() string {
	return "data:" + r.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Empty reports whether the result holds no encoded image
func (r CroppedResult) Empty() bool {
	return len(r.Data) == 0
}
