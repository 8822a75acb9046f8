// Package render draws the crop canvas and exports the selected region of
// the source image.
package render

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

// ErrNoSelection is returned when exporting with nothing to crop
var ErrNoSelection = errors.New("render: empty crop selection")

// Style controls how the canvas overlay is drawn
type Style struct {
	Background  color.NRGBA
	Shade       color.NRGBA
	Stroke      color.NRGBA
	Handle      color.NRGBA
	StrokeWidth int
	HandleSize  int
}

// DefaultStyle returns a dark backdrop, translucent shade and white stroke
func DefaultStyle() Style {
	return Style{
		Background:  color.NRGBA{32, 32, 32, 255},
		Shade:       color.NRGBA{0, 0, 0, 128},
		Stroke:      color.NRGBA{255, 255, 255, 255},
		Handle:      color.NRGBA{255, 255, 255, 255},
		StrokeWidth: 1,
		HandleSize:  8,
	}
}

// Output controls export encoding
type Output struct {
	Format   string
	Quality  int
	Lossless bool
}

// DefaultOutput returns PNG output
func DefaultOutput() Output {
	return Output{Format: FormatPNG, Quality: 90}
}

// Renderer draws canvas frames and crops. It is not safe for concurrent
// use.
type Renderer struct {
	width, height int
	style         Style
	output        Output

	// last scaled copy of the source for the current placement
	scaledSrc image.Image
	scaled    *image.NRGBA
	scaledW   int
	scaledH   int
}

// NewRenderer creates a renderer for a canvas of the given size
func NewRenderer(width, height int, style Style, output Output) *Renderer {
	output.Format = NormalizeFormat(output.Format)
	if output.Quality <= 0 || output.Quality > 100 {
		output.Quality = DefaultOutput().Quality
	}
	return &Renderer{width: width, height: height, style: style, output: output}
}

// Output returns the export encoding settings
func (r *Renderer) Output() Output { return r.output }

// Redraw paints a full canvas frame. With a nil src only the background is
// drawn.
func (r *Renderer) Redraw(src image.Image, placement, bounds types.Bounds) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: r.style.Background}, image.Point{}, draw.Src)
	if src == nil || placement.Empty() {
		return dst
	}

	at := pixelRect(placement)
	scaled := r.scaleTo(src, at.Dx(), at.Dy())
	draw.Draw(dst, at, scaled, image.Point{}, draw.Over)

	if bounds.Empty() {
		return dst
	}

	crop := pixelRect(bounds)
	r.shadeOutside(dst, at, crop)
	r.strokeRect(dst, crop)
	for _, h := range geometry.Handles() {
		r.drawHandle(dst, h.Position(bounds))
	}
	return dst
}

// ExportCrop maps bounds from canvas space into source pixels, crops,
// resamples to the on-canvas size of bounds and encodes the result.
func (r *Renderer) ExportCrop(src image.Image, placement, bounds types.Bounds) (types.CroppedResult, error) {
	img, err := r.CropImage(src, placement, bounds)
	if err != nil {
		return types.CroppedResult{}, err
	}
	data, err := Encode(img, r.output.Format, r.output.Quality, r.output.Lossless)
	if err != nil {
		return types.CroppedResult{}, err
	}
	return types.CroppedResult{
		Data:   data,
		Format: r.output.Format,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// CropImage returns the unencoded crop of src selected by bounds
func (r *Renderer) CropImage(src image.Image, placement, bounds types.Bounds) (*image.NRGBA, error) {
	if src == nil || placement.Empty() || bounds.Empty() {
		return nil, ErrNoSelection
	}

	sb := src.Bounds()
	scale := placement.Width() / float64(sb.Dx())
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, ErrNoSelection
	}

	rect := image.Rect(
		sb.Min.X+int(math.Round((bounds.Left-placement.Left)/scale)),
		sb.Min.Y+int(math.Round((bounds.Top-placement.Top)/scale)),
		sb.Min.X+int(math.Round((bounds.Right-placement.Left)/scale)),
		sb.Min.Y+int(math.Round((bounds.Bottom-placement.Top)/scale)),
	).Intersect(sb)
	if rect.Empty() {
		return nil, ErrNoSelection
	}

	outW := max(int(math.Round(bounds.Width())), 1)
	outH := max(int(math.Round(bounds.Height())), 1)

	var cropped image.Image = src
	if rect != sb {
		cropped = imaging.Crop(src, rect)
	}
	return imaging.Resize(cropped, outW, outH, imaging.Lanczos), nil
}

// scaleTo resamples src to w x h, reusing the previous result when neither
// the source nor the size changed.
func (r *Renderer) scaleTo(src image.Image, w, h int) *image.NRGBA {
	if r.scaled != nil && r.scaledSrc == src && r.scaledW == w && r.scaledH == h {
		return r.scaled
	}
	r.scaled = imaging.Resize(src, w, h, imaging.Lanczos)
	r.scaledSrc, r.scaledW, r.scaledH = src, w, h
	return r.scaled
}

// Reset drops the cached scaled source
func (r *Renderer) Reset() {
	r.scaled, r.scaledSrc = nil, nil
	r.scaledW, r.scaledH = 0, 0
}

func (r *Renderer) shadeOutside(dst *image.NRGBA, area, crop image.Rectangle) {
	shade := &image.Uniform{C: r.style.Shade}
	crop = crop.Intersect(area)
	parts := []image.Rectangle{
		image.Rect(area.Min.X, area.Min.Y, area.Max.X, crop.Min.Y),
		image.Rect(area.Min.X, crop.Max.Y, area.Max.X, area.Max.Y),
		image.Rect(area.Min.X, crop.Min.Y, crop.Min.X, crop.Max.Y),
		image.Rect(crop.Max.X, crop.Min.Y, area.Max.X, crop.Max.Y),
	}
	for _, p := range parts {
		if !p.Empty() {
			draw.Draw(dst, p, shade, image.Point{}, draw.Over)
		}
	}
}

func (r *Renderer) strokeRect(dst *image.NRGBA, rect image.Rectangle) {
	for s := 0; s < r.style.StrokeWidth; s++ {
		drawHLine(dst, rect.Min.Y+s, rect.Min.X, rect.Max.X, r.style.Stroke)
		drawHLine(dst, rect.Max.Y-1-s, rect.Min.X, rect.Max.X, r.style.Stroke)
		drawVLine(dst, rect.Min.X+s, rect.Min.Y, rect.Max.Y, r.style.Stroke)
		drawVLine(dst, rect.Max.X-1-s, rect.Min.Y, rect.Max.Y, r.style.Stroke)
	}
}

func (r *Renderer) drawHandle(dst *image.NRGBA, p types.Point) {
	half := r.style.HandleSize / 2
	if half <= 0 {
		return
	}
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	box := image.Rect(cx-half, cy-half, cx+half, cy+half)
	draw.Draw(dst, box.Intersect(dst.Bounds()), &image.Uniform{C: r.style.Handle}, image.Point{}, draw.Src)
}

// pixelRect snaps canvas bounds to whole pixels
func pixelRect(b types.Bounds) image.Rectangle {
	return image.Rect(
		int(math.Round(b.Left)),
		int(math.Round(b.Top)),
		int(math.Round(b.Right)),
		int(math.Round(b.Bottom)),
	)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	x0, x1 = max(min(x0, x1), b.Min.X), min(max(x0, x1), b.Max.X)
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	y0, y1 = max(min(y0, y1), b.Min.Y), min(max(y0, y1), b.Max.Y)
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
