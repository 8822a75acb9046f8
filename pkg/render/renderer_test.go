package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cropper/internal/testutil"
	"github.com/menta2k/image-cropper/pkg/types"
)

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func TestExportFullPlacementMatchesResize(t *testing.T) {
	src := testutil.Gradient(600, 400)
	placement := types.BoundsFromSize(0, 50, 300, 200)
	r := NewRenderer(300, 300, DefaultStyle(), DefaultOutput())

	res, err := r.ExportCrop(src, placement, placement)
	if err != nil {
		t.Fatalf("ExportCrop failed: %v", err)
	}
	if res.Width != 300 || res.Height != 200 {
		t.Fatalf("Expected 300x200, got %dx%d", res.Width, res.Height)
	}
	if res.Format != FormatPNG {
		t.Errorf("Expected png, got %s", res.Format)
	}

	got := decodePNG(t, res.Data)
	want := imaging.Resize(src, 300, 200, imaging.Lanczos)
	for y := 0; y < 200; y += 7 {
		for x := 0; x < 300; x += 7 {
			if nrgbaAt(got, x, y) != want.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d): expected %v, got %v", x, y, want.NRGBAAt(x, y), nrgbaAt(got, x, y))
			}
		}
	}
}

func TestExportMapsBoundsToSource(t *testing.T) {
	src := testutil.Gradient(600, 400)
	placement := types.BoundsFromSize(0, 50, 300, 200)
	r := NewRenderer(300, 300, DefaultStyle(), DefaultOutput())

	// canvas (100,100)-(200,200) is source (200,100)-(400,300) at scale 0.5
	bounds := types.Bounds{Left: 100, Top: 100, Right: 200, Bottom: 200}
	img, err := r.CropImage(src, placement, bounds)
	if err != nil {
		t.Fatalf("CropImage failed: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("Expected 100x100, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	want := imaging.Resize(imaging.Crop(src, image.Rect(200, 100, 400, 300)), 100, 100, imaging.Lanczos)
	if img.NRGBAAt(50, 50) != want.NRGBAAt(50, 50) {
		t.Errorf("Expected %v, got %v", want.NRGBAAt(50, 50), img.NRGBAAt(50, 50))
	}
}

func TestExportRoundsOutputSize(t *testing.T) {
	src := testutil.Gradient(100, 100)
	placement := types.BoundsFromSize(0, 0, 100, 100)
	r := NewRenderer(100, 100, DefaultStyle(), DefaultOutput())

	res, err := r.ExportCrop(src, placement, types.Bounds{Left: 10.4, Top: 10, Right: 61, Bottom: 30.2})
	if err != nil {
		t.Fatalf("ExportCrop failed: %v", err)
	}
	if res.Width != 51 || res.Height != 20 {
		t.Errorf("Expected 51x20, got %dx%d", res.Width, res.Height)
	}
}

func TestExportEmptySelection(t *testing.T) {
	r := NewRenderer(100, 100, DefaultStyle(), DefaultOutput())
	src := testutil.Gradient(10, 10)
	placement := types.BoundsFromSize(0, 0, 100, 100)

	tests := map[string]struct {
		src       image.Image
		placement types.Bounds
		bounds    types.Bounds
	}{
		"nil source":      {nil, placement, placement},
		"empty placement": {src, types.Bounds{}, placement},
		"empty bounds":    {src, placement, types.Bounds{Left: 5, Top: 5, Right: 5, Bottom: 9}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := r.ExportCrop(tt.src, tt.placement, tt.bounds); !errors.Is(err, ErrNoSelection) {
				t.Errorf("Expected ErrNoSelection, got %v", err)
			}
		})
	}
}

func TestExportFormats(t *testing.T) {
	src := testutil.Gradient(40, 40)
	placement := types.BoundsFromSize(0, 0, 40, 40)

	jr := NewRenderer(40, 40, DefaultStyle(), Output{Format: "jpg", Quality: 80})
	res, err := jr.ExportCrop(src, placement, placement)
	if err != nil {
		t.Fatalf("jpeg export failed: %v", err)
	}
	if res.Format != FormatJPEG || res.MIMEType() != "image/jpeg" {
		t.Errorf("Expected jpeg, got %s (%s)", res.Format, res.MIMEType())
	}
	if !bytes.HasPrefix(res.Data, []byte{0xFF, 0xD8}) {
		t.Error("Expected JPEG SOI marker")
	}

	wr := NewRenderer(40, 40, DefaultStyle(), Output{Format: "webp", Lossless: true})
	res, err = wr.ExportCrop(src, placement, placement)
	if err != nil {
		t.Fatalf("webp export failed: %v", err)
	}
	img, err := webp.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("webp decode failed: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Errorf("Expected width 40, got %d", img.Bounds().Dx())
	}
}

func TestRedrawLayers(t *testing.T) {
	style := DefaultStyle()
	r := NewRenderer(300, 300, style, DefaultOutput())
	src := testutil.Gradient(600, 400)
	placement := types.BoundsFromSize(0, 50, 300, 200)
	bounds := types.Bounds{Left: 100, Top: 100, Right: 200, Bottom: 200}

	frame := r.Redraw(src, placement, bounds)
	if frame.Bounds().Dx() != 300 || frame.Bounds().Dy() != 300 {
		t.Fatalf("Expected 300x300 canvas, got %v", frame.Bounds())
	}

	if got := frame.NRGBAAt(150, 10); got != style.Background {
		t.Errorf("Expected background above placement, got %v", got)
	}

	scaled := imaging.Resize(src, 300, 200, imaging.Lanczos)
	if got, want := frame.NRGBAAt(150, 150), scaled.NRGBAAt(150, 100); got != want {
		t.Errorf("Expected unshaded pixel %v inside bounds, got %v", want, got)
	}

	outside := frame.NRGBAAt(50, 150)
	plain := scaled.NRGBAAt(50, 100)
	if outside.R >= plain.R && outside.G >= plain.G && outside.B >= plain.B {
		t.Errorf("Expected shaded pixel outside bounds, got %v vs %v", outside, plain)
	}

	if got := frame.NRGBAAt(120, 100); got != style.Stroke {
		t.Errorf("Expected stroke on top edge, got %v", got)
	}
	if got := frame.NRGBAAt(197, 197); got != style.Handle {
		t.Errorf("Expected handle marker near bottom-right corner, got %v", got)
	}
}

func TestRedrawWithoutImage(t *testing.T) {
	style := DefaultStyle()
	r := NewRenderer(50, 40, style, DefaultOutput())
	frame := r.Redraw(nil, types.Bounds{}, types.Bounds{})
	if frame.NRGBAAt(25, 20) != style.Background {
		t.Errorf("Expected background, got %v", frame.NRGBAAt(25, 20))
	}
}

func TestScaleCache(t *testing.T) {
	r := NewRenderer(100, 100, DefaultStyle(), DefaultOutput())
	src := testutil.Gradient(200, 200)

	a := r.scaleTo(src, 100, 100)
	b := r.scaleTo(src, 100, 100)
	if a != b {
		t.Error("Expected cached scaled image to be reused")
	}
	if c := r.scaleTo(src, 50, 50); c == a {
		t.Error("Expected new scaled image for a new size")
	}
	r.Reset()
	if r.scaled != nil {
		t.Error("Expected Reset to drop cache")
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{
		"png":  FormatPNG,
		"PNG":  FormatPNG,
		".jpg": FormatJPEG,
		"jpeg": FormatJPEG,
		"webp": FormatWebP,
		"":     FormatPNG,
		"bmp":  FormatPNG,
	}
	for in, want := range tests {
		if got := NormalizeFormat(in); got != want {
			t.Errorf("NormalizeFormat(%q) = %s, expected %s", in, got, want)
		}
	}
	if ValidFormat("bmp") {
		t.Error("Expected bmp to be an invalid output format")
	}
	if !ValidFormat("JPG") {
		t.Error("Expected JPG to be valid")
	}
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	src := testutil.Gradient(20, 20)

	for _, format := range []string{"png", "jpeg", "webp"} {
		path := filepath.Join(dir, "out."+format)
		if err := SaveImage(src, path, format, 90, false); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("Expected non-empty %s file", format)
		}
	}
}

func BenchmarkRedraw(b *testing.B) {
	r := NewRenderer(800, 600, DefaultStyle(), DefaultOutput())
	src := testutil.Gradient(1600, 1200)
	placement := types.BoundsFromSize(0, 0, 800, 600)
	bounds := types.Bounds{Left: 100, Top: 100, Right: 500, Bottom: 400}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Redraw(src, placement, bounds)
	}
}
