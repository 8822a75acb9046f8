package orientation

import (
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"

	"github.com/menta2k/image-cropper/internal/testutil"
)

var red = color.NRGBA{255, 0, 0, 255}

func markerAt(img image.Image, x, y int) bool {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA) == red
}

func TestReadTag(t *testing.T) {
	src := testutil.Gradient(64, 48)

	for tag := 1; tag <= 8; tag++ {
		data := testutil.JPEG(src, tag)
		if got := ReadTag(data); got != Tag(tag) {
			t.Errorf("ReadTag(orientation=%d) = %d", tag, got)
		}
	}
}

func TestReadTagFailsOpen(t *testing.T) {
	src := testutil.Gradient(16, 16)
	tests := map[string][]byte{
		"no exif":      testutil.JPEG(src, 0),
		"png":          testutil.PNG(src),
		"garbage":      []byte("definitely not an image"),
		"empty":        nil,
		"out of range": testutil.JPEG(src, 9),
		"truncated":    testutil.JPEG(src, 6)[:30],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ReadTag(data); got != Normal {
				t.Errorf("Expected Normal, got %d", got)
			}
		})
	}
}

func TestNormalizeRotate90CW(t *testing.T) {
	n := New()
	src := testutil.Gradient(800, 600)

	out := n.Normalize(src, Rotate90CW)
	if out.Bounds().Dx() != 600 || out.Bounds().Dy() != 800 {
		t.Fatalf("Expected 600x800, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if !markerAt(out, 599, 0) {
		t.Error("Expected top-left marker to move to the top-right corner")
	}
}

func TestNormalizeTransforms(t *testing.T) {
	src := testutil.Gradient(80, 60)
	tests := []struct {
		tag    Tag
		w, h   int
		mx, my int
	}{
		{FlipH, 80, 60, 79, 0},
		{Rotate180, 80, 60, 79, 59},
		{FlipV, 80, 60, 0, 59},
		{Transpose, 60, 80, 0, 0},
		{Rotate90CW, 60, 80, 59, 0},
		{Transverse, 60, 80, 59, 79},
		{Rotate270CW, 60, 80, 0, 79},
	}
	n := New()
	for _, tt := range tests {
		out := n.Normalize(src, tt.tag)
		b := out.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("tag %d: expected %dx%d, got %dx%d", tt.tag, tt.w, tt.h, b.Dx(), b.Dy())
			continue
		}
		if !markerAt(out, tt.mx, tt.my) {
			t.Errorf("tag %d: expected marker at (%d,%d)", tt.tag, tt.mx, tt.my)
		}
		if tt.tag.SwapsAxes() != (tt.w != 80) {
			t.Errorf("tag %d: SwapsAxes() = %v", tt.tag, tt.tag.SwapsAxes())
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New()
	src := testutil.Gradient(40, 30)

	if out := n.Normalize(src, Normal); out != image.Image(src) {
		t.Error("Expected upright image to be returned unchanged")
	}

	upright := n.Normalize(src, Rotate90CW)
	data, err := Reencode(upright)
	if err != nil {
		t.Fatalf("Reencode failed: %v", err)
	}
	again, tag := n.NormalizeBytes(upright, data)
	if tag != Normal {
		t.Errorf("Expected re-encoded image to carry no orientation, got %d", tag)
	}
	if again != upright {
		t.Error("Expected normalizing an upright image to be a no-op")
	}
}

func TestRotationsOnlyModeLeavesMirrors(t *testing.T) {
	n := NewWithMode(ModeRotationsOnly, zerolog.Nop())
	src := testutil.Gradient(40, 30)

	for _, tag := range []Tag{FlipH, FlipV, Transpose, Transverse} {
		if out := n.Normalize(src, tag); out != image.Image(src) {
			t.Errorf("tag %d: expected mirror orientation to be left as-is", tag)
		}
	}
	for _, tag := range []Tag{Rotate180, Rotate90CW, Rotate270CW} {
		if !n.Applies(tag) {
			t.Errorf("tag %d: expected rotation to be corrected", tag)
		}
	}
}

func TestNormalizeBytesFromJPEG(t *testing.T) {
	n := New()
	src := testutil.Gradient(80, 60)
	data := testutil.JPEG(src, int(Rotate270CW))

	out, tag := n.NormalizeBytes(src, data)
	if tag != Rotate270CW {
		t.Fatalf("Expected tag 8, got %d", tag)
	}
	if out.Bounds().Dx() != 60 || out.Bounds().Dy() != 80 {
		t.Errorf("Expected 60x80, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("rotations"); err != nil || m != ModeRotationsOnly {
		t.Errorf("ParseMode(rotations) = %v, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeFull {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
