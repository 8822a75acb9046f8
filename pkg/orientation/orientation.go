// Package orientation reads the EXIF orientation tag of encoded images and
// re-renders rotated images upright before they are placed on the canvas.
package orientation

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
)

// Tag describes an EXIF orientation tag value
type Tag int

const (
	Normal      Tag = 1
	FlipH       Tag = 2
	Rotate180   Tag = 3
	FlipV       Tag = 4
	Transpose   Tag = 5 // rotate 90 CW + flip H
	Rotate90CW  Tag = 6
	Transverse  Tag = 7 // rotate 270 CW + flip H
	Rotate270CW Tag = 8
)

// Valid reports whether t is a defined orientation
func (t Tag) Valid() bool { return t >= Normal && t <= Rotate270CW }

// Mirrored reports whether t includes a reflection
func (t Tag) Mirrored() bool {
	return t == FlipH || t == FlipV || t == Transpose || t == Transverse
}

// SwapsAxes reports whether correcting t swaps width and height
func (t Tag) SwapsAxes() bool {
	return t == Transpose || t == Rotate90CW || t == Transverse || t == Rotate270CW
}

// Mode selects which orientations are corrected
type Mode int

const (
	// ModeFull corrects all eight orientations
	ModeFull Mode = iota
	// ModeRotationsOnly corrects 3, 6 and 8 and leaves mirrored
	// orientations untouched
	ModeRotationsOnly
)

func (m Mode) String() string {
	if m == ModeRotationsOnly {
		return "rotations"
	}
	return "full"
}

// ParseMode accepts "full" or "rotations"
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "full":
		return ModeFull, nil
	case "rotations", "rotations-only":
		return ModeRotationsOnly, nil
	default:
		return ModeFull, fmt.Errorf("unknown orientation mode %q", s)
	}
}

// ReadTag extracts the orientation tag from encoded image bytes. Missing or
// unreadable metadata yields Normal.
func ReadTag(data []byte) (t Tag) {
	// goexif can panic on truncated IFDs
	defer func() {
		if recover() != nil {
			t = Normal
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Normal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return Normal
	}
	v, err := tag.Int(0)
	if err != nil {
		return Normal
	}
	if t := Tag(v); t.Valid() {
		return t
	}
	return Normal
}

// Normalizer turns oriented images upright
type Normalizer struct {
	mode   Mode
	logger zerolog.Logger
}

// New creates a Normalizer correcting all orientations
func New() *Normalizer {
	return &Normalizer{mode: ModeFull, logger: zerolog.Nop()}
}

// NewWithMode creates a Normalizer with a custom mode and logger
func NewWithMode(mode Mode, logger zerolog.Logger) *Normalizer {
	return &Normalizer{mode: mode, logger: logger}
}

// Mode returns the correction mode
func (n *Normalizer) Mode() Mode { return n.mode }

// Applies reports whether t would be corrected in this mode
func (n *Normalizer) Applies(t Tag) bool {
	if !t.Valid() || t == Normal {
		return false
	}
	if t.Mirrored() {
		return n.mode == ModeFull
	}
	return true
}

// Normalize returns img corrected for t. When no correction applies the
// same image value is returned.
func (n *Normalizer) Normalize(img image.Image, t Tag) image.Image {
	if img == nil || !n.Applies(t) {
		return img
	}

	var out *image.NRGBA
	switch t {
	case FlipH:
		out = imaging.FlipH(img)
	case Rotate180:
		out = imaging.Rotate180(img)
	case FlipV:
		out = imaging.FlipV(img)
	case Transpose:
		out = imaging.Transpose(img)
	case Rotate90CW:
		out = imaging.Rotate270(img)
	case Transverse:
		out = imaging.Transverse(img)
	case Rotate270CW:
		out = imaging.Rotate90(img)
	default:
		return img
	}

	b := img.Bounds()
	n.logger.Debug().
		Int("orientation", int(t)).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("upright_width", out.Bounds().Dx()).
		Int("upright_height", out.Bounds().Dy()).
		Msg("image re-rendered upright")
	return out
}

// NormalizeBytes reads the orientation tag from data and corrects img
// which must be the decoded form of data.
func (n *Normalizer) NormalizeBytes(img image.Image, data []byte) (image.Image, Tag) {
	t := ReadTag(data)
	return n.Normalize(img, t), t
}

// Reencode encodes an upright image as PNG
func Reencode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode upright image: %w", err)
	}
	return buf.Bytes(), nil
}
