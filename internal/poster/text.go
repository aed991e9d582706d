package poster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Typeface is a parsed font from which faces of any size are cut.
type Typeface struct {
	font *opentype.Font
}

// DefaultTypeface is the bundled Go Regular font.
func DefaultTypeface() (*Typeface, error) {
	return ParseTypeface(goregular.TTF)
}

// LoadTypeface reads a TTF/OTF file.  An empty path yields DefaultTypeface.
func LoadTypeface(path string) (*Typeface, error) {
	if path == "" {
		return DefaultTypeface()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("poster: read font: %w", err)
	}
	return ParseTypeface(data)
}

func ParseTypeface(data []byte) (*Typeface, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("poster: parse font: %w", err)
	}
	return &Typeface{font: f}, nil
}

func (t *Typeface) face(size float64) (font.Face, error) {
	return opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawText writes s centred in style.Box.  The size shrinks until the line
// fits the box width.
func (t *Typeface) drawText(dst draw.Image, s string, style TextStyle) error {
	if s == "" {
		return nil
	}
	size := style.Size
	for {
		face, err := t.face(size)
		if err != nil {
			return fmt.Errorf("poster: font face: %w", err)
		}
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(colorOr(style.Color)), Face: face}
		width := d.MeasureString(s).Ceil()
		if width > style.Box.Dx() && size > 12 {
			_ = face.Close()
			size *= 0.9
			continue
		}
		m := face.Metrics()
		textHeight := (m.Ascent + m.Descent).Ceil()
		x := style.Box.Min.X + (style.Box.Dx()-width)/2
		y := style.Box.Min.Y + (style.Box.Dy()-textHeight)/2 + m.Ascent.Ceil()
		d.Dot = fixed.P(x, y)
		d.DrawString(s)
		return face.Close()
	}
}

func colorOr(c color.Color) color.Color {
	if c == nil {
		return color.White
	}
	return c
}
