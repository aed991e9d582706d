// Package poster renders campaign posters: a user photo and a name line
// composited onto a fixed template.
package poster

import (
	"image"
	"image/color"
)

// TextStyle describes one line of poster text.
type TextStyle struct {
	Box   image.Rectangle
	Size  float64
	Color color.Color
}

// Layout places every poster element on the canvas.  Coordinates are in
// pixels of the exported image.
type Layout struct {
	Width       int
	Height      int
	Background  color.Color
	PhotoRect   image.Rectangle
	Name        TextStyle
	Designation TextStyle
}

// DefaultLayout is a 1080x1350 portrait poster with the photo in the upper
// two thirds and two centred text lines below it.
func DefaultLayout() Layout {
	return Layout{
		Width:      1080,
		Height:     1350,
		Background: color.NRGBA{R: 0x0b, G: 0x6e, B: 0x4f, A: 0xff},
		PhotoRect:  image.Rect(190, 120, 890, 940),
		Name: TextStyle{
			Box:   image.Rect(60, 990, 1020, 1100),
			Size:  64,
			Color: color.White,
		},
		Designation: TextStyle{
			Box:   image.Rect(60, 1110, 1020, 1190),
			Size:  40,
			Color: color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff},
		},
	}
}

// Bounds returns the canvas rectangle.
func (l Layout) Bounds() image.Rectangle { return image.Rect(0, 0, l.Width, l.Height) }
