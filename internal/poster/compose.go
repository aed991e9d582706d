package poster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/votemamu/web/internal/forms"
)

// MaxUploadSize bounds the photo accepted for a poster.
const MaxUploadSize = 10 << 20

// ErrUnsupportedImage is returned for uploads that are not PNG, JPEG or GIF.
var ErrUnsupportedImage = errors.New("poster: unsupported image type")

var decodable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// DecodeUpload sniffs and decodes an uploaded photo, honouring EXIF
// orientation.
func DecodeUpload(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, forms.Invalid("photo", "ছবি আপলোড করুন", "POSTER_PHOTO_REQUIRED")
	}
	if len(data) > MaxUploadSize {
		return nil, forms.Invalid("photo", "ছবির আকার ১০ মেগাবাইটের বেশি", "POSTER_PHOTO_TOO_LARGE")
	}
	m := mimetype.Detect(data)
	if !decodable[m.String()] {
		return nil, forms.Wrap(fmt.Errorf("%w: %s", ErrUnsupportedImage, m.String()), "POSTER_PHOTO_TYPE")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, forms.Wrap(fmt.Errorf("poster: decode photo: %w", err), "POSTER_PHOTO_CORRUPT")
	}
	return img, nil
}

// Input is what the user supplies for one poster.
type Input struct {
	Photo       image.Image
	Name        string
	Designation string
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Photo, validation.Required.Error("ছবি আপলোড করুন")),
		validation.Field(&in.Name, validation.Required.Error("নাম লিখুন"), validation.Length(1, 80)),
		validation.Field(&in.Designation, validation.Length(0, 120)),
	)
}

// Composer draws posters with a fixed layout.  It is safe for concurrent use.
type Composer struct {
	layout   Layout
	template image.Image
	face     *Typeface
}

type ComposerOption func(*Composer)

// WithTemplate sets the overlay drawn over the photo.  Transparent regions
// of the template let the photo show through.
func WithTemplate(img image.Image) ComposerOption {
	return func(c *Composer) { c.template = img }
}

func WithTypeface(t *Typeface) ComposerOption {
	return func(c *Composer) { c.face = t }
}

func NewComposer(layout Layout, opts ...ComposerOption) (*Composer, error) {
	c := &Composer{layout: layout}
	for _, opt := range opts {
		opt(c)
	}
	if c.face == nil {
		t, err := DefaultTypeface()
		if err != nil {
			return nil, err
		}
		c.face = t
	}
	if c.template != nil {
		c.template = imaging.Resize(c.template, layout.Width, layout.Height, imaging.Lanczos)
	}
	return c, nil
}

// FromFiles builds a composer with the default layout, loading the template
// and font when their paths are set.
func FromFiles(templatePath, fontPath string) (*Composer, error) {
	var opts []ComposerOption
	if templatePath != "" {
		img, err := LoadTemplate(templatePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTemplate(img))
	}
	if fontPath != "" {
		t, err := LoadTypeface(fontPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTypeface(t))
	}
	return NewComposer(DefaultLayout(), opts...)
}

// LoadTemplate reads a template image from disk.
func LoadTemplate(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("poster: open template: %w", err)
	}
	defer f.Close()
	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("poster: decode template: %w", err)
	}
	return img, nil
}

func (c *Composer) Layout() Layout { return c.layout }

// Compose validates in and renders the poster.
func (c *Composer) Compose(in Input) (*image.NRGBA, error) {
	if err := forms.Check(in, "POSTER_INPUT_INVALID"); err != nil {
		return nil, err
	}
	l := c.layout
	canvas := imaging.New(l.Width, l.Height, l.Background)
	photo := imaging.Fill(in.Photo, l.PhotoRect.Dx(), l.PhotoRect.Dy(), imaging.Center, imaging.Lanczos)
	canvas = imaging.Overlay(canvas, photo, l.PhotoRect.Min, 1)
	if c.template != nil {
		canvas = imaging.Overlay(canvas, c.template, image.Point{}, 1)
	}
	if err := c.face.drawText(canvas, in.Name, l.Name); err != nil {
		return nil, err
	}
	if err := c.face.drawText(canvas, in.Designation, l.Designation); err != nil {
		return nil, err
	}
	return canvas, nil
}

// EncodePNG encodes img fully in memory before anything reaches w, so a
// failed encode never leaves a truncated file behind.
func EncodePNG(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("poster: encode png: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
