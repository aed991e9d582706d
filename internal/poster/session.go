package poster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
)

// ErrNoRemover is returned when background removal is requested but no
// remover is configured.
var ErrNoRemover = errors.New("poster: background removal unavailable")

// Session is a live poster preview.  Every input change redraws the preview
// as soon as photo and name are both present.  Background removal replaces
// the working photo and cannot be undone; uploading a new photo starts over.
type Session struct {
	mu          sync.Mutex
	composer    *Composer
	remover     BackgroundRemover
	log         logging.Logger
	photo       image.Image
	name        string
	designation string
	bgRemoved   bool
	preview     *image.NRGBA
	renderErr   error
}

func NewSession(c *Composer, r BackgroundRemover, log logging.Logger) *Session {
	return &Session{composer: c, remover: r, log: logging.OrNoOp(log)}
}

// SetPhoto decodes an upload and makes it the working photo.
func (s *Session) SetPhoto(data []byte) error {
	img, err := DecodeUpload(data)
	if err != nil {
		return err
	}
	s.SetImage(img)
	return nil
}

// SetImage makes img the working photo.
func (s *Session) SetImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = img
	s.bgRemoved = false
	s.redraw()
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = strings.TrimSpace(name)
	s.redraw()
}

func (s *Session) SetDesignation(d string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.designation = strings.TrimSpace(d)
	s.redraw()
}

// Ready reports whether generation and download are enabled.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready()
}

// BackgroundRemoved reports whether the working photo has been matted.
func (s *Session) BackgroundRemoved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bgRemoved
}

// Preview returns the current rendering, or nil while inputs are incomplete.
func (s *Session) Preview() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return nil
	}
	return s.preview
}

// RemoveBackground runs the remover on the working photo.  On failure the
// photo is left untouched and the error is meant to be shown to the user.
// Calling it again after success is a no-op.
func (s *Session) RemoveBackground(ctx context.Context) error {
	s.mu.Lock()
	photo, done := s.photo, s.bgRemoved
	s.mu.Unlock()
	if photo == nil {
		return forms.Invalid("photo", "ছবি আপলোড করুন", "POSTER_PHOTO_REQUIRED")
	}
	if done {
		return nil
	}
	if s.remover == nil {
		return removalFailed(ErrNoRemover)
	}
	out, err := s.remover.RemoveBackground(ctx, photo)
	if err != nil {
		s.log.Warn("poster: background removal failed", "error", err)
		return removalFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a new upload during the call wins
	if s.photo != photo {
		return nil
	}
	s.photo = out
	s.bgRemoved = true
	s.redraw()
	return nil
}

// ExportPNG writes the poster to w.  Nothing is written unless rendering
// and encoding both succeed.
func (s *Session) ExportPNG(w io.Writer) error {
	img, err := s.render()
	if err != nil {
		return err
	}
	return EncodePNG(w, img)
}

// ExportFile writes the poster to path through a temporary file in the same
// directory, so a failure never leaves a partial file at path.
func (s *Session) ExportFile(path string) error {
	img, err := s.render()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".poster-*.png")
	if err != nil {
		return fmt.Errorf("poster: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := EncodePNG(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Session) render() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview != nil {
		return s.preview, nil
	}
	if err := forms.Check(s.input(), "POSTER_INPUT_INVALID"); err != nil {
		return nil, err
	}
	if s.renderErr != nil {
		return nil, s.renderErr
	}
	return nil, errors.New("poster: nothing rendered")
}

func (s *Session) ready() bool { return s.photo != nil && s.name != "" }

func (s *Session) input() Input {
	return Input{Photo: s.photo, Name: s.name, Designation: s.designation}
}

// redraw must be called with mu held.
func (s *Session) redraw() {
	s.preview, s.renderErr = nil, nil
	if !s.ready() {
		return
	}
	img, err := s.composer.Compose(s.input())
	if err != nil {
		s.log.Warn("poster: render failed", "error", err)
		s.renderErr = err
		return
	}
	s.preview = img
}
