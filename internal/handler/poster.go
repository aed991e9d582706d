package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/poster"
)

// PosterHandler renders campaign posters from an uploaded photo.
type PosterHandler struct {
	Composer *poster.Composer
	Remover  poster.BackgroundRemover
	Log      logging.Logger
}

func NewPosterHandler(c *poster.Composer, r poster.BackgroundRemover, log logging.Logger) *PosterHandler {
	if c == nil {
		panic("nil composer passed to NewPosterHandler")
	}
	return &PosterHandler{Composer: c, Remover: r, Log: logging.OrNoOp(log)}
}

// Generate answers POST /generate.  The multipart form carries photo, name,
// designation and an optional remove_background flag; the response is the
// finished PNG as an attachment.  Nothing is written unless the whole
// poster rendered.
func (h *PosterHandler) Generate(c echo.Context) error {
	photo, err := formUpload(c, "photo")
	if err != nil {
		return fail(c, err)
	}
	if photo.Empty() {
		return fail(c, forms.Invalid("photo", "একটি ছবি দিন", "POSTER_PHOTO_MISSING"))
	}

	// text first, so the photo triggers the only render
	s := poster.NewSession(h.Composer, h.Remover, h.Log)
	s.SetName(c.FormValue("name"))
	s.SetDesignation(c.FormValue("designation"))
	if err := s.SetPhoto(photo.Data); err != nil {
		return fail(c, err)
	}
	if !s.Ready() {
		return fail(c, forms.Invalid("name", "নাম দিন", "POSTER_NAME_MISSING"))
	}

	if remove, _ := strconv.ParseBool(c.FormValue("remove_background")); remove {
		if err := s.RemoveBackground(c.Request().Context()); err != nil {
			return fail(c, err)
		}
	}

	var buf bytes.Buffer
	if err := s.ExportPNG(&buf); err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="poster.png"`)
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}
