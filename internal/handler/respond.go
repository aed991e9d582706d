package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/admin"
	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/session"
)

// maxUpload bounds a single uploaded file read into memory.
var maxUpload = 100 << 20

// statusOf maps an error onto the HTTP status the browser sees.  Local
// validation failures never reached the backend and answer 422; backend
// rejections keep their meaning; anything else the backend did is a 502.
func statusOf(err error) int {
	var apiErr *api.Error
	switch {
	case forms.IsInvalid(err):
		return http.StatusUnprocessableEntity
	case goerrors.IsCategory(err, goerrors.CategoryExternal):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrExpired):
		return http.StatusUnauthorized
	case errors.Is(err, admin.ErrNoModal), errors.Is(err, admin.ErrNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, api.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, api.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var errorCodes = map[int]string{
	http.StatusBadRequest:          "bad_request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "conflict",
	http.StatusUnprocessableEntity: "validation_failed",
	http.StatusBadGateway:          "upstream_error",
	http.StatusGatewayTimeout:      "upstream_timeout",
}

// errorBody is the JSON shape of every failure.
func errorBody(err error) (int, echo.Map) {
	status := statusOf(err)
	code, ok := errorCodes[status]
	if !ok {
		code = "internal"
	}
	body := echo.Map{"error": code, "message": messageOf(err, status)}
	if fields := forms.Fields(err); len(fields) > 0 {
		body["fields"] = fields
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		body["fields"] = apiErr.Errors
	}
	return status, body
}

func messageOf(err error, status int) string {
	var ge *goerrors.Error
	switch {
	case forms.IsInvalid(err):
		if len(forms.Fields(err)) == 0 && errors.As(err, &ge) && ge.Source != nil {
			return ge.Source.Error()
		}
		return forms.Message(err)
	case status == http.StatusInternalServerError:
		return api.GenericMessage
	}
	if errors.As(err, &ge) && ge.Category == goerrors.CategoryExternal {
		return ge.Message
	}
	return api.Message(err, "")
}

// fail writes err as JSON.
func fail(c echo.Context, err error) error {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(c echo.Context, name string, d int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil && n > 0 {
		return n
	}
	return d
}

// formUpload reads the file part named field.  A missing part is not an
// error; it yields nil.
func formUpload(c echo.Context, field string) (*api.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readUpload(fh.Filename, fh.Header.Get(echo.HeaderContentType), func() (io.ReadCloser, error) { return fh.Open() })
}

// formUploads reads every file part named field or field[].
func formUploads(c echo.Context, field string) ([]api.Upload, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := append(mf.File[field], mf.File[field+"[]"]...)
	out := make([]api.Upload, 0, len(files))
	for _, fh := range files {
		u, err := readUpload(fh.Filename, fh.Header.Get(echo.HeaderContentType), func() (io.ReadCloser, error) { return fh.Open() })
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func readUpload(name, contentType string, open func() (io.ReadCloser, error)) (*api.Upload, error) {
	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(maxUpload)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUpload {
		return nil, forms.Invalid("file", fmt.Sprintf("ফাইল %d মেগাবাইটের বেশি", maxUpload>>20), "UPLOAD_TOO_LARGE")
	}
	return &api.Upload{Filename: name, ContentType: contentType, Data: data}, nil
}
