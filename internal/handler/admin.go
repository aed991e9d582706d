package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/admin"
	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/middleware"
)

// AdminHandler serves the back-office screens.  Each request builds a
// fresh screen over a client carrying the admin's backend token.
type AdminHandler struct {
	API *api.Client
	Log logging.Logger
	// Taxonomy is purged after party and symbol writes.
	Taxonomy Invalidator
}

// Invalidator drops cached reference data.
type Invalidator interface {
	Invalidate()
}

func NewAdminHandler(c *api.Client, log logging.Logger) *AdminHandler {
	if c == nil {
		panic("nil api client passed to NewAdminHandler")
	}
	return &AdminHandler{API: c, Log: logging.OrNoOp(log)}
}

// client returns the backend client acting as the signed-in admin.
func (h *AdminHandler) client(c echo.Context) *api.Client {
	sess, _ := middleware.SessionFrom(c)
	return h.API.WithToken(sess.Token)
}

// NewsPreview renders Markdown from the content parameter to HTML.  Raw
// HTML in the source is dropped.
func (h *AdminHandler) NewsPreview(c echo.Context) error {
	out, err := admin.RenderMarkdown(c.FormValue("content"))
	if err != nil {
		return fail(c, err)
	}
	return c.HTML(http.StatusOK, string(out))
}

// MountScreen registers list, create, update and delete for one screen:
//
//	GET    /<name>                 list (query passed through)
//	POST   /<name>                 create
//	PUT    /<name>/:id             update
//	DELETE /<name>/:id?confirm=true delete
//
// A delete without confirm=true only answers 428 with the pending id.
func MountScreen[T any, F admin.Form](g *echo.Group, h *AdminHandler, spec admin.Spec[T, F]) {
	s := &screenHandler[T, F]{h: h, spec: spec}
	r := g.Group("/" + spec.Name)
	r.GET("", s.list)
	r.POST("", s.create)
	r.PUT("/:id", s.update)
	r.DELETE("/:id", s.remove)
}

type screenHandler[T any, F admin.Form] struct {
	h    *AdminHandler
	spec admin.Spec[T, F]
}

// changed runs after a successful write.
func (s *screenHandler[T, F]) changed() {
	if s.spec.Reference && s.h.Taxonomy != nil {
		s.h.Taxonomy.Invalidate()
	}
}

func (s *screenHandler[T, F]) open(c echo.Context) *admin.Screen[T, F] {
	return admin.Open(s.spec, s.h.client(c), s.h.Log)
}

func (s *screenHandler[T, F]) list(c echo.Context) error {
	scr := s.open(c)
	if err := scr.Load(c.Request().Context(), c.QueryParams()); err != nil {
		return screenError(c, scr, err)
	}
	return c.JSON(http.StatusOK, screenBody(scr))
}

func (s *screenHandler[T, F]) create(c echo.Context) error {
	scr := s.open(c)
	scr.OpenCreate()
	return s.submit(c, scr, http.StatusCreated)
}

func (s *screenHandler[T, F]) update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	scr := s.open(c)
	scr.OpenEditID(id)
	return s.submit(c, scr, http.StatusOK)
}

func (s *screenHandler[T, F]) submit(c echo.Context, scr *admin.Screen[T, F], status int) error {
	f, err := s.bindForm(c)
	if forms.IsInvalid(err) {
		return screenError(c, scr, err)
	}
	if err != nil {
		return badRequest(c, "invalid body")
	}
	scr.Query = c.QueryParams()
	item, err := scr.Submit(c.Request().Context(), f)
	if err != nil {
		return screenError(c, scr, err)
	}
	s.changed()
	body := screenBody(scr)
	body["item"] = item
	return c.JSON(status, body)
}

func (s *screenHandler[T, F]) remove(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	scr := s.open(c)
	scr.RequestDelete(id)
	if c.QueryParam("confirm") != "true" {
		return c.JSON(http.StatusPreconditionRequired, echo.Map{
			"error":          "confirmation_required",
			"message":        "মুছে ফেলার আগে নিশ্চিত করুন",
			"pending_delete": id,
		})
	}
	scr.Query = c.QueryParams()
	scr.Query.Del("confirm")
	if err := scr.ConfirmDelete(c.Request().Context()); err != nil {
		return screenError(c, scr, err)
	}
	s.changed()
	return c.JSON(http.StatusOK, screenBody(scr))
}

// bindForm fills a blank form from JSON or form fields and attaches the
// screen's upload when one was sent.
func (s *screenHandler[T, F]) bindForm(c echo.Context) (F, error) {
	f := s.spec.Blank()
	if err := c.Bind(&f); err != nil {
		return f, err
	}
	if s.spec.FileField == "" || s.spec.Attach == nil ||
		!strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return f, nil
	}
	u, err := formUpload(c, s.spec.FileField)
	if err != nil {
		return f, err
	}
	if !u.Empty() {
		admin.Sniff(u)
		s.spec.Attach(&f, u)
	}
	return f, nil
}

func screenBody[T any, F admin.Form](scr *admin.Screen[T, F]) echo.Map {
	body := echo.Map{
		"screen":     scr.Name(),
		"title":      scr.Title(),
		"items":      scr.Items,
		"pagination": scr.Pagination,
		"toasts":     scr.DrainToasts(),
	}
	if scr.Modal != nil {
		body["modal"] = scr.Modal
	}
	if scr.PendingDelete != 0 {
		body["pending_delete"] = scr.PendingDelete
	}
	return body
}

// screenError reports err together with the screen state, so a failed
// submit hands the form back intact.
func screenError[T any, F admin.Form](c echo.Context, scr *admin.Screen[T, F], err error) error {
	status, body := errorBody(err)
	for k, v := range screenBody(scr) {
		body[k] = v
	}
	return c.JSON(status, body)
}
