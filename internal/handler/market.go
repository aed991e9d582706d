package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/market"
	"github.com/votemamu/web/internal/middleware"
)

// MarketHandler serves the design marketplace: the public catalog, the
// buyer's download and custom order forms and the creator's products.
type MarketHandler struct {
	API       *api.Client
	AssetBase string
	PerPage   int
	// Pause is what the browser waits between granted files.
	Pause time.Duration
	Log   logging.Logger
}

func NewMarketHandler(c *api.Client, assetBase string, perPage int, log logging.Logger) *MarketHandler {
	if c == nil {
		panic("nil api client passed to NewMarketHandler")
	}
	return &MarketHandler{API: c, AssetBase: assetBase, PerPage: perPage, Pause: market.DefaultPause, Log: logging.OrNoOp(log)}
}

// client acts as the signed-in user when there is one.
func (h *MarketHandler) client(c echo.Context) *api.Client {
	if sess, ok := middleware.SessionFrom(c); ok {
		return h.API.WithToken(sess.Token)
	}
	return h.API
}

// Products lists one page of the catalog.
func (h *MarketHandler) Products(c echo.Context) error {
	free, _ := strconv.ParseBool(c.QueryParam("free"))
	q := api.ProductQuery{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Sort:     c.QueryParam("sort"),
		Free:     free,
		Page:     queryInt(c, "page", 1),
		PerPage:  h.PerPage,
	}
	v, err := market.LoadCatalog(c.Request().Context(), h.client(c), q, h.AssetBase, h.Log)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *MarketHandler) Product(c echo.Context) error {
	p, err := h.client(c).Product(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"product":     market.Card(p, h.AssetBase),
		"description": p.Description,
	})
}

// Download submits the buyer's download form and returns the grant.  The
// browser fetches the granted files itself, one after the other.
func (h *MarketHandler) Download(c echo.Context) error {
	var f market.DownloadForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := forms.Check(f, "DOWNLOAD_FORM_INVALID"); err != nil {
		return fail(c, err)
	}
	grant, err := h.client(c).RequestDownload(c.Request().Context(), c.Param("slug"), f.Request())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"enable_download": grant.EnableDownload,
		"download_urls":   grant.DownloadURLs,
		"pause_ms":        h.Pause.Milliseconds(),
		"message":         grant.Message,
	})
}

func (h *MarketHandler) CustomOrder(c echo.Context) error {
	var f market.CustomOrderForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	order, err := market.PlaceOrder(c.Request().Context(), h.client(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// Dashboard is the creator's landing screen.
func (h *MarketHandler) Dashboard(c echo.Context) error {
	d := market.LoadDashboard(c.Request().Context(), h.client(c), queryInt(c, "page", 1), h.AssetBase, h.Log)
	return c.JSON(http.StatusOK, d)
}

// SaveProduct creates a product, or updates :id when present.  The body is
// multipart: plain fields, preview_images[] files, remove_preview_images[]
// ids and the downloadable file.
func (h *MarketHandler) SaveProduct(c echo.Context) error {
	var id int64
	if c.Param("id") != "" {
		var ok bool
		if id, ok = paramID(c, "id"); !ok {
			return badRequest(c, "invalid product id")
		}
	}
	var f market.ProductForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid body")
	}
	previews, err := formUploads(c, "preview_images")
	if err != nil {
		return fail(c, err)
	}
	f.PreviewImages = previews
	if f.File, err = formUpload(c, "file"); err != nil {
		return fail(c, err)
	}
	if params, err := c.FormParams(); err == nil {
		for _, raw := range append(params["remove_preview_images"], params["remove_preview_images[]"]...) {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
				f.RemovePreviewImageIDs = append(f.RemovePreviewImageIDs, n)
			}
		}
	}
	p, err := market.SaveProduct(c.Request().Context(), h.client(c), id, f)
	if err != nil {
		return fail(c, err)
	}
	status := http.StatusCreated
	if id != 0 {
		status = http.StatusOK
	}
	return c.JSON(status, market.Card(p, h.AssetBase))
}
