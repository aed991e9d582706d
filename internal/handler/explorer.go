package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/explorer"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/middleware"
	"github.com/votemamu/web/internal/model"
)

// ExplorerAPI is what the candidate explorer reads from the backend.
type ExplorerAPI interface {
	explorer.Backend
	Candidate(ctx context.Context, id int64) (model.Candidate, error)
}

// ExplorerHandler serves the public candidate explorer.  Every request
// carries its whole filter state in the query string, so the handler keeps
// nothing between requests.
type ExplorerHandler struct {
	API       ExplorerAPI
	Taxonomy  explorer.TaxonomySource
	PerPage   int
	AssetBase string
	Log       logging.Logger
}

func NewExplorerHandler(a ExplorerAPI, tax explorer.TaxonomySource, perPage int, assetBase string, log logging.Logger) *ExplorerHandler {
	if a == nil {
		panic("nil api passed to NewExplorerHandler")
	}
	if tax == nil {
		tax = explorer.NewTaxonomyCache(a, explorer.DefaultTaxonomyTTL, log)
	}
	if perPage < 1 {
		perPage = explorer.DefaultPerPage
	}
	return &ExplorerHandler{API: a, Taxonomy: tax, PerPage: perPage, AssetBase: assetBase, Log: logging.OrNoOp(log)}
}

// view decodes the filter state from the query, reconciles the party and
// symbol filters and loads one page.  A form submission carries the pair
// it was rendered with, so the side the user changed drives the other.
func (h *ExplorerHandler) view(c echo.Context, path string) explorer.View {
	ctx := c.Request().Context()
	q := c.QueryParams()
	s := explorer.Decode(q)
	if s.Party != "" || s.Symbol != "" {
		tax := h.Taxonomy.Taxonomy(ctx)
		if prev, ok := explorer.DecodePrev(q); ok {
			s = s.Submit(s.Selection(), prev, tax)
		} else {
			s = s.Normalize(tax)
		}
	}
	d := explorer.LoadPage(ctx, h.API, h.Taxonomy, s, h.PerPage, h.Log)
	return explorer.Render(s, d, path, h.AssetBase)
}

// Page renders the explorer HTML at "/".
func (h *ExplorerHandler) Page(c echo.Context) error {
	return c.Render(http.StatusOK, "explorer", h.view(c, "/"))
}

// JSON answers GET /explorer with the same view the page renders.  Links
// in it point at the HTML page.
func (h *ExplorerHandler) JSON(c echo.Context) error {
	v := h.view(c, "/")
	return c.JSON(http.StatusOK, echo.Map{
		"state": explorer.Encode(v.State),
		"view":  v,
	})
}

// CandidateDetail is the candidate profile.
type CandidateDetail struct {
	explorer.CandidateCard
	Age        int    `json:"age,omitempty"`
	Education  string `json:"education,omitempty"`
	Profession string `json:"profession,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

// Candidate serves GET /candidates/:id as HTML or JSON.
func (h *ExplorerHandler) Candidate(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid candidate id")
	}
	cand, err := h.API.Candidate(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	page := explorer.Render(explorer.NewState(), explorer.Data{Candidates: []model.Candidate{cand}}, "/", h.AssetBase)
	d := CandidateDetail{
		CandidateCard: page.Candidates[0],
		Age:           cand.Age,
		Education:     cand.Education,
		Profession:    cand.Profession,
		Bio:           cand.Bio,
	}
	if middleware.WantsHTML(c) {
		return c.Render(http.StatusOK, "candidate", d)
	}
	return c.JSON(http.StatusOK, d)
}

var _ ExplorerAPI = (*api.Client)(nil)
