package handler

import (
	"context"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// PublicAPI is the public, unauthenticated slice of the backend besides
// the explorer.
type PublicAPI interface {
	Polls(ctx context.Context) ([]model.Poll, error)
	Vote(ctx context.Context, pollID, optionID int64, phone string) (model.Poll, error)
	News(ctx context.Context, q api.NewsQuery) (model.Page[model.News], error)
	NewsItem(ctx context.Context, id int64) (model.News, error)
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, code string) (bool, error)
}

// PublicHandler serves polls, news and phone verification.
type PublicHandler struct {
	API       PublicAPI
	AssetBase string
	Log       logging.Logger
}

func NewPublicHandler(a PublicAPI, assetBase string, log logging.Logger) *PublicHandler {
	return &PublicHandler{API: a, AssetBase: assetBase, Log: logging.OrNoOp(log)}
}

type voteReq struct {
	OptionID int64  `json:"option_id" form:"option_id"`
	Phone    string `json:"phone" form:"phone"`
}

func (r voteReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OptionID, validation.Required.Error("একটি উত্তর বেছে নিন")),
		validation.Field(&r.Phone, validation.Required, forms.Phone),
	)
}

type otpReq struct {
	Phone string `json:"phone" form:"phone"`
	Code  string `json:"otp" form:"otp"`
}

func (r otpReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone, validation.Required, forms.Phone),
	)
}

func (h *PublicHandler) Polls(c echo.Context) error {
	polls, err := h.API.Polls(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": polls})
}

// Vote casts a vote for a phone number verified beforehand.
func (h *PublicHandler) Vote(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid poll id")
	}
	var req voteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if err := forms.Check(req, "VOTE_INVALID"); err != nil {
		return fail(c, err)
	}
	poll, err := h.API.Vote(c.Request().Context(), id, req.OptionID, req.Phone)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, poll)
}

// NewsList returns one page of published articles with image URLs made
// absolute.
func (h *PublicHandler) NewsList(c echo.Context) error {
	q := api.NewsQuery{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", 0),
	}
	page, err := h.API.News(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	for i := range page.Items {
		page.Items[i].Image = api.AssetURL(h.AssetBase, page.Items[i].Image)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": page.Items, "pagination": page.Pagination})
}

func (h *PublicHandler) NewsItem(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid news id")
	}
	n, err := h.API.NewsItem(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	n.Image = api.AssetURL(h.AssetBase, n.Image)
	return c.JSON(http.StatusOK, n)
}

// SendOTP texts a one-time code to the phone in the body.
func (h *PublicHandler) SendOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if err := forms.Check(req, "OTP_PHONE_INVALID"); err != nil {
		return fail(c, err)
	}
	msg, err := h.API.SendOTP(c.Request().Context(), req.Phone)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

func (h *PublicHandler) VerifyOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Phone, req.Code = strings.TrimSpace(req.Phone), strings.TrimSpace(req.Code)
	if err := forms.Check(req, "OTP_PHONE_INVALID"); err != nil {
		return fail(c, err)
	}
	if req.Code == "" {
		return fail(c, forms.Invalid("otp", "কোড দিন", "OTP_CODE_MISSING"))
	}
	ok, err := h.API.VerifyOTP(c.Request().Context(), req.Phone, req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"verified": ok})
}
