package api

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/votemamu/web/internal/model"
)

// Registration is the marketplace sign-up payload.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role,omitempty"`
}

// ProductQuery filters the marketplace catalog.
type ProductQuery struct {
	Category string
	Search   string
	Sort     string
	Free     bool
	Page     int
	PerPage  int
}

func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Free {
		v.Set("is_free", "1")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

const marketPath = "v1/market"

func (c *Client) MarketLogin(ctx context.Context, cred Credentials) (model.AuthResult, error) {
	env, err := send[model.AuthResult](ctx, c, http.MethodPost, marketPath+"/auth/login", cred)
	return env.Data, err
}

func (c *Client) MarketRegister(ctx context.Context, r Registration) (model.AuthResult, error) {
	env, err := send[model.AuthResult](ctx, c, http.MethodPost, marketPath+"/auth/register", r)
	return env.Data, err
}

func (c *Client) MarketMe(ctx context.Context) (model.User, error) {
	env, err := get[model.User](ctx, c, marketPath+"/auth/me", nil)
	return env.Data, err
}

func (c *Client) MarketLogout(ctx context.Context) error {
	_, err := send[struct{}](ctx, c, http.MethodPost, marketPath+"/auth/logout", nil)
	return err
}

// Products returns one page of the public catalog.
func (c *Client) Products(ctx context.Context, q ProductQuery) (model.Page[model.Product], error) {
	env, err := get[[]model.Product](ctx, c, marketPath+"/products", q.Values())
	return pageOf(env), err
}

// Product returns a product by slug.
func (c *Client) Product(ctx context.Context, slug string) (model.Product, error) {
	env, err := get[model.Product](ctx, c, marketPath+"/products/"+url.PathEscape(slug), nil)
	return env.Data, err
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	env, err := get[[]model.Category](ctx, c, marketPath+"/categories", nil)
	return env.Data, err
}

// RequestDownload submits the buyer's download form.  The grant only carries
// URLs when the product allows direct downloads.
func (c *Client) RequestDownload(ctx context.Context, slug string, r model.DownloadRequest) (model.DownloadGrant, error) {
	env, err := send[model.DownloadGrant](ctx, c, http.MethodPost,
		marketPath+"/products/"+url.PathEscape(slug)+"/download", r)
	if err == nil && env.Data.Message == "" {
		env.Data.Message = env.Message
	}
	return env.Data, err
}

func (c *Client) CreateCustomOrder(ctx context.Context, o model.CustomOrder) (model.CustomOrder, error) {
	env, err := send[model.CustomOrder](ctx, c, http.MethodPost, marketPath+"/custom-orders", o)
	return env.Data, err
}

func (c *Client) CreatorDashboard(ctx context.Context) (model.CreatorStats, error) {
	env, err := get[model.CreatorStats](ctx, c, marketPath+"/creator/dashboard", nil)
	return env.Data, err
}

func (c *Client) CreatorProducts(ctx context.Context, page int) (model.Page[model.Product], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	env, err := get[[]model.Product](ctx, c, marketPath+"/creator/products", q)
	return pageOf(env), err
}

// CreateProduct uploads a new product.  body is normally a multipart DTO.
func (c *Client) CreateProduct(ctx context.Context, body MultipartEncoder) (model.Product, error) {
	env, err := send[model.Product](ctx, c, http.MethodPost, marketPath+"/creator/products", body)
	return env.Data, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, body MultipartEncoder) (model.Product, error) {
	env, err := send[model.Product](ctx, c, http.MethodPut, marketPath+"/creator/products/"+itoa(id), body)
	return env.Data, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	_, err := send[struct{}](ctx, c, http.MethodDelete, marketPath+"/creator/products/"+itoa(id), nil)
	return err
}

// CategoryUpload creates a category with an optional banner.
type CategoryUpload struct {
	Name   string
	Banner *Upload
}

func (u CategoryUpload) EncodeMultipart(w *multipart.Writer) error {
	f := &Fields{}
	f.Set("name", u.Name)
	if err := f.Write(w); err != nil {
		return err
	}
	if !u.Banner.Empty() {
		return WriteFile(w, "banner", *u.Banner)
	}
	return nil
}

func (c *Client) CreateCategory(ctx context.Context, u CategoryUpload) (model.Category, error) {
	env, err := send[model.Category](ctx, c, http.MethodPost, marketPath+"/creator/categories", u)
	return env.Data, err
}

// ProfileUpdate changes the marketplace profile; Avatar is optional.
type ProfileUpdate struct {
	Name   string
	Phone  string
	Avatar *Upload
}

func (u ProfileUpdate) EncodeMultipart(w *multipart.Writer) error {
	f := &Fields{}
	f.Set("name", u.Name).Set("phone", u.Phone)
	if err := f.Write(w); err != nil {
		return err
	}
	if !u.Avatar.Empty() {
		return WriteFile(w, "avatar", *u.Avatar)
	}
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (model.User, error) {
	env, err := send[model.User](ctx, c, http.MethodPut, marketPath+"/profile", u)
	return env.Data, err
}
