package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/votemamu/web/internal/model"
)

// Resource is a CRUD collection under the admin API.  Create and Update
// accept either a MultipartEncoder or a JSON-encodable body.
type Resource[T any] struct {
	c    *Client
	path string
}

// NewResource binds a collection path to a client.
func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{c: c, path: path}
}

// Path returns the collection path.
func (r Resource[T]) Path() string { return r.path }

// List returns one page of the collection.
func (r Resource[T]) List(ctx context.Context, q url.Values) (model.Page[T], error) {
	env, err := get[[]T](ctx, r.c, r.path, q)
	return pageOf(env), err
}

// Get returns a single item.
func (r Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	env, err := get[T](ctx, r.c, r.path+"/"+itoa(id), nil)
	return env.Data, err
}

// Create posts a new item.
func (r Resource[T]) Create(ctx context.Context, body any) (T, error) {
	env, err := send[T](ctx, r.c, http.MethodPost, r.path, body)
	return env.Data, err
}

// Update replaces an existing item.
func (r Resource[T]) Update(ctx context.Context, id int64, body any) (T, error) {
	env, err := send[T](ctx, r.c, http.MethodPut, r.path+"/"+itoa(id), body)
	return env.Data, err
}

// Delete removes an item.
func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	_, err := send[struct{}](ctx, r.c, http.MethodDelete, r.path+"/"+itoa(id), nil)
	return err
}

func (c *Client) AdminCandidates() Resource[model.Candidate] {
	return NewResource[model.Candidate](c, "admin/candidates")
}

func (c *Client) AdminDivisions() Resource[model.Division] {
	return NewResource[model.Division](c, "admin/divisions")
}

func (c *Client) AdminDistricts() Resource[model.District] {
	return NewResource[model.District](c, "admin/districts")
}

func (c *Client) AdminSeats() Resource[model.Seat] {
	return NewResource[model.Seat](c, "admin/seats")
}

func (c *Client) AdminParties() Resource[model.Party] {
	return NewResource[model.Party](c, "admin/parties")
}

func (c *Client) AdminSymbols() Resource[model.Symbol] {
	return NewResource[model.Symbol](c, "admin/symbols")
}

func (c *Client) AdminNews() Resource[model.News] {
	return NewResource[model.News](c, "admin/news")
}

func (c *Client) AdminPolls() Resource[model.Poll] {
	return NewResource[model.Poll](c, "admin/polls")
}

// Credentials identify an admin or marketplace user.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLogin exchanges credentials for an admin bearer token.
func (c *Client) AdminLogin(ctx context.Context, cred Credentials) (model.AuthResult, error) {
	env, err := send[model.AuthResult](ctx, c, http.MethodPost, "admin/login", cred)
	return env.Data, err
}

// AdminMe returns the admin behind the client's token.
func (c *Client) AdminMe(ctx context.Context) (model.User, error) {
	env, err := get[model.User](ctx, c, "admin/me", nil)
	return env.Data, err
}

// AdminLogout revokes the client's admin token.
func (c *Client) AdminLogout(ctx context.Context) error {
	_, err := send[struct{}](ctx, c, http.MethodPost, "admin/logout", nil)
	return err
}
