package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// TokenSource supplies the bearer token for a request.  An empty token means
// the request is sent anonymously.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) string { return string(t) }

// Client talks to the REST backend rooted at base (…/api).
type Client struct {
	base  string
	http  *http.Client
	token TokenSource
	log   logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTokenSource attaches a bearer token provider.
func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.token = ts } }

// WithLogger sets the logger used for request tracing.
func WithLogger(l logging.Logger) Option { return func(c *Client) { c.log = logging.OrNoOp(l) } }

// New builds a client.  The default http.Client has no timeout: the first
// attempt is the only attempt and it is bounded by the caller's context.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
		log:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = StaticToken(token)
	return &cp
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) url(p string, q url.Values) string {
	u := c.base + "/" + strings.TrimLeft(p, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		if tok := c.token.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// do sends req and returns the body of a 2xx response.  Anything else is
// turned into *Error.
func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", req.Method, "url", req.URL.Path, "error", err)
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("api request", "method", req.Method, "url", req.URL.Path, "status", res.StatusCode)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errorFrom(res.StatusCode, body)
	}
	return body, nil
}

func errorFrom(status int, body []byte) *Error {
	e := &Error{Status: status}
	var env struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Message
		if e.Message == "" {
			e.Message = env.Error
		}
		e.Errors = env.Errors
	}
	return e
}

func decode[T any](status int, body []byte) (model.Envelope[T], error) {
	var env model.Envelope[T]
	if len(bytes.TrimSpace(body)) == 0 {
		env.Success = true
		return env, nil
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("api: decode envelope: %w", err)
	}
	if !env.Success {
		return env, &Error{Status: status, Message: env.Message, Errors: env.Errors}
	}
	return env, nil
}

func get[T any](ctx context.Context, c *Client, p string, q url.Values) (model.Envelope[T], error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.url(p, q), nil)
	if err != nil {
		return model.Envelope[T]{}, err
	}
	body, err := c.do(req)
	if err != nil {
		return model.Envelope[T]{}, err
	}
	return decode[T](http.StatusOK, body)
}

// send issues a write request.  payload may be nil, a MultipartEncoder, or
// any JSON-encodable value.
func send[T any](ctx context.Context, c *Client, method, p string, payload any) (model.Envelope[T], error) {
	var (
		body        io.Reader
		contentType string
	)
	switch v := payload.(type) {
	case nil:
	case MultipartEncoder:
		buf, ct, err := encodeMultipart(v, method)
		if err != nil {
			return model.Envelope[T]{}, err
		}
		// Multipart updates go out as POST with a _method override,
		// the only form the backend accepts for file uploads.
		method = http.MethodPost
		body, contentType = buf, ct
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return model.Envelope[T]{}, fmt.Errorf("api: encode body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}
	req, err := c.newRequest(ctx, method, c.url(p, nil), body)
	if err != nil {
		return model.Envelope[T]{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resBody, err := c.do(req)
	if err != nil {
		return model.Envelope[T]{}, err
	}
	return decode[T](http.StatusOK, resBody)
}

func encodeMultipart(enc MultipartEncoder, method string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if method != http.MethodPost {
		if err := w.WriteField("_method", method); err != nil {
			return nil, "", err
		}
	}
	if err := enc.EncodeMultipart(w); err != nil {
		return nil, "", fmt.Errorf("api: encode multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// Blob is a downloaded binary asset.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// FetchBlob downloads target.  Relative targets are resolved against the
// backend root.
func (c *Client) FetchBlob(ctx context.Context, target string) (Blob, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.url(target, nil)
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Blob{}, err
	}
	req.Header.Set("Accept", "*/*")
	res, err := c.http.Do(req)
	if err != nil {
		return Blob{}, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Blob{}, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Blob{}, errorFrom(res.StatusCode, data)
	}
	b := Blob{Data: data, ContentType: res.Header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil {
		b.Filename = params["filename"]
	}
	if b.Filename == "" {
		if u, err := url.Parse(target); err == nil {
			if base := path.Base(u.Path); base != "." && base != "/" {
				b.Filename = base
			}
		}
	}
	return b, nil
}

// AssetURL resolves a storage path returned by the backend against base.
// Absolute URLs pass through.
func AssetURL(base, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || base == "" {
		return p
	}
	p = strings.TrimLeft(p, "/")
	if !strings.HasPrefix(p, "storage/") {
		p = "storage/" + p
	}
	return strings.TrimRight(base, "/") + "/" + p
}
