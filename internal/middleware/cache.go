package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/votemamu/web/internal/config"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/session"
)

// cachedResponse is what one cache entry holds.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h,omitempty"`
	Body   []byte      `json:"b,omitempty"`
}

// skipHeaders are never replayed from the cache.
var skipHeaders = map[string]bool{
	echo.HeaderContentLength: true,
	echo.HeaderSetCookie:     true,
	echo.HeaderXRequestID:    true,
	"X-Cache":                true,
}

func encodeEntry(r cachedResponse) ([]byte, error) { return json.Marshal(r) }

func decodeEntry(bs []byte) (cachedResponse, bool) {
	var r cachedResponse
	if err := json.Unmarshal(bs, &r); err != nil || r.Status == 0 {
		return cachedResponse{}, false
	}
	return r, true
}

// cacheKey hashes the route, the query in canonical order and the
// negotiated format; the explorer serves HTML and JSON from one path.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	h := sha256.New()
	for _, part := range []string{r.Method, r.URL.Path, r.URL.Query().Encode(), negotiated(c)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

func negotiated(c echo.Context) string {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return "html"
	}
	return "json"
}

// hasSession reports whether the request carries any realm cookie or a
// bearer token.  Such requests may see per-user content.
func hasSession(c echo.Context) bool {
	for _, realm := range []session.Realm{session.RealmAdmin, session.RealmMarket} {
		if ck, err := c.Cookie(CookieName(realm)); err == nil && ck.Value != "" {
			return true
		}
	}
	return c.Request().Header.Get(echo.HeaderAuthorization) != ""
}

// teeWriter copies up to limit bytes of the body aside while writing it
// through.  overflow is set once the body outgrows limit.
type teeWriter struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.body.Len()+len(b) > w.limit {
			w.overflow = true
			w.body.Reset()
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// NewRedisCache serves repeated anonymous GETs from redis.  Only 200s are
// stored.  It passes everything through when disabled or without redis.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log logging.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	log = logging.OrNoOp(log)
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] || hasSession(c) {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			bs, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if hit, ok := decodeEntry(bs); ok {
					return replay(c, hit)
				}
				log.Debug("cache: dropping unreadable entry", "key", key)
			case err != redis.Nil:
				log.Debug("cache: lookup failed", "key", key, "error", err)
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = tw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if tw.status != http.StatusOK || tw.overflow {
				return nil
			}
			entry, err := encodeEntry(cachedResponse{Status: tw.status, Header: c.Response().Header().Clone(), Body: tw.body.Bytes()})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, entry, ttl).Err(); err != nil {
				log.Debug("cache: store failed", "key", key, "error", err)
			}
			return nil
		}
	}
}

func replay(c echo.Context, r cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range r.Header {
		if skipHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		h[k] = append([]string(nil), vals...)
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(r.Status)
	_, err := c.Response().Write(r.Body)
	return err
}
