package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/session"
)

// Context keys set by SessionAuth.
const (
	ContextSession = "session"
	ContextUserID  = "user_id"
	ContextRole    = "role"
)

// CookieName returns the cookie carrying the signed session id of realm.
func CookieName(realm session.Realm) string { return "votemamu_" + string(realm) }

// SessionConfig configures SessionAuth for one realm.
type SessionConfig struct {
	Store  *session.Store
	Signer *session.Signer
	// LoginPath is where browsers without a session are sent.
	LoginPath string
	// Secure marks issued cookies HTTPS-only.
	Secure bool
	Logger logging.Logger
}

// SessionAuth resolves the caller's session from the realm cookie, or from
// an "Authorization: Bearer" header carrying the same signed value for
// non-browser clients.  The session, the user id and the role are stored in
// the context.  A missing or expired session sends page requests to
// LoginPath with a 302 and answers everything else with 401.
func SessionAuth(cfg SessionConfig) echo.MiddlewareFunc {
	log := logging.OrNoOp(cfg.Logger)
	realm := cfg.Store.Realm()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := sessionToken(c, realm)
			if raw == "" {
				return deny(c, cfg.LoginPath, "missing session")
			}
			sid, err := cfg.Signer.Verify(raw, realm)
			if err != nil {
				ClearSessionCookie(c, realm, cfg.Secure)
				return deny(c, cfg.LoginPath, "invalid session")
			}
			sess, err := cfg.Store.Get(c.Request().Context(), sid)
			if err != nil {
				log.Debug("session rejected", "realm", realm, "error", err)
				ClearSessionCookie(c, realm, cfg.Secure)
				return deny(c, cfg.LoginPath, "session expired")
			}
			// the store may have extended the session; keep the cookie in step
			if _, err := c.Cookie(CookieName(realm)); err == nil {
				if err := SetSessionCookie(c, cfg.Signer, sess, cfg.Secure); err != nil {
					log.Warn("session cookie refresh failed", "error", err)
				}
			}
			c.Set(ContextSession, sess)
			c.Set(ContextUserID, strconv.FormatInt(sess.User.ID, 10))
			c.Set(ContextRole, sess.User.Role)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by SessionAuth.
func SessionFrom(c echo.Context) (session.Session, bool) {
	s, ok := c.Get(ContextSession).(session.Session)
	return s, ok
}

// SetSessionCookie issues the signed cookie for sess.
func SetSessionCookie(c echo.Context, signer *session.Signer, sess session.Session, secure bool) error {
	value, err := signer.Sign(sess)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName(sess.Realm),
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSessionCookie expires the realm cookie.
func ClearSessionCookie(c echo.Context, realm session.Realm, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName(realm),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the id named by the realm cookie or bearer value, or ""
// when none verifies.  Logout uses it without requiring a live session.
func SessionID(c echo.Context, signer *session.Signer, realm session.Realm) string {
	raw := sessionToken(c, realm)
	if raw == "" {
		return ""
	}
	sid, err := signer.Verify(raw, realm)
	if err != nil {
		return ""
	}
	return sid
}

func sessionToken(c echo.Context, realm session.Realm) string {
	if ck, err := c.Cookie(CookieName(realm)); err == nil && ck.Value != "" {
		return ck.Value
	}
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// WantsHTML reports whether the request comes from a browser navigating to
// a page rather than from a script expecting JSON.
func WantsHTML(c echo.Context) bool {
	r := c.Request()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMETextHTML)
}

func deny(c echo.Context, loginPath, reason string) error {
	if loginPath != "" && WantsHTML(c) {
		target := loginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
		return c.Redirect(http.StatusFound, target)
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": reason})
}
