package middleware

// identity.go holds the helpers that name the caller of a request: the
// request id assigned on entry and the user id used to key rate limits.

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextRequestID is the context key of the request id.
const ContextRequestID = "request_id"

// RequestID tags every request with an id, reusing a valid X-Request-ID
// sent by a proxy.  The id is echoed in the response header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			c.Set(ContextRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// userID returns the id of the session user, or "anon" when the request
// carries no session.
func userID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
