// Package router registers the HTTP routes of the web frontend.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/handler"
)

// RegisterRoutes registers routes that need no collaborators.  /healthz is
// the liveness probe for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated site: the candidate
// explorer, polls, news, phone verification and the poster generator.
// cache wraps the public GETs; limit guards the OTP endpoints, which text
// a phone on every call.
func RegisterPublic(e *echo.Echo, x *handler.ExplorerHandler, p *handler.PublicHandler, po *handler.PosterHandler, cache, limit echo.MiddlewareFunc) {
	e.GET("/", x.Page, cache)
	e.GET("/explorer", x.JSON, cache)
	e.GET("/candidates/:id", x.Candidate, cache)

	e.GET("/polls", p.Polls)
	e.POST("/polls/:id/vote", p.Vote)
	e.GET("/news", p.NewsList, cache)
	e.GET("/news/:id", p.NewsItem, cache)

	e.POST("/otp/send", p.SendOTP, limit)
	e.POST("/otp/verify", p.VerifyOTP, limit)

	if po != nil {
		e.POST("/generate", po.Generate)
	}
}
