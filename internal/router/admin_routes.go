package router

import (
	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/admin"
	"github.com/votemamu/web/internal/handler"
	"github.com/votemamu/web/internal/middleware"
	"github.com/votemamu/web/internal/model"
)

// RegisterAdmin registers the back-office.  Login and logout are open;
// everything else requires an admin session.
func RegisterAdmin(e *echo.Echo, auth *handler.AuthHandler, a *handler.AdminHandler, in *handler.InboxHandler, sess middleware.SessionConfig, limit echo.MiddlewareFunc) {
	e.GET("/admin/login", auth.LoginPage)
	e.POST("/admin/login", auth.Login, limit)
	e.POST("/admin/logout", auth.Logout)

	g := e.Group("/admin", middleware.SessionAuth(sess), middleware.RequireRole(model.RoleAdmin))
	g.GET("/me", auth.Me)

	handler.MountScreen(g, a, admin.Candidates)
	handler.MountScreen(g, a, admin.Divisions)
	handler.MountScreen(g, a, admin.Districts)
	handler.MountScreen(g, a, admin.Seats)
	handler.MountScreen(g, a, admin.Parties)
	handler.MountScreen(g, a, admin.Symbols)
	handler.MountScreen(g, a, admin.NewsArticles)
	handler.MountScreen(g, a, admin.Polls)

	g.GET("/news/preview", a.NewsPreview)
	g.POST("/news/preview", a.NewsPreview)

	if in != nil {
		g.GET("/messages", in.Conversations)
		g.GET("/messages/state", in.State)
		g.POST("/messages/close", in.Close)
		g.GET("/messages/:id", in.Open)
		g.POST("/messages/:id/reply", in.Reply)
		g.PUT("/messages/:id/draft", in.SaveDraft)
	}
}
