package router

import (
	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/handler"
	"github.com/votemamu/web/internal/middleware"
	"github.com/votemamu/web/internal/model"
)

// RegisterMarket registers the marketplace.  Browsing, downloads and
// custom orders are open to guests; the dashboard and product uploads
// need a creator session.
func RegisterMarket(e *echo.Echo, auth *handler.AuthHandler, m *handler.MarketHandler, sess middleware.SessionConfig, cache, limit echo.MiddlewareFunc) {
	e.GET("/market/login", auth.LoginPage)
	e.POST("/market/login", auth.Login, limit)
	e.POST("/market/register", auth.Register, limit)
	e.POST("/market/logout", auth.Logout)

	e.GET("/market/products", m.Products, cache)
	e.GET("/market/products/:slug", m.Product, cache)
	e.POST("/market/products/:slug/download", m.Download)
	e.POST("/market/custom-orders", m.CustomOrder)

	// Attach middlewares per route so guest routes under /market stay open.
	creator := []echo.MiddlewareFunc{
		middleware.SessionAuth(sess),
		middleware.RequireRole(model.RoleCreator),
	}
	e.GET("/market/me", auth.Me, middleware.SessionAuth(sess))
	e.GET("/market/dashboard", m.Dashboard, creator...)
	e.POST("/market/products", m.SaveProduct, creator...)
	e.PUT("/market/products/:id", m.SaveProduct, creator...)
}
