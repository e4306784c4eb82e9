package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/theta-web/internal/handler"    // admin handlers
	"github.com/iliyamo/theta-web/internal/middleware" // session middleware
)

// RegisterAdmin registers the endpoints behind the admin session cookie.
// purge runs after project writes so cached portfolio pages are dropped.
func RegisterAdmin(e *echo.Echo, sessions middleware.SessionVerifier, q *handler.InquiryHandler, p *handler.ProjectHandler, at *handler.AttachmentHandler, purge echo.MiddlewareFunc) {
	g := e.Group("/api", middleware.SessionAuth(sessions))

	// ---- Inquiries ----
	g.GET("/quotes", q.List)
	g.GET("/quotes/:id", q.Get)
	g.PATCH("/quotes/:id", q.Transition)
	g.DELETE("/quotes/:id", q.Delete)
	g.GET("/notifications", q.Notifications)

	// ---- Projects ----
	g.POST("/projects", p.Create, purge)
	g.PUT("/projects/:id", p.Update, purge)
	g.DELETE("/projects/:id", p.Delete, purge)

	// ---- Images ----
	g.POST("/upload", at.UploadImage, echomw.BodyLimit(imageBodyLimit))
}
