package router // package router defines how HTTP routes are registered for the API

import (
	"net/http" // metrics handler type

	"github.com/labstack/echo/v4"                     // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // body size limits

	"github.com/iliyamo/theta-web/internal/handler"    // HTTP handlers
	"github.com/iliyamo/theta-web/internal/middleware" // session and rate limit middleware
)

// Upload bodies may carry multipart overhead on top of the file itself.
const (
	documentBodyLimit = "11M"
	imageBodyLimit    = "6M"
)

// RegisterRoutes registers the operational endpoints: the health check used
// by load balancers and the Prometheus scrape target.  metricsHandler may be
// nil when metrics are disabled.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metricsHandler http.Handler) {
	e.GET("/healthz", handler.Health(db))
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}
}

// RegisterAuth registers the admin session endpoints.  Login is rate
// limited; logout and check need no session; the change endpoints require
// one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/logout", a.Logout)
	g.GET("/check", a.Check)

	protected := g.Group("", middleware.SessionAuth(a.Sessions))
	protected.POST("/change-password", a.ChangePassword)
	protected.POST("/change-username", a.ChangeUsername)
}

// RegisterPublic registers the unauthenticated site endpoints: the contact
// form, document upload, attachment retrieval and the project portfolio.
// cache fronts the portfolio reads.
func RegisterPublic(e *echo.Echo, ct *handler.ContactHandler, at *handler.AttachmentHandler, p *handler.ProjectHandler, limiter, cache echo.MiddlewareFunc) {
	g := e.Group("/api")

	// ---- Intake ----
	g.POST("/contact", ct.Submit, limiter)
	g.POST("/contact/upload", at.UploadDocument, limiter, echomw.BodyLimit(documentBodyLimit))

	// ---- Attachments ----
	g.GET("/documents/:id", at.ServeDocument)
	g.GET("/images/:id", at.ServeImage)

	// ---- Portfolio ----
	g.GET("/projects", p.List, cache)
	g.GET("/projects/:id", p.Get, cache)
}
