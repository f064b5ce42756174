package server

import (
	"github.com/OFFIS-RIT/dossier/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Research routes
	apiRoutes.GET("/research", routes.GetResearchHandler)
	apiRoutes.GET("/research/progress", routes.GetResearchProgressHandler)
}
