package server

import (
	"github.com/OFFIS-RIT/coursegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/coursegraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Question answering
	apiRoutes.GET("/examples", routes.GetExamplesHandler)
	apiRoutes.POST("/query", routes.QueryHandler)

	// Graph inspection
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.GET("/stats", routes.GetStatsHandler)

	// Ingestion
	apiRoutes.POST("/upload", routes.UploadHandler, middleware.AuthMiddleware)
}
