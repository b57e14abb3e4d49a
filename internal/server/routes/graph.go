package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/coursegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/query"

	"github.com/labstack/echo/v4"
)

// GetExamplesHandler lists the example questions shown by the QA page.
func GetExamplesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"examples": query.ExampleQuestions})
}

// GetGraphHandler returns every stored edge for visualization.
func GetGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		Relations []common.Edge `json:"relations"`
	}

	app := c.(*middleware.AppContext).App
	edges, err := app.Graph.Relations(c.Request().Context())
	if err != nil {
		logger.Error("[Server] Failed to list relations", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if edges == nil {
		edges = []common.Edge{}
	}
	return c.JSON(http.StatusOK, getGraphResponse{Relations: edges})
}

func GetStatsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	stats, err := app.Graph.Stats(c.Request().Context())
	if err != nil {
		logger.Error("[Server] Failed to read graph stats", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, stats)
}
