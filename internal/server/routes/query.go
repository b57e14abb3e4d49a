package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/coursegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// QueryHandler answers one definition or relation question.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Question string `json:"question" validate:"required,max=1000"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	answer, err := app.Answerer.Answer(c.Request().Context(), data.Question)
	if err != nil {
		logger.Error("[Server] Failed to answer question", "question", data.Question, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, answer)
}
