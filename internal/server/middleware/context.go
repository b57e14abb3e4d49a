package middleware

import (
	"github.com/OFFIS-RIT/coursegraph/internal/queue"
	"github.com/OFFIS-RIT/coursegraph/internal/storage"
	"github.com/OFFIS-RIT/coursegraph/pkg/query"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"

	"github.com/labstack/echo/v4"
)

// App holds what handlers need. Uploads and Publisher are nil when the
// server runs without object storage or a broker; upload routes then
// answer 503.
type App struct {
	Graph     store.GraphStorage
	Answerer  *query.Answerer
	Uploads   *storage.Uploads
	Publisher queue.Publisher
	APIKey    string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
