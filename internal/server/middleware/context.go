package middleware

import (
	"context"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/queue"

	"github.com/labstack/echo/v4"
)

// ExportBucket is where the worker stores finished exports.
type ExportBucket interface {
	Exists(ctx context.Context, key string) (bool, error)
	DownloadLink(ctx context.Context, key string) (string, error)
}

type App struct {
	Explorer *explorer.Explorer
	// Queue and Bucket are nil when exports are not configured.
	Queue  queue.Publisher
	Bucket ExportBucket
}

// ExportsEnabled reports whether export jobs can be queued and fetched.
func (a *App) ExportsEnabled() bool {
	return a.Queue != nil && a.Bucket != nil
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
