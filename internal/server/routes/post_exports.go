package routes

import (
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/queue"
	"github.com/goudatijdmachine/filiatie/internal/server/middleware"
	"github.com/goudatijdmachine/filiatie/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CreateExportHandler queues an export of the lineage bundle of a parcel and
// returns the id to poll.
func CreateExportHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if !app.ExportsEnabled() {
		return errorJSON(c, http.StatusServiceUnavailable, "Exports are not enabled")
	}

	in, err := bindInput(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	uri, err := explorer.ResolveInput(in)
	if err != nil {
		return respondError(c, err)
	}

	id, err := queue.EnqueueExport(app.Queue, uri)
	if err != nil {
		logger.Error("[Server] Failed to queue export", "uri", uri, "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to queue export")
	}

	return c.JSON(http.StatusAccepted, map[string]string{"id": id})
}
