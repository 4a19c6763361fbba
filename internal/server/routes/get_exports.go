package routes

import (
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/queue"
	"github.com/goudatijdmachine/filiatie/internal/server/middleware"
	"github.com/goudatijdmachine/filiatie/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetExportHandler returns a download link once the worker has written the
// export, and 404 until then.
func GetExportHandler(c echo.Context) error {
	type getExportParams struct {
		ID string `param:"id" validate:"required,max=64"`
	}

	app := c.(*middleware.AppContext).App
	if !app.ExportsEnabled() {
		return errorJSON(c, http.StatusServiceUnavailable, "Exports are not enabled")
	}

	params := new(getExportParams)
	if err := c.Bind(params); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}

	ctx := c.Request().Context()
	key := queue.ExportKey(params.ID)

	ok, err := app.Bucket.Exists(ctx, key)
	if err != nil {
		logger.Error("[Server] Failed to look up export", "id", params.ID, "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
	if !ok {
		return errorJSON(c, http.StatusNotFound, "Export not found")
	}

	url, err := app.Bucket.DownloadLink(ctx, key)
	if err != nil {
		logger.Error("[Server] Failed to sign export link", "id", params.ID, "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(http.StatusOK, map[string]string{"id": params.ID, "url": url})
}
