package routes

import (
	"errors"
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/server/middleware"
	"github.com/goudatijdmachine/filiatie/pkg/geo"
	"github.com/goudatijdmachine/filiatie/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetGeometryHandler returns the geometry of a parcel placed on a base map.
// The provider is a map name ("hisgis", "brk") or a hasGeo value.
func GetGeometryHandler(c echo.Context) error {
	type getGeometryParams struct {
		ID       string `query:"id" validate:"required"`
		Provider string `query:"provider"`
	}

	params := new(getGeometryParams)
	if err := c.Bind(params); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}
	if err := c.Validate(params); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}

	exp := c.(*middleware.AppContext).App.Explorer
	view, err := exp.FetchGeometry(c.Request().Context(), params.ID, params.Provider)
	if err != nil {
		if errors.Is(err, explorer.ErrNoGeometry) || errors.Is(err, geo.ErrInvalidWKT) {
			logger.Warn("[Server] No usable geometry", "id", params.ID, "err", err)
			return c.NoContent(http.StatusNoContent)
		}
		return respondError(c, err)
	}
	view.Provider = geo.ProviderByName(params.Provider)

	return c.JSON(http.StatusOK, view)
}
