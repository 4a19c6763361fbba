package routes

import (
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetGraphHandler returns the classified lineage graph of one parcel. An
// empty graph is a normal response with state "empty".
func GetGraphHandler(c echo.Context) error {
	in, err := bindInput(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}
	uri, err := explorer.ResolveInput(in)
	if err != nil {
		return respondError(c, err)
	}

	exp := c.(*middleware.AppContext).App.Explorer
	view, err := exp.LoadGraph(c.Request().Context(), uri)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
