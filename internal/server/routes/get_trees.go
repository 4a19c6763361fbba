package routes

import (
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetTreesHandler returns both lineage trees. A relation that failed is
// reported as a hidden panel, so this handler only fails on bad input.
func GetTreesHandler(c echo.Context) error {
	in, err := bindInput(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}
	uri, err := explorer.ResolveInput(in)
	if err != nil {
		return respondError(c, err)
	}

	exp := c.(*middleware.AppContext).App.Explorer
	return c.JSON(http.StatusOK, exp.Trees(c.Request().Context(), uri))
}
