package routes

import (
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

type lineageResponse struct {
	Graph *explorer.GraphView `json:"graph"`
	Trees explorer.Trees      `json:"trees"`
}

// GetLineageHandler runs a full visualization cycle: the graph and, whatever
// its outcome, both trees. A failed graph load is reported inside the view
// rather than as an HTTP error.
func GetLineageHandler(c echo.Context) error {
	in, err := bindInput(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}
	uri, err := explorer.ResolveInput(in)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	exp := c.(*middleware.AppContext).App.Explorer

	view, _ := exp.LoadGraph(ctx, uri)
	return c.JSON(http.StatusOK, lineageResponse{
		Graph: view,
		Trees: exp.Trees(ctx, uri),
	})
}
