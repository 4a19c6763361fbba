package routes

import (
	"errors"
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"

	"github.com/labstack/echo/v4"
)

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// respondError maps input and SPARQL failures onto HTTP status codes.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, explorer.ErrMissingInput), errors.Is(err, explorer.ErrInvalidURI):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case sparql.IsNetworkError(err):
		return errorJSON(c, http.StatusBadGateway, explorer.MsgCannotConnect)
	}

	var httpErr *sparql.HTTPError
	if errors.As(err, &httpErr) {
		return errorJSON(c, http.StatusBadGateway, httpErr.Error())
	}
	return errorJSON(c, http.StatusInternalServerError, "Internal server error")
}

func bindInput(c echo.Context) (explorer.Input, error) {
	var in explorer.Input
	if err := c.Bind(&in); err != nil {
		return in, err
	}
	return in, nil
}
