package server

import (
	"net/http"

	"github.com/goudatijdmachine/filiatie/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, gatherer prometheus.Gatherer) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiRoutes := e.Group("/api")

	// Lineage routes
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.GET("/trees", routes.GetTreesHandler)
	apiRoutes.GET("/lineage", routes.GetLineageHandler)
	apiRoutes.GET("/geometry", routes.GetGeometryHandler)

	// Export routes
	apiRoutes.POST("/exports", routes.CreateExportHandler)
	apiRoutes.GET("/exports/:id", routes.GetExportHandler)
}
