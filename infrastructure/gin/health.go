package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-crm/infrastructure/health"
)

// RegisterHealthRoutes adds the health endpoints:
//   - GET  /health          basic record, no external calls
//   - HEAD /health          200 with no body, for load balancers
//   - GET  /health/detailed dependencies and environment, always 200
//
// detailedGuard, when given, runs before the detailed handler.
func RegisterHealthRoutes(router gin.IRoutes, agg *health.Aggregator, detailedGuard ...gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, agg.Basic())
	})
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	handlers := append(append([]gin.HandlerFunc(nil), detailedGuard...), func(c *gin.Context) {
		c.JSON(http.StatusOK, agg.Detailed(c.Request.Context()))
	})
	router.GET("/health/detailed", handlers...)
}
