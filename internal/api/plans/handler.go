package plans

import (
	"net/http"

	"parity-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

// ListPlans serves the tier table for the pricing page.
func ListPlans(catalog *plans.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, catalog.InOrder())
	}
}
