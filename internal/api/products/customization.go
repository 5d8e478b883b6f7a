package productsapi

import (
	"errors"
	"net/http"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/products"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCustomization(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	custom, err := h.products.Customization(c.Request.Context(), id, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "Failed to load banner customization", err)
		return
	}
	c.JSON(http.StatusOK, custom)
}

func (h *Handler) UpdateCustomization(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var body products.CustomizationInput
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid banner customization", "details": err.Error()})
		return
	}

	updated, err := h.products.UpdateCustomization(c.Request.Context(), id, middleware.UserID(c), body)
	if err != nil {
		serverError(c, "There was an error updating your banner", err)
		return
	}
	if !updated {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Banner updated"})
}
