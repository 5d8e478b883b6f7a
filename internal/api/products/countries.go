package productsapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/products"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type countryDiscountsForm struct {
	Groups []products.CountryDiscountInput `json:"groups" binding:"required,dive"`
}

func (h *Handler) GetCountryGroups(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	groups, err := h.products.CountryGroups(c.Request.Context(), id, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "Failed to load country groups", err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// UpdateCountryDiscounts saves rows with a coupon and a positive discount and
// removes the discount of every other submitted group.
func (h *Handler) UpdateCountryDiscounts(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var form countryDiscountsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid country discounts", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if msg, err := h.checkGroups(ctx, form.Groups); err != nil {
		serverError(c, "There was an error saving your country discounts", err)
		return
	} else if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid country discounts", "details": msg})
		return
	}

	upserts, deletes := products.SplitCountryDiscounts(form.Groups)
	updated, err := h.products.UpdateCountryDiscounts(ctx, id, middleware.UserID(c), upserts, deletes)
	if err != nil {
		serverError(c, "There was an error saving your country discounts", err)
		return
	}
	if !updated {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Country discounts saved"})
}

// checkGroups returns a message when a group is repeated or does not exist.
func (h *Handler) checkGroups(ctx context.Context, in []products.CountryDiscountInput) (string, error) {
	known, err := h.groups.Groups(ctx)
	if err != nil {
		return "", err
	}
	exists := make(map[uuid.UUID]bool, len(known))
	for _, g := range known {
		exists[g.ID] = true
	}

	seen := make(map[uuid.UUID]bool, len(in))
	for _, g := range in {
		if seen[g.CountryGroupID] {
			return fmt.Sprintf("country group %s submitted more than once", g.CountryGroupID), nil
		}
		seen[g.CountryGroupID] = true
		if !exists[g.CountryGroupID] {
			return fmt.Sprintf("unknown country group %s", g.CountryGroupID), nil
		}
	}
	return "", nil
}
