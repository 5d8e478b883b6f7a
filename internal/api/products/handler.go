package productsapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/countries"
	"parity-app/internal/domain/products"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Store interface {
	List(ctx context.Context, userID string, limit int) ([]products.Product, error)
	Get(ctx context.Context, productID uuid.UUID, userID string) (*products.Product, error)
	Create(ctx context.Context, userID string, d products.Details) (*products.Product, error)
	Update(ctx context.Context, productID uuid.UUID, userID string, d products.Details) (bool, error)
	Delete(ctx context.Context, productID uuid.UUID, userID string) (bool, error)
	Customization(ctx context.Context, productID uuid.UUID, userID string) (*products.ProductCustomization, error)
	UpdateCustomization(ctx context.Context, productID uuid.UUID, userID string, in products.CustomizationInput) (bool, error)
	CountryGroups(ctx context.Context, productID uuid.UUID, userID string) ([]repository.ProductCountryGroup, error)
	UpdateCountryDiscounts(ctx context.Context, productID uuid.UUID, userID string, upserts []products.DiscountUpsert, deleteGroupIDs []uuid.UUID) (bool, error)
}

type ProductLimiter interface {
	CanCreateProduct(ctx context.Context, userID string) (bool, error)
}

type CountryGroupLister interface {
	Groups(ctx context.Context) ([]countries.CountryGroup, error)
}

type Handler struct {
	products Store
	limits   ProductLimiter
	groups   CountryGroupLister
}

func NewHandler(store Store, limits ProductLimiter, groups CountryGroupLister) *Handler {
	return &Handler{products: store, limits: limits, groups: groups}
}

func (h *Handler) ListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.products.List(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		serverError(c, "Failed to load products", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, "Failed to load product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var body products.Details
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	allowed, err := h.limits.CanCreateProduct(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNoSubscription) {
		serverError(c, "Failed to check your plan", err)
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "There was an error creating your product"})
		return
	}

	p, err := h.products.Create(ctx, userID, body)
	if err != nil {
		serverError(c, "There was an error creating your product", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var body products.Details
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product", "details": err.Error()})
		return
	}

	updated, err := h.products.Update(c.Request.Context(), id, middleware.UserID(c), body)
	if err != nil {
		serverError(c, "There was an error updating your product", err)
		return
	}
	if !updated {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product details updated"})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	deleted, err := h.products.Delete(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		serverError(c, "There was an error deleting your product", err)
		return
	}
	if !deleted {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted your product"})
}

// productID parses :id. Malformed ids are reported as not found.
func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return uuid.Nil, false
	}
	return id, true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
}

func serverError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "path", c.FullPath(), "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
