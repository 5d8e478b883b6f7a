package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/plans"
	domainusers "parity-app/internal/domain/users"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
)

type Subscriptions interface {
	Get(ctx context.Context, userID string) (*domainusers.UserSubscription, error)
}

type Handler struct {
	catalog       *plans.Catalog
	subscriptions Subscriptions
}

func NewHandler(catalog *plans.Catalog, subscriptions Subscriptions) *Handler {
	return &Handler{catalog: catalog, subscriptions: subscriptions}
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sub, err := h.subscriptions.Get(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNoSubscription) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		slog.Error("failed to load user", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	tier, ok := h.catalog.Get(sub.Tier)
	if !ok {
		slog.Error("subscription has unknown tier", "user_id", userID, "tier", sub.Tier)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, buildMe(userID, c.GetString(middleware.EmailKey), sub, tier))
}
