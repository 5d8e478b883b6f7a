package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"parity-app/internal/domain/access"
	"parity-app/internal/repository"

	"github.com/gin-gonic/gin"
)

type CapabilityChecker interface {
	HasCapability(ctx context.Context, userID string, capability access.Capability) (bool, error)
}

// RequireCapability lets the request through only when the user's tier grants capability.
// It panics on an unknown capability so a typo fails at route registration.
func RequireCapability(checker CapabilityChecker, capability access.Capability) gin.HandlerFunc {
	if !capability.Valid() {
		panic(fmt.Sprintf("middleware: unknown capability %q", capability))
	}
	return func(c *gin.Context) {
		ok, err := checker.HasCapability(c.Request.Context(), UserID(c), capability)
		if err != nil && !errors.Is(err, repository.ErrNoSubscription) {
			slog.Error("capability check failed", "capability", capability, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not check your plan"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "Your plan does not include this feature",
				"capability": capability,
			})
			return
		}
		c.Next()
	}
}
