package stripewebhooks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parity-app/internal/repository"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionCreated(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	state, _, err := h.paidState(sub)
	if err != nil {
		return err
	}
	userID := userIDFromMetadata(sub.Metadata)
	if userID == "" {
		return ErrMissingUserID
	}

	matched, err := h.subscriptions.ApplyByUserID(ctx, userID, state, eventAt)
	if errors.Is(err, repository.ErrStaleEvent) {
		slog.Info("stale subscription event skipped", "subscription_id", sub.ID, "user_id", userID)
		return nil
	}
	if err != nil {
		return err
	}
	if !matched {
		slog.Info("no local subscription for user", "subscription_id", sub.ID, "user_id", userID)
	}
	return nil
}
