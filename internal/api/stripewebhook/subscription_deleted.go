package stripewebhooks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parity-app/internal/domain/users"
	"parity-app/internal/repository"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	cus, err := customerID(sub)
	if err != nil {
		return err
	}
	return h.applyByCustomer(ctx, sub, cus, users.Downgraded(), eventAt)
}

// applyByCustomer treats a missing row or a newer stored event as a no-op.
func (h *Handler) applyByCustomer(ctx context.Context, sub *stripe.Subscription, customerID string, state users.State, eventAt time.Time) error {
	matched, err := h.subscriptions.ApplyByCustomerID(ctx, customerID, state, eventAt)
	if errors.Is(err, repository.ErrStaleEvent) {
		slog.Info("stale subscription event skipped", "subscription_id", sub.ID, "customer_id", customerID)
		return nil
	}
	if err != nil {
		return err
	}
	if !matched {
		slog.Info("no local subscription for customer", "subscription_id", sub.ID, "customer_id", customerID)
	}
	return nil
}
