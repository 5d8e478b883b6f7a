package stripewebhooks

import (
	"context"
	"time"

	"parity-app/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	if sub.CancelAtPeriodEnd {
		cus, err := customerID(sub)
		if err != nil {
			return err
		}
		return h.applyByCustomer(ctx, sub, cus, users.Downgraded(), eventAt)
	}

	state, cus, err := h.paidState(sub)
	if err != nil {
		return err
	}
	return h.applyByCustomer(ctx, sub, cus, state, eventAt)
}
