package stripewebhooks

import (
	"fmt"

	"parity-app/internal/domain/users"
	stripeinfra "parity-app/internal/infra/stripe"

	"github.com/stripe/stripe-go/v75"
)

// firstItem returns the only item of a single-price subscription.
func firstItem(sub *stripe.Subscription) (*stripe.SubscriptionItem, error) {
	if sub.ID == "" || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0] == nil || sub.Items.Data[0].Price == nil {
		return nil, ErrMalformedEventData
	}
	return sub.Items.Data[0], nil
}

func customerID(sub *stripe.Subscription) (string, error) {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return "", ErrMissingCustomer
	}
	return sub.Customer.ID, nil
}

// paidState resolves the tier from the subscription's price and collects the
// Stripe ids to store alongside it.
func (h *Handler) paidState(sub *stripe.Subscription) (users.State, string, error) {
	item, err := firstItem(sub)
	if err != nil {
		return users.State{}, "", err
	}
	cus, err := customerID(sub)
	if err != nil {
		return users.State{}, "", err
	}
	tier, ok := h.catalog.ByPriceID(item.Price.ID)
	if !ok {
		return users.State{}, "", fmt.Errorf("%w: %s", ErrUnknownPrice, item.Price.ID)
	}

	return users.State{
		Tier:                     tier.Name,
		StripeCustomerID:         stripe.String(cus),
		StripeSubscriptionID:     stripe.String(sub.ID),
		StripeSubscriptionItemID: stripe.String(item.ID),
	}, cus, nil
}

func userIDFromMetadata(md map[string]string) string {
	if md == nil {
		return ""
	}
	return md[stripeinfra.MetadataUserID]
}

