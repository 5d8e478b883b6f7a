package stripe

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/stripe/stripe-go/v75"
	portalsession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/subscription"
)

// MetadataUserID is the subscription metadata key carrying the identity
// provider's user id.
const MetadataUserID = "clerkUserId"

// Gateway issues the Stripe calls the app makes on behalf of a user.
type Gateway struct {
	returnURL string
}

// NewGateway configures the Stripe client. returnURL is where Stripe sends
// users back after checkout or the portal.
func NewGateway(secretKey, returnURL string) *Gateway {
	sdk.Key = secretKey
	return &Gateway{returnURL: returnURL}
}

type CheckoutRequest struct {
	UserID  string
	Email   string
	PriceID string
}

// CheckoutURL starts a subscription checkout for a user without a Stripe subscription.
func (g *Gateway) CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &sdk.CheckoutSessionParams{
		Mode: sdk.String(string(sdk.CheckoutSessionModeSubscription)),
		LineItems: []*sdk.CheckoutSessionLineItemParams{
			{Price: sdk.String(req.PriceID), Quantity: sdk.Int64(1)},
		},
		SubscriptionData: &sdk.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: req.UserID},
		},
		ClientReferenceID: sdk.String(req.UserID),
		SuccessURL:        sdk.String(g.returnURL),
		CancelURL:         sdk.String(g.returnURL),
	}
	if req.Email != "" {
		params.CustomerEmail = sdk.String(req.Email)
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// PortalURL opens the billing portal without a preset flow.
func (g *Gateway) PortalURL(ctx context.Context, customerID string) (string, error) {
	return g.portal(ctx, customerID, nil)
}

// CancelURL opens the portal on the cancellation of subscriptionID.
func (g *Gateway) CancelURL(ctx context.Context, customerID, subscriptionID string) (string, error) {
	return g.portal(ctx, customerID, &sdk.BillingPortalSessionFlowDataParams{
		Type: sdk.String(string(sdk.BillingPortalSessionFlowTypeSubscriptionCancel)),
		SubscriptionCancel: &sdk.BillingPortalSessionFlowDataSubscriptionCancelParams{
			Subscription: sdk.String(subscriptionID),
		},
	})
}

// ChangePlanURL opens the portal on the confirmation of switching the
// subscription item to priceID.
func (g *Gateway) ChangePlanURL(ctx context.Context, customerID, subscriptionID, itemID, priceID string) (string, error) {
	return g.portal(ctx, customerID, &sdk.BillingPortalSessionFlowDataParams{
		Type: sdk.String(string(sdk.BillingPortalSessionFlowTypeSubscriptionUpdateConfirm)),
		SubscriptionUpdateConfirm: &sdk.BillingPortalSessionFlowDataSubscriptionUpdateConfirmParams{
			Subscription: sdk.String(subscriptionID),
			Items: []*sdk.BillingPortalSessionFlowDataSubscriptionUpdateConfirmItemParams{
				{ID: sdk.String(itemID), Price: sdk.String(priceID), Quantity: sdk.Int64(1)},
			},
		},
	})
}

func (g *Gateway) portal(ctx context.Context, customerID string, flow *sdk.BillingPortalSessionFlowDataParams) (string, error) {
	params := &sdk.BillingPortalSessionParams{
		Customer:  sdk.String(customerID),
		ReturnURL: sdk.String(g.returnURL),
		FlowData:  flow,
	}
	params.Context = ctx

	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return s.URL, nil
}

// CancelSubscription cancels immediately. Used when the owning user is
// deleted. A subscription Stripe no longer knows counts as cancelled.
func (g *Gateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &sdk.SubscriptionCancelParams{}
	params.Context = ctx
	_, err := subscription.Cancel(subscriptionID, params)

	var stripeErr *sdk.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == sdk.ErrorCodeResourceMissing {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancel stripe subscription: %w", err)
	}
	return nil
}
