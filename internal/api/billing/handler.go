package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"parity-app/internal/app/http/middleware"
	"parity-app/internal/domain/access"
	"parity-app/internal/domain/plans"
	"parity-app/internal/domain/users"
	"parity-app/internal/repository"
	stripeinfra "parity-app/internal/infra/stripe"

	"github.com/gin-gonic/gin"
)

type Subscriptions interface {
	Get(ctx context.Context, userID string) (*users.UserSubscription, error)
}

type UsageReporter interface {
	Usage(ctx context.Context, userID string, now time.Time) (access.Usage, error)
}

type Gateway interface {
	CheckoutURL(ctx context.Context, req stripeinfra.CheckoutRequest) (string, error)
	PortalURL(ctx context.Context, customerID string) (string, error)
	CancelURL(ctx context.Context, customerID, subscriptionID string) (string, error)
	ChangePlanURL(ctx context.Context, customerID, subscriptionID, itemID, priceID string) (string, error)
}

type Handler struct {
	catalog       *plans.Catalog
	subscriptions Subscriptions
	usage         UsageReporter
	gateway       Gateway
	now           func() time.Time
}

func NewHandler(catalog *plans.Catalog, subscriptions Subscriptions, usage UsageReporter, gateway Gateway) *Handler {
	return &Handler{catalog: catalog, subscriptions: subscriptions, usage: usage, gateway: gateway, now: time.Now}
}

// GetSubscription returns the current tier with this month's usage.
func (h *Handler) GetSubscription(c *gin.Context) {
	u, err := h.usage.Usage(c.Request.Context(), middleware.UserID(c), h.now())
	if errors.Is(err, repository.ErrNoSubscription) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subscription found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to load subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": u, "tiers": h.catalog.InOrder()})
}

type checkoutRequest struct {
	Tier plans.Tier `json:"tier" binding:"required"`
}

// CreateCheckoutSession returns a Stripe URL that moves the user to the
// requested paid tier: a new checkout for users without a subscription, a
// portal plan-change confirmation for everyone else.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid tier"})
		return
	}
	tier, ok := h.catalog.Get(body.Tier)
	if !ok || !tier.Name.Paid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown paid tier"})
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	sub, ok := h.subscription(c, userID)
	if !ok {
		return
	}
	if sub.Tier == tier.Name {
		c.JSON(http.StatusConflict, gin.H{"error": "You are already on this plan"})
		return
	}

	var url string
	var err error
	if sub.HasStripeSubscription() && sub.HasStripeCustomer() && sub.StripeSubscriptionItemID != nil {
		url, err = h.gateway.ChangePlanURL(ctx, *sub.StripeCustomerID, *sub.StripeSubscriptionID, *sub.StripeSubscriptionItemID, tier.StripePriceID)
	} else {
		url, err = h.gateway.CheckoutURL(ctx, stripeinfra.CheckoutRequest{
			UserID:  userID,
			Email:   c.GetString(middleware.EmailKey),
			PriceID: tier.StripePriceID,
		})
	}
	if err != nil {
		serverError(c, "Failed to create checkout session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) CreateCancelSession(c *gin.Context) {
	sub, ok := h.subscription(c, middleware.UserID(c))
	if !ok {
		return
	}
	if !sub.HasStripeCustomer() || !sub.HasStripeSubscription() {
		c.JSON(http.StatusConflict, gin.H{"error": "No active subscription to cancel"})
		return
	}

	url, err := h.gateway.CancelURL(c.Request.Context(), *sub.StripeCustomerID, *sub.StripeSubscriptionID)
	if err != nil {
		serverError(c, "Could not create billing portal session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) CreateBillingPortal(c *gin.Context) {
	sub, ok := h.subscription(c, middleware.UserID(c))
	if !ok {
		return
	}
	if !sub.HasStripeCustomer() {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	url, err := h.gateway.PortalURL(c.Request.Context(), *sub.StripeCustomerID)
	if err != nil {
		serverError(c, "Could not create billing portal session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) subscription(c *gin.Context, userID string) (*users.UserSubscription, bool) {
	sub, err := h.subscriptions.Get(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNoSubscription) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subscription found"})
		return nil, false
	}
	if err != nil {
		serverError(c, "Failed to load subscription", err)
		return nil, false
	}
	return sub, true
}

func serverError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "path", c.FullPath(), "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
