package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"parity-app/internal/domain/billing"
	"parity-app/internal/domain/plans"
	"parity-app/internal/domain/users"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

const maxBodyBytes = 65536

const (
	eventSubscriptionCreated = "customer.subscription.created"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
)

// Errors that make an event impossible to apply. Redelivery will not fix them.
var (
	ErrUnknownPrice       = errors.New("price does not match any tier")
	ErrMissingUserID      = errors.New("subscription metadata has no user id")
	ErrMissingCustomer    = errors.New("subscription has no customer")
	ErrMalformedEventData = errors.New("subscription is missing id or items")
)

type SubscriptionStore interface {
	ApplyByUserID(ctx context.Context, userID string, state users.State, eventAt time.Time) (bool, error)
	ApplyByCustomerID(ctx context.Context, customerID string, state users.State, eventAt time.Time) (bool, error)
}

type EventLog interface {
	Seen(ctx context.Context, provider, eventID string) (bool, error)
	Record(ctx context.Context, provider, eventID, eventType string, payload []byte) error
}

type Handler struct {
	secret        string
	catalog       *plans.Catalog
	subscriptions SubscriptionStore
	events        EventLog
}

func NewHandler(secret string, catalog *plans.Catalog, subscriptions SubscriptionStore, events EventLog) *Handler {
	return &Handler{secret: secret, catalog: catalog, subscriptions: subscriptions, events: events}
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		slog.Warn("stripe signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	eventType := string(event.Type)
	log := slog.With("event_id", event.ID, "event_type", eventType)
	ctx := c.Request.Context()

	var apply func(context.Context, *stripe.Subscription, time.Time) error
	switch eventType {
	case eventSubscriptionCreated:
		apply = h.handleSubscriptionCreated
	case eventSubscriptionUpdated:
		apply = h.handleSubscriptionUpdated
	case eventSubscriptionDeleted:
		apply = h.handleSubscriptionDeleted
	default:
		// Acknowledge unknown events to avoid retries
		log.Debug("stripe event ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	seen, err := h.events.Seen(ctx, billing.ProviderStripe, event.ID)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	if seen {
		log.Info("stripe event already processed")
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
		return
	}

	if err := apply(ctx, &sub, time.Unix(event.Created, 0).UTC()); err != nil {
		if isUnrecoverable(err) {
			log.Warn("stripe event rejected", "subscription_id", sub.ID, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, log, err)
		return
	}

	if err := h.events.Record(ctx, billing.ProviderStripe, event.ID, eventType, payload); err != nil {
		h.fail(c, log, err)
		return
	}

	log.Info("stripe event processed", "subscription_id", sub.ID)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (h *Handler) fail(c *gin.Context, log *slog.Logger, err error) {
	log.Error("stripe event failed", "error", err)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
}

func isUnrecoverable(err error) bool {
	return errors.Is(err, ErrUnknownPrice) ||
		errors.Is(err, ErrMissingUserID) ||
		errors.Is(err, ErrMissingCustomer) ||
		errors.Is(err, ErrMalformedEventData)
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
