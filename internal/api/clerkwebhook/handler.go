package clerkwebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"parity-app/internal/domain/billing"
	"parity-app/internal/domain/plans"
	"parity-app/internal/domain/users"
	"parity-app/internal/repository"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 65536

const (
	eventUserCreated = "user.created"
	eventUserDeleted = "user.deleted"
)

var ErrMissingUserID = errors.New("event has no user id")

// SignatureVerifier checks the svix-id, svix-timestamp and svix-signature headers.
type SignatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type UserStore interface {
	Create(ctx context.Context, userID string, tier plans.Tier) (bool, error)
	Get(ctx context.Context, userID string) (*users.UserSubscription, error)
	DeleteUser(ctx context.Context, userID string) error
}

type SubscriptionCanceller interface {
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

type EventLog interface {
	Seen(ctx context.Context, provider, eventID string) (bool, error)
	Record(ctx context.Context, provider, eventID, eventType string, payload []byte) error
}

type Handler struct {
	verifier SignatureVerifier
	users    UserStore
	stripe   SubscriptionCanceller
	events   EventLog
}

func NewHandler(verifier SignatureVerifier, store UserStore, stripe SubscriptionCanceller, events EventLog) *Handler {
	return &Handler{verifier: verifier, users: store, stripe: stripe, events: events}
}

type event struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (h *Handler) ClerkWebhook(c *gin.Context) {
	msgID := c.GetHeader("svix-id")
	if msgID == "" || c.GetHeader("svix-timestamp") == "" || c.GetHeader("svix-signature") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing svix headers"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request body"})
		return
	}

	if err := h.verifier.Verify(payload, c.Request.Header); err != nil {
		slog.Warn("svix signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	var evt event
	if err := json.Unmarshal(payload, &evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event"})
		return
	}

	log := slog.With("event_id", msgID, "event_type", evt.Type)
	ctx := c.Request.Context()

	var apply func(context.Context, string) error
	switch evt.Type {
	case eventUserCreated:
		apply = h.handleUserCreated
	case eventUserDeleted:
		apply = h.handleUserDeleted
	default:
		log.Debug("clerk event ignored")
		c.Status(http.StatusOK)
		return
	}

	if evt.Data.ID == "" {
		log.Warn("clerk event rejected", "error", ErrMissingUserID)
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrMissingUserID.Error()})
		return
	}

	seen, err := h.events.Seen(ctx, billing.ProviderClerk, msgID)
	if err != nil {
		h.fail(c, log, err)
		return
	}
	if seen {
		log.Info("clerk event already processed")
		c.Status(http.StatusOK)
		return
	}

	if err := apply(ctx, evt.Data.ID); err != nil {
		h.fail(c, log, err)
		return
	}
	if err := h.events.Record(ctx, billing.ProviderClerk, msgID, evt.Type, payload); err != nil {
		h.fail(c, log, err)
		return
	}

	log.Info("clerk event processed", "user_id", evt.Data.ID)
	c.Status(http.StatusOK)
}

func (h *Handler) handleUserCreated(ctx context.Context, userID string) error {
	created, err := h.users.Create(ctx, userID, plans.TierFree)
	if err != nil {
		return err
	}
	if !created {
		slog.Info("subscription already exists", "user_id", userID)
	}
	return nil
}

// handleUserDeleted cancels the Stripe subscription before touching local
// rows so a failure part way leaves the user retryable.
func (h *Handler) handleUserDeleted(ctx context.Context, userID string) error {
	sub, err := h.users.Get(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNoSubscription) {
		return err
	}
	if sub != nil && sub.HasStripeSubscription() {
		if err := h.stripe.CancelSubscription(ctx, *sub.StripeSubscriptionID); err != nil {
			return err
		}
	}
	return h.users.DeleteUser(ctx, userID)
}

func (h *Handler) fail(c *gin.Context, log *slog.Logger, err error) {
	log.Error("clerk event failed", "error", err)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
}
