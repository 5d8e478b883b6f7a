package users

import (
	"time"

	"parity-app/internal/domain/plans"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSubscription is the local mirror of a user's Stripe subscription.
// The three Stripe ids are null together on Free.
type UserSubscription struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ClerkUserID string    `gorm:"column:clerk_user_id;not null;uniqueIndex:user_subscriptions_clerk_user_id_index" json:"clerkUserId"`

	StripeSubscriptionItemID *string `gorm:"column:stripe_subscription_item_id" json:"stripeSubscriptionItemId"`
	StripeSubscriptionID     *string `gorm:"column:stripe_subscription_id" json:"stripeSubscriptionId"`
	StripeCustomerID         *string `gorm:"column:stripe_customer_id;index:user_subscriptions_stripe_customer_id_index" json:"stripeCustomerId"`

	Tier plans.Tier `gorm:"type:tier;not null" json:"tier"`

	// Created time of the last Stripe event applied to this row.
	LastEventAt *time.Time `gorm:"column:last_event_at" json:"lastEventAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *UserSubscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *UserSubscription) HasStripeSubscription() bool {
	return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}

func (s *UserSubscription) HasStripeCustomer() bool {
	return s.StripeCustomerID != nil && *s.StripeCustomerID != ""
}

// State is the subscription shape written by billing events.
type State struct {
	Tier                     plans.Tier
	StripeCustomerID         *string
	StripeSubscriptionID     *string
	StripeSubscriptionItemID *string
}

// Downgraded is the Free state with every Stripe id cleared.
func Downgraded() State {
	return State{Tier: plans.TierFree}
}
