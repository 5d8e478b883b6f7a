package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parity-app/internal/domain/plans"
	"parity-app/internal/domain/products"
	"parity-app/internal/domain/users"
	"parity-app/internal/infra/cache"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Subscriptions struct {
	db      *gorm.DB
	cache   *cache.Cache
	catalog *plans.Catalog
}

func NewSubscriptions(db *gorm.DB, c *cache.Cache, catalog *plans.Catalog) *Subscriptions {
	return &Subscriptions{db: db, cache: c, catalog: catalog}
}

// Create inserts a subscription for userID. An existing row is left untouched
// and reported with created == false.
func (r *Subscriptions) Create(ctx context.Context, userID string, tier plans.Tier) (bool, error) {
	s := users.UserSubscription{ClerkUserID: userID, Tier: tier}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clerk_user_id"}},
			DoNothing: true,
		}).
		Create(&s)
	if res.Error != nil {
		return false, fmt.Errorf("create subscription: %w", res.Error)
	}

	r.cache.Invalidate(ctx, cache.ResourceUserSubscription, cache.Scope{UserID: userID})
	return res.RowsAffected > 0, nil
}

func (r *Subscriptions) Get(ctx context.Context, userID string) (*users.UserSubscription, error) {
	key := cache.Key("userSubscription", userID)
	tags := []string{cache.UserTag(userID, cache.ResourceUserSubscription)}

	s, err := cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) (users.UserSubscription, error) {
		var s users.UserSubscription
		err := r.db.WithContext(ctx).Where("clerk_user_id = ?", userID).First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s, ErrNoSubscription
		}
		if err != nil {
			return s, fmt.Errorf("get subscription: %w", err)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Tier resolves the user's subscription to its catalog entry.
func (r *Subscriptions) Tier(ctx context.Context, userID string) (plans.TierInfo, error) {
	s, err := r.Get(ctx, userID)
	if err != nil {
		return plans.TierInfo{}, err
	}
	info, ok := r.catalog.Get(s.Tier)
	if !ok {
		return plans.TierInfo{}, fmt.Errorf("subscription of %s has unknown tier %q", userID, s.Tier)
	}
	return info, nil
}

// ApplyByUserID writes state to the row of userID. matched is false when no
// row exists. A row already updated by a later event returns ErrStaleEvent.
func (r *Subscriptions) ApplyByUserID(ctx context.Context, userID string, state users.State, eventAt time.Time) (bool, error) {
	return r.apply(ctx, "clerk_user_id", userID, state, eventAt)
}

// ApplyByCustomerID is ApplyByUserID keyed by the Stripe customer id.
func (r *Subscriptions) ApplyByCustomerID(ctx context.Context, customerID string, state users.State, eventAt time.Time) (bool, error) {
	return r.apply(ctx, "stripe_customer_id", customerID, state, eventAt)
}

func (r *Subscriptions) apply(ctx context.Context, column, key string, state users.State, eventAt time.Time) (bool, error) {
	eventAt = eventAt.UTC()

	var current users.UserSubscription
	err := r.db.WithContext(ctx).Where(column+" = ?", key).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find subscription by %s: %w", column, err)
	}
	if current.LastEventAt != nil && current.LastEventAt.After(eventAt) {
		return true, ErrStaleEvent
	}

	res := r.db.WithContext(ctx).
		Model(&users.UserSubscription{}).
		Where("id = ?", current.ID).
		Where("last_event_at IS NULL OR last_event_at <= ?", eventAt).
		Updates(map[string]any{
			"tier":                        state.Tier,
			"stripe_customer_id":          state.StripeCustomerID,
			"stripe_subscription_id":      state.StripeSubscriptionID,
			"stripe_subscription_item_id": state.StripeSubscriptionItemID,
			"last_event_at":               eventAt,
		})
	if res.Error != nil {
		return true, fmt.Errorf("update subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// a newer event landed between the read and the write
		return true, ErrStaleEvent
	}

	r.cache.Invalidate(ctx, cache.ResourceUserSubscription, cache.Scope{UserID: current.ClerkUserID})
	return true, nil
}

// DeleteUser removes the user's subscription and every product they own.
// Customizations, discounts and views go with the products.
func (r *Subscriptions) DeleteUser(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("clerk_user_id = ?", userID).Delete(&users.UserSubscription{}).Error; err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		if err := tx.Where("clerk_user_id = ?", userID).Delete(&products.Product{}).Error; err != nil {
			return fmt.Errorf("delete products: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	scope := cache.Scope{UserID: userID}
	r.cache.Invalidate(ctx, cache.ResourceUserSubscription, scope)
	r.cache.Invalidate(ctx, cache.ResourceProducts, scope)
	r.cache.Invalidate(ctx, cache.ResourceCountryGroups, scope)
	r.cache.Invalidate(ctx, cache.ResourceProductViews, scope)
	return nil
}
