package access

import (
	"context"
	"time"

	"parity-app/internal/domain/plans"
)

type TierResolver interface {
	Tier(ctx context.Context, userID string) (plans.TierInfo, error)
}

type ProductCounter interface {
	Count(ctx context.Context, userID string) (int64, error)
}

type ViewCounter interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// Checker answers entitlement questions from a user's tier and usage.
// It has no side effects.
type Checker struct {
	tiers    TierResolver
	products ProductCounter
	views    ViewCounter
}

func NewChecker(tiers TierResolver, products ProductCounter, views ViewCounter) *Checker {
	return &Checker{tiers: tiers, products: products, views: views}
}

func (c *Checker) HasCapability(ctx context.Context, userID string, capability Capability) (bool, error) {
	if userID == "" {
		return false, nil
	}
	tier, err := c.tiers.Tier(ctx, userID)
	if err != nil {
		return false, err
	}
	return Supports(tier, capability), nil
}

// CanCreateProduct denies creation once the product count reaches the tier limit.
func (c *Checker) CanCreateProduct(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	tier, err := c.tiers.Tier(ctx, userID)
	if err != nil {
		return false, err
	}
	count, err := c.products.Count(ctx, userID)
	if err != nil {
		return false, err
	}
	return count < tier.MaxNumberOfProducts, nil
}

// CanShowDiscountBanner checks this month's banner views against the visit limit.
func (c *Checker) CanShowDiscountBanner(ctx context.Context, userID string, now time.Time) (bool, error) {
	if userID == "" {
		return false, nil
	}
	tier, err := c.tiers.Tier(ctx, userID)
	if err != nil {
		return false, err
	}
	views, err := c.views.CountSince(ctx, userID, StartOfMonth(now))
	if err != nil {
		return false, err
	}
	return views < tier.MaxNumberOfVisits, nil
}

type Usage struct {
	Tier            plans.TierInfo `json:"tier"`
	ProductCount    int64          `json:"productCount"`
	MonthlyVisits   int64          `json:"monthlyVisits"`
	Capabilities    []Capability   `json:"capabilities"`
	CanAddProduct   bool           `json:"canAddProduct"`
	VisitsRemaining int64          `json:"visitsRemaining"`
}

func (c *Checker) Usage(ctx context.Context, userID string, now time.Time) (Usage, error) {
	tier, err := c.tiers.Tier(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	count, err := c.products.Count(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	views, err := c.views.CountSince(ctx, userID, StartOfMonth(now))
	if err != nil {
		return Usage{}, err
	}

	return Usage{
		Tier:            tier,
		ProductCount:    count,
		MonthlyVisits:   views,
		Capabilities:    CapabilitiesFor(tier),
		CanAddProduct:   count < tier.MaxNumberOfProducts,
		VisitsRemaining: max(tier.MaxNumberOfVisits-views, 0),
	}, nil
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
