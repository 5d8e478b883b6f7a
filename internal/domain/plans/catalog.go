package plans

// PriceIDs holds the Stripe price ids of the paid tiers.
type PriceIDs struct {
	Basic    string
	Standard string
	Premium  string
}

// Catalog is the immutable tier table. Build it once at start-up.
type Catalog struct {
	tiers map[Tier]TierInfo
}

func NewCatalog(prices PriceIDs) *Catalog {
	return &Catalog{tiers: map[Tier]TierInfo{
		TierFree: {
			Name:                TierFree,
			PriceInCents:        0,
			MaxNumberOfProducts: 1,
			MaxNumberOfVisits:   5000,
		},
		TierBasic: {
			Name:                TierBasic,
			PriceInCents:        1900,
			MaxNumberOfProducts: 5,
			MaxNumberOfVisits:   10000,
			CanAccessAnalytics:  true,
			CanRemoveBranding:   true,
			StripePriceID:       prices.Basic,
		},
		TierStandard: {
			Name:                TierStandard,
			PriceInCents:        4900,
			MaxNumberOfProducts: 30,
			MaxNumberOfVisits:   100000,
			CanAccessAnalytics:  true,
			CanCustomizeBanner:  true,
			CanRemoveBranding:   true,
			StripePriceID:       prices.Standard,
		},
		TierPremium: {
			Name:                TierPremium,
			PriceInCents:        9900,
			MaxNumberOfProducts: 50,
			MaxNumberOfVisits:   1000000,
			CanAccessAnalytics:  true,
			CanCustomizeBanner:  true,
			CanRemoveBranding:   true,
			StripePriceID:       prices.Premium,
		},
	}}
}

func (c *Catalog) Get(t Tier) (TierInfo, bool) {
	info, ok := c.tiers[t]
	return info, ok
}

// ByPriceID maps a Stripe price id back to its tier. The free tier has no
// price and never matches.
func (c *Catalog) ByPriceID(priceID string) (TierInfo, bool) {
	if priceID == "" {
		return TierInfo{}, false
	}
	for _, t := range tierOrder {
		if info := c.tiers[t]; info.StripePriceID == priceID {
			return info, true
		}
	}
	return TierInfo{}, false
}

// InOrder returns all tiers from Free to Premium.
func (c *Catalog) InOrder() []TierInfo {
	out := make([]TierInfo, 0, len(tierOrder))
	for _, t := range tierOrder {
		out = append(out, c.tiers[t])
	}
	return out
}
