package plans

// Tier names (single source of truth, mirrored by the "tier" enum type in Postgres)
type Tier string

const (
	TierFree     Tier = "Free"
	TierBasic    Tier = "Basic"
	TierStandard Tier = "Standard"
	TierPremium  Tier = "Premium"
)

var tierOrder = []Tier{TierFree, TierBasic, TierStandard, TierPremium}

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierStandard, TierPremium:
		return true
	}
	return false
}

func (t Tier) Paid() bool {
	return t.Valid() && t != TierFree
}

type TierInfo struct {
	Name                Tier   `json:"name"`
	PriceInCents        int64  `json:"priceInCents"`
	MaxNumberOfProducts int64  `json:"maxNumberOfProducts"`
	MaxNumberOfVisits   int64  `json:"maxNumberOfVisits"`
	CanAccessAnalytics  bool   `json:"canAccessAnalytics"`
	CanCustomizeBanner  bool   `json:"canCustomizeBanner"`
	CanRemoveBranding   bool   `json:"canRemoveBranding"`
	StripePriceID       string `json:"-"`
}
