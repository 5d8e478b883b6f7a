package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(PriceIDs{Basic: "price_basic", Standard: "price_standard", Premium: "price_premium"})
}

func TestCatalog_ByPriceID(t *testing.T) {
	c := testCatalog()

	info, ok := c.ByPriceID("price_standard")
	require.True(t, ok)
	assert.Equal(t, TierStandard, info.Name)
	assert.Equal(t, int64(30), info.MaxNumberOfProducts)

	_, ok = c.ByPriceID("price_unknown")
	assert.False(t, ok)

	_, ok = c.ByPriceID("")
	assert.False(t, ok, "free tier must not match an empty price id")
}

func TestCatalog_InOrder(t *testing.T) {
	tiers := testCatalog().InOrder()
	require.Len(t, tiers, 4)

	names := make([]Tier, 0, len(tiers))
	for _, info := range tiers {
		names = append(names, info.Name)
	}
	assert.Equal(t, []Tier{TierFree, TierBasic, TierStandard, TierPremium}, names)

	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, tiers[i].PriceInCents, tiers[i-1].PriceInCents)
		assert.GreaterOrEqual(t, tiers[i].MaxNumberOfProducts, tiers[i-1].MaxNumberOfProducts)
	}
}

func TestCatalog_FeatureFlags(t *testing.T) {
	c := testCatalog()

	free, _ := c.Get(TierFree)
	assert.False(t, free.CanAccessAnalytics)
	assert.False(t, free.CanCustomizeBanner)
	assert.False(t, free.CanRemoveBranding)
	assert.Empty(t, free.StripePriceID)

	basic, _ := c.Get(TierBasic)
	assert.Equal(t, int64(5), basic.MaxNumberOfProducts)
	assert.True(t, basic.CanRemoveBranding)
	assert.False(t, basic.CanCustomizeBanner)
}

func TestTier_Valid(t *testing.T) {
	for _, name := range tierOrder {
		assert.True(t, name.Valid(), name)
	}
	assert.False(t, Tier("Gold").Valid())
	assert.False(t, Tier("free").Valid())
	assert.False(t, TierFree.Paid())
	assert.True(t, TierPremium.Paid())
}
