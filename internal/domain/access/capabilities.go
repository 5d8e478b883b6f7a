package access

import (
	"parity-app/internal/domain/plans"
)

// Supports reports whether a tier grants a boolean capability.
func Supports(tier plans.TierInfo, c Capability) bool {
	switch c {
	case CapabilityRemoveBranding:
		return tier.CanRemoveBranding
	case CapabilityCustomizeBanner:
		return tier.CanCustomizeBanner
	case CapabilityAccessAnalytics:
		return tier.CanAccessAnalytics
	default:
		return false
	}
}

func CapabilitiesFor(tier plans.TierInfo) []Capability {
	out := []Capability{}
	for _, c := range []Capability{CapabilityRemoveBranding, CapabilityCustomizeBanner, CapabilityAccessAnalytics} {
		if Supports(tier, c) {
			out = append(out, c)
		}
	}
	return out
}
