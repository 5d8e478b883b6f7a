package access

type Capability string

const (
	CapabilityRemoveBranding  Capability = "remove_branding"
	CapabilityCustomizeBanner Capability = "customize_banner"
	CapabilityAccessAnalytics Capability = "access_analytics"
)

func (c Capability) Valid() bool {
	switch c {
	case CapabilityRemoveBranding, CapabilityCustomizeBanner, CapabilityAccessAnalytics:
		return true
	}
	return false
}
