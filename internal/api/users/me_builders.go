package users

import (
	"parity-app/internal/domain/access"
	"parity-app/internal/domain/plans"
	domainusers "parity-app/internal/domain/users"
)

func buildMe(userID, email string, sub *domainusers.UserSubscription, tier plans.TierInfo) MeResponse {
	return MeResponse{
		User: UserDTO{ID: userID, Email: email},
		Billing: BillingDTO{
			Tier:              string(tier.Name),
			PriceInCents:      tier.PriceInCents,
			HasSubscription:   sub.HasStripeSubscription(),
			HasBillingAccount: sub.HasStripeCustomer(),
		},
		Access: AccessDTO{
			Capabilities:        access.CapabilitiesFor(tier),
			MaxNumberOfProducts: tier.MaxNumberOfProducts,
			MaxNumberOfVisits:   tier.MaxNumberOfVisits,
		},
	}
}
