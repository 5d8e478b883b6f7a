package users

import "parity-app/internal/domain/access"

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
	Access  AccessDTO  `json:"access"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type BillingDTO struct {
	Tier              string `json:"tier"`
	PriceInCents      int64  `json:"priceInCents"`
	HasSubscription   bool   `json:"hasSubscription"`
	HasBillingAccount bool   `json:"hasBillingAccount"`
}

type AccessDTO struct {
	Capabilities        []access.Capability `json:"capabilities"`
	MaxNumberOfProducts int64               `json:"maxNumberOfProducts"`
	MaxNumberOfVisits   int64               `json:"maxNumberOfVisits"`
}
