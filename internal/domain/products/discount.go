package products

import (
	"strings"
	"time"

	"parity-app/internal/domain/countries"

	"github.com/google/uuid"
)

// CountryGroupDiscount is the seller's explicit coupon for one country group.
// DiscountPercentage is stored as a 0-1 fraction.
type CountryGroupDiscount struct {
	CountryGroupID uuid.UUID               `gorm:"type:uuid;primaryKey" json:"countryGroupId"`
	CountryGroup   *countries.CountryGroup `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProductID      uuid.UUID               `gorm:"type:uuid;primaryKey" json:"productId"`
	Product        *Product                `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Coupon             string  `gorm:"not null" json:"coupon"`
	DiscountPercentage float64 `gorm:"type:real;not null" json:"discountPercentage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CountryDiscountInput is one row of the country discount form. The discount
// is a whole percentage (0-100).
type CountryDiscountInput struct {
	CountryGroupID     uuid.UUID `json:"countryGroupId" binding:"required"`
	Coupon             string    `json:"coupon"`
	DiscountPercentage *float64  `json:"discountPercentage" binding:"omitempty,gte=0,lte=100"`
}

// DiscountUpsert is a validated discount ready to be written.
type DiscountUpsert struct {
	CountryGroupID     uuid.UUID
	Coupon             string
	DiscountPercentage float64
}

// SplitCountryDiscounts sorts form rows into writes and deletions. A row with a
// coupon and a positive discount is written with the discount converted to a
// fraction; every other row deletes that group's discount.
func SplitCountryDiscounts(rows []CountryDiscountInput) (upserts []DiscountUpsert, deleteGroupIDs []uuid.UUID) {
	for _, r := range rows {
		coupon := strings.TrimSpace(r.Coupon)
		if coupon != "" && r.DiscountPercentage != nil && *r.DiscountPercentage > 0 {
			upserts = append(upserts, DiscountUpsert{
				CountryGroupID:     r.CountryGroupID,
				Coupon:             coupon,
				DiscountPercentage: *r.DiscountPercentage / 100,
			})
			continue
		}
		deleteGroupIDs = append(deleteGroupIDs, r.CountryGroupID)
	}
	return upserts, deleteGroupIDs
}
