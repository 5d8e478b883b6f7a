package products

import (
	"time"

	"parity-app/internal/domain/countries"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductView is an append-only banner impression.
type ProductView struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Product   *Product           `gorm:"constraint:OnDelete:CASCADE"`
	CountryID *uuid.UUID         `gorm:"type:uuid"`
	Country   *countries.Country `gorm:"constraint:OnDelete:CASCADE"`
	VisitedAt time.Time          `gorm:"not null;index"`
}

func (v *ProductView) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now()
	}
	return nil
}
