package countries

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CountryGroup is a purchasing-power bucket. The recommended discount is a
// 0-1 fraction and only advisory.
type CountryGroup struct {
	ID                            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                          string    `gorm:"not null;uniqueIndex" json:"name"`
	RecommendedDiscountPercentage float64   `gorm:"type:real;not null" json:"recommendedDiscountPercentage"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (g *CountryGroup) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type Country struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string        `gorm:"not null;uniqueIndex" json:"name"`
	Code           string        `gorm:"not null;uniqueIndex" json:"code"`
	CountryGroupID uuid.UUID     `gorm:"type:uuid;not null;index" json:"countryGroupId"`
	CountryGroup   *CountryGroup `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (c *Country) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
