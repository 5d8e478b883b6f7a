package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parity-app/internal/domain/products"
	"parity-app/internal/infra/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Banner is everything needed to render the discount banner of one product
// for visitors from one country.
type Banner struct {
	ProductID          uuid.UUID                     `json:"productId"`
	ProductURL         string                        `json:"productUrl"`
	OwnerID            string                        `json:"ownerId"`
	Customization      products.ProductCustomization `json:"customization"`
	CountryID          uuid.UUID                     `json:"countryId"`
	CountryName        string                        `json:"countryName"`
	CountryCode        string                        `json:"countryCode"`
	Coupon             string                        `json:"coupon"`
	DiscountPercentage float64                       `json:"discountPercentage"`
}

type Banners struct {
	db        *gorm.DB
	cache     *cache.Cache
	countries *Countries
}

func NewBanners(db *gorm.DB, c *cache.Cache) *Banners {
	return &Banners{db: db, cache: c, countries: NewCountries(db, c)}
}

// Lookup returns ErrNotFound for an unknown product and a nil banner when
// the visitor's country has no discount configured.
func (r *Banners) Lookup(ctx context.Context, productID uuid.UUID, countryCode string) (*Banner, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	key := cache.Key("banner", productID.String(), countryCode)
	tags := []string{
		cache.IDTag(productID.String(), cache.ResourceProducts),
		cache.IDTag(productID.String(), cache.ResourceCountryGroups),
		cache.GlobalTag(cache.ResourceCountries),
		cache.GlobalTag(cache.ResourceCountryGroups),
	}

	return cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) (*Banner, error) {
		db := r.db.WithContext(ctx)

		var p products.Product
		err := db.Where("id = ?", productID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}

		c, err := r.countries.ByCode(ctx, countryCode)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		var d products.CountryGroupDiscount
		err = db.Where("product_id = ? AND country_group_id = ?", productID, c.CountryGroupID).First(&d).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get discount: %w", err)
		}

		var custom products.ProductCustomization
		if err := db.Where("product_id = ?", productID).First(&custom).Error; err != nil {
			return nil, fmt.Errorf("get product customization: %w", err)
		}

		return &Banner{
			ProductID:          p.ID,
			ProductURL:         p.URL,
			OwnerID:            p.ClerkUserID,
			Customization:      custom,
			CountryID:          c.ID,
			CountryName:        c.Name,
			CountryCode:        c.Code,
			Coupon:             d.Coupon,
			DiscountPercentage: d.DiscountPercentage,
		}, nil
	})
}
