package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"parity-app/internal/domain/countries"
	"parity-app/internal/domain/products"
	"parity-app/internal/infra/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Products struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewProducts(db *gorm.DB, c *cache.Cache) *Products {
	return &Products{db: db, cache: c}
}

// List returns the user's products, newest first. limit <= 0 means no limit.
func (r *Products) List(ctx context.Context, userID string, limit int) ([]products.Product, error) {
	key := cache.Key("products", userID, strconv.Itoa(limit))
	tags := []string{cache.UserTag(userID, cache.ResourceProducts)}

	return cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) ([]products.Product, error) {
		var out []products.Product
		q := userProductsQuery(r.db.WithContext(ctx), userID).Order("created_at DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&out).Error; err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return out, nil
	})
}

func (r *Products) Get(ctx context.Context, productID uuid.UUID, userID string) (*products.Product, error) {
	key := cache.Key("product", productID.String(), userID)
	tags := []string{
		cache.IDTag(productID.String(), cache.ResourceProducts),
		cache.UserTag(userID, cache.ResourceProducts),
	}

	p, err := cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) (products.Product, error) {
		var p products.Product
		err := ownedProductQuery(r.db.WithContext(ctx), productID, userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p, ErrNotFound
		}
		if err != nil {
			return p, fmt.Errorf("get product: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Products) Count(ctx context.Context, userID string) (int64, error) {
	key := cache.Key("productCount", userID)
	tags := []string{cache.UserTag(userID, cache.ResourceProducts)}

	return cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) (int64, error) {
		var n int64
		if err := userProductsQuery(r.db.WithContext(ctx), userID).Count(&n).Error; err != nil {
			return 0, fmt.Errorf("count products: %w", err)
		}
		return n, nil
	})
}

// Create inserts the product and its default customization together.
func (r *Products) Create(ctx context.Context, userID string, d products.Details) (*products.Product, error) {
	d = d.Normalized()
	p := products.Product{
		ClerkUserID: userID,
		Name:        d.Name,
		URL:         d.URL,
		Description: d.Description,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		c := products.NewCustomization(p.ID)
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("create product customization: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.cache.Invalidate(ctx, cache.ResourceProducts, cache.Scope{UserID: userID, ID: p.ID.String()})
	return &p, nil
}

// Update reports false when the product does not exist or is not owned by userID.
func (r *Products) Update(ctx context.Context, productID uuid.UUID, userID string, d products.Details) (bool, error) {
	d = d.Normalized()
	res := ownedProductQuery(r.db.WithContext(ctx), productID, userID).
		Updates(map[string]any{
			"name":        d.Name,
			"url":         d.URL,
			"description": d.Description,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	r.cache.Invalidate(ctx, cache.ResourceProducts, cache.Scope{UserID: userID, ID: productID.String()})
	return true, nil
}

// Delete removes the product with its customization, discounts and views.
func (r *Products) Delete(ctx context.Context, productID uuid.UUID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND clerk_user_id = ?", productID, userID).
		Delete(&products.Product{})
	if res.Error != nil {
		return false, fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	scope := cache.Scope{UserID: userID, ID: productID.String()}
	r.cache.Invalidate(ctx, cache.ResourceProducts, scope)
	r.cache.Invalidate(ctx, cache.ResourceCountryGroups, scope)
	r.cache.Invalidate(ctx, cache.ResourceProductViews, scope)
	return true, nil
}

func (r *Products) Customization(ctx context.Context, productID uuid.UUID, userID string) (*products.ProductCustomization, error) {
	key := cache.Key("customization", productID.String(), userID)
	tags := []string{
		cache.IDTag(productID.String(), cache.ResourceProducts),
		cache.UserTag(userID, cache.ResourceProducts),
	}

	c, err := cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) (products.ProductCustomization, error) {
		var c products.ProductCustomization
		err := r.db.WithContext(ctx).
			Where("product_id = ? AND product_id IN (?)", productID, ownedProductIDs(r.db, userID)).
			First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c, ErrNotFound
		}
		if err != nil {
			return c, fmt.Errorf("get product customization: %w", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Products) UpdateCustomization(ctx context.Context, productID uuid.UUID, userID string, in products.CustomizationInput) (bool, error) {
	isSticky := in.IsSticky != nil && *in.IsSticky
	res := r.db.WithContext(ctx).
		Model(&products.ProductCustomization{}).
		Where("product_id = ? AND product_id IN (?)", productID, ownedProductIDs(r.db, userID)).
		Updates(map[string]any{
			"class_prefix":     in.ClassPrefix,
			"location_message": in.LocationMessage,
			"background_color": in.BackgroundColor,
			"text_color":       in.TextColor,
			"font_size":        in.FontSize,
			"banner_container": in.BannerContainer,
			"is_sticky":        isSticky,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update product customization: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	r.cache.Invalidate(ctx, cache.ResourceProducts, cache.Scope{UserID: userID, ID: productID.String()})
	return true, nil
}

type CountryRef struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type DiscountRef struct {
	Coupon             string  `json:"coupon"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// ProductCountryGroup is a country group with this product's discount, if any.
type ProductCountryGroup struct {
	ID                            uuid.UUID    `json:"id"`
	Name                          string       `json:"name"`
	RecommendedDiscountPercentage float64      `json:"recommendedDiscountPercentage"`
	Countries                     []CountryRef `json:"countries"`
	Discount                      *DiscountRef `json:"discount"`
}

// CountryGroups lists every country group, most discounted first, with the
// product's configured discount attached.
func (r *Products) CountryGroups(ctx context.Context, productID uuid.UUID, userID string) ([]ProductCountryGroup, error) {
	key := cache.Key("productCountryGroups", productID.String(), userID)
	tags := []string{
		cache.IDTag(productID.String(), cache.ResourceProducts),
		cache.IDTag(productID.String(), cache.ResourceCountryGroups),
		cache.GlobalTag(cache.ResourceCountries),
		cache.GlobalTag(cache.ResourceCountryGroups),
	}

	return cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) ([]ProductCountryGroup, error) {
		db := r.db.WithContext(ctx)

		var owned int64
		if err := ownedProductQuery(db, productID, userID).Count(&owned).Error; err != nil {
			return nil, fmt.Errorf("check product owner: %w", err)
		}
		if owned == 0 {
			return nil, ErrNotFound
		}

		var groups []countries.CountryGroup
		if err := db.Order("recommended_discount_percentage DESC").Order("name").Find(&groups).Error; err != nil {
			return nil, fmt.Errorf("list country groups: %w", err)
		}
		var cs []countries.Country
		if err := db.Order("name").Find(&cs).Error; err != nil {
			return nil, fmt.Errorf("list countries: %w", err)
		}
		var discounts []products.CountryGroupDiscount
		if err := db.Where("product_id = ?", productID).Find(&discounts).Error; err != nil {
			return nil, fmt.Errorf("list discounts: %w", err)
		}

		byGroup := make(map[uuid.UUID][]CountryRef, len(groups))
		for _, c := range cs {
			byGroup[c.CountryGroupID] = append(byGroup[c.CountryGroupID], CountryRef{Name: c.Name, Code: c.Code})
		}
		discountByGroup := make(map[uuid.UUID]DiscountRef, len(discounts))
		for _, d := range discounts {
			discountByGroup[d.CountryGroupID] = DiscountRef{Coupon: d.Coupon, DiscountPercentage: d.DiscountPercentage}
		}

		out := make([]ProductCountryGroup, 0, len(groups))
		for _, g := range groups {
			item := ProductCountryGroup{
				ID:                            g.ID,
				Name:                          g.Name,
				RecommendedDiscountPercentage: g.RecommendedDiscountPercentage,
				Countries:                     byGroup[g.ID],
			}
			if item.Countries == nil {
				item.Countries = []CountryRef{}
			}
			if d, ok := discountByGroup[g.ID]; ok {
				item.Discount = &d
			}
			out = append(out, item)
		}
		return out, nil
	})
}

// UpdateCountryDiscounts deletes and upserts the product's discounts in one
// transaction. Groups named in neither set are left alone.
func (r *Products) UpdateCountryDiscounts(ctx context.Context, productID uuid.UUID, userID string, upserts []products.DiscountUpsert, deleteGroupIDs []uuid.UUID) (bool, error) {
	errNotOwned := errors.New("product not owned")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := ownedProductQuery(tx, productID, userID).Count(&owned).Error; err != nil {
			return fmt.Errorf("check product owner: %w", err)
		}
		if owned == 0 {
			return errNotOwned
		}

		if len(deleteGroupIDs) > 0 {
			if err := tx.Where("product_id = ? AND country_group_id IN ?", productID, deleteGroupIDs).
				Delete(&products.CountryGroupDiscount{}).Error; err != nil {
				return fmt.Errorf("delete discounts: %w", err)
			}
		}

		if len(upserts) > 0 {
			rows := make([]products.CountryGroupDiscount, 0, len(upserts))
			for _, u := range upserts {
				rows = append(rows, products.CountryGroupDiscount{
					CountryGroupID:     u.CountryGroupID,
					ProductID:          productID,
					Coupon:             u.Coupon,
					DiscountPercentage: u.DiscountPercentage,
				})
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "country_group_id"}, {Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"coupon", "discount_percentage", "updated_at"}),
			}).Create(&rows).Error; err != nil {
				return fmt.Errorf("upsert discounts: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, errNotOwned) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	r.cache.Invalidate(ctx, cache.ResourceCountryGroups, cache.Scope{UserID: userID, ID: productID.String()})
	return true, nil
}
