package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"parity-app/internal/domain/products"
	"parity-app/internal/infra/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Views struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewViews(db *gorm.DB, c *cache.Cache) *Views {
	return &Views{db: db, cache: c}
}

// Record stores one banner impression for a product owned by ownerID.
func (r *Views) Record(ctx context.Context, productID uuid.UUID, countryID *uuid.UUID, ownerID string, at time.Time) error {
	v := products.ProductView{ProductID: productID, CountryID: countryID, VisitedAt: at.UTC()}
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return fmt.Errorf("record product view: %w", err)
	}

	r.cache.Invalidate(ctx, cache.ResourceProductViews, cache.Scope{UserID: ownerID})
	return nil
}

// CountSince counts views across all of the user's products since the given time.
func (r *Views) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	since = since.UTC()
	key := cache.Key("productViewCount", userID, strconv.FormatInt(since.Unix(), 10))
	tags := []string{cache.UserTag(userID, cache.ResourceProductViews)}

	return cache.Remember(ctx, r.cache, key, tags, func(ctx context.Context) (int64, error) {
		var n int64
		err := r.db.WithContext(ctx).
			Model(&products.ProductView{}).
			Where("product_id IN (?) AND visited_at >= ?", ownedProductIDs(r.db, userID), since).
			Count(&n).Error
		if err != nil {
			return 0, fmt.Errorf("count product views: %w", err)
		}
		return n, nil
	})
}

type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// ViewsByDay counts the user's views per UTC day in [since, until). Days
// without views are included with a zero count.
func (r *Views) ViewsByDay(ctx context.Context, userID string, since, until time.Time) ([]DailyViews, error) {
	since, until = since.UTC(), until.UTC()

	var rows []DailyViews
	day := utcDay(r.db, "visited_at")
	err := r.db.WithContext(ctx).
		Model(&products.ProductView{}).
		Select(day+" AS date, COUNT(*) AS views").
		Where("product_id IN (?) AND visited_at >= ? AND visited_at < ?", ownedProductIDs(r.db, userID), since, until).
		Group(day).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count product views by day: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Date] = row.Views
	}

	var out []DailyViews
	for d := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC); d.Before(until); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		out = append(out, DailyViews{Date: key, Views: counts[key]})
	}
	return out, nil
}

// utcDay renders a timestamp column as its YYYY-MM-DD UTC date.
func utcDay(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', " + column + ")"
	}
	return "to_char(" + column + " AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
}

type CountryViews struct {
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
	Views       int64  `json:"views"`
}

// ViewsByCountry counts the user's views per visitor country since the given
// time, most viewed first. Views without a known country are left out.
func (r *Views) ViewsByCountry(ctx context.Context, userID string, since time.Time) ([]CountryViews, error) {
	var out []CountryViews
	err := r.db.WithContext(ctx).
		Table("product_views").
		Select("countries.code AS country_code, countries.name AS country_name, COUNT(*) AS views").
		Joins("JOIN countries ON countries.id = product_views.country_id").
		Where("product_views.product_id IN (?) AND product_views.visited_at >= ?", ownedProductIDs(r.db, userID), since.UTC()).
		Group("countries.code, countries.name").
		Order("views DESC").
		Order("countries.code").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count views by country: %w", err)
	}
	return out, nil
}
