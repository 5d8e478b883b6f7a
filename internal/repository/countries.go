package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parity-app/internal/domain/countries"
	"parity-app/internal/infra/cache"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Countries struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewCountries(db *gorm.DB, c *cache.Cache) *Countries {
	return &Countries{db: db, cache: c}
}

// UpsertGroups writes the groups keyed by name and returns the id of every
// seeded group by name.
func (r *Countries) UpsertGroups(ctx context.Context, seeds []countries.GroupSeed) (map[string]countries.CountryGroup, error) {
	if len(seeds) == 0 {
		return map[string]countries.CountryGroup{}, nil
	}

	rows := make([]countries.CountryGroup, 0, len(seeds))
	names := make([]string, 0, len(seeds))
	for _, s := range seeds {
		rows = append(rows, countries.CountryGroup{
			Name:                          s.Name,
			RecommendedDiscountPercentage: s.RecommendedDiscountPercentage,
		})
		names = append(names, s.Name)
	}

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"recommended_discount_percentage", "updated_at"}),
	}).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("upsert country groups: %w", err)
	}

	// ids generated for conflicting rows are discarded, so read them back
	var stored []countries.CountryGroup
	if err := db.Where("name IN ?", names).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload country groups: %w", err)
	}
	out := make(map[string]countries.CountryGroup, len(stored))
	for _, g := range stored {
		out[g.Name] = g
	}

	r.cache.Invalidate(ctx, cache.ResourceCountryGroups, cache.Scope{})
	return out, nil
}

// UpsertCountries writes the countries keyed by code.
func (r *Countries) UpsertCountries(ctx context.Context, rows []countries.Country) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i := range rows {
		rows[i].Code = strings.ToUpper(rows[i].Code)
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "country_group_id", "updated_at"}),
	}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("upsert countries: %w", res.Error)
	}

	r.cache.Invalidate(ctx, cache.ResourceCountries, cache.Scope{})
	return res.RowsAffected, nil
}

// Seed upserts groups and then the countries inside them.
func (r *Countries) Seed(ctx context.Context, seeds []countries.GroupSeed) (groups int, countriesWritten int64, err error) {
	byName, err := r.UpsertGroups(ctx, seeds)
	if err != nil {
		return 0, 0, err
	}

	var rows []countries.Country
	for _, s := range seeds {
		g, ok := byName[s.Name]
		if !ok {
			return 0, 0, fmt.Errorf("country group %q missing after upsert", s.Name)
		}
		for _, c := range s.Countries {
			rows = append(rows, countries.Country{Name: c.Name, Code: c.Code, CountryGroupID: g.ID})
		}
	}

	n, err := r.UpsertCountries(ctx, rows)
	if err != nil {
		return 0, 0, err
	}
	return len(byName), n, nil
}

func (r *Countries) Groups(ctx context.Context) ([]countries.CountryGroup, error) {
	tags := []string{cache.GlobalTag(cache.ResourceCountryGroups)}

	return cache.Remember(ctx, r.cache, cache.Key("countryGroups"), tags, func(ctx context.Context) ([]countries.CountryGroup, error) {
		var out []countries.CountryGroup
		if err := r.db.WithContext(ctx).Order("recommended_discount_percentage DESC").Find(&out).Error; err != nil {
			return nil, fmt.Errorf("list country groups: %w", err)
		}
		return out, nil
	})
}

// ByCode finds a country by its ISO code.
func (r *Countries) ByCode(ctx context.Context, code string) (*countries.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	tags := []string{cache.GlobalTag(cache.ResourceCountries)}

	c, err := cache.Remember(ctx, r.cache, cache.Key("country", code), tags, func(ctx context.Context) (countries.Country, error) {
		var c countries.Country
		err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c, ErrNotFound
		}
		if err != nil {
			return c, fmt.Errorf("get country: %w", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
