// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"parity-app/database"
	"parity-app/internal/domain/countries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with foreign keys enforced
// and every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedCountries inserts two groups: "Group A" with Brazil and India and
// "Group B" with Germany.
func SeedCountries(t *testing.T, db *gorm.DB) (groupA, groupB countries.CountryGroup) {
	t.Helper()

	groupA = countries.CountryGroup{Name: "Group A", RecommendedDiscountPercentage: 0.6}
	groupB = countries.CountryGroup{Name: "Group B", RecommendedDiscountPercentage: 0.1}
	require.NoError(t, db.Create(&groupA).Error)
	require.NoError(t, db.Create(&groupB).Error)

	for _, c := range []countries.Country{
		{Name: "Brazil", Code: "BR", CountryGroupID: groupA.ID},
		{Name: "India", Code: "IN", CountryGroupID: groupA.ID},
		{Name: "Germany", Code: "DE", CountryGroupID: groupB.ID},
	} {
		require.NoError(t, db.Create(&c).Error)
	}
	return groupA, groupB
}
