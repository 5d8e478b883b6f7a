package repository

import (
	"parity-app/internal/domain/products"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func userProductsQuery(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&products.Product{}).
		Where("clerk_user_id = ?", userID)
}

func ownedProductQuery(db *gorm.DB, productID uuid.UUID, userID string) *gorm.DB {
	return db.Model(&products.Product{}).
		Where("id = ? AND clerk_user_id = ?", productID, userID)
}

// ownedProductIDs is a subquery of the ids of the user's products.
func ownedProductIDs(db *gorm.DB, userID string) *gorm.DB {
	return userProductsQuery(db, userID).Select("id")
}
