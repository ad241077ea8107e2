package db

import (
	"fmt"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Subcategory{},
		&models.Tag{},
		&models.Product{},
		&models.ProductImage{},
		&models.Specification{},
		&models.Review{},
		&models.Sale{},
		&models.User{},
		&models.Profile{},
		&models.RefreshToken{},
		&models.BasketLine{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.DeliveryCost{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
