package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/catering/internal/domain"
)

// Migrate creates or updates every table the application owns. Customers
// come before the tables that reference them.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.FunctionType{},
		&domain.MealType{},
		&domain.Customer{},
		&domain.CustomerPhoto{},
		&domain.CustomerThumbnail{},
		&domain.Function{},
	)
}
