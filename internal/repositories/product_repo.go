package repositories

import (
	"lojinha/internal/models"
)

// ProductRepository defines the interface for catalog data access.
// The storefront only reads (GetAllActive, GetByID); the write methods
// back the admin surface and may be unsupported by read-only catalogs.
type ProductRepository interface {
	GetAllActive() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
