package services

import (
	"context"
	"time"

	"lojinha/internal/models"
	"lojinha/internal/repositories"
	"lojinha/pkg/retry"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetActiveProducts retrieves the storefront listing. The read is retried
// since remote catalogs occasionally drop a request.
func (s *ProductService) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := retry.Do(ctx, 3, 500*time.Millisecond, func() error {
		var listErr error
		products, listErr = s.repo.GetAllActive()
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product. Admin-only.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product. Admin-only.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID. Admin-only.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
