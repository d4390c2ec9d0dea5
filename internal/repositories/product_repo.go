package repositories

import (
	"context"

	"inventori/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Search(ctx context.Context, keyword string) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	CreateAll(ctx context.Context, products []*models.Product) error
	Delete(ctx context.Context, product *models.Product) error
}
