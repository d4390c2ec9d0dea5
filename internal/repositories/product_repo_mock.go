package repositories

import (
	"context"
	"strings"
	"sync"

	"inventori/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Search returns products whose name or description contains the keyword,
// ignoring case. An empty keyword matches everything.
func (r *MockProductRepository) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keyword = strings.ToLower(keyword)
	matches := make([]models.Product, 0)
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), keyword) {
			matches = append(matches, p)
			continue
		}
		if p.Description != nil && strings.Contains(strings.ToLower(*p.Description), keyword) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Count returns the number of stored products.
func (r *MockProductRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.products)), nil
}

// Create adds a new product, assigning the next free ID.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createLocked(product)
}

// CreateAll adds every product or none of them.
func (r *MockProductRepository) CreateAll(ctx context.Context, products []*models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check SKU conflicts upfront so a mid-batch failure never leaves a
	// partial insert behind.
	seen := make(map[string]bool)
	for _, product := range products {
		if product.SKU == nil {
			continue
		}
		if seen[*product.SKU] || r.skuTakenLocked(*product.SKU) {
			return ErrDuplicateSKU
		}
		seen[*product.SKU] = true
	}

	for _, product := range products {
		if err := r.createLocked(product); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a product by identity.
func (r *MockProductRepository) Delete(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, product.ID)
	return nil
}

func (r *MockProductRepository) createLocked(product *models.Product) error {
	if product.SKU != nil && r.skuTakenLocked(*product.SKU) {
		return ErrDuplicateSKU
	}
	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	r.products[product.ID] = *product
	return nil
}

func (r *MockProductRepository) skuTakenLocked(sku string) bool {
	for _, p := range r.products {
		if p.SKU != nil && *p.SKU == sku {
			return true
		}
	}
	return false
}
