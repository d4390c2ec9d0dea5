package repositories_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventori/internal/models"
	"inventori/internal/repositories"
)

// The in-memory repository backs the DB_DRIVER=memory mode, so it has to
// honor the same contract as the GORM implementation.

func TestMockProductRepository_CreateAssignsID(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	ctx := context.Background()

	product := &models.Product{Name: "Widget", Price: decimal.NewFromFloat(9.99), QuantityInStock: 5}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	fetched, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", fetched.Name)
	assert.Equal(t, 5, fetched.QuantityInStock)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMockProductRepository_DuplicateSKU(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	ctx := context.Background()

	first := &models.Product{Name: "Widget", Price: decimal.NewFromFloat(9.99), SKU: strPtr("SKU-1")}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.Product{Name: "Other widget", Price: decimal.NewFromFloat(19.99), SKU: strPtr("SKU-1")}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, repositories.ErrDuplicateSKU)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMockProductRepository_GetByID_NotFound(t *testing.T) {
	repo := repositories.NewMockProductRepository()

	product, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	assert.Nil(t, product)
}

func TestMockProductRepository_Search(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	ctx := context.Background()

	seed := []*models.Product{
		{Name: "Laptop Pro", Description: strPtr("High performance laptop"), Price: decimal.NewFromInt(1200)},
		{Name: "Keyboard", Description: strPtr("Mechanical, fits any LAPTOP"), Price: decimal.NewFromInt(75)},
		{Name: "Mouse", Description: strPtr("Ergonomic wireless mouse"), Price: decimal.NewFromInt(25)},
	}
	for _, p := range seed {
		require.NoError(t, repo.Create(ctx, p))
	}

	results, err := repo.Search(ctx, "laptop")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.Search(ctx, "ERGONOMIC")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Mouse", results[0].Name)

	// Empty keyword matches everything
	results, err = repo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = repo.Search(ctx, "printer")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMockProductRepository_Delete(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	ctx := context.Background()

	product := &models.Product{Name: "Widget", Price: decimal.NewFromFloat(9.99)}
	require.NoError(t, repo.Create(ctx, product))

	require.NoError(t, repo.Delete(ctx, product))

	_, err := repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	err = repo.Delete(ctx, &models.Product{ID: 12345})
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestMockProductRepository_CreateAll_AllOrNothing(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	ctx := context.Background()

	batch := []*models.Product{
		{Name: "Widget", Price: decimal.NewFromFloat(9.99), SKU: strPtr("SKU-1")},
		{Name: "Gadget", Price: decimal.NewFromFloat(19.99), SKU: strPtr("SKU-1")}, // conflicts with the first
	}

	err := repo.CreateAll(ctx, batch)
	assert.ErrorIs(t, err, repositories.ErrDuplicateSKU)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// A clean batch goes through whole
	require.NoError(t, repo.CreateAll(ctx, []*models.Product{
		{Name: "Widget", Price: decimal.NewFromFloat(9.99)},
		{Name: "Gadget", Price: decimal.NewFromFloat(19.99)},
	}))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
