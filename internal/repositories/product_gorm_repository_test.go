package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inventori/internal/models"
	"inventori/internal/repositories"
)

// setupRepo opens a private in-memory SQLite database and migrates the
// product table. TranslateError is on, as in production wiring, so the
// unique-sku violation surfaces as gorm.ErrDuplicatedKey.
func setupRepo(t *testing.T) *repositories.GORMProductRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	return repositories.NewGORMProductRepository(db)
}

func strPtr(s string) *string {
	return &s
}

func TestGORMProductRepository_CreateAssignsID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	product := &models.Product{
		Name:            "Widget",
		Price:           decimal.NewFromFloat(9.99),
		QuantityInStock: 5,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	fetched, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", fetched.Name)
	assert.Nil(t, fetched.Description)
	assert.Nil(t, fetched.SKU)
	assert.Equal(t, 5, fetched.QuantityInStock)
	assert.True(t, decimal.NewFromFloat(9.99).Equal(fetched.Price))
}

func TestGORMProductRepository_DuplicateSKU(t *testing.T) {
	repo := setupRepo(t)
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

func TestGORMProductRepository_GetByID_NotFound(t *testing.T) {
	repo := setupRepo(t)

	product, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	assert.Nil(t, product)
}

func TestGORMProductRepository_Search(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	seed := []*models.Product{
		{Name: "Laptop Pro", Description: strPtr("High performance laptop"), Price: decimal.NewFromInt(1200)},
		{Name: "Keyboard", Description: strPtr("Mechanical, fits any LAPTOP"), Price: decimal.NewFromInt(75)},
		{Name: "Mouse", Description: strPtr("Ergonomic wireless mouse"), Price: decimal.NewFromInt(25)},
	}
	for _, p := range seed {
		require.NoError(t, repo.Create(ctx, p))
	}

	// Case-insensitive over name OR description
	results, err := repo.Search(ctx, "laptop")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.Search(ctx, "ERGONOMIC")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Mouse", results[0].Name)

	// No match
	results, err = repo.Search(ctx, "printer")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGORMProductRepository_Search_EmptyKeywordMatchesAll(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := &models.Product{Name: fmt.Sprintf("Product %d", i), Price: decimal.NewFromInt(int64(i))}
		require.NoError(t, repo.Create(ctx, p))
	}

	results, err := repo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestGORMProductRepository_Delete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	product := &models.Product{Name: "Widget", Price: decimal.NewFromFloat(9.99)}
	require.NoError(t, repo.Create(ctx, product))

	countBefore, err := repo.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, product))

	_, err = repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)

	countAfter, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, countBefore-1, countAfter)

	// Deleting an absent row reports not found
	err = repo.Delete(ctx, &models.Product{ID: 12345})
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestGORMProductRepository_CreateAll_AllOrNothing(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	batch := []*models.Product{
		{Name: "Widget", Price: decimal.NewFromFloat(9.99), SKU: strPtr("SKU-1")},
		{Name: "Gadget", Price: decimal.NewFromFloat(19.99), SKU: strPtr("SKU-1")}, // conflicts with the first
	}

	err := repo.CreateAll(ctx, batch)
	assert.ErrorIs(t, err, repositories.ErrDuplicateSKU)

	// The transaction rolled back: nothing was persisted.
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGORMProductRepository_CreateAll(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	batch := []*models.Product{
		{Name: "Widget", Price: decimal.NewFromFloat(9.99)},
		{Name: "Gadget", Price: decimal.NewFromFloat(19.99)},
	}
	require.NoError(t, repo.CreateAll(ctx, batch))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	for _, p := range batch {
		assert.NotZero(t, p.ID)
	}
}
