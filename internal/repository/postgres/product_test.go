package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/repository"
	"github.com/shopkart/shopkart/pkg/database"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

func newProductTestRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewProductRepository(mock), mock
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:          "prod-001",
		Name:        "Wireless Headphones",
		Description: "Over-ear, noise cancelling",
		Price:       2999,
		Stock:       50,
		Category:    "electronics",
		ImageURL:    "https://img.example.com/headphones.jpg",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductRepository_GetByID_Success(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	p := sampleProduct()
	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "price", "stock", "category", "image_url", "created_at", "updated_at",
	}).AddRow(p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.CreatedAt, p.UpdatedAt)

	mock.ExpectQuery("SELECT").WithArgs(p.ID).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Stock, got.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	mock.ExpectQuery("SELECT").WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_Success(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("prod-001", 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.DecrementStock(context.Background(), "prod-001", 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_Insufficient(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("prod-001", 100, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery("SELECT name, stock FROM products").
		WithArgs("prod-001").
		WillReturnRows(pgxmock.NewRows([]string{"name", "stock"}).AddRow("Wireless Headphones", 3))

	err := repo.DecrementStock(context.Background(), "prod-001", 100)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_ProductGone(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("missing", 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery("SELECT name, stock FROM products").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"name", "stock"}))

	err := repo.DecrementStock(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_RestoreStock_Success(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	mock.ExpectExec("UPDATE products").
		WithArgs("prod-001", 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.RestoreStock(context.Background(), "prod-001", 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_WithSearch(t *testing.T) {
	repo, mock := newProductTestRepo(t)

	p := sampleProduct()
	search := "headphones"

	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "price", "stock", "category", "image_url", "created_at", "updated_at", "total_count",
	}).AddRow(p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.CreatedAt, p.UpdatedAt, 1)

	mock.ExpectQuery("SELECT").
		WithArgs("%"+search+"%", 20, 0).
		WillReturnRows(rows)

	products, total, err := repo.List(context.Background(), repository.ProductFilter{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
