package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/repository"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

func TestCreateProduct_Endpoint(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.products.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Name == "Wireless Headphones" && p.Price == 2999 && p.Stock == 50
	})).Return(nil)

	body := []byte(`{
		"name": "Wireless Headphones",
		"description": "Noise cancelling over-ear headphones",
		"price": 2999,
		"stock": 50,
		"category": "Electronics"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	repos.products.AssertExpectations(t)
}

func TestCreateProduct_RejectsNonPositivePrice(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	body := []byte(`{"name": "Freebie", "price": 0, "stock": 10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repos.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetProduct_Endpoint(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+testProductID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	var product domain.Product
	remarshal(t, resp.Data, &product)
	assert.Equal(t, testProductID, product.ID)
	assert.Equal(t, int64(2999), product.Price)
}

func TestGetProduct_NotFound(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.products.On("GetByID", mock.Anything, "missing-id").
		Return(nil, apperrors.NotFound("product", "missing-id"))

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing-id", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
}

func TestListProducts_Paginated(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.products.On("List", mock.Anything, repository.ProductFilter{Page: 2, PerPage: 5}).
		Return([]domain.Product{*sampleProduct()}, 11, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products?page=2&per_page=5", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	var list listResponse
	remarshal(t, resp.Data, &list)
	assert.Equal(t, 2, list.Pagination.Page)
	assert.Equal(t, 5, list.Pagination.PerPage)
	assert.Equal(t, 11, list.Pagination.Total)
}

func TestListProducts_ByCategory(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	category := "Electronics"
	repos.products.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.Category != nil && *f.Category == category
	})).Return([]domain.Product{*sampleProduct()}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/category/Electronics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.products.AssertExpectations(t)
}

func TestSearchProducts_ByName(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.products.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.Search != nil && *f.Search == "headphones"
	})).Return([]domain.Product{*sampleProduct()}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/search?name=headphones", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.products.AssertExpectations(t)
}

func TestUpdateProduct_PartialUpdate(t *testing.T) {
	repos := newTestRepos()
	router := setupRouter(repos)

	repos.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)
	repos.products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		// Only the price changes; the rest keeps the stored values.
		return p.Price == 2499 && p.Name == "Wireless Headphones" && p.Stock == 50
	})).Return(nil)

	body := []byte(`{"price": 2499}`)
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+testProductID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.products.AssertExpectations(t)
}

// remarshal round-trips the generic response Data into a typed value.
func remarshal(t *testing.T, data any, dst any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}
