package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_cart/product-service/internal/domain"
	"github.com/fjod/go_cart/product-service/internal/repository"
	"github.com/fjod/go_cart/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type RepoMock struct {
	products []*domain.Product
	err      error
}

func (m RepoMock) GetAllProducts(context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m RepoMock) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func newMock() RepoMock {
	return RepoMock{products: []*domain.Product{
		{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: decimal.RequireFromString("219.90"), Image: "tenis3.jpg"},
		{ID: 7, Title: "Tênis VR Caminhada", Price: decimal.RequireFromString("139.90"), Image: "tenis2.jpg"},
	}}
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestGetProducts(t *testing.T) {
	router := NewRouter(NewProductHandler(newMock(), logger.Discard()))

	recorder := get(router, "/products")
	require.Equal(t, http.StatusOK, recorder.Code)

	var products []domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&products))
	assert.Len(t, products, 2)
}

func TestGetProduct(t *testing.T) {
	router := NewRouter(NewProductHandler(newMock(), logger.Discard()))

	recorder := get(router, "/products/7")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "Tênis VR Caminhada", body["title"])
	assert.Equal(t, "139.9", body["price"])
	assert.Equal(t, "tenis2.jpg", body["image"])
}

func TestGetProduct_NotFound(t *testing.T) {
	router := NewRouter(NewProductHandler(newMock(), logger.Discard()))

	recorder := get(router, "/products/8")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "not_found", response.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	router := NewRouter(NewProductHandler(newMock(), logger.Discard()))

	assert.Equal(t, http.StatusBadRequest, get(router, "/products/abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/products/0").Code)
}

func TestRepositoryFailure(t *testing.T) {
	router := NewRouter(NewProductHandler(RepoMock{err: errors.New("disk gone")}, logger.Discard()))

	assert.Equal(t, http.StatusInternalServerError, get(router, "/products").Code)
	assert.Equal(t, http.StatusInternalServerError, get(router, "/products/7").Code)
}
