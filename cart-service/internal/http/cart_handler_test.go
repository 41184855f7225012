package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/cart-service/internal/engine"
	"github.com/fjod/go_cart/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCart struct {
	mu     sync.Mutex
	cart   domain.Cart
	err    error
	issues []engine.StockIssue

	added   []int64
	removed []int64
	updated []engine.UpdateProductAmount
}

func (m *mockCart) Cart() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

func (m *mockCart) AddProduct(_ context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, productID)
	if m.err != nil {
		return m.err
	}
	if i := m.cart.Index(productID); i >= 0 {
		m.cart[i].Amount++
		return nil
	}
	m.cart = append(m.cart, domain.Product{ID: productID, Amount: 1})
	return nil
}

func (m *mockCart) RemoveProduct(_ context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, productID)
	return m.err
}

func (m *mockCart) UpdateProductAmount(_ context.Context, req engine.UpdateProductAmount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, req)
	return m.err
}

func (m *mockCart) StockReport(context.Context) ([]engine.StockIssue, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.issues, nil
}

func newTestRouter(m *mockCart) http.Handler {
	h := NewCartHandler(m, 5*time.Second, logger.Discard())
	return NewRouter(h, 5*time.Second, logger.Discard())
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, reader))
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestHealth(t *testing.T) {
	recorder := do(t, newTestRouter(&mockCart{}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestGetCart_Success(t *testing.T) {
	m := &mockCart{cart: domain.Cart{{ID: 3, Title: "Tênis", Amount: 2}, {ID: 7, Amount: 1}}}

	recorder := do(t, newTestRouter(m), http.MethodGet, "/api/v1/cart/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response.Items, 2)
	assert.Equal(t, int64(3), response.Items[0].ID)
	assert.Equal(t, 3, response.TotalItems)
}

func TestGetCart_EmptyIsArray(t *testing.T) {
	recorder := do(t, newTestRouter(&mockCart{}), http.MethodGet, "/api/v1/cart/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"items":[],"total_items":0}`, recorder.Body.String())
}

func TestAddProduct_Success(t *testing.T) {
	m := &mockCart{}

	recorder := do(t, newTestRouter(m), http.MethodPost, "/api/v1/cart/items", AddProductRequestDTO{ProductID: 7})
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, []int64{7}, m.added)

	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 1, response.TotalItems)
}

func TestAddProduct_ExistingLineReturnsOK(t *testing.T) {
	m := &mockCart{cart: domain.Cart{{ID: 7, Amount: 1}}}

	recorder := do(t, newTestRouter(m), http.MethodPost, "/api/v1/cart/items", AddProductRequestDTO{ProductID: 7})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response.Items, 1)
	assert.Equal(t, 2, response.Items[0].Amount)
}

func TestAddProduct_InvalidJSON(t *testing.T) {
	m := &mockCart{}

	recorder := do(t, newTestRouter(m), http.MethodPost, "/api/v1/cart/items", "invalid json")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_request", decodeError(t, recorder).Code)
	assert.Empty(t, m.added)
}

func TestAddProduct_InvalidProductID(t *testing.T) {
	m := &mockCart{}

	recorder := do(t, newTestRouter(m), http.MethodPost, "/api/v1/cart/items", AddProductRequestDTO{ProductID: 0})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_product_id", decodeError(t, recorder).Code)
	assert.Empty(t, m.added)
}

func TestAddProduct_EngineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", engine.ErrProductNotFound, http.StatusNotFound, "product_not_found", engine.MsgAddFailed},
		{"out of stock", engine.ErrOutOfStock, http.StatusConflict, "out_of_stock", engine.MsgInsufficientStock},
		{"stock unavailable", fmt.Errorf("%w: timeout", engine.ErrStockUnavailable), http.StatusServiceUnavailable, "stock_unavailable", engine.MsgAddFailed},
		{"persistence", fmt.Errorf("%w: disk full", engine.ErrPersistence), http.StatusInternalServerError, "internal_error", engine.MsgAddFailed},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", engine.MsgAddFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockCart{err: tt.err}

			recorder := do(t, newTestRouter(m), http.MethodPost, "/api/v1/cart/items", AddProductRequestDTO{ProductID: 7})
			require.Equal(t, tt.wantStatus, recorder.Code)

			response := decodeError(t, recorder)
			assert.Equal(t, tt.wantCode, response.Code)
			assert.Equal(t, tt.wantMsg, response.Error)
			assert.NotEmpty(t, response.Details)
		})
	}
}

func TestUpdateProductAmount_Success(t *testing.T) {
	m := &mockCart{cart: domain.Cart{{ID: 3, Amount: 4}}}

	recorder := do(t, newTestRouter(m), http.MethodPut, "/api/v1/cart/items/3", UpdateAmountRequestDTO{Amount: 4})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []engine.UpdateProductAmount{{ProductID: 3, Amount: 4}}, m.updated)
}

func TestUpdateProductAmount_InvalidAmountFromEngine(t *testing.T) {
	m := &mockCart{err: engine.ErrInvalidAmount}

	recorder := do(t, newTestRouter(m), http.MethodPut, "/api/v1/cart/items/3", UpdateAmountRequestDTO{Amount: 0})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	response := decodeError(t, recorder)
	assert.Equal(t, "invalid_amount", response.Code)
	assert.Equal(t, engine.MsgUpdateFailed, response.Error)
	assert.Equal(t, []engine.UpdateProductAmount{{ProductID: 3, Amount: 0}}, m.updated)
}

func TestUpdateProductAmount_BadPath(t *testing.T) {
	m := &mockCart{}

	recorder := do(t, newTestRouter(m), http.MethodPut, "/api/v1/cart/items/abc", UpdateAmountRequestDTO{Amount: 1})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_product_id", decodeError(t, recorder).Code)
	assert.Empty(t, m.updated)
}

func TestRemoveProduct_Success(t *testing.T) {
	m := &mockCart{}

	recorder := do(t, newTestRouter(m), http.MethodDelete, "/api/v1/cart/items/3", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []int64{3}, m.removed)
}

func TestRemoveProduct_NotInCart(t *testing.T) {
	m := &mockCart{err: engine.ErrProductNotInCart}

	recorder := do(t, newTestRouter(m), http.MethodDelete, "/api/v1/cart/items/9", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	response := decodeError(t, recorder)
	assert.Equal(t, "product_not_in_cart", response.Code)
	assert.Equal(t, engine.MsgRemoveFailed, response.Error)
}

func TestStockReport(t *testing.T) {
	m := &mockCart{issues: []engine.StockIssue{{ProductID: 3, InCart: 4, Available: 1}}}

	recorder := do(t, newTestRouter(m), http.MethodGet, "/api/v1/cart/stock-report", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response StockReportResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, m.issues, response.Issues)
}

func TestStockReport_Unavailable(t *testing.T) {
	m := &mockCart{err: engine.ErrStockUnavailable}

	recorder := do(t, newTestRouter(m), http.MethodGet, "/api/v1/cart/stock-report", nil)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "stock_unavailable", decodeError(t, recorder).Code)
}

func TestMaxBodySize(t *testing.T) {
	m := &mockCart{}
	body := `{"product_id":7,"padding":"` + string(bytes.Repeat([]byte("x"), maxRequestBodySize)) + `"}`

	recorder := do(t, newTestRouter(m), http.MethodPost, "/api/v1/cart/items", body)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, m.added)
}
