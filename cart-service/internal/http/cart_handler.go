package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/cart-service/internal/engine"
	"github.com/go-chi/chi/v5"
)

// CartService is the part of the engine the HTTP layer drives.
type CartService interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateProductAmount(ctx context.Context, req engine.UpdateProductAmount) error
	StockReport(ctx context.Context) ([]engine.StockIssue, error)
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
	log     *slog.Logger
}

func NewCartHandler(cart CartService, timeout time.Duration, log *slog.Logger) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
		log:     log,
	}
}

type AddProductRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateAmountRequestDTO struct {
	Amount int `json:"amount"`
}

type CartResponseDTO struct {
	Items      domain.Cart `json:"items"`
	TotalItems int         `json:"total_items"`
}

type StockReportResponseDTO struct {
	Issues []engine.StockIssue `json:"issues"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, toCartResponse(h.cart.Cart()))
}

func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	// a product already in the cart only gets its amount raised
	status := http.StatusCreated
	if h.cart.Cart().Index(req.ProductID) >= 0 {
		status = http.StatusOK
	}

	if err := h.cart.AddProduct(ctx, req.ProductID); err != nil {
		h.handleEngineError(w, r, engine.OpAddProduct, err)
		return
	}

	respondJSON(w, status, toCartResponse(h.cart.Cart()))
}

func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// non-positive amounts are rejected by the engine so the failure is
	// reported like every other engine error
	err := h.cart.UpdateProductAmount(ctx, engine.UpdateProductAmount{
		ProductID: productID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.handleEngineError(w, r, engine.OpUpdateProductAmount, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(h.cart.Cart()))
}

func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.cart.RemoveProduct(ctx, productID); err != nil {
		h.handleEngineError(w, r, engine.OpRemoveProduct, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(h.cart.Cart()))
}

func (h *CartHandler) StockReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	issues, err := h.cart.StockReport(ctx)
	if err != nil {
		h.handleEngineError(w, r, engine.OpCheckStock, err)
		return
	}

	respondJSON(w, http.StatusOK, StockReportResponseDTO{Issues: issues})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func toCartResponse(cart domain.Cart) CartResponseDTO {
	if cart == nil {
		cart = domain.Cart{}
	}
	return CartResponseDTO{
		Items:      cart,
		TotalItems: cart.TotalItems(),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleEngineError converts engine errors to HTTP status codes. The message
// is the single user-facing failure message of the operation; the error kind
// travels in the code.
func (h *CartHandler) handleEngineError(w http.ResponseWriter, r *http.Request, op engine.Operation, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, engine.ErrInvalidAmount):
		httpStatus = http.StatusBadRequest
		code = "invalid_amount"
	case errors.Is(err, engine.ErrProductNotInCart):
		httpStatus = http.StatusNotFound
		code = "product_not_in_cart"
	case errors.Is(err, engine.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		code = "product_not_found"
	case errors.Is(err, engine.ErrOutOfStock):
		httpStatus = http.StatusConflict
		code = "out_of_stock"
	case errors.Is(err, engine.ErrStockUnavailable):
		httpStatus = http.StatusServiceUnavailable
		code = "stock_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	if httpStatus >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "cart operation failed", "operation", string(op), "error", err)
	}

	respondJSON(w, httpStatus, ErrorResponse{
		Error:   engine.FailureMessage(op, err),
		Code:    code,
		Details: err.Error(),
	})
}
