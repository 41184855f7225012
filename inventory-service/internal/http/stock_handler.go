package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/inventory-service/internal/domain"
	"github.com/fjod/go_cart/inventory-service/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type StockHandler struct {
	store store.InventoryStore
	log   *slog.Logger
}

func NewStockHandler(store store.InventoryStore, log *slog.Logger) *StockHandler {
	return &StockHandler{store: store, log: log}
}

type SetStockRequestDTO struct {
	Amount int `json:"amount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func NewRouter(h *StockHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/stock", h.ListStock)
	r.Get("/stock/{id}", h.GetStock)
	r.Put("/stock/{id}", h.SetStock)

	return otelhttp.NewHandler(r, "inventory-service")
}

func (h *StockHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.ListStock()
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list stock", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list stock")
		return
	}
	respondJSON(w, http.StatusOK, stocks)
}

func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	stock, err := h.store.GetStock(productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no stock record for product")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to get stock", "product_id", productID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get stock")
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

// SetStock replaces the amount of a product. Used by operators and tests to
// move stock under a running cart.
func (h *StockHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req SetStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.store.SetStock(productID, req.Amount); err != nil {
		if errors.Is(err, store.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "failed to set stock", "product_id", productID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set stock")
		return
	}

	h.log.InfoContext(r.Context(), "stock updated", "product_id", productID, "amount", req.Amount)
	respondJSON(w, http.StatusOK, domain.Stock{ID: productID, Amount: req.Amount})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
