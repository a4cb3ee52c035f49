package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coffeeco/order-engine/internal/auth"
	"github.com/coffeeco/order-engine/internal/orders"
)

const defaultLowStockThreshold = 10

type InventoryHandler struct {
	Ledger *orders.StockLedger
	Secret string
}

type RestockReq struct {
	Amount int `json:"amount"`
}

func (h *InventoryHandler) Register(r *chi.Mux) {
	admin := auth.RequireRole(h.Secret, auth.RoleAdmin, auth.RoleSuperAdmin)
	staff := auth.RequireRole(h.Secret, auth.Staff...)

	r.With(admin).Post("/inventory/{variantID}/restock", h.restock)
	r.With(staff).Get("/inventory/low-stock", h.lowStock)
}

func (h *InventoryHandler) restock(w http.ResponseWriter, r *http.Request) {
	variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant id"})
		return
	}

	var req RestockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	stock, err := h.Ledger.Restock(ctx, variantID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variant_id": variantID, "stock": stock})
}

func (h *InventoryHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold := defaultLowStockThreshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid threshold"})
			return
		}
		threshold = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Ledger.LowStock(ctx, threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
