package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffeeco/order-engine/internal/auth"
	"github.com/coffeeco/order-engine/internal/orders"
)

type RewardsHandler struct {
	Ledger *orders.RewardLedger
	Secret string
}

type RedeemReq struct {
	Cost int `json:"cost"`
}

func (h *RewardsHandler) Register(r *chi.Mux) {
	authenticated := auth.RequireRole(h.Secret)
	r.With(authenticated).Post("/rewards/redeem", h.redeem)
	r.With(authenticated).Get("/rewards/balance", h.balance)
}

func (h *RewardsHandler) redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidSubject.Error()})
		return
	}

	var req RedeemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	remaining, err := h.Ledger.Debit(ctx, userID, req.Cost)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"remaining_points": remaining})
}

func (h *RewardsHandler) balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidSubject.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	balance, err := h.Ledger.Balance(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": balance})
}
