package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/coffeeco/order-engine/internal/auth"
	"github.com/coffeeco/order-engine/internal/events"
	kafkax "github.com/coffeeco/order-engine/internal/kafka"
	"github.com/coffeeco/order-engine/internal/metrics"
	"github.com/coffeeco/order-engine/internal/orders"
)

type OrdersHandler struct {
	Repo           *orders.Repo
	Hub            *events.Hub
	Producer       *kafkax.Producer // order.created
	StatusProducer *kafkax.Producer // order.status.changed
	Redis          *redis.Client
	Service        string
	Secret         string
}

type CreateOrderReq struct {
	// UserID is honored for staff placing an order on someone's behalf;
	// customers always order as themselves.
	UserID string             `json:"user_id,omitempty"`
	Items  []orders.ItemInput `json:"items"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	authenticated := auth.RequireRole(h.Secret)
	staff := auth.RequireRole(h.Secret, auth.Staff...)

	r.With(authenticated).Post("/orders", h.createOrder)
	r.With(authenticated).Get("/orders/{id}", h.getOrder)
	r.With(staff).Get("/orders", h.listOrders)
	r.With(staff).Put("/orders/{id}/status", h.updateStatus)
	r.Get("/products", h.listProducts)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	userID, err := h.resolveUser(r, req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Repo.CreateOrder(ctx, userID, req.Items)
	if err != nil {
		metrics.CheckoutsRejected.WithLabelValues(rejectReason(err)).Inc()
		writeError(w, err)
		return
	}
	metrics.OrdersCreated.Inc()

	// Strictly post-commit and best-effort: a crash here loses the
	// notification, never the order.
	trace := r.Header.Get("X-Request-Id")
	notifyOrderCreated(h.Hub, h.Producer, h.Service, trace, order)
	cacheStatus(ctx, h.Redis, order)

	writeJSON(w, http.StatusCreated, order)
}

// resolveUser maps the checkout to an account: the token subject, unless a
// staff caller named someone else.
func (h *OrdersHandler) resolveUser(r *http.Request, override string) (uuid.UUID, error) {
	claims, _ := auth.FromContext(r.Context())
	if override != "" && claims != nil && claims.Role != auth.RoleCustomer {
		return uuid.Parse(override)
	}
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return uuid.Nil, errInvalidSubject
	}
	return userID, nil
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	cacheStatus(ctx, h.Redis, order)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Repo.ListOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	to, err := orders.ToStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Repo.SetStatus(ctx, orderID, to)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()

	trace := r.Header.Get("X-Request-Id")
	notifyStatusChanged(h.Hub, h.StatusProducer, h.Service, trace, order)
	cacheStatus(ctx, h.Redis, order)

	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListProducts(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func rejectReason(err error) string {
	switch {
	case isInsufficientStock(err):
		return "insufficient_stock"
	default:
		return "other"
	}
}
