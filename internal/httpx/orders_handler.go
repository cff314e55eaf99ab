package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/orders"
)

type OrderService interface {
	Create(ctx context.Context, in orders.NewOrder) (orders.Order, bool, error)
	Get(ctx context.Context, id, viewerID string) (orders.Order, error)
	ListForSeller(ctx context.Context, sellerID string, f orders.ListFilter) ([]orders.Order, error)
	ListForBuyer(ctx context.Context, buyerID string, f orders.ListFilter) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id, sellerID string, to orders.Status) (orders.Order, error)
	UpdatePayment(ctx context.Context, id, sellerID string, to orders.PaymentStatus) (orders.Order, error)
	StatusCounts(ctx context.Context, sellerID string) (map[orders.Status]int, error)
}

type OrdersHandler struct {
	Orders OrderService
	Logger *slog.Logger
}

type createOrderResp struct {
	Order      orders.Order `json:"order"`
	Idempotent bool         `json:"idempotent"`
}

type orderView struct {
	orders.Order
	NextStatuses []orders.Status `json:"next_statuses"`
}

func viewOf(o orders.Order) orderView {
	return orderView{Order: o, NextStatuses: orders.NextStatuses(o.Status)}
}

// Register mounts the buyer and seller order routes. authn guards every
// route; sellerOnly additionally requires the seller role.
func (h *OrdersHandler) Register(r chi.Router, authn, sellerOnly func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authn)
		r.Post("/", h.createOrder)
		r.Get("/my", h.myOrders)
		r.Get("/{id}", h.getOrder)
		r.With(sellerOnly).Patch("/{id}/status", h.updateStatus)
		r.With(sellerOnly).Patch("/{id}/payment", h.updatePayment)
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.NewOrder
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	req.BuyerID = auth.UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, existed, err := h.Orders.Create(ctx, req)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	success(w, code, createOrderResp{Order: o, Idempotent: existed})
}

func listFilter(r *http.Request) (orders.ListFilter, error) {
	var f orders.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := orders.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	var err error
	if f.Limit, err = queryInt(r, "limit", 20); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ListForBuyer(ctx, auth.UserID(r.Context()), f)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, viewOf(o))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	to, err := orders.ParseStatus(req.Status)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, chi.URLParam(r, "id"), auth.UserID(r.Context()), to)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, viewOf(o))
}

func (h *OrdersHandler) updatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	to, err := orders.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdatePayment(ctx, chi.URLParam(r, "id"), auth.UserID(r.Context()), to)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, viewOf(o))
}
