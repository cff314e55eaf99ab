package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/urgentsales"
)

type UrgentSales interface {
	Create(ctx context.Context, sellerID string, in urgentsales.Input) (urgentsales.UrgentSale, error)
	ListActive(ctx context.Context, limit int) ([]urgentsales.UrgentSale, error)
	ListBySeller(ctx context.Context, sellerID string) ([]urgentsales.UrgentSale, error)
}

type UrgentSalesHandler struct {
	Sales     UrgentSales
	Dashboard DashboardComposer
	Logger    *slog.Logger
}

func (h *UrgentSalesHandler) Register(r chi.Router) {
	r.Get("/api/urgent-sales", h.listActive)
}

func (h *UrgentSalesHandler) RegisterSeller(r chi.Router) {
	r.Get("/urgent-sales", h.listOwn)
	r.Post("/urgent-sales", h.create)
}

func (h *UrgentSalesHandler) listActive(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Sales.ListActive(ctx, limit)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, list)
}

func (h *UrgentSalesHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Sales.ListBySeller(ctx, auth.UserID(r.Context()))
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, list)
}

func (h *UrgentSalesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in urgentsales.Input
	if err := decode(r, &in); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sellerID := auth.UserID(r.Context())
	u, err := h.Sales.Create(ctx, sellerID, in)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	if h.Dashboard != nil {
		if err := h.Dashboard.Invalidate(ctx, sellerID); err != nil {
			h.Logger.WarnContext(ctx, "invalidate dashboard", "seller_id", sellerID, "error", err)
		}
	}
	success(w, http.StatusCreated, u)
}
