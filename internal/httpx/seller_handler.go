package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/dashboard"
)

type Reports interface {
	SalesReport(ctx context.Context, sellerID string, p analytics.Period) (analytics.Report, error)
	OrderStats(ctx context.Context, sellerID string, p analytics.Period) (analytics.OrderStats, error)
}

type DashboardComposer interface {
	Compose(ctx context.Context, sellerID string) (dashboard.Dashboard, error)
	Invalidate(ctx context.Context, sellerID string) error
}

type Snapshots interface {
	Get(ctx context.Context, sellerID string) (analytics.Snapshot, error)
	Refresh(ctx context.Context, sellerID string) (analytics.Snapshot, error)
}

// SellerHandler serves the seller back office: order queue, reports,
// dashboard and the analytics snapshot.
type SellerHandler struct {
	Orders    OrderService
	Reports   Reports
	Dashboard DashboardComposer
	Snapshots Snapshots
	Logger    *slog.Logger
}

func (h *SellerHandler) RegisterSeller(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/stats", h.orderStats)
	r.Get("/sales", h.sales)
	r.Get("/dashboard", h.showDashboard)
	r.Get("/analytics", h.snapshot)
	r.Post("/analytics/refresh", h.refresh)
}

func (h *SellerHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sellerID := auth.UserID(r.Context())
	list, err := h.Orders.ListForSeller(ctx, sellerID, f)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	counts, err := h.Orders.StatusCounts(ctx, sellerID)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, map[string]any{"orders": list, "status_counts": counts})
}

func (h *SellerHandler) period(r *http.Request) (analytics.Period, error) {
	return analytics.ParsePeriod(r.URL.Query().Get("period"))
}

func (h *SellerHandler) orderStats(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Reports.OrderStats(ctx, auth.UserID(r.Context()), p)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, st)
}

func (h *SellerHandler) sales(w http.ResponseWriter, r *http.Request) {
	p, err := h.period(r)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rep, err := h.Reports.SalesReport(ctx, auth.UserID(r.Context()), p)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	w.Header().Set("X-Data-Source", string(rep.Source()))
	success(w, http.StatusOK, rep)
}

func (h *SellerHandler) showDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := h.Dashboard.Compose(ctx, auth.UserID(r.Context()))
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, d)
}

func (h *SellerHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.Snapshots.Get(ctx, auth.UserID(r.Context()))
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, s)
}

func (h *SellerHandler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := h.Snapshots.Refresh(ctx, auth.UserID(r.Context()))
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, s)
}
