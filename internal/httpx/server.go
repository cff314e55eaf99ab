package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/telemetry"
)

type Deps struct {
	Verifier    *auth.Verifier
	Orders      OrderService
	Products    Catalog
	UrgentSales UrgentSales
	Reports     Reports
	Dashboard   DashboardComposer
	Snapshots   Snapshots
	Logger      *slog.Logger

	LowStockThreshold int
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15*time.Second), telemetry.RouteTag)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authn := Authenticate(d.Verifier)
	sellerOnly := RequireRole(auth.RoleSeller, auth.RoleAdmin)

	products := &ProductsHandler{Products: d.Products, Dashboard: d.Dashboard, LowStockThreshold: d.LowStockThreshold, Logger: d.Logger}
	urgent := &UrgentSalesHandler{Sales: d.UrgentSales, Dashboard: d.Dashboard, Logger: d.Logger}
	seller := &SellerHandler{Orders: d.Orders, Reports: d.Reports, Dashboard: d.Dashboard, Snapshots: d.Snapshots, Logger: d.Logger}
	ordersH := &OrdersHandler{Orders: d.Orders, Logger: d.Logger}

	products.Register(r)
	urgent.Register(r)
	ordersH.Register(r, authn, sellerOnly)

	r.Route("/api/seller", func(r chi.Router) {
		r.Use(authn, sellerOnly)
		products.RegisterSeller(r)
		urgent.RegisterSeller(r)
		seller.RegisterSeller(r)
	})
	return r
}
