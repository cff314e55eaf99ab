package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
)

type Catalog interface {
	Create(ctx context.Context, sellerID string, in catalog.ProductInput) (catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Update(ctx context.Context, id, sellerID string, in catalog.ProductInput) (catalog.Product, error)
	Delete(ctx context.Context, id, sellerID string) error
	List(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error)
	ListBySeller(ctx context.Context, sellerID string, f catalog.ListFilter) ([]catalog.Product, error)
	Stats(ctx context.Context, sellerID string, threshold int) (catalog.Stats, error)
}

// ProductsHandler serves the public catalog and the seller's own products.
type ProductsHandler struct {
	Products          Catalog
	Dashboard         DashboardComposer
	LowStockThreshold int
	Logger            *slog.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/api/products", h.list)
	r.Get("/api/products/{id}", h.get)
}

// RegisterSeller mounts routes under an already authenticated /api/seller router.
func (h *ProductsHandler) RegisterSeller(r chi.Router) {
	r.Get("/products", h.listOwn)
	r.Get("/products/stats", h.stats)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func catalogFilter(r *http.Request) (catalog.ListFilter, error) {
	f := catalog.ListFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	var err error
	if f.Limit, err = queryInt(r, "limit", 50); err != nil {
		return f, err
	}
	f.Offset, err = queryInt(r, "offset", 0)
	return f, err
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := catalogFilter(r)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.List(ctx, f)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, p)
}

func (h *ProductsHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	f, err := catalogFilter(r)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.ListBySeller(ctx, auth.UserID(r.Context()), f)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, ps)
}

func (h *ProductsHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Products.Stats(ctx, auth.UserID(r.Context()), h.LowStockThreshold)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	success(w, http.StatusOK, s)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sellerID := auth.UserID(r.Context())
	p, err := h.Products.Create(ctx, sellerID, in)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	h.invalidate(ctx, sellerID)
	success(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sellerID := auth.UserID(r.Context())
	p, err := h.Products.Update(ctx, chi.URLParam(r, "id"), sellerID, in)
	if err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	h.invalidate(ctx, sellerID)
	success(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sellerID := auth.UserID(r.Context())
	if err := h.Products.Delete(ctx, chi.URLParam(r, "id"), sellerID); err != nil {
		fail(w, r, h.Logger, err)
		return
	}
	h.invalidate(ctx, sellerID)
	success(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id")})
}

func (h *ProductsHandler) invalidate(ctx context.Context, sellerID string) {
	if h.Dashboard == nil {
		return
	}
	if err := h.Dashboard.Invalidate(ctx, sellerID); err != nil {
		h.Logger.WarnContext(ctx, "invalidate dashboard", "seller_id", sellerID, "error", err)
	}
}
