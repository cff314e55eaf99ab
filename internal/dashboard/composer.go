// Package dashboard assembles the seller dashboard from independent queries.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
	"github.com/ariefcatur/go-marketplace-orders/internal/metrics"
	"github.com/ariefcatur/go-marketplace-orders/internal/redisx"
	"github.com/ariefcatur/go-marketplace-orders/internal/urgentsales"
)

const topProductsLimit = 5

var tracer = otel.Tracer("github.com/ariefcatur/go-marketplace-orders/internal/dashboard")

type Products interface {
	Stats(ctx context.Context, sellerID string, threshold int) (catalog.Stats, error)
	TopSelling(ctx context.Context, sellerID string, limit int) ([]catalog.TopProduct, error)
	CategoryBreakdown(ctx context.Context, sellerID string) ([]catalog.CategoryCount, error)
}

type Revenue interface {
	Revenue(ctx context.Context, sellerID string, w analytics.Window) (decimal.Decimal, int, error)
}

type UrgentSales interface {
	Counts(ctx context.Context, sellerID string) (urgentsales.Counts, error)
}

// Cache is satisfied by redisx.JSONCache.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type WeeklyRevenue struct {
	ThisWeek       decimal.Decimal  `json:"this_week"`
	LastWeek       decimal.Decimal  `json:"last_week"`
	Growth         float64          `json:"growth"`
	OrdersThisWeek int              `json:"orders_this_week"`
	Window         analytics.Window `json:"window"`
}

// Dashboard always carries all five sections; empty ones are zero values or
// empty lists, never null.
type Dashboard struct {
	SellerID     string                  `json:"seller_id"`
	ProductStats catalog.Stats           `json:"product_stats"`
	Revenue      WeeklyRevenue           `json:"revenue"`
	UrgentSales  urgentsales.Counts      `json:"urgent_sales"`
	TopProducts  []catalog.TopProduct    `json:"top_products"`
	Categories   []catalog.CategoryCount `json:"category_breakdown"`
	GeneratedAt  time.Time               `json:"generated_at"`
}

type Composer struct {
	Products    Products
	Revenue     Revenue
	UrgentSales UrgentSales
	Logger      *slog.Logger

	LowStockThreshold int
	Cache             Cache // optional
	CacheTTL          time.Duration
	Now               func() time.Time
}

func (c *Composer) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// Compose runs the five section queries concurrently. The sections are not
// read from one snapshot; any failing query fails the whole dashboard.
func (c *Composer) Compose(ctx context.Context, sellerID string) (Dashboard, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "dashboard.Compose")
	span.SetAttributes(attribute.String("seller.id", sellerID))
	defer span.End()

	key := redisx.DashboardKey(sellerID)
	if c.Cache != nil {
		var cached Dashboard
		ok, err := c.Cache.Get(ctx, key, &cached)
		if err != nil {
			c.Logger.WarnContext(ctx, "dashboard cache read", "seller_id", sellerID, "error", err)
		}
		if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			metrics.DashboardDuration.WithLabelValues("hit").Observe(time.Since(start).Seconds())
			return cached, nil
		}
	}

	now := c.now()
	d := Dashboard{
		SellerID:    sellerID,
		TopProducts: []catalog.TopProduct{},
		Categories:  []catalog.CategoryCount{},
		GeneratedAt: now,
	}
	thisWeek, lastWeek := analytics.Windows(analytics.PeriodWeek, now)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctx, span := tracer.Start(gctx, "dashboard.productStats")
		defer span.End()
		s, err := c.Products.Stats(ctx, sellerID, c.LowStockThreshold)
		d.ProductStats = s
		return err
	})
	g.Go(func() error {
		ctx, span := tracer.Start(gctx, "dashboard.revenue")
		defer span.End()
		cur, n, err := c.Revenue.Revenue(ctx, sellerID, thisWeek)
		if err != nil {
			return err
		}
		prev, _, err := c.Revenue.Revenue(ctx, sellerID, lastWeek)
		if err != nil {
			return err
		}
		d.Revenue = WeeklyRevenue{
			ThisWeek: cur, LastWeek: prev, Growth: analytics.Growth(cur, prev),
			OrdersThisWeek: n, Window: thisWeek,
		}
		return nil
	})
	g.Go(func() error {
		ctx, span := tracer.Start(gctx, "dashboard.urgentSales")
		defer span.End()
		u, err := c.UrgentSales.Counts(ctx, sellerID)
		d.UrgentSales = u
		return err
	})
	g.Go(func() error {
		ctx, span := tracer.Start(gctx, "dashboard.topProducts")
		defer span.End()
		top, err := c.Products.TopSelling(ctx, sellerID, topProductsLimit)
		if len(top) > 0 {
			d.TopProducts = top
		}
		return err
	})
	g.Go(func() error {
		ctx, span := tracer.Start(gctx, "dashboard.categories")
		defer span.End()
		cats, err := c.Products.CategoryBreakdown(ctx, sellerID)
		if len(cats) > 0 {
			d.Categories = cats
		}
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return Dashboard{}, err
	}

	if c.Cache != nil && c.CacheTTL > 0 {
		if err := c.Cache.Set(ctx, key, d, c.CacheTTL); err != nil {
			c.Logger.WarnContext(ctx, "dashboard cache write", "seller_id", sellerID, "error", err)
		}
	}
	metrics.DashboardDuration.WithLabelValues("miss").Observe(time.Since(start).Seconds())
	return d, nil
}

// Invalidate drops the cached dashboard for the seller.
func (c *Composer) Invalidate(ctx context.Context, sellerID string) error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Del(ctx, redisx.DashboardKey(sellerID))
}
