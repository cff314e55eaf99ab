package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
	"github.com/ariefcatur/go-marketplace-orders/internal/logging"
	"github.com/ariefcatur/go-marketplace-orders/internal/urgentsales"
)

var now = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

type fakeProducts struct {
	stats     catalog.Stats
	top       []catalog.TopProduct
	cats      []catalog.CategoryCount
	err       error
	threshold int
}

func (f *fakeProducts) Stats(_ context.Context, _ string, threshold int) (catalog.Stats, error) {
	f.threshold = threshold
	return f.stats, f.err
}

func (f *fakeProducts) TopSelling(_ context.Context, _ string, limit int) ([]catalog.TopProduct, error) {
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeProducts) CategoryBreakdown(context.Context, string) ([]catalog.CategoryCount, error) {
	return f.cats, nil
}

type fakeRevenue struct {
	byStart map[time.Time]decimal.Decimal
}

func (f *fakeRevenue) Revenue(_ context.Context, _ string, w analytics.Window) (decimal.Decimal, int, error) {
	v, ok := f.byStart[w.Start]
	if !ok {
		return decimal.Zero, 0, nil
	}
	return v, 1, nil
}

type fakeUrgent struct{ counts urgentsales.Counts }

func (f *fakeUrgent) Counts(context.Context, string) (urgentsales.Counts, error) { return f.counts, nil }

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.sets++
	return nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func newComposer(p *fakeProducts, r *fakeRevenue, u *fakeUrgent) *Composer {
	return &Composer{
		Products: p, Revenue: r, UrgentSales: u,
		Logger:            logging.Discard(),
		LowStockThreshold: 10,
		Now:               func() time.Time { return now },
	}
}

func TestCompose_AllSectionsPresentWhenEmpty(t *testing.T) {
	c := newComposer(&fakeProducts{}, &fakeRevenue{}, &fakeUrgent{})

	d, err := c.Compose(context.Background(), "s1")
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(b, &body))

	for _, section := range []string{"product_stats", "revenue", "urgent_sales", "top_products", "category_breakdown"} {
		assert.Contains(t, body, section)
		assert.NotNil(t, body[section], section)
	}
	assert.Equal(t, []any{}, body["top_products"])
	assert.Equal(t, []any{}, body["category_breakdown"])
}

func TestCompose_FillsSections(t *testing.T) {
	thisWeek, lastWeek := analytics.Windows(analytics.PeriodWeek, now)
	products := &fakeProducts{
		stats: catalog.Stats{Total: 4, Active: 3, LowStock: 1, OutOfStock: 1},
		top: []catalog.TopProduct{
			{ID: "a", SalesCount: 9}, {ID: "b", SalesCount: 8}, {ID: "c", SalesCount: 7},
			{ID: "d", SalesCount: 6}, {ID: "e", SalesCount: 5}, {ID: "f", SalesCount: 4},
		},
		cats: []catalog.CategoryCount{{Category: "produce", Products: 4}},
	}
	revenue := &fakeRevenue{byStart: map[time.Time]decimal.Decimal{
		thisWeek.Start: decimal.NewFromInt(150),
		lastWeek.Start: decimal.NewFromInt(100),
	}}
	urgent := &fakeUrgent{counts: urgentsales.Counts{Total: 3, Active: 2, Expired: 1}}

	d, err := newComposer(products, revenue, urgent).Compose(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, 10, products.threshold)
	assert.Equal(t, 4, d.ProductStats.Total)
	assert.Equal(t, 50.0, d.Revenue.Growth)
	assert.True(t, d.Revenue.ThisWeek.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, d.UrgentSales.Active)
	assert.Len(t, d.TopProducts, 5)
	assert.Equal(t, "a", d.TopProducts[0].ID)
	assert.Len(t, d.Categories, 1)
}

func TestCompose_QueryErrorFailsDashboard(t *testing.T) {
	boom := errors.New("db down")
	c := newComposer(&fakeProducts{err: boom}, &fakeRevenue{}, &fakeUrgent{})

	_, err := c.Compose(context.Background(), "s1")

	assert.ErrorIs(t, err, boom)
}

func TestCompose_CacheAndInvalidate(t *testing.T) {
	products := &fakeProducts{stats: catalog.Stats{Total: 1}}
	cache := newMemCache()
	c := newComposer(products, &fakeRevenue{}, &fakeUrgent{})
	c.Cache, c.CacheTTL = cache, time.Minute
	ctx := context.Background()

	_, err := c.Compose(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	products.stats.Total = 2
	cached, err := c.Compose(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.ProductStats.Total)

	require.NoError(t, c.Invalidate(ctx, "s1"))
	fresh, err := c.Compose(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.ProductStats.Total)
}
