package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-marketplace-orders/internal/logging"
)

type memSnapshots struct {
	saved        map[string]Snapshot
	computeCalls int
	revenue      decimal.Decimal
	saveErr      error
}

func (m *memSnapshots) Load(_ context.Context, seller string) (Snapshot, error) {
	s, ok := m.saved[seller]
	if !ok {
		return Snapshot{}, ErrNoSnapshot
	}
	return s, nil
}

func (m *memSnapshots) Save(_ context.Context, s Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[s.SellerID] = s
	return nil
}

func (m *memSnapshots) Compute(_ context.Context, seller string, now time.Time) (Snapshot, error) {
	m.computeCalls++
	return Snapshot{SellerID: seller, TotalRevenue: m.revenue, GeneratedAt: now}, nil
}

func TestSnapshotter_GetCreatesLazily(t *testing.T) {
	store := &memSnapshots{saved: map[string]Snapshot{}, revenue: decimal.NewFromInt(10)}
	s := NewSnapshotter(store, logging.Discard())
	s.Now = func() time.Time { return wed }
	ctx := context.Background()

	first, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, wed, first.GeneratedAt)
	assert.Equal(t, 1, store.computeCalls)

	// stale until refreshed
	store.revenue = decimal.NewFromInt(99)
	second, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, second.TotalRevenue.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, store.computeCalls)

	fresh, err := s.Refresh(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, fresh.TotalRevenue.Equal(decimal.NewFromInt(99)))
	assert.Equal(t, 2, store.computeCalls)
}

func TestSnapshotter_SaveError(t *testing.T) {
	boom := errors.New("disk full")
	store := &memSnapshots{saved: map[string]Snapshot{}, saveErr: boom}

	_, err := NewSnapshotter(store, logging.Discard()).Refresh(context.Background(), "s1")

	assert.ErrorIs(t, err, boom)
}
