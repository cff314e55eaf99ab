//go:build integration

package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
	"github.com/ariefcatur/go-marketplace-orders/internal/pgtest"
)

func seedProduct(t *testing.T, c *catalog.Repo, seller, name, price string, stock int) catalog.Product {
	t.Helper()
	p, err := c.Create(context.Background(), seller, catalog.ProductInput{
		Name: name, Price: decimal.RequireFromString(price), Stock: stock, Unit: "kg",
	})
	require.NoError(t, err)
	return p
}

func newOrder(items ...ItemInput) NewOrder {
	n := validNewOrder()
	n.Items = items
	return n
}

func TestRepo_Create_DecrementsStockAndSnapshots(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	cat := &catalog.Repo{DB: db}
	repo := &Repo{DB: db}

	p := seedProduct(t, cat, "s1", "Tomatoes", "40.00", 5)

	o, existed, err := repo.Create(ctx, newOrder(ItemInput{ProductID: p.ID, Qty: 2}))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("80.00")))

	after, err := cat.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Stock)
	assert.Equal(t, 2, after.SalesCount)

	// snapshot survives a price change
	_, err = cat.Update(ctx, p.ID, "s1", catalog.ProductInput{Name: "Tomatoes", Price: decimal.RequireFromString("99"), Stock: 3})
	require.NoError(t, err)
	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("40")))
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("80")))
}

func TestRepo_Create_AllOrNothing(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	cat := &catalog.Repo{DB: db}
	repo := &Repo{DB: db}

	plenty := seedProduct(t, cat, "s1", "Onions", "10.00", 10)
	scarce := seedProduct(t, cat, "s1", "Saffron", "500.00", 1)

	_, _, err := repo.Create(ctx, newOrder(
		ItemInput{ProductID: plenty.ID, Qty: 4},
		ItemInput{ProductID: scarce.ID, Qty: 2},
	))

	var short *StockShortageError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, scarce.ID, short.Items[0].ProductID)

	for id, want := range map[string]int{plenty.ID: 10, scarce.ID: 1} {
		p, err := cat.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Stock)
		assert.Zero(t, p.SalesCount)
	}
	list, err := repo.ListByBuyer(ctx, "b1", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepo_Create_IdempotentOnExternalID(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := &Repo{DB: db}
	p := seedProduct(t, &catalog.Repo{DB: db}, "s1", "Rice", "2.00", 10)

	in := newOrder(ItemInput{ProductID: p.ID, Qty: 1})
	in.ExternalID = "checkout-42"

	first, _, err := repo.Create(ctx, in)
	require.NoError(t, err)
	second, existed, err := repo.Create(ctx, in)
	require.NoError(t, err)

	assert.True(t, existed)
	assert.Equal(t, first.ID, second.ID)
	after, _ := (&catalog.Repo{DB: db}).Get(ctx, p.ID)
	assert.Equal(t, 9, after.Stock)
}

func TestRepo_Transition(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	cat := &catalog.Repo{DB: db}
	repo := &Repo{DB: db}
	p := seedProduct(t, cat, "s1", "Milk", "1.20", 6)

	o, _, err := repo.Create(ctx, newOrder(ItemInput{ProductID: p.ID, Qty: 4}))
	require.NoError(t, err)

	_, _, err = repo.Transition(ctx, o.ID, "s2", StatusProcessing)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = repo.Transition(ctx, o.ID, "s1", StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, from, err := repo.Transition(ctx, o.ID, "s1", StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, from)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.True(t, got.UpdatedAt.After(o.UpdatedAt) || got.UpdatedAt.Equal(o.UpdatedAt))

	_, _, err = repo.Transition(ctx, o.ID, "s1", StatusCancelled)
	require.NoError(t, err)
	restocked, err := cat.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, restocked.Stock)
	assert.Zero(t, restocked.SalesCount)

	_, _, err = repo.Transition(ctx, o.ID, "s1", StatusProcessing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = repo.Transition(ctx, "missing", "s1", StatusProcessing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepo_PaymentAndCounts(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := &Repo{DB: db}
	p := seedProduct(t, &catalog.Repo{DB: db}, "s1", "Eggs", "0.30", 100)

	o, _, err := repo.Create(ctx, newOrder(ItemInput{ProductID: p.ID, Qty: 12}))
	require.NoError(t, err)

	_, _, err = repo.UpdatePayment(ctx, o.ID, "s1", PaymentRefunded)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, from, err := repo.UpdatePayment(ctx, o.ID, "s1", PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, from)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)

	counts, err := repo.StatusCounts(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusPending])
	assert.Equal(t, 0, counts[StatusDelivered])
	assert.Len(t, counts, 5)
}

func TestRepo_Create_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	cat := &catalog.Repo{DB: db}
	repo := &Repo{DB: db}

	const stock, buyers = 5, 20
	p := seedProduct(t, cat, "s1", "Mangoes", "3.00", stock)

	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := newOrder(ItemInput{ProductID: p.ID, Qty: 1})
			in.BuyerID = fmt.Sprintf("b%d", i)
			_, _, errs[i] = repo.Create(ctx, in)
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, stock, placed)

	after, err := cat.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, after.Stock)
	assert.Equal(t, stock, after.SalesCount)
}

func TestRepo_CancelAlongsideCheckouts(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	cat := &catalog.Repo{DB: db}
	repo := &Repo{DB: db}

	a := seedProduct(t, cat, "s1", "Apples", "1.00", 100)
	b := seedProduct(t, cat, "s1", "Bananas", "1.00", 100)

	// existing orders list the products in both orders
	var toCancel []Order
	for i := 0; i < 5; i++ {
		o, _, err := repo.Create(ctx, newOrder(ItemInput{ProductID: b.ID, Qty: 2}, ItemInput{ProductID: a.ID, Qty: 2}))
		require.NoError(t, err)
		toCancel = append(toCancel, o)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i, o := range toCancel {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_, _, err := repo.Transition(ctx, id, "s1", StatusCancelled)
			errs <- err
		}(o.ID)
		go func(i int) {
			defer wg.Done()
			in := newOrder(ItemInput{ProductID: a.ID, Qty: 1}, ItemInput{ProductID: b.ID, Qty: 1})
			in.BuyerID = fmt.Sprintf("late-%d", i)
			_, _, err := repo.Create(ctx, in)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	for _, id := range []string{a.ID, b.ID} {
		p, err := cat.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 95, p.Stock)
		assert.Equal(t, 5, p.SalesCount)
	}
}

func TestRepo_UpdatePayment_CancelledOrderOnlyRefunds(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := &Repo{DB: db}
	p := seedProduct(t, &catalog.Repo{DB: db}, "s1", "Flour", "1.00", 10)

	unpaid, _, err := repo.Create(ctx, newOrder(ItemInput{ProductID: p.ID, Qty: 1}))
	require.NoError(t, err)
	_, _, err = repo.Transition(ctx, unpaid.ID, "s1", StatusCancelled)
	require.NoError(t, err)
	_, _, err = repo.UpdatePayment(ctx, unpaid.ID, "s1", PaymentPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	paid, _, err := repo.Create(ctx, newOrder(ItemInput{ProductID: p.ID, Qty: 1}))
	require.NoError(t, err)
	_, _, err = repo.UpdatePayment(ctx, paid.ID, "s1", PaymentPaid)
	require.NoError(t, err)
	_, _, err = repo.Transition(ctx, paid.ID, "s1", StatusCancelled)
	require.NoError(t, err)
	got, _, err := repo.UpdatePayment(ctx, paid.ID, "s1", PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, got.PaymentStatus)
}
