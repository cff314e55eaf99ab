//go:build integration

package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-marketplace-orders/internal/pgtest"
)

func TestRepo_StatsAndOwnership(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := &Repo{DB: db}

	create := func(name string, stock int, category string) Product {
		p, err := repo.Create(ctx, "s1", ProductInput{
			Name: name, Price: decimal.RequireFromString("2.50"), Stock: stock, Category: category,
		})
		require.NoError(t, err)
		return p
	}
	create("Apples", 0, "Fruit")
	create("Pears", 4, "fruit")
	carrots := create("Carrots", 40, "veg")

	stats, err := repo.Stats(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Active)
	assert.Equal(t, 1, stats.LowStock)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.True(t, stats.StockValue.Equal(decimal.RequireFromString("110")), stats.StockValue.String())

	cats, err := repo.CategoryBreakdown(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, CategoryCount{Category: "fruit", Products: 2}, cats[0])

	_, err = repo.Update(ctx, carrots.ID, "s2", ProductInput{Name: "Stolen", Stock: 1})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, repo.Delete(ctx, carrots.ID, "s2"), ErrForbidden)

	require.NoError(t, repo.Delete(ctx, carrots.ID, "s1"))
	_, err = repo.Get(ctx, carrots.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := repo.TopSelling(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRepo_UpdateKeepsActiveFlagWhenOmitted(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()
	repo := &Repo{DB: db}

	off := false
	p, err := repo.Create(ctx, "s1", ProductInput{Name: "Plums", Price: decimal.NewFromInt(4), Stock: 3, IsActive: &off})
	require.NoError(t, err)
	require.False(t, p.IsActive)

	p, err = repo.Update(ctx, p.ID, "s1", ProductInput{Name: "Plums", Price: decimal.NewFromInt(5), Stock: 3})
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(5)))

	on := true
	p, err = repo.Update(ctx, p.ID, "s1", ProductInput{Name: "Plums", Price: decimal.NewFromInt(5), Stock: 3, IsActive: &on})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
}
