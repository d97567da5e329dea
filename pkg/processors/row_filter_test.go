package processors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
)

var filterFields = []string{"l1", "lat", "lon", "rooms"}

func TestCategoryFilter(t *testing.T) {
	ds := createTestDataset(filterFields, [][]string{
		{"Argentina", "1", "1", "2"},
		{"Estados Unidos", "2", "2", "3"},
		{"", "3", "3", "1"},
		{"Brasil", "4", "4", "1"},
	})

	out, err := NewCategoryFilter("l1", []string{"Estados Unidos", "Brasil"}).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r2"}, out.Index, "missing category is kept")

	same, err := NewCategoryFilter("l1", nil).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), same.Len())

	_, err = NewCategoryFilter("country", []string{"Brasil"}).Process(context.Background(), ds)
	assert.ErrorIs(t, err, errs.ErrSchema)
}

func TestRequiredFilter_AnySemantics(t *testing.T) {
	ds := createTestDataset(filterFields, [][]string{
		{"Argentina", "1", "1", "2"},
		{"Argentina", "", "2", "3"},
		{"Argentina", "3", "", "1"},
		{"Argentina", "", "", "1"},
		{"Argentina", "5", "5", ""},
	})

	out, err := NewRequiredFilter([]string{"lat", "lon"}).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r4"}, out.Index)

	same, err := NewRequiredFilter(nil).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 5, same.Len())

	_, err = NewRequiredFilter([]string{"surface"}).Process(context.Background(), ds)
	assert.ErrorIs(t, err, errs.ErrSchema)
}

func TestKeyDeduplicator_KeepsFirst(t *testing.T) {
	ds := createTestDataset(filterFields, [][]string{
		{"Argentina", "1", "1", "2"},
		{"Peru", "1", "1", "5"},
		{"Argentina", "1.0", "2", "3"},
		{"Argentina", "1", "2", "9"},
	})

	out, err := NewKeyDeduplicator([]string{"lat", "lon"}).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r2"}, out.Index)
	assert.Equal(t, "2", out.Rows[0][3].String())
}

func TestRowFilter_FixedOrder(t *testing.T) {
	ds := createTestDataset(filterFields, [][]string{
		{"Argentina", "1", "1", "2"},     // r0 остается
		{"Brasil", "", "2", "3"},         // r1 исключен по категории и по пропуску
		{"Argentina", "", "3", "1"},      // r2 пропуск
		{"Argentina", "1", "1", "7"},     // r3 дубликат ключа r0
		{"Brasil", "9", "9", "1"},        // r4 категория
		{"Argentina", "9", "9", "4"},     // r5 остается: r4 удален раньше дедупликации
	})

	chain := NewChain(
		NewCategoryFilter("l1", []string{"Brasil"}),
		NewRequiredFilter([]string{"lat"}),
		NewKeyDeduplicator([]string{"lat", "lon"}),
	)
	out, err := chain.Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r5"}, out.Index)

	stats := chain.Stats()
	require.Len(t, stats, 3)
	assert.Equal(t, "category_filter", stats[0].Name)
	assert.Equal(t, 2, stats[0].Dropped())
	assert.Equal(t, 1, stats[1].Dropped())
	assert.Equal(t, 1, stats[2].Dropped())
}

func TestRowFilter_CategoryAndRequiredCommute(t *testing.T) {
	rows := [][]string{
		{"Brasil", "", "1", "1"},
		{"Argentina", "", "2", "1"},
		{"Brasil", "3", "3", "1"},
		{"Peru", "4", "4", "1"},
	}
	ctx := context.Background()

	a := NewChain(NewCategoryFilter("l1", []string{"Brasil"}), NewRequiredFilter([]string{"lat"}))
	b := NewChain(NewRequiredFilter([]string{"lat"}), NewCategoryFilter("l1", []string{"Brasil"}))

	outA, err := a.Process(ctx, createTestDataset(filterFields, rows))
	require.NoError(t, err)
	outB, err := b.Process(ctx, createTestDataset(filterFields, rows))
	require.NoError(t, err)

	assert.Equal(t, outA.Index, outB.Index)
	assert.Equal(t, []string{"r3"}, outA.Index)
}

func TestColumnSelector(t *testing.T) {
	ds := createTestDataset(filterFields, [][]string{{"Argentina", "1", "1", "2"}})

	out, err := NewColumnSelector([]string{"rooms", "l1"}).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"rooms", "l1"}, out.Schema.Names())

	all, err := NewColumnSelector(nil).Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, filterFields, all.Schema.Names())

	_, err = NewColumnSelector([]string{"surface_total"}).Process(context.Background(), ds)
	require.Error(t, err)
	assert.Equal(t, StageSelect, errs.StageOf(err))
}
