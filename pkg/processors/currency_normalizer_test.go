package processors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/currency"
)

var priceFields = []string{"rooms", "price", "currency"}

func TestCurrencyNormalizer_Convert(t *testing.T) {
	ds := createTestDataset(priceFields, [][]string{
		{"2", "100", "PEN"},
		{"3", "250", "USD"},
		{"1", "10000", "ARS"},
	})

	out, err := NewCurrencyNormalizer("price", "currency", "price_usd", currency.PolicyDrop).
		Process(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"rooms", "price_usd"}, out.Schema.Names())
	require.Equal(t, 3, out.Len())

	usd, _ := out.Column("price_usd")
	v, ok := usd[0].Float()
	require.True(t, ok)
	assert.InDelta(t, 28.63, v, 1e-9)
	v, _ = usd[1].Float()
	assert.InDelta(t, 250, v, 1e-9)
	v, _ = usd[2].Float()
	assert.InDelta(t, 143, v, 1e-9)
}

func TestCurrencyNormalizer_SchemaContract(t *testing.T) {
	ds := createTestDataset(priceFields, [][]string{{"2", "100", "PEN"}})

	out, err := NewCurrencyNormalizer("price", "currency", "price_usd", "").Process(context.Background(), ds)
	require.NoError(t, err)

	assert.False(t, out.Schema.Has("price"))
	assert.False(t, out.Schema.Has("currency"))
	count := 0
	for _, f := range out.Schema.Fields {
		if f.Name == "price_usd" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCurrencyNormalizer_UnknownPolicy(t *testing.T) {
	rows := [][]string{
		{"2", "100", "PEN"},
		{"3", "50", "EUR"},
		{"4", "70", ""},
	}

	t.Run("drop", func(t *testing.T) {
		out, err := NewCurrencyNormalizer("price", "currency", "price_usd", currency.PolicyDrop).
			Process(context.Background(), createTestDataset(priceFields, rows))
		require.NoError(t, err)
		assert.Equal(t, []string{"r0"}, out.Index)
	})

	t.Run("fail", func(t *testing.T) {
		_, err := NewCurrencyNormalizer("price", "currency", "price_usd", currency.PolicyFail).
			Process(context.Background(), createTestDataset(priceFields, rows))
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrUnknownCurrency)
		assert.Equal(t, StageNormalize, errs.StageOf(err))
	})

	t.Run("passthrough", func(t *testing.T) {
		out, err := NewCurrencyNormalizer("price", "currency", "price_usd", currency.PolicyPassthrough).
			Process(context.Background(), createTestDataset(priceFields, rows))
		require.NoError(t, err)
		require.Equal(t, 3, out.Len())
		usd, _ := out.Column("price_usd")
		v, _ := usd[1].Float()
		assert.Equal(t, 50.0, v)
	})
}

func TestCurrencyNormalizer_MissingAmount(t *testing.T) {
	ds := createTestDataset(priceFields, [][]string{
		{"2", "", "USD"},
		{"3", "80", "USD"},
	})

	out, err := NewCurrencyNormalizer("price", "currency", "price_usd", currency.PolicyDrop).
		Process(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	usd, _ := out.Column("price_usd")
	assert.True(t, usd[0].Null)
}

func TestCurrencyNormalizer_MissingColumns(t *testing.T) {
	ds := createTestDataset([]string{"rooms", "price"}, [][]string{{"2", "100"}})

	_, err := NewCurrencyNormalizer("price", "currency", "price_usd", "").Process(context.Background(), ds)
	assert.ErrorIs(t, err, errs.ErrSchema)
}
