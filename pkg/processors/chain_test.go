package processors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

type failingProcessor struct{}

func (failingProcessor) Name() string { return "failing" }

func (failingProcessor) Process(context.Context, *table.Dataset) (*table.Dataset, error) {
	return nil, errors.New("boom")
}

func TestChain_Empty(t *testing.T) {
	ds := createTestDataset([]string{"a"}, [][]string{{"1"}})
	out, err := NewChain().Process(context.Background(), ds)
	require.NoError(t, err)
	assert.Same(t, ds, out)
}

func TestChain_ObserverAndError(t *testing.T) {
	ds := createTestDataset([]string{"a"}, [][]string{{"1"}, {""}})

	var seen []string
	chain := NewChain(NewRequiredFilter([]string{"a"}), failingProcessor{}).
		WithObserver(func(s StageStat) { seen = append(seen, s.Name) })

	_, err := chain.Process(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor 1 (failing) failed")
	assert.Equal(t, []string{"required_filter"}, seen)
}

func TestChain_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(NewRequiredFilter(nil)).Process(ctx, createTestDataset([]string{"a"}, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDatasetChecksum(t *testing.T) {
	a := createTestDataset([]string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}})
	b := createTestDataset([]string{"a", "b"}, [][]string{{"1.0", "x"}, {"2", "y"}})
	c := createTestDataset([]string{"a", "b"}, [][]string{{"2", "y"}, {"1", "x"}})

	assert.Len(t, DatasetChecksum(a), 16)
	assert.Equal(t, DatasetChecksum(a), DatasetChecksum(b))
	assert.NotEqual(t, DatasetChecksum(a), DatasetChecksum(c))
}
