package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   float64
	}{
		{100, "PEN", 28.63},
		{100, "USD", 100},
		{1000, "ARS", 14.3},
		{1000, "UYU", 23.9},
		{1000000, "COP", 270},
		{0, "PEN", 0},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := Convert(tt.amount, tt.code)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvert_UnknownCode(t *testing.T) {
	_, ok := Convert(100, "EUR")
	assert.False(t, ok)

	_, ok = Convert(100, "")
	assert.False(t, ok)
}

func TestCodes(t *testing.T) {
	assert.Equal(t, []string{"ARS", "COP", "PEN", "USD", "UYU"}, Codes())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDrop, p)

	p, err = ParsePolicy("FAIL")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	p, err = ParsePolicy("passthrough")
	require.NoError(t, err)
	assert.Equal(t, PolicyPassthrough, p)

	_, err = ParsePolicy("guess")
	assert.Error(t, err)
}
