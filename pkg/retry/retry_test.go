package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper: retryer без реальных задержек
func newTestRetryer(t *testing.T, config Config) (*Retryer, *[]time.Duration) {
	t.Helper()
	r, err := New(config)
	require.NoError(t, err)
	var delays []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return r, &delays
}

func TestRetryer_Success(t *testing.T) {
	r, delays := newTestRetryer(t, Config{Attempts: 3})

	attempts := 0
	err := r.Do(context.Background(), "notify", func(context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *delays)
}

func TestRetryer_SuccessAfterRetries(t *testing.T) {
	r, delays := newTestRetryer(t, Config{Attempts: 5, InitialDelay: 10 * time.Millisecond})

	attempts := 0
	err := r.Do(context.Background(), "notify", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *delays)
}

func TestRetryer_MaxAttemptsExceeded(t *testing.T) {
	r, _ := newTestRetryer(t, Config{Attempts: 3, InitialDelay: time.Millisecond})

	attempts := 0
	cause := errors.New("persistent error")
	err := r.Do(context.Background(), "notify", func(context.Context) error {
		attempts++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestRetryer_NoRetryByDefault(t *testing.T) {
	r, delays := newTestRetryer(t, Config{})

	attempts := 0
	cause := errors.New("broker down")
	err := r.Do(context.Background(), "notify", func(context.Context) error {
		attempts++
		return cause
	})
	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *delays)
}

func TestRetryer_Permanent(t *testing.T) {
	r, _ := newTestRetryer(t, Config{Attempts: 5})

	attempts := 0
	cause := errors.New("bad message")
	err := r.Do(context.Background(), "notify", func(context.Context) error {
		attempts++
		return Permanent(cause)
	})
	assert.Equal(t, 1, attempts)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Permanent(nil))
}

func TestRetryer_ContextCancellation(t *testing.T) {
	r, _ := newTestRetryer(t, Config{Attempts: 10})
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := r.Do(ctx, "notify", func(context.Context) error {
		attempts++
		cancel()
		return errors.New("temporary error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryer_Delay(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []time.Duration
	}{
		{
			name:   "constant",
			config: Config{Backoff: BackoffConstant, InitialDelay: 100 * time.Millisecond},
			want:   []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond},
		},
		{
			name:   "linear",
			config: Config{Backoff: BackoffLinear, InitialDelay: 100 * time.Millisecond},
			want:   []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
		},
		{
			name:   "exponential capped",
			config: Config{Backoff: BackoffExponential, InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond},
			want:   []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.config)
			require.NoError(t, err)
			for i, want := range tt.want {
				assert.Equal(t, want, r.Delay(i+1), "attempt %d", i+1)
			}
		})
	}
}

func TestRetryer_Jitter(t *testing.T) {
	r, err := New(Config{Backoff: BackoffConstant, InitialDelay: 100 * time.Millisecond, Jitter: 0.5})
	require.NoError(t, err)

	for range 20 {
		d := r.Delay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"negative attempts", Config{Attempts: -1}},
		{"max below initial", Config{InitialDelay: time.Minute, MaxDelay: time.Second}},
		{"unknown backoff", Config{Backoff: "fibonacci"}},
		{"jitter too large", Config{Jitter: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			assert.Error(t, err)
		})
	}
}
