package resultlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	setErr    error
	keys      map[string][]byte
	ttls      map[string]time.Duration
	published map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		keys:      map[string][]byte{},
		ttls:      map[string]time.Duration{},
		published: map[string][]byte{},
	}
}

func (f *fakeClient) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.keys[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.published[channel] = message.([]byte)
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Close() error { return nil }

func TestPublish_Success(t *testing.T) {
	client := newFakeClient()
	pub := NewPublisher(client, time.Hour)

	result := PipelineResult{
		Pipeline: "listings",
		RunID:    "run-1",
		RowsRead: 10,
		RowsOut:  7,
		Stages:   []StageResult{{Stage: "filter", RowsIn: 10, RowsOut: 7}},
	}
	result.SetError("", nil)
	require.NoError(t, pub.Publish(context.Background(), result))

	state, ok := client.keys["wrangler:pipeline:listings:state"]
	require.True(t, ok)
	assert.Equal(t, time.Hour, client.ttls["wrangler:pipeline:listings:state"])
	assert.Equal(t, state, client.published["wrangler:pipeline:listings"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(state, &decoded))
	assert.Equal(t, "success", decoded["status"])
	assert.NotContains(t, decoded, "error")
}

func TestPublish_Failure(t *testing.T) {
	client := newFakeClient()
	result := PipelineResult{Pipeline: "listings"}
	result.SetError("normalize", errors.New("unknown currency"))

	require.NoError(t, NewPublisher(client, 0).Publish(context.Background(), result))

	var decoded PipelineResult
	require.NoError(t, json.Unmarshal(client.keys[StateKey("listings")], &decoded))
	assert.Equal(t, "failed", decoded.Status)
	assert.Equal(t, "normalize", decoded.FailedAt)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "unknown currency", *decoded.Error)
}

func TestPublish_SetError(t *testing.T) {
	client := newFakeClient()
	client.setErr = errors.New("connection refused")

	err := NewPublisher(client, 0).Publish(context.Background(), PipelineResult{Pipeline: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis SET failed")
	assert.Empty(t, client.published)
}
