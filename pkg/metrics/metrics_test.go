package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage("filter", 100, 80, 2*time.Second)
	r.ObserveRun(true, 80, 5*time.Second, time.Unix(1700000000, 0))

	assert.Equal(t, 100.0, testutil.ToFloat64(r.stageRows.WithLabelValues("filter", "in")))
	assert.Equal(t, 80.0, testutil.ToFloat64(r.stageRows.WithLabelValues("filter", "out")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.stageDuration.WithLabelValues("filter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runSuccess))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastSuccess))

	r.ObserveRun(false, 0, time.Second, time.Now())
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runSuccess))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastSuccess), "failure keeps last success time")
}

func TestRecorder_Push(t *testing.T) {
	var method, path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method = req.Method
		path = req.URL.Path
		body, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.ObserveStage("ingest", 0, 8, time.Second)

	require.NoError(t, r.Push(context.Background(), Config{Pushgateway: srv.URL}, "listings"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/wrangler/pipeline/listings", path)
	assert.Contains(t, string(body), "wrangler_stage_rows")
}

func TestRecorder_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRecorder().Push(context.Background(), Config{Pushgateway: srv.URL, Job: "batch"}, "listings")
	assert.Error(t, err)
}
