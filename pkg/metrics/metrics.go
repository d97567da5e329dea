// Package metrics собирает показатели запуска пайплайна и отправляет их в Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Config - параметры Pushgateway
type Config struct {
	Pushgateway string `yaml:"pushgateway" validate:"required,url"`
	Job         string `yaml:"job,omitempty"`
}

// Recorder хранит метрики одного запуска в собственном registry
type Recorder struct {
	registry *prometheus.Registry

	stageRows     *prometheus.GaugeVec
	stageDuration *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	runRows       prometheus.Gauge
	runSuccess    prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// NewRecorder создает recorder с зарегистрированными метриками
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		// stageRows - количество строк на входе и выходе каждого этапа
		stageRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wrangler_stage_rows",
				Help: "Rows entering and leaving each pipeline stage",
			},
			[]string{"stage", "direction"},
		),
		stageDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wrangler_stage_duration_seconds",
				Help: "Duration of each pipeline stage",
			},
			[]string{"stage"},
		),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wrangler_run_duration_seconds",
			Help: "Duration of the last pipeline run",
		}),
		runRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wrangler_run_rows",
			Help: "Rows in the dataset produced by the last run",
		}),
		runSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wrangler_run_success",
			Help: "1 if the last run succeeded, 0 otherwise",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wrangler_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
}

// ObserveStage записывает показатели этапа
func (r *Recorder) ObserveStage(stage string, rowsIn, rowsOut int, d time.Duration) {
	r.stageRows.WithLabelValues(stage, "in").Set(float64(rowsIn))
	r.stageRows.WithLabelValues(stage, "out").Set(float64(rowsOut))
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// ObserveRun записывает итог запуска
func (r *Recorder) ObserveRun(success bool, rows int, d time.Duration, finished time.Time) {
	r.runDuration.Set(d.Seconds())
	r.runRows.Set(float64(rows))
	if success {
		r.runSuccess.Set(1)
		r.lastSuccess.Set(float64(finished.Unix()))
	} else {
		r.runSuccess.Set(0)
	}
}

// Registry возвращает registry с метриками
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push отправляет метрики в Pushgateway с группировкой по имени пайплайна
func (r *Recorder) Push(ctx context.Context, cfg Config, pipeline string) error {
	job := cfg.Job
	if job == "" {
		job = "wrangler"
	}
	err := push.New(cfg.Pushgateway, job).
		Gatherer(r.registry).
		Grouping("pipeline", pipeline).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
