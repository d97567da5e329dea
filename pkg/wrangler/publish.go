package wrangler

import (
	"context"
	"fmt"

	"github.com/ruslano69/listing-wrangler/pkg/audit"
	"github.com/ruslano69/listing-wrangler/pkg/brokers"
	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
	"github.com/ruslano69/listing-wrangler/pkg/resultlog"
	"github.com/ruslano69/listing-wrangler/pkg/retry"
)

// openJournal создает журнал запуска: лог всегда, файл и БД по конфигурации
func (p *Processor) openJournal(ctx context.Context) (*audit.Journal, error) {
	level, err := audit.ParseLevel(p.config.Audit.Level)
	if err != nil {
		return nil, errs.Config("audit.level", err)
	}

	appenders := []audit.Appender{audit.NewSlogAppender(p.logger)}
	closeAll := func() {
		for _, app := range appenders {
			app.Close()
		}
	}

	if path := p.config.Audit.Path; path != "" {
		fa, err := audit.NewFileAppender(audit.FileAppenderConfig{
			FilePath:   path,
			MaxSize:    p.config.Audit.MaxSizeMB,
			MaxBackups: p.config.Audit.MaxBackups,
			Level:      level,
		})
		if err != nil {
			closeAll()
			return nil, errs.Config("audit.path", err)
		}
		appenders = append(appenders, fa)
	}

	if db := p.config.Audit.Database; db != nil {
		da, err := audit.OpenDatabaseAppender(ctx, db.Driver, db.DSN, db.Table, level)
		if err != nil {
			closeAll()
			return nil, errs.Config("audit.database", err)
		}
		appenders = append(appenders, da)
	}

	appenders = append(appenders, p.appenders...)

	journal := audit.NewJournal(p.config.Name, appenders...).
		WithRunID(p.runID).
		OnError(func(err error) {
			p.warn(ctx, "audit", err)
		})
	return journal, nil
}

// finish публикует итог запуска: метрики, состояние в Redis, уведомление.
// Ошибки здесь только логируются: артефакт к этому моменту уже записан.
func (p *Processor) finish(ctx context.Context, journal *audit.Journal, ds *table.Dataset, runErr error) {
	success := runErr == nil
	p.recorder.ObserveRun(success, p.stats.RowsOut, p.stats.Duration, p.stats.EndTime)

	summary := audit.NewEntry(StagePipeline, audit.StatusSuccess).
		WithRows(p.stats.RowsRead, p.stats.RowsOut).
		WithDuration(p.stats.Duration).
		WithError(runErr)
	if p.stats.Checksum != "" {
		summary.WithMetadata("checksum", p.stats.Checksum)
	}
	journal.Record(ctx, summary)

	if success {
		p.logger.InfoContext(ctx, "pipeline finished",
			"pipeline", p.config.Name,
			"run_id", p.stats.RunID,
			"reused", p.stats.Reused,
			"rows_read", p.stats.RowsRead,
			"rows", p.stats.RowsOut,
			"duration", p.stats.Duration)
	} else {
		p.logger.ErrorContext(ctx, "pipeline failed",
			"pipeline", p.config.Name,
			"run_id", p.stats.RunID,
			"stage", errs.StageOf(runErr),
			"error", runErr)
	}

	if m := p.config.Metrics; m != nil {
		p.deliver(ctx, "metrics", func(ctx context.Context) error {
			return p.recorder.Push(ctx, *m, p.config.Name)
		})
	}

	p.publishResult(ctx, runErr)

	if success {
		p.notify(ctx, ds)
	}
}

// Result возвращает итог последнего запуска в формате журнала результатов
func (p *Processor) Result(runErr error) resultlog.PipelineResult {
	st := p.stats
	result := resultlog.PipelineResult{
		Pipeline:   p.config.Name,
		RunID:      st.RunID,
		Reused:     st.Reused,
		StartedAt:  st.StartTime,
		FinishedAt: st.EndTime,
		DurationMs: st.Duration.Milliseconds(),
		RowsRead:   st.RowsRead,
		RowsOut:    st.RowsOut,
		Checksum:   st.Checksum,
	}
	if runErr == nil {
		result.Output = p.config.Output.Path
	}
	for _, s := range st.Stages {
		result.Stages = append(result.Stages, resultlog.StageResult{
			Stage:      s.Name,
			RowsIn:     s.RowsIn,
			RowsOut:    s.RowsOut,
			DurationMs: s.Duration.Milliseconds(),
		})
	}
	result.SetError(errs.StageOf(runErr), runErr)
	return result
}

func (p *Processor) publishResult(ctx context.Context, runErr error) {
	rp := p.results
	if rp == nil {
		if p.config.ResultLog == nil {
			return
		}
		rp = resultlog.NewRedisPublisher(*p.config.ResultLog)
		defer rp.Close()
	}
	result := p.Result(runErr)
	p.deliver(ctx, "result_log", func(ctx context.Context) error {
		return rp.Publish(ctx, result)
	})
}

func (p *Processor) notify(ctx context.Context, ds *table.Dataset) {
	if p.publisher == nil && p.config.Notify == nil {
		return
	}

	msg := brokers.DatasetReady{
		RunID:      p.stats.RunID,
		Pipeline:   p.config.Name,
		Path:       p.config.Output.Path,
		Rows:       ds.Len(),
		Columns:    ds.Schema.Names(),
		Checksum:   p.stats.Checksum,
		Reused:     p.stats.Reused,
		FinishedAt: p.stats.EndTime,
	}
	p.deliver(ctx, "notify", func(ctx context.Context) error {
		pub := p.publisher
		if pub == nil {
			var err error
			if pub, err = brokers.New(*p.config.Notify); err != nil {
				return fmt.Errorf("failed to create publisher: %w", err)
			}
		}
		return brokers.Notify(ctx, pub, msg)
	})
}

// deliver выполняет доставку с повторами; итоговая ошибка становится предупреждением
func (p *Processor) deliver(ctx context.Context, target string, fn retry.Func) {
	r, err := retry.New(p.config.Retry)
	if err != nil {
		p.warn(ctx, target, err)
		return
	}
	if err := r.WithLogger(p.logger).Do(ctx, target, fn); err != nil {
		p.warn(ctx, target, err)
	}
}

func (p *Processor) warn(ctx context.Context, component string, err error) {
	p.stats.Warnings = append(p.stats.Warnings, fmt.Errorf("%s: %w", component, err))
	p.logger.WarnContext(ctx, "side effect failed", "component", component, "error", err)
}
