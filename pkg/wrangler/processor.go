// Package wrangler собирает этапы очистки в один запуск: чтение архивов,
// выбор колонок, фильтрация строк, пересчет цен, отсечение выбросов и сохранение.
package wrangler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruslano69/listing-wrangler/pkg/audit"
	"github.com/ruslano69/listing-wrangler/pkg/brokers"
	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
	"github.com/ruslano69/listing-wrangler/pkg/ingest"
	"github.com/ruslano69/listing-wrangler/pkg/metrics"
	"github.com/ruslano69/listing-wrangler/pkg/objstore"
	"github.com/ruslano69/listing-wrangler/pkg/output"
	"github.com/ruslano69/listing-wrangler/pkg/processors"
	"github.com/ruslano69/listing-wrangler/pkg/resultlog"
)

// Этапы, которые процессор добавляет к этапам ingest/processors/output
const (
	StageReuse    = "reuse"    // возврат ранее записанного артефакта
	StagePipeline = "pipeline" // итоговая запись запуска
)

// Stats представляет статистику одного запуска
type Stats struct {
	RunID      string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Reused     bool
	Files      []string
	RowsRead   int
	Duplicates int
	RowsOut    int
	Stages     []processors.StageStat
	Outputs    []output.Result
	Checksum   string
	Warnings   []error // Ошибки уведомлений, журнала и метрик; на результат не влияют
}

// ResultPublisher публикует итог запуска (resultlog.RedisPublisher)
type ResultPublisher interface {
	Publish(ctx context.Context, result resultlog.PipelineResult) error
	Close() error
}

// Processor выполняет один запуск по конфигурации
type Processor struct {
	config    *PipelineConfig
	logger    *slog.Logger
	factory   *processors.Factory
	remote    ingest.Source
	uploader  output.Uploader
	publisher brokers.Publisher
	results   ResultPublisher
	appenders []audit.Appender
	recorder  *metrics.Recorder
	runID     string
	stats     Stats
}

// NewProcessor создает процессор. Конфигурация не изменяется процессором.
func NewProcessor(config *PipelineConfig) *Processor {
	return &Processor{
		config:   config,
		logger:   slog.Default(),
		factory:  processors.NewFactory(),
		recorder: metrics.NewRecorder(),
	}
}

// WithLogger устанавливает логгер
func (p *Processor) WithLogger(logger *slog.Logger) *Processor {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithRunID задает идентификатор запуска (например, выданный оркестратором).
// Пустое значение - новый UUID на каждый запуск.
func (p *Processor) WithRunID(runID string) *Processor {
	p.runID = runID
	return p
}

// WithSource задает источник для шаблонов s3:// вместо создаваемого по input.s3
func (p *Processor) WithSource(source ingest.Source) *Processor {
	p.remote = source
	return p
}

// WithUploader задает uploader для output.s3
func (p *Processor) WithUploader(up output.Uploader) *Processor {
	p.uploader = up
	return p
}

// WithPublisher задает брокер уведомлений вместо создаваемого по notify
func (p *Processor) WithPublisher(pub brokers.Publisher) *Processor {
	p.publisher = pub
	return p
}

// WithResultPublisher задает публикацию итога вместо создаваемой по result_log
func (p *Processor) WithResultPublisher(rp ResultPublisher) *Processor {
	p.results = rp
	return p
}

// WithAppender добавляет приемник журнала
func (p *Processor) WithAppender(app audit.Appender) *Processor {
	if app != nil {
		p.appenders = append(p.appenders, app)
	}
	return p
}

// Stats возвращает статистику последнего запуска
func (p *Processor) Stats() Stats {
	return p.stats
}

// Metrics возвращает метрики последнего запуска
func (p *Processor) Metrics() *metrics.Recorder {
	return p.recorder
}

// Config возвращает конфигурацию процессора
func (p *Processor) Config() *PipelineConfig {
	return p.config
}

// Wrangle выполняет полный запуск и записывает результат
func (p *Processor) Wrangle(ctx context.Context) (*table.Dataset, error) {
	return p.Load(ctx, false)
}

// Load возвращает очищенный набор. При useExisting и наличии артефакта он
// читается с диска без пересчета, иначе выполняется полный запуск.
func (p *Processor) Load(ctx context.Context, useExisting bool) (*table.Dataset, error) {
	if p.config == nil {
		return nil, errs.Config("", errors.New("config is nil"))
	}

	journal, err := p.openJournal(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := journal.Close(); err != nil {
			p.logger.WarnContext(ctx, "failed to close audit journal", "error", err)
		}
	}()

	p.stats = Stats{RunID: journal.RunID(), StartTime: time.Now()}
	p.recorder = metrics.NewRecorder()

	var ds *table.Dataset
	if useExisting && output.Exists(p.config.Output.Path) {
		ds, err = p.reuse(ctx, journal)
	} else {
		if useExisting {
			p.logger.InfoContext(ctx, "no existing output, running pipeline", "path", p.config.Output.Path)
		}
		ds, err = p.run(ctx, journal)
	}

	p.stats.EndTime = time.Now()
	p.stats.Duration = p.stats.EndTime.Sub(p.stats.StartTime)
	if err == nil {
		p.stats.RowsOut = ds.Len()
		p.stats.Checksum = processors.DatasetChecksum(ds)
	}

	p.finish(ctx, journal, ds, err)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// reuse читает существующий артефакт
func (p *Processor) reuse(ctx context.Context, journal *audit.Journal) (*table.Dataset, error) {
	start := time.Now()
	path := p.config.Output.Path
	p.stats.Reused = true

	ds, err := output.ReadCSV(path)
	if err != nil {
		err = errs.InputRead(StageReuse, path, err)
		journal.Record(ctx, audit.NewEntry(StageReuse, audit.StatusFailure).WithFile(path).WithError(err))
		return nil, err
	}

	journal.Record(ctx, audit.NewEntry(StageReuse, audit.StatusSkipped).
		WithRows(ds.Len(), ds.Len()).
		WithDuration(time.Since(start)).
		WithFile(path))
	p.logger.InfoContext(ctx, "existing output reused", "path", path, "rows", ds.Len())
	return ds, nil
}

// run выполняет этапы по порядку. Ошибка любого этапа прерывает запуск до записи.
func (p *Processor) run(ctx context.Context, journal *audit.Journal) (*table.Dataset, error) {
	ds, err := p.ingest(ctx, journal)
	if err != nil {
		return nil, err
	}

	ds, err = p.transform(ctx, journal, ds)
	if err != nil {
		return nil, err
	}

	if err := p.persist(ctx, journal, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ingest читает входные архивы
func (p *Processor) ingest(ctx context.Context, journal *audit.Journal) (*table.Dataset, error) {
	in := p.config.Input
	ingestor := ingest.NewIngestor(in.IndexColumn).
		WithJobs(in.Jobs).
		WithLogger(p.logger)

	if objstore.IsURL(in.Glob) {
		source, err := p.remoteSource(ctx)
		if err != nil {
			return nil, err
		}
		ingestor.WithRemote(source)
	}

	start := time.Now()
	ds, st, err := ingestor.Ingest(ctx, in.Glob)
	if err != nil {
		journal.Record(ctx, audit.NewEntry(ingest.Stage, audit.StatusFailure).
			WithDuration(time.Since(start)).
			WithFile(in.Glob).
			WithError(err))
		return nil, err
	}

	p.stats.Files = st.Files
	p.stats.RowsRead = st.RowsRead
	p.stats.Duplicates = st.Duplicates
	p.observe(ctx, journal, processors.StageStat{
		Name:     ingest.Stage,
		RowsIn:   st.RowsRead,
		RowsOut:  ds.Len(),
		Duration: st.Duration,
	}, ingest.Stage, map[string]any{"files": len(st.Files), "duplicates": st.Duplicates})
	return ds, nil
}

func (p *Processor) remoteSource(ctx context.Context) (ingest.Source, error) {
	if p.remote != nil {
		return p.remote, nil
	}
	var cfg objstore.Config
	if p.config.Input.S3 != nil {
		cfg = *p.config.Input.S3
	}
	client, err := objstore.NewClient(ctx, cfg)
	if err != nil {
		return nil, errs.InputRead(ingest.Stage, p.config.Input.Glob, fmt.Errorf("failed to create s3 client: %w", err))
	}
	p.remote = ingest.NewS3Source(client)
	return p.remote, nil
}

// Chain собирает цепочку процессоров: выбор колонок, фильтр строк,
// пересчет цен, отсечение выбросов
func (p *Processor) Chain() (*processors.Chain, error) {
	return p.factory.WithLogger(p.logger).CreateChain(ChainConfig(p.config))
}

// ChainConfig описывает цепочку процессоров для конфигурации
func ChainConfig(c *PipelineConfig) []processors.Config {
	lower, upper := c.Outliers.Bounds()
	return []processors.Config{
		{Type: "column_selector", Params: map[string]any{"columns": c.Columns.Keep}},
		{Type: "category_filter", Params: map[string]any{
			"column":   c.Columns.Category,
			"excluded": c.DropRows.Categories,
		}},
		{Type: "required_filter", Params: map[string]any{"columns": c.DropRows.Required}},
		{Type: "key_deduplicator", Params: map[string]any{"columns": c.DropRows.Duplicates}},
		{Type: "currency_normalizer", Params: map[string]any{
			"price":          c.Columns.Price,
			"currency":       c.Columns.Currency,
			"output":         c.Columns.NormalizedPrice,
			"unknown_policy": c.Currency.UnknownPolicy,
		}},
		{Type: "outlier_trimmer", Params: map[string]any{
			"column": c.Columns.NormalizedPrice,
			"lower":  lower,
			"upper":  upper,
		}},
	}
}

// transform прогоняет набор через цепочку процессоров
func (p *Processor) transform(ctx context.Context, journal *audit.Journal, ds *table.Dataset) (*table.Dataset, error) {
	chain, err := p.Chain()
	if err != nil {
		return nil, errs.Config("processors", err)
	}

	chain.WithObserver(func(stat processors.StageStat) {
		p.observe(ctx, journal, stat, stageOf(stat.Name), map[string]any{"processor": stat.Name})
	})

	out, err := chain.Process(ctx, ds)
	if err != nil {
		stage := errs.StageOf(err)
		if stage == "" {
			stage = "transform"
		}
		journal.Record(ctx, audit.NewEntry(stage, audit.StatusFailure).WithError(err))
		return nil, err
	}
	return out, nil
}

// persist записывает результат во все настроенные приемники
func (p *Processor) persist(ctx context.Context, journal *audit.Journal, ds *table.Dataset) error {
	exporter := output.NewExporter(p.config.Output).WithLogger(p.logger)
	if p.uploader != nil {
		exporter.WithUploader(p.uploader)
	}

	start := time.Now()
	results, err := exporter.Export(ctx, ds)
	p.stats.Outputs = results
	if err != nil {
		journal.Record(ctx, audit.NewEntry(output.Stage, audit.StatusFailure).
			WithDuration(time.Since(start)).
			WithFile(p.config.Output.Path).
			WithError(err))
		return err
	}

	sinks := make([]string, len(results))
	for i, r := range results {
		sinks[i] = r.Sink
	}
	p.observe(ctx, journal, processors.StageStat{
		Name:     output.Stage,
		RowsIn:   ds.Len(),
		RowsOut:  ds.Len(),
		Duration: time.Since(start),
	}, output.Stage, map[string]any{"path": p.config.Output.Path, "sinks": sinks})
	return nil
}

// observe фиксирует успешный этап в статистике, журнале и метриках
func (p *Processor) observe(ctx context.Context, journal *audit.Journal, stat processors.StageStat, stage string, meta map[string]any) {
	p.stats.Stages = append(p.stats.Stages, stat)
	p.recorder.ObserveStage(stat.Name, stat.RowsIn, stat.RowsOut, stat.Duration)

	entry := audit.NewEntry(stage, audit.StatusSuccess).
		WithRows(stat.RowsIn, stat.RowsOut).
		WithDuration(stat.Duration)
	for k, v := range meta {
		entry.WithMetadata(k, v)
	}
	journal.Record(ctx, entry)
}

// stageOf сопоставляет процессор этапу пайплайна
func stageOf(processor string) string {
	switch processor {
	case "column_selector":
		return processors.StageSelect
	case "category_filter", "required_filter", "key_deduplicator":
		return processors.StageFilter
	case "currency_normalizer":
		return processors.StageNormalize
	case "outlier_trimmer":
		return processors.StageTrim
	default:
		return processor
	}
}
