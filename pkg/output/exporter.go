// Package output сохраняет очищенный набор: основной CSV-артефакт и
// дополнительные приемники (XLSX, таблица БД, объектное хранилище).
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// Stage - имя этапа в контексте ошибок
const Stage = "persist"

// Config содержит конфигурацию сохранения результата
type Config struct {
	Path     string      `yaml:"path" validate:"required"`
	Reuse    bool        `yaml:"reuse,omitempty"` // вернуть существующий артефакт вместо пересчета
	XLSX     *XLSXConfig `yaml:"xlsx,omitempty" validate:"omitempty"`
	Database *SQLConfig  `yaml:"database,omitempty" validate:"omitempty"`
	S3       *S3Config   `yaml:"s3,omitempty" validate:"omitempty"`
}

// Result представляет результат записи в один приемник
type Result struct {
	Sink        string
	Destination string
	Rows        int
	Duration    time.Duration
}

// Exporter отвечает за сохранение результата
type Exporter struct {
	config   Config
	uploader Uploader
	logger   *slog.Logger
}

// NewExporter создает новый экспортер
func NewExporter(config Config) *Exporter {
	return &Exporter{
		config: config,
		logger: slog.Default(),
	}
}

// WithUploader задает uploader для S3 (иначе создается по конфигурации)
func (e *Exporter) WithUploader(up Uploader) *Exporter {
	e.uploader = up
	return e
}

// WithLogger устанавливает логгер
func (e *Exporter) WithLogger(logger *slog.Logger) *Exporter {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Export записывает CSV-артефакт во временный файл, затем дополнительные приемники.
// Артефакт появляется по целевому пути только после успеха всех приемников;
// ошибка любого из них возвращается как ошибка сохранения.
func (e *Exporter) Export(ctx context.Context, ds *table.Dataset) ([]Result, error) {
	if ds == nil {
		return nil, errs.Persistence(Stage, e.config.Path, errors.New("dataset is nil"))
	}

	var results []Result
	run := func(sink, dest string, fn func() (string, error)) error {
		start := time.Now()
		actual, err := fn()
		if err != nil {
			return err
		}
		if actual != "" {
			dest = actual
		}
		r := Result{Sink: sink, Destination: dest, Rows: ds.Len(), Duration: time.Since(start)}
		results = append(results, r)
		e.logger.InfoContext(ctx, "dataset saved",
			"sink", sink, "destination", dest, "rows", r.Rows, "duration", r.Duration)
		return nil
	}

	var staged *StagedCSV
	if err := run("csv", e.config.Path, func() (string, error) {
		var err error
		staged, err = StageCSV(ds, e.config.Path)
		return "", err
	}); err != nil {
		return nil, err
	}

	if err := e.sinks(ctx, ds, staged, run); err != nil {
		staged.Discard()
		return nil, err
	}

	if err := staged.Commit(); err != nil {
		return nil, err
	}
	return results, nil
}

// sinks выполняет дополнительные приемники; S3 выгружает еще не переименованный файл
func (e *Exporter) sinks(ctx context.Context, ds *table.Dataset, staged *StagedCSV,
	run func(sink, dest string, fn func() (string, error)) error) error {
	if x := e.config.XLSX; x != nil {
		if err := run("xlsx", x.Path, func() (string, error) {
			return "", WriteXLSX(ds, x.Path, x.Sheet)
		}); err != nil {
			return err
		}
	}

	if db := e.config.Database; db != nil {
		if err := run("database", db.Driver+":"+db.Table, func() (string, error) {
			_, err := WriteSQL(ctx, ds, *db)
			return "", err
		}); err != nil {
			return err
		}
	}

	if s := e.config.S3; s != nil {
		if err := run("s3", s.URL, func() (string, error) {
			up, err := e.s3Uploader(ctx)
			if err != nil {
				return "", err
			}
			return UploadFileAs(ctx, up, staged.TempPath(), filepath.Base(staged.Path()), s.URL)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) s3Uploader(ctx context.Context) (Uploader, error) {
	if e.uploader != nil {
		return e.uploader, nil
	}
	up, err := NewS3Uploader(ctx, e.config.S3.Config)
	if err != nil {
		return nil, errs.Persistence(Stage, e.config.S3.URL, fmt.Errorf("failed to create s3 client: %w", err))
	}
	e.uploader = up
	return up, nil
}
