// Package ingest находит входные CSV-архивы, читает их параллельно и собирает
// единый набор данных без точных дубликатов.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/ruslano69/listing-wrangler/pkg/codec"
	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
	"github.com/ruslano69/listing-wrangler/pkg/objstore"
)

// Stage - имя этапа в контексте ошибок
const Stage = "ingest"

// Stats - статистика чтения
type Stats struct {
	Files      []string
	RowsRead   int
	Duplicates int
	Duration   time.Duration
}

// Ingestor читает файлы по шаблону и объединяет их
type Ingestor struct {
	indexColumn string
	local       Source
	remote      Source
	jobs        int
	logger      *slog.Logger
}

// NewIngestor создает ingestor для локальных файлов
func NewIngestor(indexColumn string) *Ingestor {
	return &Ingestor{
		indexColumn: indexColumn,
		local:       LocalSource{},
		jobs:        runtime.NumCPU(),
		logger:      slog.Default(),
	}
}

// WithRemote подключает источник для шаблонов s3://
func (in *Ingestor) WithRemote(source Source) *Ingestor {
	in.remote = source
	return in
}

// WithJobs ограничивает число файлов, читаемых одновременно
func (in *Ingestor) WithJobs(n int) *Ingestor {
	if n > 0 {
		in.jobs = n
	}
	return in
}

// WithLogger устанавливает логгер
func (in *Ingestor) WithLogger(logger *slog.Logger) *Ingestor {
	if logger != nil {
		in.logger = logger
	}
	return in
}

// Ingest читает все файлы по шаблону location и возвращает объединенный набор.
// Порядок строк: порядок файлов в отсортированном списке, затем порядок строк в файле.
// Любая ошибка чтения прерывает загрузку целиком.
func (in *Ingestor) Ingest(ctx context.Context, location string) (*table.Dataset, Stats, error) {
	start := time.Now()
	var stats Stats

	source := in.local
	if objstore.IsURL(location) {
		if in.remote == nil {
			return nil, stats, errs.InputRead(Stage, location, errors.New("s3 source is not configured"))
		}
		source = in.remote
	}

	files, err := source.Resolve(ctx, location)
	if err != nil {
		return nil, stats, errs.InputRead(Stage, location, err)
	}
	if len(files) == 0 {
		return nil, stats, errs.InputRead(Stage, location, errors.New("no files match pattern"))
	}
	stats.Files = files

	parts := make([]*table.Dataset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.jobs)
	for i, file := range files {
		g.Go(func() error {
			ds, err := in.readFile(gctx, source, file)
			if err != nil {
				return errs.InputRead(Stage, file, err)
			}
			parts[i] = ds
			in.logger.DebugContext(gctx, "input file read",
				"file", file, "rows", ds.Len(), "columns", len(ds.Schema.Fields))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	combined := Concat(parts...)
	stats.RowsRead = combined.Len()

	deduped, dropped := DropDuplicates(combined)
	stats.Duplicates = dropped
	stats.Duration = time.Since(start)

	in.logger.InfoContext(ctx, "input ingested",
		"files", len(files),
		"rows_read", stats.RowsRead,
		"duplicates", dropped,
		"rows", deduped.Len(),
		"duration", stats.Duration)

	return deduped, stats, nil
}

func (in *Ingestor) readFile(ctx context.Context, source Source, file string) (*table.Dataset, error) {
	local, cleanup, err := source.Fetch(ctx, file)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rc, err := codec.Open(local)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ReadCSV(rc, filepath.Base(file), in.indexColumn)
}

// Concat объединяет наборы построчно. Схема - объединение колонок по имени
// в порядке первого появления; отсутствующие ячейки пустые. Типы выводятся заново.
func Concat(parts ...*table.Dataset) *table.Dataset {
	out := table.New("")
	total := 0
	for _, p := range parts {
		if p == nil {
			continue
		}
		if out.IndexName == "" {
			out.IndexName = p.IndexName
		}
		for _, f := range p.Schema.Fields {
			if !out.Schema.Has(f.Name) {
				out.Schema.Fields = append(out.Schema.Fields, table.Field{Name: f.Name})
			}
		}
		total += p.Len()
	}

	out.Rows = make([]table.Row, 0, total)
	if out.IndexName != "" {
		out.Index = make([]string, 0, total)
	}

	width := len(out.Schema.Fields)
	for _, p := range parts {
		if p == nil {
			continue
		}
		mapping := make([]int, len(p.Schema.Fields))
		for i, f := range p.Schema.Fields {
			mapping[i] = out.Schema.Index(f.Name)
		}
		for r, row := range p.Rows {
			newRow := make(table.Row, width)
			for c := range newRow {
				newRow[c] = table.Missing()
			}
			for i, pos := range mapping {
				newRow[pos] = row[i]
			}
			var id string
			if r < len(p.Index) {
				id = p.Index[r]
			}
			out.Append(id, newRow)
		}
	}

	out.InferTypes()
	return out
}

// DropDuplicates удаляет строки, полностью совпадающие с более ранней строкой
// по всем колонкам данных (идентификатор не сравнивается). Первое вхождение остается.
// Строки группируются по xxh3 канонического ключа и сравниваются целиком,
// поэтому коллизия хеша не удаляет различные строки.
func DropDuplicates(ds *table.Dataset) (*table.Dataset, int) {
	buckets := make(map[uint64][]int, ds.Len())
	out := ds.Filter(func(i int, row table.Row) bool {
		h := xxh3.HashString(ds.RowKey(row, nil))
		for _, j := range buckets[h] {
			if ds.Equal(ds.Rows[j], row) {
				return false
			}
		}
		buckets[h] = append(buckets[h], i)
		return true
	})
	return out, ds.Len() - out.Len()
}

// String для отладки
func (s Stats) String() string {
	return fmt.Sprintf("files=%d rows_read=%d duplicates=%d", len(s.Files), s.RowsRead, s.Duplicates)
}
