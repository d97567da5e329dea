package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ruslano69/listing-wrangler/pkg/codec"
	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
	"github.com/ruslano69/listing-wrangler/pkg/ingest"
)

// artifactMode - права итогового артефакта (CreateTemp создает файл с 0600)
const artifactMode = 0o644

// StagedCSV - CSV-артефакт, записанный во временный файл рядом с целевым.
// До Commit целевой путь не меняется.
type StagedCSV struct {
	path string
	tmp  string
}

// StageCSV записывает набор во временный файл: заголовок - колонки схемы,
// без идентификатора. Расширение целевого пути .gz или .zst включает сжатие.
func StageCSV(ds *table.Dataset, path string) (*StagedCSV, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Persistence(Stage, path, fmt.Errorf("failed to create directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, errs.Persistence(Stage, path, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(artifactMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, errs.Persistence(Stage, path, fmt.Errorf("failed to set file mode: %w", err))
	}

	if err := writeCSV(tmp, ds, codec.Detect(path)); err != nil {
		os.Remove(tmpName)
		return nil, errs.Persistence(Stage, path, err)
	}
	return &StagedCSV{path: path, tmp: tmpName}, nil
}

// TempPath возвращает путь к временному файлу
func (s *StagedCSV) TempPath() string {
	return s.tmp
}

// Path возвращает целевой путь артефакта
func (s *StagedCSV) Path() string {
	return s.path
}

// Commit переименовывает временный файл в целевой путь
func (s *StagedCSV) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		os.Remove(s.tmp)
		return errs.Persistence(Stage, s.path, fmt.Errorf("failed to rename temp file: %w", err))
	}
	return nil
}

// Discard удаляет временный файл; целевой путь остается нетронутым
func (s *StagedCSV) Discard() {
	os.Remove(s.tmp)
}

// WriteCSV записывает набор в CSV через временный файл и переименование,
// поэтому при ошибке частичный артефакт не появляется.
func WriteCSV(ds *table.Dataset, path string) error {
	staged, err := StageCSV(ds, path)
	if err != nil {
		return err
	}
	return staged.Commit()
}

func writeCSV(f *os.File, ds *table.Dataset, kind codec.Kind) error {
	w, err := codec.NewWriter(f, kind)
	if err != nil {
		f.Close()
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Schema.Names()); err != nil {
		w.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	rec := make([]string, len(ds.Schema.Fields))
	for i, row := range ds.Rows {
		for j, v := range row {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			w.Close()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		w.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}
	return w.Close()
}

// ReadCSV читает ранее записанный артефакт. У прочитанного набора нет индекса.
func ReadCSV(path string) (*table.Dataset, error) {
	rc, err := codec.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := ingest.ReadCSV(rc, filepath.Base(path), "")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ds, nil
}

// Exists проверяет наличие артефакта
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
