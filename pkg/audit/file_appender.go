package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
)

// FileAppenderConfig - параметры журнала в файле
type FileAppenderConfig struct {
	FilePath   string
	MaxSize    int64 // Мегабайт до ротации (0 - 100)
	MaxBackups int   // Сжатых архивов path.N.gz (0 - 5)
	Level      Level
}

// FileAppender дописывает записи в файл JSON lines.
// Когда файл превышает лимит, он сжимается в path.1.gz, а старые архивы сдвигаются.
type FileAppender struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	size  int64
	limit int64
	keep  int
	level Level
}

// NewFileAppender открывает (или создает) файл журнала для дозаписи
func NewFileAppender(config FileAppenderConfig) (*FileAppender, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	limit := config.MaxSize
	if limit <= 0 {
		limit = defaultMaxSizeMB
	}
	keep := config.MaxBackups
	if keep <= 0 {
		keep = defaultMaxBackups
	}

	fa := &FileAppender{
		path:  config.FilePath,
		limit: limit << 20,
		keep:  keep,
		level: config.Level,
	}
	if err := fa.open(); err != nil {
		return nil, err
	}
	return fa, nil
}

func (fa *FileAppender) open() error {
	file, err := os.OpenFile(fa.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat audit file: %w", err)
	}
	fa.file = file
	fa.size = info.Size()
	return nil
}

// Append дописывает запись одной строкой
func (fa *FileAppender) Append(_ context.Context, entry *Entry) error {
	data, err := entry.FilterByLevel(fa.level).ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	data = append(data, '\n')

	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file == nil {
		return fmt.Errorf("audit file %s is closed", fa.path)
	}
	if fa.size > 0 && fa.size+int64(len(data)) > fa.limit {
		if err := fa.rotate(); err != nil {
			return fmt.Errorf("failed to rotate audit file: %w", err)
		}
	}

	n, err := fa.file.Write(data)
	fa.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

func (fa *FileAppender) backup(n int) string {
	return fmt.Sprintf("%s.%d.gz", fa.path, n)
}

// rotate сжимает текущий файл в path.1.gz и начинает новый
func (fa *FileAppender) rotate() error {
	if err := fa.file.Close(); err != nil {
		return err
	}
	fa.file = nil

	os.Remove(fa.backup(fa.keep))
	for i := fa.keep - 1; i > 0; i-- {
		if _, err := os.Stat(fa.backup(i)); err == nil {
			if err := os.Rename(fa.backup(i), fa.backup(i+1)); err != nil {
				return err
			}
		}
	}

	if err := compressFile(fa.path, fa.backup(1)); err != nil {
		return err
	}
	if err := os.Truncate(fa.path, 0); err != nil {
		return err
	}
	return fa.open()
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Close закрывает файл; повторный вызов безопасен
func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	if fa.file == nil {
		return nil
	}
	err := fa.file.Close()
	fa.file = nil
	return err
}

// FilePath возвращает путь к текущему файлу журнала
func (fa *FileAppender) FilePath() string {
	return fa.path
}
