// Package codec определяет сжатие файла по расширению и открывает его содержимое.
//
// Поддерживаемые форматы:
//   - .zip  - первый CSV-файл архива
//   - .gz   - gzip
//   - .zst  - zstd
//   - .knz  - kanzi (только чтение)
//   - иначе - файл без сжатия
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	kio "github.com/flanglet/kanzi-go/v2/io"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Kind - вид сжатия
type Kind string

const (
	None  Kind = "none"
	Zip   Kind = "zip"
	Gzip  Kind = "gzip"
	Zstd  Kind = "zstd"
	Kanzi Kind = "kanzi"
)

// Detect определяет вид сжатия по расширению имени файла
func Detect(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return Zip
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".knz":
		return Kanzi
	default:
		return None
	}
}

// Open открывает файл и возвращает поток распакованного содержимого
func Open(path string) (io.ReadCloser, error) {
	kind := Detect(path)
	if kind == Zip {
		return openZip(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case Gzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil

	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := dec.IOReadCloser()
		return &stackCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil

	case Kanzi:
		kr, err := kio.NewReader(f, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("kanzi: %w", err)
		}
		return &stackCloser{Reader: kr, closers: []io.Closer{kr, f}}, nil

	default:
		return f, nil
	}
}

// openZip открывает первый CSV-файл архива (или первый файл, если CSV нет)
func openZip(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if entry == nil {
			entry = f
		}
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			entry = f
			break
		}
	}
	if entry == nil {
		zr.Close()
		return nil, fmt.Errorf("zip: archive %s is empty", filepath.Base(path))
	}

	rc, err := entry.Open()
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("zip: open %s: %w", entry.Name, err)
	}
	return &stackCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
}

// Create создает файл с потоком сжатия по расширению.
// Поддерживаются gzip, zstd и файлы без сжатия.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, Detect(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter оборачивает файл потоком сжатия. Close закрывает и поток, и файл.
func NewWriter(f *os.File, kind Kind) (io.WriteCloser, error) {
	switch kind {
	case None:
		return f, nil
	case Gzip:
		gz := gzip.NewWriter(f)
		return &stackWriter{Writer: gz, closers: []io.Closer{gz, f}}, nil
	case Zstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stackWriter{Writer: enc, closers: []io.Closer{enc, f}}, nil
	default:
		return nil, fmt.Errorf("compression %s is not supported for writing", kind)
	}
}

// stackCloser закрывает цепочку ридеров от внешнего к внутреннему
type stackCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackCloser) Close() error {
	return closeAll(s.closers)
}

type stackWriter struct {
	io.Writer
	closers []io.Closer
}

func (s *stackWriter) Close() error {
	return closeAll(s.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
