package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ruslano69/listing-wrangler/pkg/objstore"
)

// Source находит входные файлы по шаблону и делает их доступными локально
type Source interface {
	// Resolve возвращает отсортированный список файлов по шаблону
	Resolve(ctx context.Context, pattern string) ([]string, error)

	// Fetch возвращает локальный путь к файлу и функцию очистки
	Fetch(ctx context.Context, name string) (localPath string, cleanup func(), err error)
}

// LocalSource - файлы локальной файловой системы
type LocalSource struct{}

// Resolve реализует Source через filepath.Glob
func (LocalSource) Resolve(_ context.Context, pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Fetch реализует Source: локальный файл уже доступен
func (LocalSource) Fetch(_ context.Context, name string) (string, func(), error) {
	return name, func() {}, nil
}

// S3API - подмножество S3-клиента, нужное источнику
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source - файлы в объектном хранилище. Шаблон вида s3://bucket/raw/*.zip,
// метасимволы path.Match допускаются только в ключе.
type S3Source struct {
	client  S3API
	tempDir string
}

// NewS3Source создает источник поверх S3-клиента
func NewS3Source(client S3API) *S3Source {
	return &S3Source{client: client}
}

// WithTempDir задает директорию для скачанных файлов
func (s *S3Source) WithTempDir(dir string) *S3Source {
	s.tempDir = dir
	return s
}

// Resolve реализует Source: листинг по префиксу до первого метасимвола и фильтр path.Match
func (s *S3Source) Resolve(ctx context.Context, pattern string) ([]string, error) {
	bucket, keyPattern, err := objstore.ParseURL(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(keyPattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	prefix := keyPattern
	if i := strings.IndexAny(keyPattern, `*?[\`); i >= 0 {
		prefix = keyPattern[:i]
	}

	var matches []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if ok, _ := path.Match(keyPattern, key); ok {
				matches = append(matches, objstore.URL(bucket, key))
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// Fetch реализует Source: объект скачивается во временный файл с тем же расширением
func (s *S3Source) Fetch(ctx context.Context, name string) (string, func(), error) {
	bucket, key, err := objstore.ParseURL(name)
	if err != nil {
		return "", nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer out.Body.Close()

	f, err := os.CreateTemp(s.tempDir, "wrangler-*-"+path.Base(key))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
