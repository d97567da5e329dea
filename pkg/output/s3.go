package output

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/objstore"
)

// S3Config - выгрузка записанного артефакта в объектное хранилище
type S3Config struct {
	// URL - s3://bucket/key; если key оканчивается на "/", добавляется имя файла
	URL             string `yaml:"url" validate:"required,startswith=s3://"`
	objstore.Config `yaml:",inline"`
}

// Uploader - подмножество manager.Uploader
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewS3Uploader создает uploader с поддержкой multipart для больших файлов
func NewS3Uploader(ctx context.Context, cfg objstore.Config) (Uploader, error) {
	client, err := objstore.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return manager.NewUploader(client), nil
}

// UploadFile выгружает локальный файл и возвращает адрес объекта
func UploadFile(ctx context.Context, up Uploader, localPath, url string) (string, error) {
	return UploadFileAs(ctx, up, localPath, filepath.Base(localPath), url)
}

// UploadFileAs выгружает локальный файл под именем name, если url указывает на префикс
func UploadFileAs(ctx context.Context, up Uploader, localPath, name, url string) (string, error) {
	bucket, key, err := objstore.ParseURL(url)
	if err != nil {
		return "", errs.Persistence(Stage, url, err)
	}
	if key == "" || key[len(key)-1] == '/' {
		key = path.Join(key, name)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", errs.Persistence(Stage, localPath, err)
	}
	defer f.Close()

	dest := objstore.URL(bucket, key)
	if _, err := up.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return "", errs.Persistence(Stage, dest, fmt.Errorf("failed to upload: %w", err))
	}
	return dest, nil
}
