// Package objstore создает S3-клиент и разбирает адреса вида s3://bucket/key.
// Используется источником входных архивов и выгрузкой результата.
package objstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme - префикс адресов объектного хранилища
const Scheme = "s3://"

// Config содержит параметры подключения к S3-совместимому хранилищу
type Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint,omitempty"` // MinIO / LocalStack
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// IsURL проверяет, что location указывает на объектное хранилище
func IsURL(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseURL разбирает s3://bucket/key на bucket и key
func ParseURL(location string) (bucket, key string, err error) {
	if !IsURL(location) {
		return "", "", fmt.Errorf("not an s3 url: %q", location)
	}
	rest := strings.TrimPrefix(location, Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 url without bucket: %q", location)
	}
	return bucket, key, nil
}

// URL собирает адрес объекта
func URL(bucket, key string) string {
	return Scheme + bucket + "/" + key
}

// NewClient создает S3-клиент. Без явных ключей используется стандартная
// цепочка провайдеров (переменные окружения, профиль, роль).
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle || cfg.Endpoint != ""
	}), nil
}
