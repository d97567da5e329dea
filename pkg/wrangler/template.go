package wrangler

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigTemplate - пример конфигурации с комментариями (wrangler init)
const ConfigTemplate = `# Конфигурация очистки объявлений
name: data-wrangler

input:
  # Локальный шаблон или s3://bucket/raw/*.zip
  glob: ./data/raw/*.zip
  index_column: id
  # jobs: 4
  # s3:
  #   region: us-east-1
  #   endpoint: http://localhost:9000
  #   access_key: ${AWS_ACCESS_KEY_ID}
  #   secret_key: ${AWS_SECRET_ACCESS_KEY}
  #   path_style: true

columns:
  # Пустой список - оставить все колонки
  keep: [l1, l2, l3, rooms, bedrooms, bathrooms, surface_total, price, currency]
  category: l1
  price: price
  currency: currency
  normalized_price: price_usd

drop_rows:
  categories: [Estados Unidos]
  required: [l2, l3]
  duplicates: [l1, l2, l3, rooms, bedrooms, bathrooms, surface_total, price, currency]

outliers:
  lower: 1
  upper: 99

currency:
  # drop | fail | passthrough
  unknown_policy: drop

output:
  # .csv, .csv.gz или .csv.zst
  path: ./data/processed/listings.csv
  reuse: false
  # xlsx:
  #   path: ./data/processed/listings.xlsx
  #   sheet: listings
  # database:
  #   driver: sqlite
  #   dsn: ./data/processed/listings.db
  #   table: listings
  # s3:
  #   url: s3://bucket/processed/
  #   region: us-east-1

# notify:
#   type: kafka
#   kafka:
#     brokers: [localhost:9092]
#     topic: datasets

# result_log:
#   address: 127.0.0.1:6379
#   ttl: 3600

# metrics:
#   pushgateway: http://localhost:9091
#   job: wrangler

# Повторы доставки уведомления, результата и метрик
retry:
  attempts: 3
  initial_delay: 1s
  backoff: exponential

audit:
  # path: ./logs/audit.jsonl
  # max_size_mb: 100
  # max_backups: 5
  level: standard

logging:
  level: info
  format: text
  # dir: ./logs
`

// WriteTemplate записывает пример конфигурации. Существующий файл не перезаписывается.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config template: %w", err)
	}
	return nil
}
