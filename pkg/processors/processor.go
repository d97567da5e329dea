package processors

import (
	"context"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// Processor определяет интерфейс для обработки набора данных
type Processor interface {
	// Name возвращает имя процессора
	Name() string

	// Process обрабатывает набор данных и возвращает новый.
	// Входной набор не изменяется.
	Process(ctx context.Context, ds *table.Dataset) (*table.Dataset, error)
}

// Config содержит конфигурацию процессора
type Config struct {
	Type   string         `yaml:"type"`   // Тип процессора (category_filter, currency_normalizer, etc)
	Params map[string]any `yaml:"params"` // Параметры процессора
}

// Имена этапов для контекста ошибок
const (
	StageSelect    = "select"
	StageFilter    = "filter"
	StageNormalize = "normalize"
	StageTrim      = "trim"
)
