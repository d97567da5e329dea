package processors

import (
	"fmt"
	"log/slog"

	"github.com/ruslano69/listing-wrangler/pkg/currency"
)

// Factory создает процессоры по их типу и конфигурации
type Factory struct {
	creators map[string]CreatorFunc
	logger   *slog.Logger
}

// CreatorFunc функция для создания процессора из конфигурации
type CreatorFunc func(params map[string]any) (Processor, error)

// NewFactory создает новую фабрику процессоров
func NewFactory() *Factory {
	f := &Factory{
		creators: make(map[string]CreatorFunc),
		logger:   slog.Default(),
	}

	// Регистрируем встроенные процессоры
	f.Register("column_selector", func(params map[string]any) (Processor, error) {
		columns, err := stringsParam(params, "columns", false)
		if err != nil {
			return nil, err
		}
		return NewColumnSelector(columns), nil
	})

	f.Register("category_filter", func(params map[string]any) (Processor, error) {
		column, err := stringParam(params, "column", true)
		if err != nil {
			return nil, err
		}
		excluded, err := stringsParam(params, "excluded", false)
		if err != nil {
			return nil, err
		}
		return NewCategoryFilter(column, excluded), nil
	})

	f.Register("required_filter", func(params map[string]any) (Processor, error) {
		columns, err := stringsParam(params, "columns", false)
		if err != nil {
			return nil, err
		}
		return NewRequiredFilter(columns), nil
	})

	f.Register("key_deduplicator", func(params map[string]any) (Processor, error) {
		columns, err := stringsParam(params, "columns", false)
		if err != nil {
			return nil, err
		}
		return NewKeyDeduplicator(columns), nil
	})

	f.Register("currency_normalizer", func(params map[string]any) (Processor, error) {
		price, err := stringParam(params, "price", true)
		if err != nil {
			return nil, err
		}
		code, err := stringParam(params, "currency", true)
		if err != nil {
			return nil, err
		}
		output, err := stringParam(params, "output", true)
		if err != nil {
			return nil, err
		}
		policyStr, err := stringParam(params, "unknown_policy", false)
		if err != nil {
			return nil, err
		}
		policy, err := currency.ParsePolicy(policyStr)
		if err != nil {
			return nil, err
		}
		return NewCurrencyNormalizer(price, code, output, policy).WithLogger(f.logger), nil
	})

	f.Register("outlier_trimmer", func(params map[string]any) (Processor, error) {
		column, err := stringParam(params, "column", true)
		if err != nil {
			return nil, err
		}
		lower, err := floatParam(params, "lower", 0)
		if err != nil {
			return nil, err
		}
		upper, err := floatParam(params, "upper", 100)
		if err != nil {
			return nil, err
		}
		return NewOutlierTrimmer(column, lower, upper)
	})

	return f
}

// WithLogger устанавливает логгер для создаваемых процессоров
func (f *Factory) WithLogger(logger *slog.Logger) *Factory {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Register регистрирует новый тип процессора
func (f *Factory) Register(processorType string, creator CreatorFunc) {
	f.creators[processorType] = creator
}

// Create создает процессор по конфигурации
func (f *Factory) Create(config Config) (Processor, error) {
	creator, ok := f.creators[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown processor type: %s", config.Type)
	}

	processor, err := creator(config.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor '%s': %w", config.Type, err)
	}

	return processor, nil
}

// CreateChain создает цепочку процессоров из массива конфигураций
func (f *Factory) CreateChain(configs []Config) (*Chain, error) {
	chain := NewChain()

	for i, config := range configs {
		processor, err := f.Create(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create processor %d: %w", i, err)
		}
		chain.Add(processor)
	}

	return chain, nil
}

func stringParam(params map[string]any, key string, required bool) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("missing '%s' parameter", key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter '%s' must be a string, got %T", key, raw)
	}
	return s, nil
}

func stringsParam(params map[string]any, key string, required bool) ([]string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		if required {
			return nil, fmt.Errorf("missing '%s' parameter", key)
		}
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter '%s[%d]' must be a string, got %T", key, i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameter '%s' must be a list of strings, got %T", key, raw)
	}
}

func floatParam(params map[string]any, key string, def float64) (float64, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("parameter '%s' must be a number, got %T", key, raw)
	}
}
