package wrangler

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ruslano69/listing-wrangler/pkg/brokers"
	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/currency"
	"github.com/ruslano69/listing-wrangler/pkg/logging"
	"github.com/ruslano69/listing-wrangler/pkg/metrics"
	"github.com/ruslano69/listing-wrangler/pkg/objstore"
	"github.com/ruslano69/listing-wrangler/pkg/output"
	"github.com/ruslano69/listing-wrangler/pkg/resultlog"
	"github.com/ruslano69/listing-wrangler/pkg/retry"
)

// Значения по умолчанию
const (
	DefaultName            = "data-wrangler"
	DefaultIndexColumn     = "id"
	DefaultCategoryColumn  = "l1"
	DefaultPriceColumn     = "price"
	DefaultCurrencyColumn  = "currency"
	DefaultNormalizedPrice = "price_usd"
	DefaultLowerPercentile = 0.0
	DefaultUpperPercentile = 100.0
)

// EnvPrefix - префикс переменных окружения, переопределяющих конфигурацию
const EnvPrefix = "WRANGLER"

// PipelineConfig содержит полную конфигурацию запуска
type PipelineConfig struct {
	Name      string            `yaml:"name" validate:"required"`
	Input     InputConfig       `yaml:"input"`
	Columns   ColumnsConfig     `yaml:"columns"`
	DropRows  DropRowsConfig    `yaml:"drop_rows"`
	Outliers  OutliersConfig    `yaml:"outliers"`
	Currency  CurrencyConfig    `yaml:"currency"`
	Output    output.Config     `yaml:"output"`
	Notify    *brokers.Config   `yaml:"notify,omitempty"`
	ResultLog *resultlog.Config `yaml:"result_log,omitempty"`
	Metrics   *metrics.Config   `yaml:"metrics,omitempty"`
	Retry     retry.Config      `yaml:"retry"` // Повторы доставки в notify, result_log, metrics
	Audit     AuditConfig       `yaml:"audit"`
	Logging   logging.Config    `yaml:"logging"`
}

// InputConfig определяет входные архивы
type InputConfig struct {
	Glob        string           `yaml:"glob" validate:"required"`      // ./data/raw/*.zip или s3://bucket/raw/*.zip
	IndexColumn string           `yaml:"index_column"`                  // Колонка-идентификатор записи
	Jobs        int              `yaml:"jobs,omitempty" validate:"gte=0"` // Файлов, читаемых одновременно (0 - по числу CPU)
	S3          *objstore.Config `yaml:"s3,omitempty"`                  // Параметры хранилища для шаблонов s3://
}

// ColumnsConfig определяет используемые колонки
type ColumnsConfig struct {
	Keep            []string `yaml:"keep"` // Оставляемые колонки (пусто - все)
	Category        string   `yaml:"category"`
	Price           string   `yaml:"price"`
	Currency        string   `yaml:"currency"`
	NormalizedPrice string   `yaml:"normalized_price"`
}

// DropRowsConfig определяет правила удаления строк
type DropRowsConfig struct {
	Categories []string `yaml:"categories"` // Исключаемые значения категории
	Required   []string `yaml:"required"`   // Колонки, пропуск в которых удаляет строку
	Duplicates []string `yaml:"duplicates"` // Колонки ключа дубликатов
}

// OutliersConfig - процентили отсечения выбросов (0-100)
type OutliersConfig struct {
	Lower *float64 `yaml:"lower,omitempty" validate:"omitempty,gte=0,lte=100"`
	Upper *float64 `yaml:"upper,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Bounds возвращает процентили с учетом значений по умолчанию
func (o OutliersConfig) Bounds() (lower, upper float64) {
	lower, upper = DefaultLowerPercentile, DefaultUpperPercentile
	if o.Lower != nil {
		lower = *o.Lower
	}
	if o.Upper != nil {
		upper = *o.Upper
	}
	return lower, upper
}

// CurrencyConfig - обработка неизвестных кодов валют
type CurrencyConfig struct {
	UnknownPolicy string `yaml:"unknown_policy" validate:"omitempty,oneof=drop fail passthrough"`
}

// AuditConfig определяет журнал переходов между этапами.
// Журнал всегда пишется в лог; Path и Database добавляют постоянные приемники.
type AuditConfig struct {
	Path       string               `yaml:"path,omitempty"`
	MaxSizeMB  int64                `yaml:"max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int                  `yaml:"max_backups,omitempty" validate:"gte=0"`
	Level      string               `yaml:"level,omitempty" validate:"omitempty,oneof=minimal standard"`
	Database   *AuditDatabaseConfig `yaml:"database,omitempty"`
}

// AuditDatabaseConfig - таблица журнала в БД (плейсхолдеры "?")
type AuditDatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite mysql"`
	DSN    string `yaml:"dsn" validate:"required"`
	Table  string `yaml:"table,omitempty"`
}

// envOverrides - переменные окружения WRANGLER_*, имеющие приоритет над файлом
type envOverrides struct {
	Name       string `envconfig:"NAME"`
	InputGlob  string `envconfig:"INPUT_GLOB"`
	OutputPath string `envconfig:"OUTPUT_PATH"`
	Policy     string `envconfig:"UNKNOWN_POLICY"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	LogFormat  string `envconfig:"LOG_FORMAT"`
	LogDir     string `envconfig:"LOG_DIR"`
}

// LoadConfig загружает конфигурацию из YAML файла.
// Ссылки ${VAR} раскрываются до разбора, затем применяются переменные WRANGLER_*.
func LoadConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Config("file", fmt.Errorf("failed to read config file: %w", err))
	}
	return ParseConfig(data)
}

// ParseConfig разбирает конфигурацию из YAML
func ParseConfig(data []byte) (*PipelineConfig, error) {
	var config PipelineConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, errs.Config("yaml", fmt.Errorf("failed to parse YAML: %w", err))
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyEnv применяет переопределения из переменных окружения
func (c *PipelineConfig) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errs.Config("env", fmt.Errorf("failed to read environment: %w", err))
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.Name, env.Name)
	override(&c.Input.Glob, env.InputGlob)
	override(&c.Output.Path, env.OutputPath)
	override(&c.Currency.UnknownPolicy, env.Policy)
	override(&c.Logging.Level, env.LogLevel)
	override(&c.Logging.Format, env.LogFormat)
	override(&c.Logging.Dir, env.LogDir)
	return nil
}

// SetDefaults устанавливает значения по умолчанию для необязательных полей
func (c *PipelineConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}

	if c.Input.IndexColumn == "" {
		c.Input.IndexColumn = DefaultIndexColumn
	}

	if c.Columns.Category == "" {
		c.Columns.Category = DefaultCategoryColumn
	}
	if c.Columns.Price == "" {
		c.Columns.Price = DefaultPriceColumn
	}
	if c.Columns.Currency == "" {
		c.Columns.Currency = DefaultCurrencyColumn
	}
	if c.Columns.NormalizedPrice == "" {
		c.Columns.NormalizedPrice = DefaultNormalizedPrice
	}

	if c.Outliers.Lower == nil {
		lower := DefaultLowerPercentile
		c.Outliers.Lower = &lower
	}
	if c.Outliers.Upper == nil {
		upper := DefaultUpperPercentile
		c.Outliers.Upper = &upper
	}

	if c.Currency.UnknownPolicy == "" {
		c.Currency.UnknownPolicy = string(currency.PolicyDrop)
	}
	c.Currency.UnknownPolicy = strings.ToLower(c.Currency.UnknownPolicy)

	// Defaults для RabbitMQ
	if c.Notify != nil && c.Notify.RabbitMQ != nil {
		r := c.Notify.RabbitMQ
		if r.Host == "" {
			r.Host = "localhost"
		}
		if r.Port == 0 {
			r.Port = 5672
		}
		if r.User == "" {
			r.User = "guest"
		}
		if r.Password == "" {
			r.Password = "guest"
		}
	}

	// Defaults для result_log
	if c.ResultLog != nil && c.ResultLog.TTL == 0 {
		c.ResultLog.TTL = 3600 // 1 час по умолчанию
	}

	c.Retry.SetDefaults()

	if c.Audit.Database != nil && c.Audit.Database.Table == "" {
		c.Audit.Database.Table = "wrangler_audit"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях используются имена полей YAML
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate проверяет корректность конфигурации: теги полей, затем
// перекрестные условия, которые теги выразить не могут.
func (c *PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errs.Config(fieldPath(fe.Namespace()),
				fmt.Errorf("failed on '%s' validation (value %v)", fe.Tag(), fe.Value()))
		}
		return errs.Config("", err)
	}

	lower, upper := c.Outliers.Bounds()
	if lower > upper {
		return errs.Config("outliers", fmt.Errorf("lower percentile %v is greater than upper %v", lower, upper))
	}

	if _, err := currency.ParsePolicy(c.Currency.UnknownPolicy); err != nil {
		return errs.Config("currency.unknown_policy", err)
	}

	if err := c.Retry.Validate(); err != nil {
		return errs.Config("retry", err)
	}

	if c.Columns.Price == c.Columns.Currency {
		return errs.Config("columns", fmt.Errorf("price and currency columns must differ"))
	}

	switch np := c.Columns.NormalizedPrice; {
	case np == c.Columns.Price, np == c.Columns.Currency:
		return errs.Config("columns.normalized_price",
			fmt.Errorf("normalized price column %q must differ from price and currency columns", np))
	case slices.Contains(c.Columns.Keep, np):
		return errs.Config("columns.normalized_price",
			fmt.Errorf("normalized price column %q is produced by the pipeline and must not be kept", np))
	}

	if err := c.validateKeep(); err != nil {
		return err
	}

	if objstore.IsURL(c.Input.Glob) {
		if _, _, err := objstore.ParseURL(c.Input.Glob); err != nil {
			return errs.Config("input.glob", err)
		}
	}

	if c.Output.Path != "" && objstore.IsURL(c.Output.Path) {
		return errs.Config("output.path", fmt.Errorf("output path must be local, use output.s3 to upload"))
	}

	return nil
}

// validateKeep проверяет, что выбранные колонки содержат все колонки,
// на которые ссылаются последующие этапы
func (c *PipelineConfig) validateKeep() error {
	keep := c.Columns.Keep
	if len(keep) == 0 {
		return nil
	}
	if slices.Contains(keep, c.Input.IndexColumn) {
		return errs.Config("columns.keep", fmt.Errorf("index column %q is not a data column", c.Input.IndexColumn))
	}

	need := []string{c.Columns.Price, c.Columns.Currency}
	if len(c.DropRows.Categories) > 0 {
		need = append(need, c.Columns.Category)
	}
	need = append(need, c.DropRows.Required...)
	need = append(need, c.DropRows.Duplicates...)
	for _, col := range need {
		if !slices.Contains(keep, col) {
			return errs.Config("columns.keep", fmt.Errorf("column %q is used by a later stage but not kept", col))
		}
	}
	return nil
}

// fieldPath убирает имя корневой структуры из пути валидатора
func fieldPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return rest
}
