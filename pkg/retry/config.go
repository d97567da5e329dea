package retry

import (
	"fmt"
	"time"
)

// BackoffStrategy определяет стратегию задержки между повторами
type BackoffStrategy string

const (
	// BackoffConstant - постоянная задержка
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear - линейное увеличение задержки
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential - экспоненциальное увеличение задержки
	BackoffExponential BackoffStrategy = "exponential"
)

// Config содержит параметры повторной доставки
type Config struct {
	// Attempts - количество попыток, включая первую (0 и 1 - без повторов)
	Attempts int `yaml:"attempts" validate:"gte=0,lte=20"`

	// InitialDelay - задержка перед первым повтором
	InitialDelay time.Duration `yaml:"initial_delay,omitempty"`

	// MaxDelay - верхняя граница задержки
	MaxDelay time.Duration `yaml:"max_delay,omitempty"`

	Backoff BackoffStrategy `yaml:"backoff,omitempty" validate:"omitempty,oneof=constant linear exponential"`

	// Multiplier - множитель для exponential (по умолчанию 2)
	Multiplier float64 `yaml:"multiplier,omitempty" validate:"gte=0"`

	// Jitter - доля случайного отклонения задержки (0.0 - 1.0)
	Jitter float64 `yaml:"jitter,omitempty" validate:"gte=0,lte=1"`
}

// SetDefaults заполняет незаданные параметры
func (c *Config) SetDefaults() {
	if c.InitialDelay == 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Backoff == "" {
		c.Backoff = BackoffExponential
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Attempts < 0 {
		return fmt.Errorf("attempts must be >= 0, got %d", c.Attempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}
	switch c.Backoff {
	case BackoffConstant, BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("invalid backoff strategy: %s", c.Backoff)
	}
	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}
	return nil
}
