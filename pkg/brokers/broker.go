// Package brokers публикует уведомления о готовности набора данных в очереди сообщений.
package brokers

import (
	"context"
	"fmt"

	"github.com/ruslano69/listing-wrangler/pkg/retry"
)

// Publisher представляет универсальный интерфейс отправки сообщений.
// Поддерживает RabbitMQ и Apache Kafka.
type Publisher interface {
	// Connect устанавливает соединение с брокером
	Connect(ctx context.Context) error

	// Close закрывает соединение с брокером
	Close() error

	// Send отправляет сообщение; key используется как ключ партиционирования (Kafka)
	Send(ctx context.Context, key string, message []byte) error

	// Type возвращает тип брокера (rabbitmq, kafka)
	Type() string
}

// Config содержит параметры подключения к брокеру
type Config struct {
	Type     string          `yaml:"type" validate:"required,oneof=rabbitmq kafka"`
	Kafka    *KafkaConfig    `yaml:"kafka,omitempty" validate:"required_if=Type kafka,omitempty"`
	RabbitMQ *RabbitMQConfig `yaml:"rabbitmq,omitempty" validate:"required_if=Type rabbitmq,omitempty"`
}

// KafkaConfig - параметры Kafka
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" validate:"required,min=1"` // ["localhost:9092"]
	Topic   string   `yaml:"topic" validate:"required"`
}

// RabbitMQConfig - параметры RabbitMQ
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"use_tls"`
	Queue    string `yaml:"queue" validate:"required"`
	Durable  bool   `yaml:"durable"` // очередь переживает перезапуск RabbitMQ
}

// New создает Publisher на основе конфигурации.
// Ошибка конфигурации помечена retry.Permanent.
func New(cfg Config) (Publisher, error) {
	pub, err := newPublisher(cfg)
	if err != nil {
		// Ошибка конфигурации не исправится повтором
		return nil, retry.Permanent(err)
	}
	return pub, nil
}

func newPublisher(cfg Config) (Publisher, error) {
	switch cfg.Type {
	case "rabbitmq":
		if cfg.RabbitMQ == nil {
			return nil, fmt.Errorf("rabbitmq config is not set")
		}
		return NewRabbitMQ(*cfg.RabbitMQ)
	case "kafka":
		if cfg.Kafka == nil {
			return nil, fmt.Errorf("kafka config is not set")
		}
		return NewKafka(*cfg.Kafka)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s (supported: rabbitmq, kafka)", cfg.Type)
	}
}
