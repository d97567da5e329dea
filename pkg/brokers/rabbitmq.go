package brokers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ реализует Publisher для RabbitMQ
type RabbitMQ struct {
	config  RabbitMQConfig
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQ создает новый RabbitMQ publisher
func NewRabbitMQ(cfg RabbitMQConfig) (*RabbitMQ, error) {
	if cfg.Queue == "" {
		return nil, fmt.Errorf("queue name is required for RabbitMQ")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		if cfg.UseTLS {
			cfg.Port = 5671
		} else {
			cfg.Port = 5672
		}
	}
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}

	return &RabbitMQ{
		config: cfg,
	}, nil
}

// URL формирует строку подключения amqp[s]://user:password@host:port/vhost
func (r *RabbitMQ) URL() string {
	scheme := "amqp"
	if r.config.UseTLS {
		scheme = "amqps"
	}
	u := url.URL{
		Scheme:  scheme,
		Host:    fmt.Sprintf("%s:%d", r.config.Host, r.config.Port),
		Path:    "/" + r.config.VHost,
		RawPath: "/" + url.PathEscape(r.config.VHost),
	}
	if r.config.User != "" {
		u.User = url.UserPassword(r.config.User, r.config.Password)
	}
	return u.String()
}

// Connect устанавливает соединение и объявляет очередь
func (r *RabbitMQ) Connect(_ context.Context) error {
	var err error
	if r.config.UseTLS {
		r.conn, err = amqp.DialTLS(r.URL(), &tls.Config{
			ServerName: r.config.Host,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		r.conn, err = amqp.Dial(r.URL())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Параметры должны совпадать с существующей очередью
	if _, err := r.channel.QueueDeclare(r.config.Queue, r.config.Durable, false, false, false, nil); err != nil {
		r.channel.Close()
		r.conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение
func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return nil
}

// Send публикует сообщение в очередь через default exchange
func (r *RabbitMQ) Send(ctx context.Context, key string, message []byte) error {
	if r.channel == nil {
		return fmt.Errorf("not connected to RabbitMQ")
	}

	err := r.channel.PublishWithContext(ctx, "", r.config.Queue, false, false, amqp.Publishing{
		ContentType:  ContentType,
		Type:         EventDatasetReady,
		MessageId:    key,
		Body:         message,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Type возвращает тип брокера
func (r *RabbitMQ) Type() string {
	return "rabbitmq"
}
