// Package resultlog публикует итог запуска пайплайна в Redis.
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config - параметры подключения к Redis
type Config struct {
	Address  string `yaml:"address" validate:"required,hostname_port"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" validate:"gte=0"`
	TTL      int    `yaml:"ttl,omitempty" validate:"gte=0"` // Время жизни ключа состояния, секунды (0 - без TTL)
}

// StageResult - итог одного этапа
type StageResult struct {
	Stage      string `json:"stage"`
	RowsIn     int    `json:"rows_in"`
	RowsOut    int    `json:"rows_out"`
	DurationMs int64  `json:"duration_ms"`
}

// PipelineResult представляет состояние пайплайна, публикуемое в Redis
// после завершения выполнения (успешного или с ошибкой).
//
// Redis-ключи:
//
//	SET  wrangler:pipeline:<name>:state  <JSON>  EX <ttl>  - для GET-запросов оркестратора
//	PUB  wrangler:pipeline:<name>                          - для event-driven маршрутизации
type PipelineResult struct {
	Pipeline   string        `json:"pipeline"`
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"` // "success" | "failed"
	Reused     bool          `json:"reused,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DurationMs int64         `json:"duration_ms"`
	RowsRead   int           `json:"rows_read"`
	RowsOut    int           `json:"rows_out"`
	Output     string        `json:"output,omitempty"`
	Checksum   string        `json:"checksum,omitempty"`
	Stages     []StageResult `json:"stages,omitempty"`
	FailedAt   string        `json:"failed_stage,omitempty"`
	Error      *string       `json:"error,omitempty"`
}

// SetError отмечает результат как неуспешный
func (r *PipelineResult) SetError(stage string, err error) {
	if err == nil {
		r.Status = "success"
		return
	}
	r.Status = "failed"
	r.FailedAt = stage
	msg := err.Error()
	r.Error = &msg
}

// Client - подмножество redis.Client, нужное publisher'у
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisPublisher публикует результат выполнения пайплайна в Redis
type RedisPublisher struct {
	client Client
	ttl    time.Duration
}

// NewRedisPublisher создает новый Redis publisher на основе конфигурации
func NewRedisPublisher(config Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewPublisher(client, time.Duration(config.TTL)*time.Second)
}

// NewPublisher создает publisher поверх готового клиента
func NewPublisher(client Client, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{client: client, ttl: ttl}
}

// StateKey - ключ последнего состояния пайплайна
func StateKey(pipeline string) string {
	return fmt.Sprintf("wrangler:pipeline:%s:state", pipeline)
}

// Channel - канал событий пайплайна
func Channel(pipeline string) string {
	return fmt.Sprintf("wrangler:pipeline:%s", pipeline)
}

// Publish публикует результат выполнения пайплайна:
//   - SET wrangler:pipeline:<name>:state <JSON> EX <ttl>  -> для опроса (polling)
//   - PUBLISH wrangler:pipeline:<name> <JSON>              -> для подписки (pub/sub)
//
// Вызывается независимо от результата выполнения.
func (p *RedisPublisher) Publish(ctx context.Context, result PipelineResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := p.client.Set(ctx, StateKey(result.Pipeline), payload, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(result.Pipeline), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
