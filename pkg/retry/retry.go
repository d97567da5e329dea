// Package retry повторяет доставку результатов запуска во внешние системы
// (брокер, Redis, Pushgateway) с нарастающей задержкой.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Func - операция, которую можно повторить
type Func func(ctx context.Context) error

// permanentError помечает ошибку, повтор которой бесполезен
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent оборачивает ошибку, после которой повторов не будет
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent проверяет, что ошибка помечена как неповторяемая
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Retryer выполняет операции с повторами
type Retryer struct {
	config Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New создает Retryer; незаданные параметры заполняются значениями по умолчанию
func New(config Config) (*Retryer, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Retryer{
		config: config,
		logger: slog.Default(),
		sleep:  sleepContext,
	}, nil
}

// WithLogger устанавливает логгер
func (r *Retryer) WithLogger(logger *slog.Logger) *Retryer {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Do выполняет fn до успеха, исчерпания попыток, неповторяемой ошибки или отмены ctx
func (r *Retryer) Do(ctx context.Context, name string, fn Func) error {
	attempts := max(r.config.Attempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
		if attempt >= attempts {
			break
		}

		delay := r.Delay(attempt)
		r.logger.WarnContext(ctx, "delivery failed, retrying",
			"target", name,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		if serr := r.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("context cancelled during retry: %w", err)
		}
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
}

// Delay вычисляет задержку после попытки attempt (с 1)
func (r *Retryer) Delay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Backoff {
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)
	default:
		delay = r.config.InitialDelay
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter > 0 {
		delay += time.Duration(float64(delay) * r.config.Jitter * (rand.Float64()*2 - 1))
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}

	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
