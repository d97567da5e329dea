package audit

import (
	"context"
	"errors"
	"log/slog"
)

// Appender - интерфейс для записи журнала
type Appender interface {
	// Append - записать entry
	Append(ctx context.Context, entry *Entry) error

	// Close - закрыть appender
	Close() error
}

// MultiAppender - запись в несколько appenders
type MultiAppender struct {
	appenders []Appender
}

// NewMultiAppender - создать multi appender
func NewMultiAppender(appenders ...Appender) *MultiAppender {
	return &MultiAppender{
		appenders: appenders,
	}
}

// Append - записать во все appenders; ошибка одного не останавливает остальные
func (ma *MultiAppender) Append(ctx context.Context, entry *Entry) error {
	var errs []error
	for _, appender := range ma.appenders {
		if err := appender.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close - закрыть все appenders
func (ma *MultiAppender) Close() error {
	var errs []error
	for _, appender := range ma.appenders {
		if err := appender.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Add - добавить appender
func (ma *MultiAppender) Add(appender Appender) {
	ma.appenders = append(ma.appenders, appender)
}

// Len - количество appenders
func (ma *MultiAppender) Len() int {
	return len(ma.appenders)
}

// SlogAppender - запись в структурированный лог
type SlogAppender struct {
	logger *slog.Logger
}

// NewSlogAppender - создать slog appender (nil - slog.Default())
func NewSlogAppender(logger *slog.Logger) *SlogAppender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAppender{logger: logger}
}

// Append - записать entry как событие лога. Ошибки этапов пишутся с уровнем ERROR.
func (sa *SlogAppender) Append(ctx context.Context, entry *Entry) error {
	level := slog.LevelInfo
	if entry.Status == StatusFailure {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("run_id", entry.RunID),
		slog.String("stage", entry.Stage),
		slog.String("status", string(entry.Status)),
		slog.Int("rows_in", entry.RowsIn),
		slog.Int("rows_out", entry.RowsOut),
		slog.Duration("duration", entry.Duration),
	}
	if entry.File != "" {
		attrs = append(attrs, slog.String("file", entry.File))
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", entry.Error))
	}
	for k, v := range entry.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	sa.logger.LogAttrs(ctx, level, "stage transition", attrs...)
	return nil
}

// Close - ничего не делает
func (sa *SlogAppender) Close() error {
	return nil
}

// NullAppender - пустой appender (для тестов)
type NullAppender struct{}

// NewNullAppender - создать null appender
func NewNullAppender() *NullAppender {
	return &NullAppender{}
}

// Append - ничего не делает
func (na *NullAppender) Append(context.Context, *Entry) error {
	return nil
}

// Close - ничего не делает
func (na *NullAppender) Close() error {
	return nil
}
