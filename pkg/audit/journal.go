package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Journal - журнал одного запуска пайплайна. Проставляет RunID, ID и время
// каждой записи и передает ее в appender. Ошибки записи не прерывают пайплайн:
// они передаются в OnError.
type Journal struct {
	runID    string
	pipeline string
	appender Appender
	onError  func(error)
}

// NewJournal - создать журнал с новым RunID
func NewJournal(pipeline string, appenders ...Appender) *Journal {
	var app Appender = NewNullAppender()
	switch len(appenders) {
	case 0:
	case 1:
		app = appenders[0]
	default:
		app = NewMultiAppender(appenders...)
	}
	return &Journal{
		runID:    uuid.NewString(),
		pipeline: pipeline,
		appender: app,
		onError:  func(error) {},
	}
}

// WithRunID задает идентификатор запуска
func (j *Journal) WithRunID(runID string) *Journal {
	if runID != "" {
		j.runID = runID
	}
	return j
}

// OnError задает обработчик ошибок записи
func (j *Journal) OnError(fn func(error)) *Journal {
	if fn != nil {
		j.onError = fn
	}
	return j
}

// RunID - идентификатор запуска
func (j *Journal) RunID() string {
	return j.runID
}

// Record - записать entry
func (j *Journal) Record(ctx context.Context, entry *Entry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.RunID = j.runID
	entry.Pipeline = j.pipeline

	if err := j.appender.Append(ctx, entry); err != nil {
		j.onError(fmt.Errorf("audit append failed: %w", err))
	}
}

// Close - закрыть appenders
func (j *Journal) Close() error {
	return j.appender.Close()
}
