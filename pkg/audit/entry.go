// Package audit ведет журнал переходов между этапами пайплайна.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level - уровень детализации журнала
type Level int

const (
	// LevelMinimal - только основная информация, без метаданных
	LevelMinimal Level = iota

	// LevelStandard - вся информация
	LevelStandard
)

// String - строковое представление уровня
func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "minimal"
	case LevelStandard:
		return "standard"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// ParseLevel разбирает уровень из конфигурации; пустая строка - standard
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "standard":
		return LevelStandard, nil
	case "minimal":
		return LevelMinimal, nil
	default:
		return 0, fmt.Errorf("unknown audit level %q (supported: minimal, standard)", s)
	}
}

// Status - статус этапа
type Status string

const (
	StatusStarted Status = "started"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Entry - запись журнала
type Entry struct {
	// ID - уникальный идентификатор записи
	ID string `json:"id"`

	// RunID - идентификатор запуска пайплайна
	RunID string `json:"run_id"`

	// Timestamp - время записи
	Timestamp time.Time `json:"timestamp"`

	// Pipeline - имя пайплайна
	Pipeline string `json:"pipeline,omitempty"`

	// Stage - этап (ingest, select, filter, normalize, trim, persist)
	Stage string `json:"stage"`

	// Status - статус этапа
	Status Status `json:"status"`

	RowsIn  int `json:"rows_in"`
	RowsOut int `json:"rows_out"`

	// Duration - длительность этапа
	Duration time.Duration `json:"duration,omitempty"`

	// File - файл или путь, с которым работал этап
	File string `json:"file,omitempty"`

	// Error - сообщение об ошибке
	Error string `json:"error,omitempty"`

	// Metadata - дополнительные метаданные
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEntry - создать запись для этапа
func NewEntry(stage string, status Status) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Stage:     stage,
		Status:    status,
	}
}

// WithRows - установить количество строк на входе и выходе
func (e *Entry) WithRows(in, out int) *Entry {
	e.RowsIn = in
	e.RowsOut = out
	return e
}

// WithDuration - установить длительность
func (e *Entry) WithDuration(d time.Duration) *Entry {
	e.Duration = d
	return e
}

// WithFile - установить файл
func (e *Entry) WithFile(file string) *Entry {
	e.File = file
	return e
}

// WithError - установить ошибку; статус меняется на failure
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.Error = err.Error()
		e.Status = StatusFailure
	}
	return e
}

// WithMetadata - добавить метаданные
func (e *Entry) WithMetadata(key string, value any) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// Dropped - количество удаленных строк
func (e *Entry) Dropped() int {
	return e.RowsIn - e.RowsOut
}

// ToJSON - преобразовать в JSON
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// String - строковое представление
func (e *Entry) String() string {
	s := fmt.Sprintf("[%s] %s %s (rows=%d->%d, duration=%v)",
		e.Timestamp.Format(time.RFC3339),
		e.Stage,
		e.Status,
		e.RowsIn,
		e.RowsOut,
		e.Duration,
	)
	if e.Error != "" {
		s += ": " + e.Error
	}
	return s
}

// Clone - создать копию записи
func (e *Entry) Clone() *Entry {
	clone := *e
	if e.Metadata != nil {
		clone.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// FilterByLevel - фильтрация полей по уровню
func (e *Entry) FilterByLevel(level Level) *Entry {
	filtered := e.Clone()
	if level == LevelMinimal {
		filtered.Metadata = nil
	}
	return filtered
}
