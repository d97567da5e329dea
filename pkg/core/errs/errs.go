// Package errs описывает закрытый набор типизированных ошибок пайплайна.
//
// Каждая ошибка несет вид (Kind) и структурированный контекст: этап, файл, колонку.
// Проверка вида выполняется через errors.Is с одним из sentinel-значений:
//
//	if errors.Is(err, errs.ErrInputRead) { ... }
//
// Детали доступны через errors.As:
//
//	var e *errs.Error
//	if errors.As(err, &e) { fmt.Println(e.Stage, e.File) }
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind - вид ошибки
type Kind string

const (
	KindInputRead       Kind = "input_read"
	KindSchema          Kind = "schema"
	KindUnknownCurrency Kind = "unknown_currency"
	KindPersistence     Kind = "persistence"
	KindConfig          Kind = "config"
)

// Sentinel-значения для errors.Is
var (
	ErrInputRead       = errors.New("input read error")
	ErrSchema          = errors.New("schema error")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrPersistence     = errors.New("persistence error")
	ErrConfig          = errors.New("configuration error")
)

var sentinels = map[Kind]error{
	KindInputRead:       ErrInputRead,
	KindSchema:          ErrSchema,
	KindUnknownCurrency: ErrUnknownCurrency,
	KindPersistence:     ErrPersistence,
	KindConfig:          ErrConfig,
}

// Error - ошибка пайплайна с контекстом
type Error struct {
	Kind   Kind
	Stage  string // Этап: ingest, select, filter, normalize, trim, persist
	File   string // Файл или путь (для ошибок чтения и записи)
	Column string // Колонка (для ошибок схемы)
	Value  string // Значение, вызвавшее ошибку (например, код валюты)
	Err    error
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(sentinels[e.Kind].Error())

	var ctx []string
	if e.Stage != "" {
		ctx = append(ctx, "stage="+e.Stage)
	}
	if e.File != "" {
		ctx = append(ctx, fmt.Sprintf("file=%q", e.File))
	}
	if e.Column != "" {
		ctx = append(ctx, fmt.Sprintf("column=%q", e.Column))
	}
	if e.Value != "" {
		ctx = append(ctx, fmt.Sprintf("value=%q", e.Value))
	}
	if len(ctx) > 0 {
		b.WriteString(" [" + strings.Join(ctx, " ") + "]")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap возвращает исходную ошибку
func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с sentinel-значением ее вида
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// InputRead - файл отсутствует, не читается или не содержит колонку-идентификатор
func InputRead(stage, file string, err error) *Error {
	return &Error{Kind: KindInputRead, Stage: stage, File: file, Err: err}
}

// Schema - сконфигурированная колонка отсутствует в данных
func Schema(stage, column string) *Error {
	return &Error{Kind: KindSchema, Stage: stage, Column: column, Err: fmt.Errorf("column %q not found", column)}
}

// UnknownCurrency - код валюты отсутствует в таблице курсов
func UnknownCurrency(stage, column, code string) *Error {
	return &Error{Kind: KindUnknownCurrency, Stage: stage, Column: column, Value: code}
}

// Persistence - не удалось создать директорию или записать артефакт
func Persistence(stage, path string, err error) *Error {
	return &Error{Kind: KindPersistence, Stage: stage, File: path, Err: err}
}

// Config - некорректная конфигурация
func Config(field string, err error) *Error {
	return &Error{Kind: KindConfig, Column: field, Err: err}
}

// KindOf возвращает вид ошибки или пустую строку для чужих ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StageOf возвращает этап, на котором возникла ошибка
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
