package table

import (
	"math"
	"strconv"
	"strings"
)

// DataType представляет тип данных колонки
type DataType string

// Поддерживаемые типы колонок
const (
	TypeReal DataType = "REAL"
	TypeText DataType = "TEXT"
)

// IsNumeric проверяет является ли тип числовым
func (t DataType) IsNumeric() bool {
	return t == TypeReal
}

// naValues - строки, которые читаются как пропущенное значение.
var naValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNA проверяет является ли строка маркером пропущенного значения
func IsNA(raw string) bool {
	_, ok := naValues[raw]
	return ok
}

// Value - значение ячейки
type Value struct {
	Raw  string  // Исходное строковое представление
	Num  float64 // Числовое значение (валидно только если HasNum)
	Null bool    // Пропущенное значение

	HasNum bool
}

// Parse создает Value из сырой строки CSV
func Parse(raw string) Value {
	if IsNA(raw) {
		return Value{Null: true}
	}
	v := Value{Raw: raw}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(f) {
		v.Num = f
		v.HasNum = true
	}
	return v
}

// Text создает текстовое значение
func Text(s string) Value {
	return Value{Raw: s}
}

// Number создает числовое значение
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{Raw: FormatNumber(f), Num: f, HasNum: true}
}

// Missing создает пропущенное значение
func Missing() Value {
	return Value{Null: true}
}

// Float возвращает числовое значение ячейки и признак его наличия
func (v Value) Float() (float64, bool) {
	if v.Null || !v.HasNum {
		return 0, false
	}
	return v.Num, true
}

// String возвращает значение в виде для записи в CSV (пропуск - пустая строка)
func (v Value) String() string {
	if v.Null {
		return ""
	}
	return v.Raw
}

// FormatNumber форматирует число в кратчайшее десятичное представление
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Field описывает колонку набора данных
type Field struct {
	Name string
	Type DataType
}

// Schema - упорядоченный список колонок
type Schema struct {
	Fields []Field
}

// Index возвращает позицию колонки или -1
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has проверяет наличие колонки
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Names возвращает имена колонок в порядке схемы
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Row - строка набора данных, выровненная по схеме
type Row []Value

// Dataset - набор записей в памяти.
// Идентификатор записи хранится отдельно в Index и не является колонкой схемы.
type Dataset struct {
	Name      string
	IndexName string
	Index     []string
	Schema    Schema
	Rows      []Row
}
