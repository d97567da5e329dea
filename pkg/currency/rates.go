// Package currency содержит фиксированную таблицу курсов к USD и пересчет цен.
//
// Курсы - средние значения за 2020 год. Таблица неизменяемая и не настраивается
// снаружи: код валюты вне таблицы означает, что множителя нет.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Base - валюта, к которой приводятся цены
const Base = "USD"

// rates - множитель к USD для каждого кода валюты
var rates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"PEN": decimal.RequireFromString("0.2863"),
	"ARS": decimal.RequireFromString("0.0143"),
	"UYU": decimal.RequireFromString("0.0239"),
	"COP": decimal.RequireFromString("0.00027"),
}

// Rate возвращает множитель для кода валюты
func Rate(code string) (decimal.Decimal, bool) {
	r, ok := rates[code]
	return r, ok
}

// Codes возвращает поддерживаемые коды валют в алфавитном порядке
func Codes() []string {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Convert пересчитывает сумму в USD.
// Умножение выполняется в decimal, поэтому 100 PEN дает ровно 28.63.
// Второе значение false, если код валюты неизвестен.
func Convert(amount float64, code string) (float64, bool) {
	r, ok := rates[code]
	if !ok {
		return 0, false
	}
	return decimal.NewFromFloat(amount).Mul(r).InexactFloat64(), true
}

// Policy определяет обработку записей с неизвестным кодом валюты
type Policy string

const (
	// PolicyDrop удаляет запись
	PolicyDrop Policy = "drop"
	// PolicyFail завершает запуск с ошибкой
	PolicyFail Policy = "fail"
	// PolicyPassthrough использует множитель 1
	PolicyPassthrough Policy = "passthrough"
)

// ParsePolicy разбирает политику из строки конфигурации; пустая строка - drop
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyFail:
		return PolicyFail, nil
	case PolicyPassthrough:
		return PolicyPassthrough, nil
	default:
		return "", fmt.Errorf("unknown currency policy %q (supported: drop, fail, passthrough)", s)
	}
}
