package processors

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// OutlierTrimmer удаляет записи, значение которых вне перцентильного диапазона [lower, upper].
// Границы вычисляются заново по текущей популяции, обе включительно.
type OutlierTrimmer struct {
	column string
	lower  float64
	upper  float64
}

// NewOutlierTrimmer создает фильтр выбросов. lower и upper в шкале 0-100.
func NewOutlierTrimmer(column string, lower, upper float64) (*OutlierTrimmer, error) {
	if lower < 0 || upper > 100 || lower > upper {
		return nil, fmt.Errorf("invalid percentile band [%v, %v]: want 0 <= lower <= upper <= 100", lower, upper)
	}
	return &OutlierTrimmer{column: column, lower: lower, upper: upper}, nil
}

// Name возвращает имя процессора
func (t *OutlierTrimmer) Name() string {
	return "outlier_trimmer"
}

// Bounds вычисляет границы диапазона по значениям колонки.
// ok=false если непустых значений нет.
func (t *OutlierTrimmer) Bounds(ds *table.Dataset) (lo, hi float64, ok bool, err error) {
	idx, err := ds.Indices(StageTrim, []string{t.column})
	if err != nil {
		return 0, 0, false, err
	}
	col := idx[0]

	values := make([]float64, 0, ds.Len())
	for _, row := range ds.Rows {
		if v, has := row[col].Float(); has {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, 0, false, nil
	}
	sort.Float64s(values)
	return Percentile(values, t.lower), Percentile(values, t.upper), true, nil
}

// Process реализует интерфейс Processor
func (t *OutlierTrimmer) Process(_ context.Context, ds *table.Dataset) (*table.Dataset, error) {
	lo, hi, ok, err := t.Bounds(ds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ds, nil
	}
	col := ds.Schema.Index(t.column)

	return ds.Filter(func(_ int, row table.Row) bool {
		v, has := row[col].Float()
		return has && v >= lo && v <= hi
	}), nil
}

// Percentile возвращает p-й перцентиль (0-100) отсортированной выборки
// с линейной интерполяцией между ближайшими рангами.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
