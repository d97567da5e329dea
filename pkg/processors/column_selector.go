package processors

import (
	"context"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// ColumnSelector оставляет только нужные колонки в заданном порядке.
// Выполняется до фильтрации строк.
type ColumnSelector struct {
	columns []string
}

// NewColumnSelector создает селектор колонок. Пустой список - оставить все.
func NewColumnSelector(columns []string) *ColumnSelector {
	return &ColumnSelector{columns: columns}
}

// Name возвращает имя процессора
func (s *ColumnSelector) Name() string {
	return "column_selector"
}

// Process реализует интерфейс Processor
func (s *ColumnSelector) Process(_ context.Context, ds *table.Dataset) (*table.Dataset, error) {
	if len(s.columns) == 0 {
		return ds, nil
	}
	return ds.Select(StageSelect, s.columns)
}
