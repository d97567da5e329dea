package processors

import (
	"context"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// CategoryFilter удаляет записи, значение категории которых входит в исключаемый набор.
// Записи с пропущенной категорией сохраняются.
type CategoryFilter struct {
	column   string
	excluded map[string]struct{}
}

// NewCategoryFilter создает фильтр категорий
func NewCategoryFilter(column string, excluded []string) *CategoryFilter {
	set := make(map[string]struct{}, len(excluded))
	for _, v := range excluded {
		set[v] = struct{}{}
	}
	return &CategoryFilter{column: column, excluded: set}
}

// Name возвращает имя процессора
func (f *CategoryFilter) Name() string {
	return "category_filter"
}

// Process реализует интерфейс Processor
func (f *CategoryFilter) Process(_ context.Context, ds *table.Dataset) (*table.Dataset, error) {
	if len(f.excluded) == 0 {
		return ds, nil
	}
	idx, err := ds.Indices(StageFilter, []string{f.column})
	if err != nil {
		return nil, err
	}
	col := idx[0]

	return ds.Filter(func(_ int, row table.Row) bool {
		if row[col].Null {
			return true
		}
		_, drop := f.excluded[row[col].Raw]
		return !drop
	}), nil
}

// RequiredFilter удаляет записи с пропуском хотя бы в одной обязательной колонке
type RequiredFilter struct {
	columns []string
}

// NewRequiredFilter создает фильтр обязательных колонок
func NewRequiredFilter(columns []string) *RequiredFilter {
	return &RequiredFilter{columns: columns}
}

// Name возвращает имя процессора
func (f *RequiredFilter) Name() string {
	return "required_filter"
}

// Process реализует интерфейс Processor
func (f *RequiredFilter) Process(_ context.Context, ds *table.Dataset) (*table.Dataset, error) {
	if len(f.columns) == 0 {
		return ds, nil
	}
	idx, err := ds.Indices(StageFilter, f.columns)
	if err != nil {
		return nil, err
	}

	return ds.Filter(func(_ int, row table.Row) bool {
		for _, pos := range idx {
			if row[pos].Null {
				return false
			}
		}
		return true
	}), nil
}

// KeyDeduplicator удаляет записи, повторяющие комбинацию ключевых колонок
// более ранней записи. Первое вхождение сохраняется.
type KeyDeduplicator struct {
	columns []string
}

// NewKeyDeduplicator создает дедупликатор по ключевым колонкам
func NewKeyDeduplicator(columns []string) *KeyDeduplicator {
	return &KeyDeduplicator{columns: columns}
}

// Name возвращает имя процессора
func (d *KeyDeduplicator) Name() string {
	return "key_deduplicator"
}

// Process реализует интерфейс Processor
func (d *KeyDeduplicator) Process(_ context.Context, ds *table.Dataset) (*table.Dataset, error) {
	if len(d.columns) == 0 {
		return ds, nil
	}
	idx, err := ds.Indices(StageFilter, d.columns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, ds.Len())
	return ds.Filter(func(_ int, row table.Row) bool {
		key := ds.RowKey(row, idx)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	}), nil
}
