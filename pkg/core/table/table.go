package table

import (
	"strings"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
)

// New создает пустой набор данных с заданными колонками
func New(name string, fields ...Field) *Dataset {
	return &Dataset{
		Name:   name,
		Schema: Schema{Fields: append([]Field(nil), fields...)},
	}
}

// Len возвращает количество записей
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Append добавляет запись. Идентификатор сохраняется только если у набора есть индекс.
func (d *Dataset) Append(id string, row Row) {
	if d.IndexName != "" || len(d.Index) > 0 {
		d.Index = append(d.Index, id)
	}
	d.Rows = append(d.Rows, row)
}

// hasIndex проверяет что индекс выровнен со строками
func (d *Dataset) hasIndex() bool {
	return len(d.Index) == len(d.Rows) && len(d.Index) > 0
}

// Clone возвращает глубокую копию набора
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Name:      d.Name,
		IndexName: d.IndexName,
		Schema:    Schema{Fields: append([]Field(nil), d.Schema.Fields...)},
		Rows:      make([]Row, len(d.Rows)),
	}
	if len(d.Index) > 0 {
		out.Index = append([]string(nil), d.Index...)
	}
	for i, row := range d.Rows {
		out.Rows[i] = append(Row(nil), row...)
	}
	return out
}

// Filter возвращает новый набор из строк, для которых keep вернул true.
// Порядок строк и индекс сохраняются. Строки не копируются.
func (d *Dataset) Filter(keep func(i int, row Row) bool) *Dataset {
	out := &Dataset{
		Name:      d.Name,
		IndexName: d.IndexName,
		Schema:    Schema{Fields: append([]Field(nil), d.Schema.Fields...)},
		Rows:      make([]Row, 0, len(d.Rows)),
	}
	withIndex := d.hasIndex()
	for i, row := range d.Rows {
		if !keep(i, row) {
			continue
		}
		out.Rows = append(out.Rows, row)
		if withIndex {
			out.Index = append(out.Index, d.Index[i])
		}
	}
	return out
}

// Indices возвращает позиции колонок, ошибка схемы если колонки нет
func (d *Dataset) Indices(stage string, columns []string) ([]int, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		pos := d.Schema.Index(name)
		if pos < 0 {
			return nil, errs.Schema(stage, name)
		}
		idx[i] = pos
	}
	return idx, nil
}

// Select оставляет только указанные колонки в указанном порядке
func (d *Dataset) Select(stage string, columns []string) (*Dataset, error) {
	idx, err := d.Indices(stage, columns)
	if err != nil {
		return nil, err
	}

	out := &Dataset{
		Name:      d.Name,
		IndexName: d.IndexName,
		Index:     d.Index,
		Rows:      make([]Row, len(d.Rows)),
	}
	out.Schema.Fields = make([]Field, len(idx))
	for i, pos := range idx {
		out.Schema.Fields[i] = d.Schema.Fields[pos]
	}
	for r, row := range d.Rows {
		newRow := make(Row, len(idx))
		for i, pos := range idx {
			newRow[i] = row[pos]
		}
		out.Rows[r] = newRow
	}
	return out, nil
}

// DropColumns удаляет колонки из схемы и всех строк
func (d *Dataset) DropColumns(stage string, columns ...string) (*Dataset, error) {
	if _, err := d.Indices(stage, columns); err != nil {
		return nil, err
	}
	drop := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		drop[c] = struct{}{}
	}
	var keep []string
	for _, f := range d.Schema.Fields {
		if _, ok := drop[f.Name]; !ok {
			keep = append(keep, f.Name)
		}
	}
	return d.Select(stage, keep)
}

// AppendColumn добавляет колонку; values должен быть выровнен со строками.
// Строки копируются, исходный набор не изменяется.
func (d *Dataset) AppendColumn(field Field, values []Value) *Dataset {
	out := &Dataset{
		Name:      d.Name,
		IndexName: d.IndexName,
		Index:     d.Index,
		Rows:      make([]Row, len(d.Rows)),
	}
	out.Schema.Fields = append(append([]Field(nil), d.Schema.Fields...), field)
	for i, row := range d.Rows {
		newRow := make(Row, len(row), len(row)+1)
		copy(newRow, row)
		out.Rows[i] = append(newRow, values[i])
	}
	return out
}

// nullMarker не может встретиться в сырых данных CSV
const nullMarker = "\x00NA\x00"

// keySeparator разделяет ячейки в каноническом ключе
const keySeparator = "\x1f"

// Canonical возвращает каноническое представление ячейки для колонки заданного типа:
// пропуск равен пропуску, числа сравниваются по значению.
func Canonical(v Value, t DataType) string {
	if v.Null {
		return nullMarker
	}
	if t == TypeReal && v.HasNum {
		return FormatNumber(v.Num)
	}
	return v.Raw
}

// RowKey строит канонический ключ строки по позициям колонок (nil - все колонки)
func (d *Dataset) RowKey(row Row, columns []int) string {
	var b strings.Builder
	if columns == nil {
		for i, v := range row {
			if i > 0 {
				b.WriteString(keySeparator)
			}
			b.WriteString(Canonical(v, d.Schema.Fields[i].Type))
		}
		return b.String()
	}
	for i, pos := range columns {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		b.WriteString(Canonical(row[pos], d.Schema.Fields[pos].Type))
	}
	return b.String()
}

// Equal сравнивает две строки набора по каноническому представлению
func (d *Dataset) Equal(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		t := d.Schema.Fields[i].Type
		if Canonical(a[i], t) != Canonical(b[i], t) {
			return false
		}
	}
	return true
}

// InferTypes выставляет тип REAL колонкам, где каждое непустое значение - число
func (d *Dataset) InferTypes() {
	for c := range d.Schema.Fields {
		numeric := true
		for _, row := range d.Rows {
			if !row[c].Null && !row[c].HasNum {
				numeric = false
				break
			}
		}
		if numeric {
			d.Schema.Fields[c].Type = TypeReal
		} else {
			d.Schema.Fields[c].Type = TypeText
		}
	}
}

// Column возвращает значения колонки
func (d *Dataset) Column(name string) ([]Value, bool) {
	pos := d.Schema.Index(name)
	if pos < 0 {
		return nil, false
	}
	values := make([]Value, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[pos]
	}
	return values, true
}

// Records возвращает строки в виде [][]string для записи в CSV/XLSX/SQL
func (d *Dataset) Records() [][]string {
	records := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.String()
		}
		records[i] = rec
	}
	return records
}
