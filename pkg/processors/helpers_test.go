package processors

import (
	"fmt"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// Helper: создать тестовый набор из [][]string, идентификаторы r0, r1, ...
func createTestDataset(fields []string, rows [][]string) *table.Dataset {
	ds := table.New("listings")
	ds.IndexName = "id"
	for _, name := range fields {
		ds.Schema.Fields = append(ds.Schema.Fields, table.Field{Name: name})
	}
	for i, rec := range rows {
		row := make(table.Row, len(rec))
		for j, raw := range rec {
			row[j] = table.Parse(raw)
		}
		ds.Append(fmt.Sprintf("r%d", i), row)
	}
	ds.InferTypes()
	return ds
}
