package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

const utf8BOM = "\ufeff"

// ReadCSV читает CSV с заголовком. Колонка indexColumn переносится в индекс набора,
// остальные колонки становятся данными. Пустой indexColumn - набор без индекса.
func ReadCSV(r io.Reader, name, indexColumn string) (*table.Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	indexPos := -1
	if indexColumn != "" {
		for i, h := range header {
			if h == indexColumn {
				indexPos = i
				break
			}
		}
		if indexPos < 0 {
			return nil, fmt.Errorf("identifier column %q not found", indexColumn)
		}
	}

	ds := table.New(name)
	ds.IndexName = indexColumn
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == indexPos {
			continue
		}
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("duplicate column %q in header", h)
		}
		seen[h] = struct{}{}
		ds.Schema.Fields = append(ds.Schema.Fields, table.Field{Name: h, Type: table.TypeText})
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		row := make(table.Row, 0, len(ds.Schema.Fields))
		var id string
		for i, raw := range rec {
			if i == indexPos {
				id = raw
				continue
			}
			row = append(row, table.Parse(raw))
		}
		ds.Append(id, row)
	}

	ds.InferTypes()
	return ds, nil
}
