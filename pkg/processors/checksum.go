package processors

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// DatasetChecksum вычисляет xxh3 хеш содержимого набора: схема и все строки
// в каноническом виде. Порядок строк учитывается.
func DatasetChecksum(ds *table.Dataset) string {
	h := xxh3.New()
	for _, f := range ds.Schema.Fields {
		fmt.Fprintf(h, "%s:%s\x1e", f.Name, f.Type)
	}
	for _, row := range ds.Rows {
		h.WriteString(ds.RowKey(row, nil))
		h.WriteString("\x1e")
	}
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, h.Sum64()))
}
