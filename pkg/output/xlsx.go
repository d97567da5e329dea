package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// XLSXConfig - копия результата в Excel
type XLSXConfig struct {
	Path  string `yaml:"path" validate:"required"`
	Sheet string `yaml:"sheet,omitempty"`
}

// WriteXLSX записывает набор в XLSX.
// Заголовок выделен стилем, числовые колонки пишутся как числа, пропуски - пустые ячейки.
func WriteXLSX(ds *table.Dataset, path, sheetName string) error {
	if sheetName == "" {
		sheetName = ds.Name
		if sheetName == "" {
			sheetName = "Sheet1"
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Persistence(Stage, path, fmt.Errorf("failed to create directory: %w", err))
	}
	if err := writeXLSX(ds, path, sheetName); err != nil {
		return errs.Persistence(Stage, path, err)
	}
	return nil
}

func writeXLSX(ds *table.Dataset, path, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	width := len(ds.Schema.Fields)
	if width > 0 {
		if err := sw.SetColWidth(1, width, 15); err != nil {
			return err
		}
	}

	header := make([]any, width)
	for i, field := range ds.Schema.Fields {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: field.Name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range ds.Rows {
		cells := make([]any, width)
		for c, v := range row {
			cells[c] = cellValue(v, ds.Schema.Fields[c].Type)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.SaveAs(path)
}

// cellValue конвертирует значение в тип ячейки Excel
func cellValue(v table.Value, t table.DataType) any {
	if v.Null {
		return nil
	}
	if t.IsNumeric() {
		if f, ok := v.Float(); ok {
			return f
		}
	}
	return v.String()
}
