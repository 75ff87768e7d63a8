package importfile

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/expopass/server/internal/domain/locations"
)

// ReadXLSX parses the first sheet of a workbook, header row included.
func ReadXLSX(r io.Reader) ([]locations.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	columns, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []locations.ImportRow
	for _, record := range records[1:] {
		if row, ok := rowFromRecord(columns, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
