package importer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetRecords reads the first sheet of an XLSX upload into raw records.
// Spreadsheet readers omit trailing empty cells, so short rows are padded
// to the header width before the structural checks run.
func sheetRecords(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	// The first non-empty row is the header; it sets the table width.
	width := 0
	for _, row := range rows {
		if len(row) > 0 {
			width = len(row)
			break
		}
	}

	padded := make([][]string, len(rows))
	for i, row := range rows {
		padded[i] = padRow(row, width)
	}
	return padded, nil
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
