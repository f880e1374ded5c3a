package csvparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxRows bounds the number of data rows accepted from one upload.
	DefaultMaxRows = 5000
	// DefaultMaxColumns bounds the number of header columns.
	DefaultMaxColumns = 50
)

// Options tunes the structural limits enforced while parsing.
// Zero values fall back to the defaults.
type Options struct {
	MaxRows    int
	MaxColumns int
}

func (o Options) maxRows() int {
	if o.MaxRows > 0 {
		return o.MaxRows
	}
	return DefaultMaxRows
}

func (o Options) maxColumns() int {
	if o.MaxColumns > 0 {
		return o.MaxColumns
	}
	return DefaultMaxColumns
}

// Record maps a header name to the trimmed cell value of one data row.
type Record map[string]string

// Result is the parsed form of an uploaded CSV payload. Fields preserves
// header order and Rows preserves row order; Rows[i] corresponds to source
// line i+2 (the header occupies line 1).
type Result struct {
	Fields []string
	Rows   []Record
}

// signedDecimal matches values like 42, -42, +42, -42.5. Cells that start
// with a formula trigger character are still accepted when they are plain
// signed numbers.
var signedDecimal = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// Parse turns raw CSV text into ordered, field-keyed records. It enforces
// the structural contract for untrusted uploads: valid UTF-8, a non-empty
// header within the column limit, a uniform cell count on every row, the
// row limit, and the spreadsheet formula-injection guard. Any violation
// rejects the whole payload with a *StructuralError.
//
// Lines are split on \r?\n and blank lines are dropped entirely, so files
// with trailing or interleaved blank lines are silently compacted. Quoted
// fields may contain commas and doubled quotes; embedded newlines inside
// quotes are not supported.
func Parse(content string, opts Options) (*Result, error) {
	if !utf8.ValidString(content) {
		return nil, structuralf("file content is not valid UTF-8")
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, structuralf("file is empty")
	}

	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, splitLine(line))
	}

	return assemble(records, opts)
}

// FromRecords applies the same structural and content-safety rules to rows
// that were already split, e.g. by a spreadsheet reader. Rows whose cells
// are all blank are dropped, mirroring the blank-line policy of Parse.
func FromRecords(records [][]string, opts Options) (*Result, error) {
	kept := make([][]string, 0, len(records))
	for _, rec := range records {
		blank := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		trimmed := make([]string, len(rec))
		for i, cell := range rec {
			if !utf8.ValidString(cell) {
				return nil, structuralf("file content is not valid UTF-8")
			}
			trimmed[i] = strings.TrimSpace(cell)
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return nil, structuralf("file is empty")
	}
	return assemble(kept, opts)
}

func assemble(records [][]string, opts Options) (*Result, error) {
	header := records[0]
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, structuralf("header row is empty")
	}
	if len(header) > opts.maxColumns() {
		return nil, structuralf("header has %d columns, the limit is %d", len(header), opts.maxColumns())
	}
	for _, name := range header {
		if err := checkCell(name); err != nil {
			return nil, err
		}
	}

	result := &Result{Fields: header}
	for i, rec := range records[1:] {
		rowNumber := i + 2
		if len(result.Rows) >= opts.maxRows() {
			return nil, structuralf("too many rows, the limit is %d", opts.maxRows())
		}
		if len(rec) != len(header) {
			return nil, structuralf("row %d has %d columns but expected %d", rowNumber, len(rec), len(header))
		}

		row := make(Record, len(header))
		for col, value := range rec {
			if err := checkCell(value); err != nil {
				return nil, err
			}
			row[header[col]] = value
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// checkCell rejects cells that a spreadsheet application would execute as
// a formula. Signed decimal numbers are allowed through so legitimate
// negative values survive.
func checkCell(value string) error {
	if value == "" {
		return nil
	}
	switch value[0] {
	case '=', '+', '-', '@':
		if !signedDecimal.MatchString(value) {
			return structuralf("cell value %q looks like a spreadsheet formula and was rejected", value)
		}
	}
	return nil
}

// splitLine walks one line with a quote-aware scanner. A comma inside
// quotes is literal, a doubled quote inside a quoted field unescapes to a
// single quote, and every field is trimmed.
func splitLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				quoted = !quoted
			}
		case ch == ',' && !quoted:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

func structuralf(format string, args ...any) *StructuralError {
	return &StructuralError{message: fmt.Sprintf(format, args...)}
}
