// Package xlsx parses Excel claim inventories into normalized rows.
package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/claimstack/pricing-service/internal/parsers"
)

// Options configure the parser.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string

	// HeaderRows is how many leading rows to treat as header material.
	// The first of them is mapped; the rest are skipped. Zero means 1.
	HeaderRows int
}

// Parser reads XLSX content.
type Parser struct {
	opts Options
}

// NewParser creates an XLSX parser.
func NewParser(opts Options) *Parser {
	if opts.HeaderRows <= 0 {
		opts.HeaderRows = 1
	}
	return &Parser{opts: opts}
}

// Parse reads the workbook and maps its rows. File-level problems are
// reported in the result, not returned: an unreadable file yields a
// result with errors and zero rows.
func (p *Parser) Parse(content []byte) (*parsers.Result, error) {
	result := &parsers.Result{}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		result.Errors = append(result.Errors, parsers.ParseError{
			Message: fmt.Sprintf("failed to open workbook: %v", err),
		})
		return result, nil
	}
	defer f.Close()

	sheet, err := p.selectSheet(f)
	if err != nil {
		result.Errors = append(result.Errors, parsers.ParseError{Message: err.Error()})
		return result, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.Errors = append(result.Errors, parsers.ParseError{
			Message: fmt.Sprintf("failed to read worksheet %q: %v", sheet, err),
		})
		return result, nil
	}
	if len(rows) == 0 {
		result.Warnings = append(result.Warnings, "workbook is empty")
		return result, nil
	}

	headers := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		headers[i] = strings.TrimSpace(cell)
	}
	cols, ok := parsers.MapHeaders(headers)
	if !ok {
		result.Errors = append(result.Errors, parsers.ParseError{
			Message: "no description column found in header row",
		})
		return result, nil
	}

	dataStart := p.opts.HeaderRows
	rowIndex := 0
	for i := dataStart; i < len(rows); i++ {
		if parsers.IsEmptyRow(rows[i]) {
			continue
		}
		result.TotalRows++
		row, reason, ok := parsers.BuildRow(rows[i], cols, rowIndex)
		if !ok {
			result.Errors = append(result.Errors, parsers.ParseError{
				Row:     i + 1,
				Message: reason,
			})
			continue
		}
		result.Rows = append(result.Rows, row)
		rowIndex++
	}
	return result, nil
}

func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no worksheets")
	}
	if p.opts.Sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(s, p.opts.Sheet) {
			return s, nil
		}
	}
	return "", fmt.Errorf("worksheet %q not found", p.opts.Sheet)
}
