// Package csv parses delimited claim inventories. The delimiter is
// sniffed from the header line; the charset package normalizes legacy
// encodings first.
package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"strings"

	"github.com/claimstack/pricing-service/internal/parsers"
	"github.com/claimstack/pricing-service/internal/parsers/charset"
)

// Parser reads CSV/TSV content.
type Parser struct{}

// NewParser creates a CSV parser.
func NewParser() *Parser { return &Parser{} }

// DetectDelimiter picks the delimiter with the most hits in the first
// line, comma winning ties.
func DetectDelimiter(sample string) rune {
	line := sample
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Parse decodes, sniffs the delimiter and maps the records. File-level
// problems are reported in the result, not returned.
func (p *Parser) Parse(content []byte) (*parsers.Result, error) {
	result := &parsers.Result{}

	text, err := charset.DecodeAuto(content)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("charset decode was lossy: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		result.Warnings = append(result.Warnings, "file is empty")
		return result, nil
	}

	reader := stdcsv.NewReader(strings.NewReader(text))
	reader.Comma = DetectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, parsers.ParseError{
			Message: fmt.Sprintf("failed to parse csv: %v", err),
		})
		return result, nil
	}
	if len(records) == 0 {
		result.Warnings = append(result.Warnings, "file has no records")
		return result, nil
	}

	cols, ok := parsers.MapHeaders(records[0])
	if !ok {
		result.Errors = append(result.Errors, parsers.ParseError{
			Message: "no description column found in header row",
		})
		return result, nil
	}

	rowIndex := 0
	for i := 1; i < len(records); i++ {
		if parsers.IsEmptyRow(records[i]) {
			continue
		}
		result.TotalRows++
		row, reason, ok := parsers.BuildRow(records[i], cols, rowIndex)
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
