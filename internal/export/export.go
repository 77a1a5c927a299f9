// Package export renders pricing results as XLSX and CSV documents for
// adjusters.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/claimstack/pricing-service/internal/types"
)

var headers = []string{
	"Row", "Description", "Brand", "Status", "Source", "Price",
	"Total Replacement Price", "Cost To Replace", "URL", "Match Quality",
	"Pricing Tier", "Dep Category", "Dep Percent", "Dep Amount",
}

// WriteXLSX writes the results as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []types.PricingResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		for j, v := range cellValues(row) {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f.Write(w)
}

// WriteCSV writes the results with the same columns as the workbook.
func WriteCSV(w io.Writer, rows []types.PricingResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		for _, v := range cellValues(row) {
			record = append(record, formatCell(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellValues(row types.PricingResult) []any {
	brand := row.Brand
	if brand == "" {
		brand = types.NoBrand
	}
	return []any{
		row.RowIndex,
		row.Description,
		brand,
		row.Status.String(),
		row.Source,
		row.Price,
		row.Total,
		row.CostToReplace,
		row.URL,
		row.MatchQuality,
		row.PricingTier.String(),
		row.DepCategory,
		types.FormatDepPercent(row.DepRate),
		row.DepAmount,
	}
}

func formatCell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	default:
		return fmt.Sprint(t)
	}
}
