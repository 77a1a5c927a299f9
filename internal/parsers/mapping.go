// Package parsers turns uploaded claim files into normalized rows. The
// concrete XLSX and CSV parsers live in subpackages; this package holds
// the shared header mapping and cell coercion rules.
package parsers

import (
	"strconv"
	"strings"

	"github.com/claimstack/pricing-service/internal/types"
)

// ParseError is one unusable row.
type ParseError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result is the outcome of parsing one file. Unusable rows are reported,
// never fatal: a file parses as long as any row survives.
type Result struct {
	Rows      []types.Row  `json:"rows"`
	Errors    []ParseError `json:"errors"`
	Warnings  []string     `json:"warnings"`
	TotalRows int          `json:"total_rows"`
}

// Columns are the resolved column indices for the canonical field set.
// Negative means the column is absent.
type Columns struct {
	Description   int
	Qty           int
	PurchasePrice int
	Brand         int
	Model         int
	Room          int
	AgeYears      int
	Condition     int
}

// headerSynonyms maps normalized header spellings to canonical fields.
var headerSynonyms = map[string]string{
	"description": "description", "item": "description",
	"item description": "description", "item name": "description",
	"name": "description", "contents": "description",

	"qty": "qty", "quantity": "qty", "count": "qty", "# of items": "qty",

	"purchase price": "purchase_price", "price": "purchase_price",
	"cost": "purchase_price", "original cost": "purchase_price",
	"unit price": "purchase_price", "unit cost": "purchase_price",
	"replacement cost": "purchase_price",

	"brand": "brand", "manufacturer": "brand", "make": "brand",

	"model": "model", "model number": "model", "model #": "model",
	"model no": "model",

	"room": "room", "location": "room", "area": "room",

	"age": "age_years", "age years": "age_years", "age (years)": "age_years",
	"item age": "age_years",

	"condition": "condition", "item condition": "condition",
}

// MapHeaders resolves a header row to column indices. Unrecognized
// columns are dropped. Returns false when no description column exists,
// which makes the file unparseable.
func MapHeaders(headers []string) (Columns, bool) {
	cols := Columns{
		Description: -1, Qty: -1, PurchasePrice: -1, Brand: -1,
		Model: -1, Room: -1, AgeYears: -1, Condition: -1,
	}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		field, ok := headerSynonyms[key]
		if !ok {
			continue
		}
		switch field {
		case "description":
			if cols.Description < 0 {
				cols.Description = i
			}
		case "qty":
			if cols.Qty < 0 {
				cols.Qty = i
			}
		case "purchase_price":
			if cols.PurchasePrice < 0 {
				cols.PurchasePrice = i
			}
		case "brand":
			if cols.Brand < 0 {
				cols.Brand = i
			}
		case "model":
			if cols.Model < 0 {
				cols.Model = i
			}
		case "room":
			if cols.Room < 0 {
				cols.Room = i
			}
		case "age_years":
			if cols.AgeYears < 0 {
				cols.AgeYears = i
			}
		case "condition":
			if cols.Condition < 0 {
				cols.Condition = i
			}
		}
	}
	return cols, cols.Description >= 0
}

// BuildRow coerces one raw record into a normalized row. rowIndex is the
// zero-based position among data rows. Returns false with a reason when
// the row is unusable.
func BuildRow(cells []string, cols Columns, rowIndex int) (types.Row, string, bool) {
	get := func(idx int) string {
		if idx < 0 || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	description := get(cols.Description)
	if description == "" {
		return types.Row{}, "missing description", false
	}

	row := types.Row{
		RowIndex:    rowIndex,
		Description: description,
		Qty:         1,
	}

	if q := get(cols.Qty); q != "" {
		if n, err := strconv.Atoi(strings.TrimSuffix(q, ".0")); err == nil && n >= 1 {
			row.Qty = n
		} else if f, err := strconv.ParseFloat(q, 64); err == nil && f >= 1 {
			row.Qty = int(f)
		}
	}

	if p := get(cols.PurchasePrice); p != "" {
		if v, ok := ParseMoney(p); ok {
			row.PurchasePrice = &v
		}
	}

	if b := get(cols.Brand); b != "" && !strings.EqualFold(b, types.NoBrand) {
		row.Brand = &b
	}
	if m := get(cols.Model); m != "" {
		row.Model = &m
	}
	if r := get(cols.Room); r != "" {
		row.Room = &r
	}
	if a := get(cols.AgeYears); a != "" {
		if v, err := strconv.ParseFloat(a, 64); err == nil && v >= 0 {
			row.AgeYears = &v
		}
	}
	if c := get(cols.Condition); c != "" {
		row.Condition = &c
	}

	return row, "", true
}

// ParseMoney parses "$1,299.99" style cells. Negative and zero values
// are treated as absent.
func ParseMoney(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// IsEmptyRow reports whether every cell is blank.
func IsEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
