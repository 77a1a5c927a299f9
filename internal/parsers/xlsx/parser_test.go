package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]any{
		{"Description", "Qty", "Purchase Price", "Brand"},
		{"KitchenAid stand mixer", 1, "$1,299.99", "KitchenAid"},
		{"table lamp", 2, 45, ""},
		{"", 3, 10, ""},
	})

	res, err := NewParser(Options{}).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows)
	require.Len(t, res.Rows, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "missing description", res.Errors[0].Message)

	first := res.Rows[0]
	assert.Equal(t, "KitchenAid stand mixer", first.Description)
	require.NotNil(t, first.PurchasePrice)
	assert.Equal(t, 1299.99, *first.PurchasePrice)
	require.NotNil(t, first.Brand)

	assert.Equal(t, 2, res.Rows[1].Qty)
	assert.Nil(t, res.Rows[1].Brand)
}

func TestParseNamedSheet(t *testing.T) {
	content := buildWorkbook(t, "Inventory", [][]any{
		{"Description", "Qty"},
		{"lamp", 1},
	})

	res, err := NewParser(Options{Sheet: "inventory"}).Parse(content)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
}

func TestParseMissingSheet(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]any{
		{"Description"},
		{"lamp"},
	})

	res, err := NewParser(Options{Sheet: "Inventory"}).Parse(content)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "not found")
}

func TestParseExtraHeaderRows(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]any{
		{"Description", "Qty"},
		{"(fill in one item per line)", ""},
		{"lamp", 2},
	})

	res, err := NewParser(Options{HeaderRows: 2}).Parse(content)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "lamp", res.Rows[0].Description)
}

func TestParseGarbageBytes(t *testing.T) {
	res, err := NewParser(Options{}).Parse([]byte("not a zip archive"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "failed to open workbook")
}

func TestParseNoDescriptionColumn(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]any{
		{"Qty", "Price"},
		{1, 20},
	})

	res, err := NewParser(Options{}).Parse(content)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Errors, 1)
}
