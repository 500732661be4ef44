package seed_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/catalog-browser/internal/seed"
	"github.com/ammerola/catalog-browser/test/helpers"
)

// workbook builds an xlsx file whose first sheet holds rows verbatim
func workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sheet1")
	require.NoError(t, err)

	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().Value = v
		}
	}

	path := helpers.CreateTempFile(t, nil, ".xlsx")
	require.NoError(t, file.Save(path))
	return readFile(t, path)
}

func TestEncodeParseRoundTrip(t *testing.T) {
	products := helpers.CreateTestProducts(5)

	data, err := seed.EncodeXLSX(products)
	require.NoError(t, err)

	sheet, err := seed.ParseXLSX(data)
	require.NoError(t, err)
	assert.Empty(t, sheet.Skipped)
	require.Len(t, sheet.Products, len(products))

	for i, p := range sheet.Products {
		assert.Equal(t, products[i].ID, p.ID)
		assert.Equal(t, products[i].Name, p.Name)
		assert.Equal(t, products[i].Category, p.Category)
		assert.True(t, products[i].Price.Equal(p.Price), "price %s != %s", products[i].Price, p.Price)
		assert.Equal(t, products[i].StockQuantity, p.StockQuantity)
		assert.True(t, products[i].CreatedAt.Equal(p.CreatedAt))
	}
}

func TestParseXLSX_Rows(t *testing.T) {
	data := workbook(t, [][]string{
		{"Name", "Category", "Price", "Stock_Quantity", "Created_At"},
		{"Desk Lamp", "Lighting", "$1,024.999", "3", "2024-02-01"},
		{"No Price", "Books", "", "1", ""},
		{"Bad Stock", "Books", "5", "two", ""},
		{"Negative", "Books", "-1", "0", ""},
		{"Reserved", "All", "5", "0", ""},
		{"Bad Date", "Toys", "5", "0", "yesterday"},
		{"Minimal", "Toys", "7.5", "", ""},
	})

	sheet, err := seed.ParseXLSX(data)
	require.NoError(t, err)

	require.Len(t, sheet.Products, 2)

	lamp := sheet.Products[0]
	assert.Equal(t, "Desk Lamp", lamp.Name)
	assert.True(t, decimal.RequireFromString("1025").Equal(lamp.Price))
	assert.Equal(t, 3, lamp.StockQuantity)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), lamp.CreatedAt)
	assert.NotEqual(t, uuid.Nil, lamp.ID)

	minimal := sheet.Products[1]
	assert.Equal(t, "Minimal", minimal.Name)
	assert.Zero(t, minimal.StockQuantity)
	assert.False(t, minimal.CreatedAt.IsZero())

	skippedRows := make([]int, len(sheet.Skipped))
	for i, s := range sheet.Skipped {
		skippedRows[i] = s.Row
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7}, skippedRows)
	assert.Contains(t, sheet.Skipped[0].Error(), "row 3: price is required")
	assert.Contains(t, sheet.Skipped[3].Error(), `category "All" is reserved`)
}

func TestParseXLSX_Errors(t *testing.T) {
	tests := []struct {
		name          string
		data          func(t *testing.T) []byte
		errorContains string
	}{
		{
			name:          "not_a_workbook",
			data:          func(t *testing.T) []byte { return []byte("name,category,price") },
			errorContains: "failed to open workbook",
		},
		{
			name: "missing_required_column",
			data: func(t *testing.T) []byte {
				return workbook(t, [][]string{{"name", "category"}, {"Lamp", "Lighting"}})
			},
			errorContains: `missing required column "price"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.ParseXLSX(tt.data(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}
