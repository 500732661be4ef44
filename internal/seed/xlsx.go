// internal/seed/xlsx.go
package seed

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

// Column headers recognised in the first row of a fixture sheet
const (
	ColumnID            = "id"
	ColumnName          = "name"
	ColumnCategory      = "category"
	ColumnPrice         = "price"
	ColumnStockQuantity = "stock_quantity"
	ColumnCreatedAt     = "created_at"
)

var requiredColumns = []string{ColumnName, ColumnCategory, ColumnPrice}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RowError describes a sheet row that was skipped
type RowError struct {
	Row int // 1-based, as shown in a spreadsheet
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Sheet is the parsed content of a fixture workbook
type Sheet struct {
	Products []domain.Product
	Skipped  []RowError
}

// ParseXLSX reads products from the first sheet of an xlsx workbook. The first
// row names the columns; rows that fail validation are reported in Skipped.
func ParseXLSX(data []byte) (*Sheet, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	result := &Sheet{}
	var columns map[string]int
	rowNum := 0

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowNum++

		if columns == nil {
			header, err := headerColumns(r)
			if err != nil {
				return err
			}
			columns = header
			return nil
		}

		if rowIsBlank(r, columns) {
			return nil
		}

		p, err := parseRow(r, columns)
		if err == nil {
			p.PrepareForStorage()
			err = p.Validate()
		}
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Row: rowNum, Err: err})
			return nil
		}

		result.Products = append(result.Products, *p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if columns == nil {
		return nil, fmt.Errorf("sheet has no header row")
	}

	return result, nil
}

func headerColumns(r *xlsx.Row) (map[string]int, error) {
	columns := make(map[string]int)
	for col := 0; col < r.Sheet.MaxCol; col++ {
		c := r.GetCell(col)
		if c == nil {
			continue
		}
		if name := strings.ToLower(strings.TrimSpace(c.String())); name != "" {
			columns[name] = col
		}
	}

	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func cellText(r *xlsx.Row, columns map[string]int, name string) string {
	col, ok := columns[name]
	if !ok {
		return ""
	}
	c := r.GetCell(col)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.String())
}

func rowIsBlank(r *xlsx.Row, columns map[string]int) bool {
	for name := range columns {
		if cellText(r, columns, name) != "" {
			return false
		}
	}
	return true
}

func parseRow(r *xlsx.Row, columns map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		Name:     cellText(r, columns, ColumnName),
		Category: cellText(r, columns, ColumnCategory),
	}

	if raw := cellText(r, columns, ColumnID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		p.ID = id
	}

	price, err := parsePrice(cellText(r, columns, ColumnPrice))
	if err != nil {
		return nil, err
	}
	p.Price = price

	if raw := cellText(r, columns, ColumnStockQuantity); raw != "" {
		qty, err := strconv.ParseFloat(raw, 64)
		if err != nil || qty != float64(int(qty)) {
			return nil, fmt.Errorf("invalid stock_quantity %q", raw)
		}
		p.StockQuantity = int(qty)
	}

	if raw := cellText(r, columns, ColumnCreatedAt); raw != "" {
		createdAt, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		p.CreatedAt = createdAt
	}

	return p, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("price is required")
	}
	cleaned := strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	return d, nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	// Date cells without a display format come through as serial numbers
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return xlsx.TimeFromExcelTime(serial, false).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q", raw)
}

// EncodeXLSX writes products as a fixture workbook ParseXLSX can read back
func EncodeXLSX(products []domain.Product) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{ColumnID, ColumnName, ColumnCategory, ColumnPrice, ColumnStockQuantity, ColumnCreatedAt}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
	}

	for _, p := range products {
		row := sheet.AddRow()
		for _, value := range []string{
			p.ID.String(),
			p.Name,
			p.Category,
			p.Price.StringFixed(domain.PriceScale),
			strconv.Itoa(p.StockQuantity),
			p.CreatedAt.UTC().Format(time.RFC3339),
		} {
			row.AddCell().Value = value
		}
	}

	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buffer.Bytes(), nil
}
