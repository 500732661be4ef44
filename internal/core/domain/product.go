// internal/core/domain/product.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits kept for prices
const PriceScale = 2

// Product represents a single catalog record. Products are read-only from the
// browser's point of view.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InStock reports whether at least one unit is available
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Category == "" {
		return fmt.Errorf("category is required")
	}
	if p.Category == CategoryAll {
		return fmt.Errorf("category %q is reserved", CategoryAll)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("stock_quantity cannot be negative")
	}
	return nil
}

// PrepareForStorage fills generated fields before the product is written by the seeder
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	p.Price = p.Price.Round(PriceScale)

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
