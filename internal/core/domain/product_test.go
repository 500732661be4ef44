package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

func TestProduct_Validate(t *testing.T) {
	valid := func() *domain.Product {
		return &domain.Product{
			Name:          "Desk Lamp",
			Category:      "Lighting",
			Price:         decimal.RequireFromString("24.99"),
			StockQuantity: 4,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*domain.Product)
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid_product",
			mutate: func(p *domain.Product) {},
		},
		{
			name:   "zero_price_and_stock_are_allowed",
			mutate: func(p *domain.Product) { p.Price = decimal.Zero; p.StockQuantity = 0 },
		},
		{
			name:      "missing_name",
			mutate:    func(p *domain.Product) { p.Name = "" },
			wantError: true,
			errorMsg:  "name is required",
		},
		{
			name:      "missing_category",
			mutate:    func(p *domain.Product) { p.Category = "" },
			wantError: true,
			errorMsg:  "category is required",
		},
		{
			name:      "reserved_category",
			mutate:    func(p *domain.Product) { p.Category = domain.CategoryAll },
			wantError: true,
			errorMsg:  "reserved",
		},
		{
			name:      "negative_price",
			mutate:    func(p *domain.Product) { p.Price = decimal.NewFromInt(-1) },
			wantError: true,
			errorMsg:  "price cannot be negative",
		},
		{
			name:      "negative_stock",
			mutate:    func(p *domain.Product) { p.StockQuantity = -2 },
			wantError: true,
			errorMsg:  "stock_quantity cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)

			err := p.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProduct_InStock(t *testing.T) {
	assert.True(t, (&domain.Product{StockQuantity: 1}).InStock())
	assert.False(t, (&domain.Product{StockQuantity: 0}).InStock())
}

func TestProduct_PrepareForStorage(t *testing.T) {
	t.Run("fills_generated_fields", func(t *testing.T) {
		p := &domain.Product{Price: decimal.RequireFromString("9.999")}
		p.PrepareForStorage()

		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.False(t, p.CreatedAt.IsZero())
		assert.Equal(t, "10", p.Price.String())
	})

	t.Run("keeps_existing_fields", func(t *testing.T) {
		id := uuid.New()
		created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
		p := &domain.Product{ID: id, CreatedAt: created, Price: decimal.RequireFromString("3.5")}
		p.PrepareForStorage()

		assert.Equal(t, id, p.ID)
		assert.Equal(t, created, p.CreatedAt)
		assert.Equal(t, "3.5", p.Price.String())
	})
}
