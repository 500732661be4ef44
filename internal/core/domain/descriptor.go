// internal/core/domain/descriptor.go
package domain

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Query parameter names shared by the HTTP API and its client
const (
	ParamSearch   = "search"
	ParamCategory = "category"
	ParamMinPrice = "min_price"
	ParamMaxPrice = "max_price"
	ParamInStock  = "in_stock"
	ParamSort     = "sort"
	ParamOrder    = "order"
	ParamPage     = "page"
)

// QueryDescriptor is the canonical request derived from a QueryState. Two
// states that should produce the same fetch produce equal descriptors.
type QueryDescriptor struct {
	Search        string
	Category      string // empty when no category filter applies
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	InStockOnly   bool
	SortField     SortField
	SortDirection SortDirection
	Page          int
	Offset        uint64
	Limit         uint64
}

// Descriptor compiles the state into its canonical request descriptor
func (s QueryState) Descriptor() QueryDescriptor {
	s = s.Normalized()

	d := QueryDescriptor{
		Search:        s.Search,
		MinPrice:      ParsePriceBound(s.MinPrice),
		MaxPrice:      ParsePriceBound(s.MaxPrice),
		InStockOnly:   s.InStockOnly,
		SortField:     s.SortField,
		SortDirection: s.SortDirection,
		Page:          s.Page,
		Offset:        uint64(s.Page-1) * PageSize,
		Limit:         PageSize,
	}

	if s.Category != CategoryAll {
		d.Category = s.Category
	}

	return d
}

// ParsePriceBound parses user price text. Empty or non-numeric text yields nil,
// meaning no bound. Inverted ranges are passed through untouched.
func ParsePriceBound(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// Values encodes the descriptor as URL query parameters. Inactive filters are
// omitted; sort, order and page are always present.
func (d QueryDescriptor) Values() url.Values {
	v := url.Values{}

	if d.Search != "" {
		v.Set(ParamSearch, d.Search)
	}
	if d.Category != "" {
		v.Set(ParamCategory, d.Category)
	}
	if d.MinPrice != nil {
		v.Set(ParamMinPrice, d.MinPrice.String())
	}
	if d.MaxPrice != nil {
		v.Set(ParamMaxPrice, d.MaxPrice.String())
	}
	if d.InStockOnly {
		v.Set(ParamInStock, "true")
	}

	v.Set(ParamSort, string(d.SortField))
	v.Set(ParamOrder, string(d.SortDirection))
	v.Set(ParamPage, strconv.Itoa(d.Page))

	return v
}

// Key returns a stable string identifying the request; url.Values.Encode sorts by key.
func (d QueryDescriptor) Key() string {
	return d.Values().Encode()
}

// QueryStateFromValues decodes URL query parameters into a QueryState.
// Unknown sort columns, bad directions and bad page numbers fall back to the
// defaults; pages above MaxPage are clamped.
func QueryStateFromValues(v url.Values) QueryState {
	s := NewQueryState()

	s.Search = v.Get(ParamSearch)
	if category := v.Get(ParamCategory); category != "" {
		s.Category = category
	}
	s.MinPrice = v.Get(ParamMinPrice)
	s.MaxPrice = v.Get(ParamMaxPrice)

	if inStock := v.Get(ParamInStock); inStock != "" {
		if b, err := strconv.ParseBool(inStock); err == nil {
			s.InStockOnly = b
		}
	}

	if field, ok := ParseSortField(v.Get(ParamSort)); ok {
		s.SortField = field
	}
	if dir, ok := ParseSortDirection(v.Get(ParamOrder)); ok {
		s.SortDirection = dir
	}

	if page := v.Get(ParamPage); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			s.SetPage(p)
		}
	}

	return s
}
