// internal/core/domain/query_state.go
package domain

import (
	"math"
	"strings"
)

// PageSize is the fixed number of records per fetch
const PageSize = 10

// MaxPage caps page numbers so the row offset always fits a Postgres bigint.
// Pages past the data simply come back empty.
const MaxPage = math.MaxInt32

// CategoryAll is the sentinel category meaning "no category filter"
const CategoryAll = "All"

// SortField names a sortable product column
type SortField string

// Sortable columns
const (
	SortByName          SortField = "name"
	SortByCategory      SortField = "category"
	SortByPrice         SortField = "price"
	SortByStockQuantity SortField = "stock_quantity"
	SortByCreatedAt     SortField = "created_at"
)

// SortFields lists every sortable column in display order
var SortFields = []SortField{
	SortByName,
	SortByCategory,
	SortByPrice,
	SortByStockQuantity,
	SortByCreatedAt,
}

// Valid reports whether f is one of the sortable columns
func (f SortField) Valid() bool {
	for _, field := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// ParseSortField parses a column name, returning false for unknown columns
func ParseSortField(s string) (SortField, bool) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", false
	}
	return f, true
}

// SortDirection is the ordering direction of the active sort column
type SortDirection string

// Sort directions
const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Toggle returns the opposite direction
func (d SortDirection) Toggle() SortDirection {
	if d == SortDescending {
		return SortAscending
	}
	return SortDescending
}

// ParseSortDirection parses "asc"/"desc" (case-insensitive)
func ParseSortDirection(s string) (SortDirection, bool) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case SortAscending:
		return SortAscending, true
	case SortDescending:
		return SortDescending, true
	default:
		return "", false
	}
}

// QueryState is the full set of user-adjustable filter, sort and pagination
// fields. It is the single source of truth driving product fetches.
//
// MinPrice and MaxPrice hold the raw text the user typed; they are parsed when
// the state is turned into a descriptor and ignored if they are not numbers.
type QueryState struct {
	Search        string        `json:"search"`
	Category      string        `json:"category"`
	MinPrice      string        `json:"min_price"`
	MaxPrice      string        `json:"max_price"`
	InStockOnly   bool          `json:"in_stock_only"`
	SortField     SortField     `json:"sort_field"`
	SortDirection SortDirection `json:"sort_direction"`
	Page          int           `json:"page"`
}

// NewQueryState returns the default state
func NewQueryState() QueryState {
	return QueryState{
		Category:      CategoryAll,
		SortField:     SortByName,
		SortDirection: SortAscending,
		Page:          1,
	}
}

// Filter setters reset pagination to the first page.

// SetSearch updates the name substring filter
func (s *QueryState) SetSearch(search string) {
	s.Search = search
	s.Page = 1
}

// SetCategory updates the category filter; an empty value means CategoryAll
func (s *QueryState) SetCategory(category string) {
	if category == "" {
		category = CategoryAll
	}
	s.Category = category
	s.Page = 1
}

// SetMinPrice updates the lower price bound text
func (s *QueryState) SetMinPrice(minPrice string) {
	s.MinPrice = minPrice
	s.Page = 1
}

// SetMaxPrice updates the upper price bound text
func (s *QueryState) SetMaxPrice(maxPrice string) {
	s.MaxPrice = maxPrice
	s.Page = 1
}

// SetInStockOnly toggles the in-stock filter
func (s *QueryState) SetInStockOnly(inStockOnly bool) {
	s.InStockOnly = inStockOnly
	s.Page = 1
}

// ToggleSort applies a click on a sortable column header. Clicking the active
// column flips the direction, clicking another column makes it active in
// ascending order. The current page is kept.
func (s *QueryState) ToggleSort(field SortField) {
	if s.SortField == field {
		s.SortDirection = s.SortDirection.Toggle()
		return
	}
	s.SortField = field
	s.SortDirection = SortAscending
}

// SetPage jumps to an absolute page, clamped to [1, MaxPage]. Whether the page
// holds any rows is left to the next/prev controls.
func (s *QueryState) SetPage(page int) {
	s.Page = clampPage(page)
}

func clampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}

// UpdatePage applies fn to the current page, e.g. func(p int) int { return p + 1 }
func (s *QueryState) UpdatePage(fn func(int) int) {
	s.SetPage(fn(s.Page))
}

// ClearAll resets every field to its default
func (s *QueryState) ClearAll() {
	*s = NewQueryState()
}

// Normalized fills zero-valued fields with their defaults so that a state
// decoded from an external source always compiles.
func (s QueryState) Normalized() QueryState {
	if s.Category == "" {
		s.Category = CategoryAll
	}
	if !s.SortField.Valid() {
		s.SortField = SortByName
	}
	if s.SortDirection != SortAscending && s.SortDirection != SortDescending {
		s.SortDirection = SortAscending
	}
	s.Page = clampPage(s.Page)
	return s
}
