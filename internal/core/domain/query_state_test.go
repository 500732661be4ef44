package domain_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

func TestNewQueryState_Defaults(t *testing.T) {
	s := domain.NewQueryState()

	want := domain.QueryState{
		Category:      domain.CategoryAll,
		SortField:     domain.SortByName,
		SortDirection: domain.SortAscending,
		Page:          1,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("default state mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryState_FilterSettersResetPage(t *testing.T) {
	tests := []struct {
		name   string
		set    func(*domain.QueryState)
		assert func(*testing.T, domain.QueryState)
	}{
		{
			name: "search",
			set:  func(s *domain.QueryState) { s.SetSearch("  lamp ") },
			assert: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, "  lamp ", s.Search)
			},
		},
		{
			name: "category",
			set:  func(s *domain.QueryState) { s.SetCategory("Books") },
			assert: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, "Books", s.Category)
			},
		},
		{
			name: "empty_category_means_all",
			set:  func(s *domain.QueryState) { s.SetCategory("") },
			assert: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, domain.CategoryAll, s.Category)
			},
		},
		{
			name: "min_price",
			set:  func(s *domain.QueryState) { s.SetMinPrice("5") },
			assert: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, "5", s.MinPrice)
			},
		},
		{
			name: "max_price",
			set:  func(s *domain.QueryState) { s.SetMaxPrice("abc") },
			assert: func(t *testing.T, s domain.QueryState) {
				assert.Equal(t, "abc", s.MaxPrice)
			},
		},
		{
			name: "in_stock_only",
			set:  func(s *domain.QueryState) { s.SetInStockOnly(true) },
			assert: func(t *testing.T, s domain.QueryState) {
				assert.True(t, s.InStockOnly)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewQueryState()
			s.SetPage(4)

			tt.set(&s)

			assert.Equal(t, 1, s.Page)
			tt.assert(t, s)
		})
	}
}

func TestQueryState_ToggleSort(t *testing.T) {
	s := domain.NewQueryState()
	s.SetPage(3)

	s.ToggleSort(domain.SortByName)
	assert.Equal(t, domain.SortByName, s.SortField)
	assert.Equal(t, domain.SortDescending, s.SortDirection)

	s.ToggleSort(domain.SortByName)
	assert.Equal(t, domain.SortAscending, s.SortDirection)

	s.ToggleSort(domain.SortByName)
	s.ToggleSort(domain.SortByPrice)
	assert.Equal(t, domain.SortByPrice, s.SortField)
	assert.Equal(t, domain.SortAscending, s.SortDirection)

	assert.Equal(t, 3, s.Page, "sorting keeps the current page")
}

func TestQueryState_SetPage(t *testing.T) {
	tests := []struct {
		name string
		page int
		want int
	}{
		{name: "first_page", page: 1, want: 1},
		{name: "beyond_known_total_is_kept", page: 99, want: 99},
		{name: "zero_floors_to_one", page: 0, want: 1},
		{name: "negative_floors_to_one", page: -5, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewQueryState()
			s.SetPage(tt.page)
			assert.Equal(t, tt.want, s.Page)
		})
	}
}

func TestQueryState_UpdatePage(t *testing.T) {
	s := domain.NewQueryState()

	s.UpdatePage(func(p int) int { return p + 1 })
	assert.Equal(t, 2, s.Page)

	s.UpdatePage(func(p int) int { return p - 5 })
	assert.Equal(t, 1, s.Page)
}

func TestQueryState_ClearAll(t *testing.T) {
	s := domain.NewQueryState()
	s.SetSearch("lamp")
	s.SetCategory("Lighting")
	s.SetMinPrice("1")
	s.SetMaxPrice("2")
	s.SetInStockOnly(true)
	s.ToggleSort(domain.SortByStockQuantity)
	s.SetPage(7)

	s.ClearAll()

	if diff := cmp.Diff(domain.NewQueryState(), s); diff != "" {
		t.Errorf("cleared state mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryState_Normalized(t *testing.T) {
	got := domain.QueryState{Search: "x", SortField: "bogus", SortDirection: "up"}.Normalized()

	want := domain.QueryState{
		Search:        "x",
		Category:      domain.CategoryAll,
		SortField:     domain.SortByName,
		SortDirection: domain.SortAscending,
		Page:          1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalized state mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryState_PageIsClamped(t *testing.T) {
	tests := []struct {
		name string
		page int
		want int
	}{
		{name: "below_one", page: -7, want: 1},
		{name: "in_range", page: 42, want: 42},
		{name: "at_max", page: domain.MaxPage, want: domain.MaxPage},
		{name: "above_max", page: math.MaxInt, want: domain.MaxPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewQueryState()
			s.SetPage(tt.page)
			assert.Equal(t, tt.want, s.Page)

			raw := domain.QueryState{Page: tt.page}
			assert.Equal(t, tt.want, raw.Normalized().Page)
		})
	}
}

func TestParseSortField(t *testing.T) {
	f, ok := domain.ParseSortField(" Price ")
	assert.True(t, ok)
	assert.Equal(t, domain.SortByPrice, f)

	_, ok = domain.ParseSortField("weight")
	assert.False(t, ok)

	for _, field := range domain.SortFields {
		assert.True(t, field.Valid(), string(field))
	}
}

func TestParseSortDirection(t *testing.T) {
	d, ok := domain.ParseSortDirection("DESC")
	assert.True(t, ok)
	assert.Equal(t, domain.SortDescending, d)

	_, ok = domain.ParseSortDirection("sideways")
	assert.False(t, ok)

	assert.Equal(t, domain.SortAscending, domain.SortDescending.Toggle())
	assert.Equal(t, domain.SortDescending, domain.SortAscending.Toggle())
}
