package domain_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/catalog-browser/internal/core/domain"
)

func TestQueryState_Descriptor(t *testing.T) {
	t.Run("default_state", func(t *testing.T) {
		d := domain.NewQueryState().Descriptor()

		assert.Empty(t, d.Search)
		assert.Empty(t, d.Category)
		assert.Nil(t, d.MinPrice)
		assert.Nil(t, d.MaxPrice)
		assert.False(t, d.InStockOnly)
		assert.Equal(t, domain.SortByName, d.SortField)
		assert.Equal(t, domain.SortAscending, d.SortDirection)
		assert.Equal(t, uint64(0), d.Offset)
		assert.Equal(t, uint64(domain.PageSize), d.Limit)
	})

	t.Run("offset_follows_page", func(t *testing.T) {
		s := domain.NewQueryState()
		s.SetPage(3)

		d := s.Descriptor()
		assert.Equal(t, 3, d.Page)
		assert.Equal(t, uint64(20), d.Offset)
	})

	t.Run("category_filter_applies_unless_all", func(t *testing.T) {
		s := domain.NewQueryState()
		s.SetCategory("Toys")
		assert.Equal(t, "Toys", s.Descriptor().Category)

		s.SetCategory(domain.CategoryAll)
		assert.Empty(t, s.Descriptor().Category)
	})

	t.Run("search_is_passed_as_typed", func(t *testing.T) {
		s := domain.NewQueryState()
		s.SetSearch(" lamp ")
		assert.Equal(t, " lamp ", s.Descriptor().Search)
	})
}

func TestParsePriceBound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string // empty means no bound
	}{
		{name: "empty", raw: "", want: ""},
		{name: "whitespace", raw: "   ", want: ""},
		{name: "not_a_number", raw: "abc", want: ""},
		{name: "integer", raw: "10", want: "10"},
		{name: "fraction", raw: "19.99", want: "19.99"},
		{name: "surrounding_space", raw: " 5.5 ", want: "5.5"},
		{name: "negative_is_applied", raw: "-3", want: "-3"},
		{name: "trailing_garbage", raw: "10abc", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ParsePriceBound(tt.raw)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestQueryDescriptor_Values(t *testing.T) {
	s := domain.NewQueryState()
	s.SetSearch("desk lamp")
	s.SetCategory("Lighting")
	s.SetMinPrice("10")
	s.SetMaxPrice("oops")
	s.SetInStockOnly(true)
	s.ToggleSort(domain.SortByPrice)
	s.SetPage(2)

	v := s.Descriptor().Values()

	want := url.Values{
		domain.ParamSearch:   {"desk lamp"},
		domain.ParamCategory: {"Lighting"},
		domain.ParamMinPrice: {"10"},
		domain.ParamInStock:  {"true"},
		domain.ParamSort:     {"price"},
		domain.ParamOrder:    {"asc"},
		domain.ParamPage:     {"2"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryDescriptor_Key(t *testing.T) {
	a := domain.NewQueryState()
	a.SetMinPrice("10")

	b := domain.NewQueryState()
	b.SetMinPrice("10.00")

	c := domain.NewQueryState()
	c.SetMinPrice("abc")

	assert.Equal(t, a.Descriptor().Key(), b.Descriptor().Key(), "equal bounds share a key")
	assert.Equal(t, domain.NewQueryState().Descriptor().Key(), c.Descriptor().Key(),
		"an unparseable bound is the same request as no bound")
	assert.NotEqual(t, a.Descriptor().Key(), c.Descriptor().Key())
}

func TestQueryStateFromValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.QueryState
	}{
		{
			name:  "empty_query_is_default",
			query: "",
			want:  domain.NewQueryState(),
		},
		{
			name:  "all_parameters",
			query: "search=lamp&category=Lighting&min_price=5&max_price=50&in_stock=true&sort=price&order=desc&page=3",
			want: domain.QueryState{
				Search:        "lamp",
				Category:      "Lighting",
				MinPrice:      "5",
				MaxPrice:      "50",
				InStockOnly:   true,
				SortField:     domain.SortByPrice,
				SortDirection: domain.SortDescending,
				Page:          3,
			},
		},
		{
			name:  "huge_page_is_clamped",
			query: "page=9223372036854775807",
			want: func() domain.QueryState {
				s := domain.NewQueryState()
				s.Page = domain.MaxPage
				return s
			}(),
		},
		{
			name:  "page_beyond_int_range_falls_back",
			query: "page=99999999999999999999999",
			want:  domain.NewQueryState(),
		},
		{
			name:  "bad_values_fall_back_to_defaults",
			query: "sort=weight&order=sideways&page=-2&in_stock=maybe",
			want:  domain.NewQueryState(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got := domain.QueryStateFromValues(v)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQueryStateFromValues_RoundTripsDescriptor(t *testing.T) {
	s := domain.NewQueryState()
	s.SetSearch("kettle")
	s.SetCategory("Kitchen")
	s.SetMaxPrice("30")
	s.ToggleSort(domain.SortByCreatedAt)
	s.ToggleSort(domain.SortByCreatedAt)
	s.SetPage(4)

	decoded := domain.QueryStateFromValues(s.Descriptor().Values())
	assert.Equal(t, s.Descriptor().Key(), decoded.Descriptor().Key())
}

func TestDescriptor_OffsetFitsBigint(t *testing.T) {
	v := url.Values{domain.ParamPage: {"9223372036854775807"}}

	d := domain.QueryStateFromValues(v).Descriptor()
	assert.Equal(t, domain.MaxPage, d.Page)
	assert.Equal(t, uint64(domain.MaxPage-1)*domain.PageSize, d.Offset)
	assert.LessOrEqual(t, d.Offset, uint64(math.MaxInt64))
}
