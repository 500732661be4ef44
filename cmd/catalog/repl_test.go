package main

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/session"
	"github.com/ammerola/catalog-browser/test/helpers"
)

// stubCatalog serves a fixed product list, filtered by name only
type stubCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	fail     bool
	last     domain.QueryState
}

func (s *stubCatalog) Fetch(ctx context.Context, state domain.QueryState) (*domain.PageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = state

	if s.fail {
		return nil, domain.NewFetchError(errors.New("connection refused"))
	}

	var matched []domain.Product
	for _, p := range s.products {
		if state.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(state.Search)) {
			matched = append(matched, p)
		}
	}

	start := (state.Page - 1) * domain.PageSize
	end := min(start+domain.PageSize, len(matched))
	page := []domain.Product{}
	if start < end {
		page = matched[start:end]
	}
	return &domain.PageResult{
		Records:    page,
		TotalCount: int64(len(matched)),
		Page:       state.Page,
		PageSize:   domain.PageSize,
	}, nil
}

func (s *stubCatalog) Categories(ctx context.Context) []string {
	return []string{"Books", "Electronics", "Lighting", "Toys"}
}

func (s *stubCatalog) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *stubCatalog) lastState() domain.QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func newREPL(t *testing.T, svc *stubCatalog) (*REPL, *bytes.Buffer) {
	t.Helper()

	sess := session.New(svc, session.Options{Quiet: 10 * time.Millisecond, Logger: helpers.TestLogger()})
	t.Cleanup(sess.Close)
	sess.Start()

	out := &bytes.Buffer{}
	r := &REPL{session: sess, out: out, settle: 2 * time.Second}
	r.await()
	return r, out
}

func TestREPL_ShowAndPaging(t *testing.T) {
	svc := &stubCatalog{products: helpers.CreateTestProducts(25)}
	r, out := newREPL(t, svc)

	assert.False(t, r.exec("show"))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "Product 01")
	assert.Contains(t, out.String(), "$10.00")
	assert.Contains(t, out.String(), "Page 1 of 3 (25 products)")

	out.Reset()
	r.exec("next")
	assert.Contains(t, out.String(), "Product 11")
	assert.Contains(t, out.String(), "Page 2 of 3")

	out.Reset()
	r.exec("page 3")
	r.exec("next")
	assert.Contains(t, out.String(), "Already on the last page.")

	out.Reset()
	r.exec("page 1")
	r.exec("prev")
	assert.Contains(t, out.String(), "Already on the first page.")
}

func TestREPL_SearchSettlesBeforeRendering(t *testing.T) {
	svc := &stubCatalog{products: helpers.CreateTestProducts(25)}
	r, out := newREPL(t, svc)

	r.exec("search product 2")
	assert.Equal(t, "product 2", svc.lastState().Search)
	assert.Contains(t, out.String(), `search="product 2"`)
	assert.Contains(t, out.String(), "(7 products)")

	out.Reset()
	r.exec("search zzz")
	assert.Contains(t, out.String(), "No products match your filters.")
}

func TestREPL_Filters(t *testing.T) {
	svc := &stubCatalog{products: helpers.CreateTestProducts(3)}
	r, out := newREPL(t, svc)

	r.exec("category Lighting")
	r.exec("min 5")
	r.exec("max 50")
	r.exec("instock on")
	r.exec("sort price")
	r.exec("sort price")

	st := svc.lastState()
	assert.Equal(t, "Lighting", st.Category)
	assert.Equal(t, "5", st.MinPrice)
	assert.Equal(t, "50", st.MaxPrice)
	assert.True(t, st.InStockOnly)
	assert.Equal(t, domain.SortByPrice, st.SortField)
	assert.Equal(t, domain.SortDescending, st.SortDirection)
	assert.Contains(t, out.String(), "price=5..50")
	assert.Contains(t, out.String(), "in stock only")

	r.exec("instock")
	assert.False(t, svc.lastState().InStockOnly, "bare instock toggles")

	r.exec("category")
	assert.Equal(t, domain.CategoryAll, svc.lastState().Category)

	r.exec("clear")
	assert.Equal(t, domain.NewQueryState(), svc.lastState())
}

func TestREPL_ErrorAndRetry(t *testing.T) {
	svc := &stubCatalog{products: helpers.CreateTestProducts(2)}
	r, out := newREPL(t, svc)

	svc.setFail(true)
	r.exec("retry")
	assert.Contains(t, out.String(), "Error: "+domain.FetchErrorMessage)
	assert.Contains(t, out.String(), "Product 01", "previous records stay visible")

	svc.setFail(false)
	out.Reset()
	r.exec("retry")
	assert.NotContains(t, out.String(), "Error:")
	assert.Contains(t, out.String(), "Product 02")
}

func TestREPL_BadInput(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "unknown_command", line: "frobnicate", want: "Unknown command: frobnicate"},
		{name: "bad_sort_column", line: "sort weight", want: `cannot sort by "weight"`},
		{name: "sort_without_column", line: "sort", want: "usage: sort"},
		{name: "bad_page", line: "page two", want: `invalid page "two"`},
		{name: "bad_switch", line: "instock maybe", want: "instock expects on or off"},
	}

	svc := &stubCatalog{}
	r, out := newREPL(t, svc)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			assert.False(t, r.exec(tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestREPL_CategoriesAndQuit(t *testing.T) {
	svc := &stubCatalog{}
	r, out := newREPL(t, svc)

	require.Eventually(t, func() bool { return len(r.session.Snapshot().Categories) == 4 }, 2*time.Second, 5*time.Millisecond)

	r.exec("categories")
	assert.Equal(t, "All\nBooks\nElectronics\nLighting\nToys\n", out.String())

	assert.True(t, r.exec("quit"))
	assert.True(t, r.exec("exit"))
}

func TestREPL_Completer(t *testing.T) {
	svc := &stubCatalog{}
	r, _ := newREPL(t, svc)
	require.Eventually(t, func() bool { return len(r.session.Snapshot().Categories) == 4 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"categories", "category"}, sortedCopy(r.completer("cat")))
	assert.Equal(t, []string{"category Lighting"}, r.completer("category li"))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestRender_States(t *testing.T) {
	product := *helpers.CreateTestProduct(func(p *domain.Product) {
		p.Price = decimal.RequireFromString("24.5")
		p.StockQuantity = 0
	})

	tests := []struct {
		name string
		view session.View
		want []string
		not  []string
	}{
		{
			name: "initial_loading",
			view: session.View{Loading: true, Page: 1, TotalPages: 1, State: domain.NewQueryState()},
			want: []string{"Loading..."},
			not:  []string{"NAME"},
		},
		{
			name: "empty",
			view: session.View{Records: []domain.Product{}, Page: 1, TotalPages: 1, State: domain.NewQueryState()},
			want: []string{"No products match your filters."},
		},
		{
			name: "populated",
			view: session.View{
				Records: []domain.Product{product}, TotalCount: 1, Page: 1, TotalPages: 1,
				State: domain.NewQueryState(),
			},
			want: []string{"Desk Lamp", "$24.50", "Out of stock", "2024-01-15", "Page 1 of 1 (1 product)", " prev ", " next "},
		},
		{
			name: "error_keeps_records",
			view: session.View{
				Records: []domain.Product{product}, TotalCount: 1, Page: 1, TotalPages: 1,
				Error: domain.FetchErrorMessage, State: domain.NewQueryState(),
			},
			want: []string{"Error: " + domain.FetchErrorMessage, "Desk Lamp"},
		},
		{
			name: "refreshing_with_records",
			view: session.View{
				Records: []domain.Product{product}, TotalCount: 30, Page: 2, TotalPages: 3,
				HasNext: true, HasPrev: true, Loading: true, State: domain.NewQueryState(),
			},
			want: []string{"Loading...", "Desk Lamp", "[prev]  Page 2 of 3 (30 products)  [next]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			render(&buf, tt.view)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, buf.String(), n)
			}
		})
	}
}
