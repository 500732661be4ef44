// cmd/catalog/render.go
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ammerola/catalog-browser/internal/core/domain"
	"github.com/ammerola/catalog-browser/internal/core/session"
)

// render writes the filter summary, the result table and the pager
func render(w io.Writer, v session.View) {
	fmt.Fprintln(w, filterSummary(v))

	switch {
	case v.Loading && len(v.Records) == 0:
		fmt.Fprintln(w, "Loading...")
		return
	case v.Error != "":
		fmt.Fprintf(w, "Error: %s (type 'retry' to try again)\n", v.Error)
	case v.Loading:
		fmt.Fprintln(w, "Loading...")
	case v.Empty():
		fmt.Fprintln(w, "No products match your filters.")
		return
	}

	if len(v.Records) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tPRICE\tSTOCK\tCREATED")
	for _, p := range v.Records {
		fmt.Fprintf(tw, "%s\t%s\t$%s\t%s\t%s\n",
			p.Name,
			p.Category,
			p.Price.StringFixed(domain.PriceScale),
			stockLabel(p),
			p.CreatedAt.Format("2006-01-02"))
	}
	tw.Flush()

	fmt.Fprintln(w, pager(v))
}

func filterSummary(v session.View) string {
	st := v.State

	parts := []string{
		fmt.Sprintf("search=%q", v.Input.Search),
		"category=" + st.Category,
		"price=" + priceRange(v.Input.MinPrice, v.Input.MaxPrice),
	}
	if st.InStockOnly {
		parts = append(parts, "in stock only")
	}
	parts = append(parts, fmt.Sprintf("sort=%s %s", st.SortField, st.SortDirection))
	if v.Settling() {
		parts = append(parts, "(typing)")
	}

	return strings.Join(parts, "  ")
}

func priceRange(min, max string) string {
	if min == "" && max == "" {
		return "any"
	}
	if min == "" {
		min = "*"
	}
	if max == "" {
		max = "*"
	}
	return min + ".." + max
}

func stockLabel(p domain.Product) string {
	if !p.InStock() {
		return "Out of stock"
	}
	return fmt.Sprintf("In stock (%d)", p.StockQuantity)
}

func pager(v session.View) string {
	prev, next := "[prev]", "[next]"
	if !v.HasPrev {
		prev = " prev "
	}
	if !v.HasNext {
		next = " next "
	}

	noun := "products"
	if v.TotalCount == 1 {
		noun = "product"
	}

	return fmt.Sprintf("%s  Page %d of %d (%d %s)  %s", prev, v.Page, v.TotalPages, v.TotalCount, noun, next)
}

func renderCategories(w io.Writer, categories []string) {
	fmt.Fprintf(w, "%s\n", domain.CategoryAll)
	for _, c := range categories {
		fmt.Fprintf(w, "%s\n", c)
	}
}
