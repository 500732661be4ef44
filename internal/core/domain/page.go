// internal/core/domain/page.go
package domain

// PageResult holds one window of matching products plus the exact number of
// matches ignoring pagination.
type PageResult struct {
	Records    []Product `json:"records"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}

// TotalPages returns ceil(TotalCount / PageSize)
func (r *PageResult) TotalPages() int {
	size := r.PageSize
	if size <= 0 {
		size = PageSize
	}

	pages := int(r.TotalCount) / size
	if int(r.TotalCount)%size > 0 {
		pages++
	}
	return pages
}

// DisplayTotalPages is TotalPages with an empty result shown as a single page
func (r *PageResult) DisplayTotalPages() int {
	if pages := r.TotalPages(); pages > 0 {
		return pages
	}
	return 1
}

// HasNext reports whether the "next" control is enabled
func (r *PageResult) HasNext() bool {
	return r.Page < r.TotalPages()
}

// HasPrev reports whether the "previous" control is enabled
func (r *PageResult) HasPrev() bool {
	return r.Page > 1
}
