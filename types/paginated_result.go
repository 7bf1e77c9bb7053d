package types

type PaginationResult[T any] struct {
	Items           []T  `json:"items"`
	TotalItems      int  `json:"total_items"`
	Page            int  `json:"page"`
	PageSize        int  `json:"page_size"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

// NewPaginationResult derives the page metadata from the total row count.
// The next page exists when totalItems > page*pageSize, whatever the length of
// items is.
func NewPaginationResult[T any](items []T, totalItems, page, pageSize int) PaginationResult[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return PaginationResult[T]{
		Items:           items,
		TotalItems:      totalItems,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     HasNextPage(totalItems, page, pageSize),
		HasPreviousPage: page > 1,
	}
}

// HasNextPage reports whether totalItems reaches past page. A page size below
// one never has a next page.
func HasNextPage(totalItems, page, pageSize int) bool {
	return pageSize > 0 && totalItems > page*pageSize
}
