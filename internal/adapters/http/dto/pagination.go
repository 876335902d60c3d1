package dto

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// PageRequest carries offset/limit paging parameters from the query string.
// The collection is a small in-memory slice, so offset paging is exact and
// stable enough; no cursors needed.
type PageRequest struct {
	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`

	// Offset is the number of items to skip from the start.
	Offset int `form:"offset" validate:"omitempty,gte=0"`
}

// GetLimit returns the limit with defaults and caps applied.
func (p *PageRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	if p.Limit > MaxLimit {
		return MaxLimit
	}

	return p.Limit
}

// GetOffset returns the offset, never negative.
func (p *PageRequest) GetOffset() int {
	if p.Offset < 0 {
		return 0
	}

	return p.Offset
}

// PagedResponse is the generic envelope for listing endpoints.
type PagedResponse[T any] struct {
	// Items is the page of results.
	Items []T `json:"items"`

	// Total is the number of items matching the query across all pages.
	Total int `json:"total"`

	// Limit and Offset echo the effective paging parameters.
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPagedResponse builds a paged response envelope.
func NewPagedResponse[T any](items []T, total, limit, offset int) *PagedResponse[T] {
	if items == nil {
		items = []T{}
	}

	return &PagedResponse[T]{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}
