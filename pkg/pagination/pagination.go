package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultPerPage is the standard page size when a size is not provided.
	DefaultPerPage = 20
	// MaxPerPage is the largest page the commerce API serves.
	MaxPerPage = 100

	HeaderTotal      = "X-WP-Total"
	HeaderTotalPages = "X-WP-TotalPages"
)

// Page is one page of a listing plus the totals reported in response headers.
type Page[T any] struct {
	Items       []T `json:"data"`
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.CurrentPage < p.Pages
}

// NormalizePerPage enforces the default and maximum page sizes.
func NormalizePerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// NormalizePage treats anything below one as the first page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// FromHeaders builds a page from the listing body and its pagination headers.
// Missing or malformed headers count as zero.
func FromHeaders[T any](items []T, header http.Header, currentPage int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Total:       headerInt(header, HeaderTotal),
		Pages:       headerInt(header, HeaderTotalPages),
		CurrentPage: NormalizePage(currentPage),
	}
}

// Empty returns a page with no items.
func Empty[T any](currentPage int) Page[T] {
	return Page[T]{Items: []T{}, CurrentPage: NormalizePage(currentPage)}
}

func headerInt(header http.Header, key string) int {
	if header == nil {
		return 0
	}
	value, err := strconv.Atoi(strings.TrimSpace(header.Get(key)))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
