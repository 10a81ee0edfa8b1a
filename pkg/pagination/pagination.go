package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultPageIndex is the page served when none (or garbage) is requested.
	DefaultPageIndex = 1
	// DefaultPageSize is the standard page size when a size is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows any listing can request.
	MaxPageSize = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	PageIndex int
	PageSize  int
}

// Parse reads raw query values. Non-integer or non-positive values fall back to
// the defaults instead of failing the request.
func Parse(rawIndex, rawSize string) Params {
	return Params{
		PageIndex: parsePositive(rawIndex, DefaultPageIndex),
		PageSize:  NormalizeSize(parsePositive(rawSize, DefaultPageSize)),
	}
}

func parsePositive(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// NormalizeSize enforces the default and maximum page sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Window is a resolved page against a known row count.
type Window struct {
	PageIndex  int
	PageSize   int
	TotalItems int64
	TotalPages int
}

// Offset is the number of rows to skip for the resolved page.
func (w Window) Offset() int {
	return (w.PageIndex - 1) * w.PageSize
}

// Resolve clamps the requested page into [1, TotalPages]. An empty result set
// still has one (empty) page.
func (p Params) Resolve(totalItems int64) Window {
	size := NormalizeSize(p.PageSize)
	pages := int((totalItems + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	index := p.PageIndex
	if index < 1 {
		index = DefaultPageIndex
	}
	if index > pages {
		index = pages
	}
	return Window{PageIndex: index, PageSize: size, TotalItems: totalItems, TotalPages: pages}
}

// Page is the listing envelope returned to clients.
type Page[T any] struct {
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	PageIndex  int   `json:"page_index"`
	PageSize   int   `json:"page_size"`
	Items      []T   `json:"items"`
}

// NewPage pairs a resolved window with its rows.
func NewPage[T any](w Window, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		TotalPages: w.TotalPages,
		TotalItems: w.TotalItems,
		PageIndex:  w.PageIndex,
		PageSize:   w.PageSize,
		Items:      items,
	}
}
