// Package pagination turns a counted, ordered listing into numbered pages.
package pagination

import (
	"strconv"
	"strings"
)

// Page is one page of a listing along with its navigation metadata.
type Page[T any] struct {
	Items       []T   `json:"object_list"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	// NextNumber and PreviousNumber are zero when there is no such page.
	NextNumber     int `json:"next_page_number,omitempty"`
	PreviousNumber int `json:"previous_page_number,omitempty"`
}

// ParseNumber reads a raw ?page= value. Anything missing, non-numeric,
// zero or negative resolves to the first page.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NumPages returns how many pages count items fill. An empty listing still has one page.
func NumPages(count int64, perPage int) int {
	if perPage <= 0 || count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// Clamp resolves a requested page number against the listing size,
// pinning numbers past the end to the last page.
func Clamp(number int, count int64, perPage int) int {
	if number < 1 {
		return 1
	}
	if last := NumPages(count, perPage); number > last {
		return last
	}
	return number
}

// Offset is the zero-based index of the first item on page number.
func Offset(number, perPage int) int {
	if number < 1 {
		return 0
	}
	return (number - 1) * perPage
}

// New builds a page from an already fetched slice. number must be clamped.
func New[T any](items []T, number int, count int64, perPage int) Page[T] {
	if items == nil {
		items = []T{}
	}
	numPages := NumPages(count, perPage)
	p := Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
	if p.HasNext {
		p.NextNumber = number + 1
	}
	if p.HasPrevious {
		p.PreviousNumber = number - 1
	}
	return p
}

// Map converts the items of a page while keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return Page[U]{
		Items:          out,
		Number:         p.Number,
		NumPages:       p.NumPages,
		Count:          p.Count,
		PerPage:        p.PerPage,
		HasNext:        p.HasNext,
		HasPrevious:    p.HasPrevious,
		NextNumber:     p.NextNumber,
		PreviousNumber: p.PreviousNumber,
	}
}
