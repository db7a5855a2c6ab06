// Package pagination slices fully fetched lists into fixed size pages.
package pagination

// PageSize is the number of items on a page
const PageSize = 10

// Page returns the items of the 1-indexed page. Pages before the first or
// past the last are empty.
func Page[T any](items []T, page int) []T {
	if page < 1 {
		return []T{}
	}
	start := (page - 1) * PageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end]
}

// Pages returns how many pages n items fill
func Pages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// Paginator tracks the current page of a list. Replacing the list starts
// over at page 1.
type Paginator[T any] struct {
	items []T
	page  int
}

// New creates a paginator positioned on the first page
func New[T any](items []T) *Paginator[T] {
	return &Paginator[T]{items: items, page: 1}
}

// SetItems replaces the list and returns to page 1
func (p *Paginator[T]) SetItems(items []T) {
	p.items = items
	p.page = 1
}

// Goto moves to page, clamped to the available pages
func (p *Paginator[T]) Goto(page int) {
	last := Pages(len(p.items))
	switch {
	case page < 1 || last == 0:
		p.page = 1
	case page > last:
		p.page = last
	default:
		p.page = page
	}
}

// Next advances one page if there is one
func (p *Paginator[T]) Next() {
	if p.HasNext() {
		p.page++
	}
}

// Prev goes back one page if there is one
func (p *Paginator[T]) Prev() {
	if p.HasPrev() {
		p.page--
	}
}

// Current returns the items of the current page
func (p *Paginator[T]) Current() []T {
	return Page(p.items, p.page)
}

// CurrentPage returns the 1-indexed current page
func (p *Paginator[T]) CurrentPage() int {
	return p.page
}

// TotalPages returns the number of pages
func (p *Paginator[T]) TotalPages() int {
	return Pages(len(p.items))
}

func (p *Paginator[T]) HasNext() bool {
	return p.page < Pages(len(p.items))
}

func (p *Paginator[T]) HasPrev() bool {
	return p.page > 1
}
