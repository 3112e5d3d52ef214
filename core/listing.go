package core

import (
	"sort"
	"strings"
)

// Ordering is one `ordering` query term, eg. "-nome" -> {Field: "nome", Ascending: false}.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering parses a comma separated list of fields, each optionally prefixed with "-".
func ParseOrdering(s string) []Ordering {
	var orderings []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings
}

// Less reports whether a sorts before b.
type Less[T any] func(a, b T) bool

// Filter keeps the items for which any of the strings returned by `fields` contains `term`.
// An empty term keeps everything.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	term = CleanString(term)
	if term == "" || fields == nil {
		return items
	}
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if ContainsFold(term, fields(item)...) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Order sorts a copy of `items` by the given orderings; unknown fields are ignored.
func Order[T any](items []T, orderings []Ordering, sorters map[string]Less[T]) []T {
	type key struct {
		less Less[T]
		asc  bool
	}
	keys := make([]key, 0, len(orderings))
	for _, ord := range orderings {
		if less, ok := sorters[ord.Field]; ok {
			keys = append(keys, key{less: less, asc: ord.Ascending})
		}
	}
	if len(keys) == 0 {
		return items
	}

	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, k := range keys {
			a, b := sorted[i], sorted[j]
			if !k.asc {
				a, b = b, a
			}
			if k.less(a, b) {
				return true
			}
			if k.less(b, a) {
				return false
			}
		}
		return false
	})
	return sorted
}

// Page is one page of an in-memory list.
type Page[T any] struct {
	Items      []T
	Number     int
	PerPage    int
	Total      int
	TotalPages int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

// Numbers lists every page number, for the pagination bar.
func (p Page[T]) Numbers() []int {
	nums := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		nums = append(nums, i)
	}
	return nums
}

// TotalPages is ceil(total / perPage).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Paginate slices `items` for page `number` (1-based). Out of range numbers are clamped.
func Paginate[T any](items []T, number, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = 10
	}
	total := len(items)
	pages := TotalPages(total, perPage)
	if number > pages {
		number = pages
	}
	if number < 1 {
		number = 1
	}

	start := (number - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      items[start:end],
		Number:     number,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}
