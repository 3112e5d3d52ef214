package echoweb

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matkerbino/murim/core"
)

var (
	searchParam   = "search"
	pageParam     = "page"
	orderingParam = "ordering"
)

// ListQuery holds the search, page and ordering query params of a listing.
type ListQuery struct {
	Search    string
	Page      int
	Ordering  string
	Orderings []core.Ordering
	Extra     url.Values // kept on page and sort links
}

func (q *ListQuery) Bind(ctx echo.Context) {
	q.Search = core.CleanString(ctx.QueryParam(searchParam))
	q.Page, _ = strconv.Atoi(ctx.QueryParam(pageParam))
	if q.Page < 1 {
		q.Page = 1
	}
	q.Ordering = strings.TrimSpace(ctx.QueryParam(orderingParam))
	q.Orderings = core.ParseOrdering(q.Ordering)
}

func (q ListQuery) values() url.Values {
	vals := url.Values{}
	for k, v := range q.Extra {
		vals[k] = v
	}
	if q.Search != "" {
		vals.Set(searchParam, q.Search)
	}
	if q.Ordering != "" {
		vals.Set(orderingParam, q.Ordering)
	}
	return vals
}

// PageURL is `base` for page n, keeping the search and ordering.
func (q ListQuery) PageURL(base string, n int) string {
	vals := q.values()
	if n > 1 {
		vals.Set(pageParam, strconv.Itoa(n))
	}
	if len(vals) == 0 {
		return base
	}
	return base + "?" + vals.Encode()
}

// SortURL orders by `field`, toggling the direction when it is already the current ordering.
func (q ListQuery) SortURL(base, field string) string {
	ordering := field
	if len(q.Orderings) > 0 && q.Orderings[0].Field == field && q.Orderings[0].Ascending {
		ordering = "-" + field
	}
	q.Ordering = ordering
	return q.PageURL(base, 1)
}

// pager feeds the "pagination" template.
type pager struct {
	Number     int
	TotalPages int
	Total      int
	URL        func(int) string
}

func newPager[T any](p core.Page[T], q ListQuery, base string) pager {
	return pager{
		Number:     p.Number,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		URL:        func(n int) string { return q.PageURL(base, n) },
	}
}

func (p pager) HasPrev() bool { return p.Number > 1 }
func (p pager) HasNext() bool { return p.Number < p.TotalPages }
func (p pager) Prev() int     { return p.Number - 1 }
func (p pager) Next() int     { return p.Number + 1 }

func (p pager) Numbers() []int {
	nums := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		nums = append(nums, i)
	}
	return nums
}

func paramID(ctx echo.Context, name ...string) (int, error) {
	param := "id"
	if len(name) > 0 {
		param = name[0]
	}
	id, err := strconv.Atoi(ctx.Param(param))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
