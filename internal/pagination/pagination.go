// Package pagination turns page/limit requests into limit/offset windows over a
// Source and wraps the window in an Envelope carrying navigation links.
package pagination

import (
	"context"
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query parameter names used both for parsing and for building links.
const (
	PageParam  = "page"
	LimitParam = "limit"
)

// Request is a validated page request: Page >= 1, 1 <= Limit <= MaxLimit.
type Request struct {
	Page  int
	Limit int
}

// Offset returns the number of items skipped before the requested window.
func (r Request) Offset() int {
	return r.Limit * (r.Page - 1)
}

// Query bundles a page request with the URL it arrived on, so links can
// preserve every non-pagination filter of the original request.
type Query struct {
	Request
	BaseURL string
	Params  url.Values
}

// Envelope is one page of results. JSON field names follow the public wire
// contract: count/next/previous/results.
type Envelope[T any] struct {
	Total    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Items    []T     `json:"results"`
}

// TotalPages reports how many pages of size limit are needed for total items.
// An empty collection still has one (empty) page; a zero limit has none.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	if total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// Paginate counts the source, fetches the requested window and builds the
// envelope. Source errors are returned as is.
func Paginate[T any](ctx context.Context, req Request, src Source[T], baseURL string, query url.Values) (Envelope[T], error) {
	total, err := src.Count(ctx)
	if err != nil {
		return Envelope[T]{}, err
	}

	items := []T{}
	if req.Limit > 0 {
		fetched, err := src.Fetch(ctx, req.Limit, req.Offset())
		if err != nil {
			return Envelope[T]{}, err
		}
		if fetched != nil {
			items = fetched
		}
	}

	env := Envelope[T]{Total: total, Items: items}
	if total == 0 {
		return env, nil
	}
	if req.Page < TotalPages(total, req.Limit) {
		env.Next = pageLink(baseURL, query, req.Page+1, req.Limit)
	}
	if req.Page > 1 {
		env.Previous = pageLink(baseURL, query, req.Page-1, req.Limit)
	}
	return env, nil
}

// Run is Paginate driven by a Query.
func Run[T any](ctx context.Context, q Query, src Source[T]) (Envelope[T], error) {
	return Paginate(ctx, q.Request, src, q.BaseURL, q.Params)
}

// Map converts the items of env with fn, keeping count and links intact.
// fn receives the whole window so conversions can batch their lookups.
func Map[T, U any](env Envelope[T], fn func(items []T) ([]U, error)) (Envelope[U], error) {
	out := Envelope[U]{Total: env.Total, Next: env.Next, Previous: env.Previous, Items: []U{}}
	if len(env.Items) == 0 {
		return out, nil
	}
	converted, err := fn(env.Items)
	if err != nil {
		return Envelope[U]{}, err
	}
	if converted != nil {
		out.Items = converted
	}
	return out, nil
}

func pageLink(baseURL string, query url.Values, page, limit int) *string {
	q := make(url.Values, len(query)+2)
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(PageParam, strconv.Itoa(page))
	q.Set(LimitParam, strconv.Itoa(limit))
	link := baseURL + "?" + q.Encode()
	return &link
}
