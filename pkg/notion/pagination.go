package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// PaginationOptions controls how a listing is walked.
type PaginationOptions struct {
	// PageSize is sent as page_size, clamped to 1..100.
	PageSize int
	// MaxPages stops the run after that many pages; 0 means no limit.
	MaxPages int
}

// DefaultPaginationOptions returns the default options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PageSize: constants.DefaultPageSize,
		MaxPages: 0,
	}
}

// PageRequest is the request template of a listing. Body is copied for every
// page and receives start_cursor and page_size.
type PageRequest struct {
	Path string
	Body map[string]any
}

// PageFetcher sends one page request and returns the raw response body.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string, body map[string]any) ([]byte, error)
}

// Decoder turns one element of the results array into a T.
type Decoder[T any] func(raw json.RawMessage) (T, error)

// Paginator drains a cursor-paginated listing.
type Paginator[T any] struct {
	fetcher PageFetcher
	request PageRequest
	decode  Decoder[T]
	options PaginationOptions
}

// NewPaginator creates a paginator. Nil options use DefaultPaginationOptions.
func NewPaginator[T any](fetcher PageFetcher, request PageRequest, decode Decoder[T], opts *PaginationOptions) *Paginator[T] {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	options := *opts
	if options.PageSize <= 0 || options.PageSize > constants.MaxPageSize {
		options.PageSize = constants.MaxPageSize
	}

	return &Paginator[T]{
		fetcher: fetcher,
		request: request,
		decode:  decode,
		options: options,
	}
}

// Iterate starts a fresh cursor run.
func (p *Paginator[T]) Iterate() *Iterator[T] {
	return &Iterator[T]{
		paginator: p,
		seen:      make(map[string]struct{}),
	}
}

// Drain fetches every page and returns all items in page order. Any failure
// discards the items collected so far.
func (p *Paginator[T]) Drain(ctx context.Context) ([]T, error) {
	it := p.Iterate()

	var items []T
	for it.Next(ctx) {
		items = append(items, it.Item())
	}

	err := it.Err()
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []T{}
	}

	return items, nil
}

// Iterator yields items lazily, fetching a page when its buffer runs out.
// It is not restartable; call Paginator.Iterate for a new run.
type Iterator[T any] struct {
	paginator *Paginator[T]

	buffer []T
	item   T
	err    error

	cursor string
	seen   map[string]struct{}
	pages  int
	done   bool
}

// Next advances to the next item. It returns false when the listing is
// exhausted or an error occurred; check Err afterwards.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	for len(it.buffer) == 0 {
		if it.err != nil || it.done {
			return false
		}

		it.fetch(ctx)
	}

	it.item = it.buffer[0]
	it.buffer = it.buffer[1:]

	return true
}

// Item returns the current item.
func (it *Iterator[T]) Item() T {
	return it.item
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Cursor returns the continuation state after the last fetched page.
func (it *Iterator[T]) Cursor() Cursor {
	return Cursor{Next: it.cursor, HasMore: !it.done}
}

// Pages returns the number of pages fetched so far.
func (it *Iterator[T]) Pages() int {
	return it.pages
}

func (it *Iterator[T]) fetch(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		it.err = err

		return
	}

	p := it.paginator

	body := make(map[string]any, len(p.request.Body)+2)
	maps.Copy(body, p.request.Body)
	body["page_size"] = p.options.PageSize

	if it.cursor != "" {
		body["start_cursor"] = it.cursor
	}

	data, err := p.fetcher.FetchPage(ctx, p.request.Path, body)
	if err != nil {
		it.err = err

		return
	}

	it.pages++

	if !gjson.ValidBytes(data) {
		it.err = &APIError{Kind: KindMalformedProperty, Message: "list response is not valid JSON"}

		return
	}

	envelope := gjson.ParseBytes(data)

	results := envelope.Get("results")
	if !results.IsArray() {
		it.err = &APIError{Kind: KindMalformedProperty, Message: "list response has no results array"}

		return
	}

	hasMore := envelope.Get("has_more").Bool()
	next := envelope.Get("next_cursor").String()

	if hasMore {
		if next == "" {
			it.err = &APIError{Kind: KindPaginationStalled, Message: "has_more is set but next_cursor is empty"}

			return
		}

		if _, repeated := it.seen[next]; repeated {
			it.err = &APIError{
				Kind:    KindPaginationStalled,
				Message: fmt.Sprintf("cursor %q returned twice after %d pages", next, it.pages),
			}

			return
		}

		it.seen[next] = struct{}{}
		it.cursor = next
	} else {
		it.done = true
	}

	if p.options.MaxPages > 0 && it.pages >= p.options.MaxPages {
		it.done = true
	}

	items := make([]T, 0, len(results.Array()))

	for _, result := range results.Array() {
		item, err := p.decode(json.RawMessage(result.Raw))
		if err != nil {
			it.err = err

			return
		}

		items = append(items, item)
	}

	it.buffer = items
}
