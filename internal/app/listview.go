package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"soarfare/internal/domain"
)

const PageSize = 10

// PageQuery is the datatable window for a 1-based page.
func PageQuery(page int, search string) domain.ListQuery {
	if page < 1 {
		page = 1
	}
	return domain.ListQuery{Start: (page - 1) * PageSize, Length: PageSize, Search: search}
}

// Fetcher loads one window of a server-side list.
type Fetcher[T any] func(ctx context.Context, q domain.ListQuery) (domain.ListPage[T], error)

// LoadTracker orders the loads of one list. Begin records the position a
// load is about to fetch and hands out its generation; a load is current
// while Current still returns that generation.
type LoadTracker interface {
	Begin(ctx context.Context, page int, search string) (uint64, error)
	Current(ctx context.Context) (uint64, error)
}

type localTracker struct{ gen atomic.Uint64 }

func (t *localTracker) Begin(context.Context, int, string) (uint64, error) { return t.gen.Add(1), nil }
func (t *localTracker) Current(context.Context) (uint64, error)            { return t.gen.Load(), nil }

// ListState is a snapshot of a list view.
type ListState[T any] struct {
	Items      []T    `json:"items"`
	Page       int    `json:"page"`
	Search     string `json:"search"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

// ListView holds paging state for a searchable server-side list. Every
// Load issues a fresh request; an answer that arrives after a newer Load
// started is dropped.
type ListView[T any] struct {
	fetch   Fetcher[T]
	tracker LoadTracker

	mu     sync.Mutex
	page   int
	search string
	items  []T
	total  int
}

func NewListView[T any](fetch Fetcher[T]) *ListView[T] {
	return &ListView[T]{fetch: fetch, tracker: &localTracker{}, page: 1}
}

// Track swaps the in-process tracker for one shared with other views of
// the same list.
func (v *ListView[T]) Track(t LoadTracker) {
	v.mu.Lock()
	v.tracker = t
	v.mu.Unlock()
}

// Restore moves the view to a previously saved position without loading.
func (v *ListView[T]) Restore(page int, search string) {
	if page < 1 {
		page = 1
	}
	v.mu.Lock()
	v.page = page
	v.search = search
	v.mu.Unlock()
}

// SetSearch changes the search term and goes back to the first page.
func (v *ListView[T]) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = term
	v.page = 1
}

func (v *ListView[T]) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	v.mu.Lock()
	v.page = p
	v.mu.Unlock()
}

// Load fetches the current page. It reports false when the result was
// discarded because a newer Load superseded it.
func (v *ListView[T]) Load(ctx context.Context) (bool, error) {
	v.mu.Lock()
	page, search, tracker := v.page, v.search, v.tracker
	v.mu.Unlock()

	gen, err := tracker.Begin(ctx, page, search)
	if err != nil {
		return false, fmt.Errorf("begin list load: %w", err)
	}

	res, err := v.fetch(ctx, PageQuery(page, search))

	v.mu.Lock()
	defer v.mu.Unlock()
	cur, cerr := tracker.Current(ctx)
	if cerr != nil {
		return false, fmt.Errorf("check list generation: %w", cerr)
	}
	if cur != gen {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	v.items = res.Items
	v.total = res.Total
	return true, nil
}

func (v *ListView[T]) State() ListState[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := v.items
	if items == nil {
		items = []T{}
	}
	return ListState[T]{
		Items:      items,
		Page:       v.page,
		Search:     v.search,
		Total:      v.total,
		TotalPages: totalPages(v.total),
	}
}

func totalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}
