package app

import (
	"context"
	"fmt"

	"soarfare/internal/domain"
)

// DashboardBackend serves the account datatables.
type DashboardBackend interface {
	Bookings(ctx context.Context, token string, q domain.ListQuery) (map[string]any, error)
	Invoices(ctx context.Context, token string, q domain.ListQuery) (map[string]any, error)
}

// DashboardService serves the bookings and invoices tables. With cursors
// set, each visitor's position in a list survives between requests.
type DashboardService struct {
	backend DashboardBackend
	cursors domain.ListCursors
}

func NewDashboardService(b DashboardBackend, cursors domain.ListCursors) *DashboardService {
	return &DashboardService{backend: b, cursors: cursors}
}

// Bookings loads a page of the visitor's bookings. A search term different
// from the one saved by the previous request starts again at page 1.
// domain.ErrSuperseded means a newer request for the same list was issued
// while this one was loading.
func (s *DashboardService) Bookings(ctx context.Context, token, sid string, page int, search string) (ListState[domain.Booking], error) {
	return browse(ctx, s.cursors, sid, domain.ListBookings, s.BookingFetcher(token), page, search)
}

func (s *DashboardService) Invoices(ctx context.Context, token, sid string, page int, search string) (ListState[domain.Invoice], error) {
	return browse(ctx, s.cursors, sid, domain.ListInvoices, s.InvoiceFetcher(token), page, search)
}

func (s *DashboardService) BookingFetcher(token string) Fetcher[domain.Booking] {
	return func(ctx context.Context, q domain.ListQuery) (domain.ListPage[domain.Booking], error) {
		body, err := s.backend.Bookings(ctx, token, q)
		if err != nil {
			return domain.ListPage[domain.Booking]{}, fmt.Errorf("list bookings: %w", err)
		}
		raw := datatableItems(body)
		items := make([]domain.Booking, 0, len(raw))
		for _, m := range raw {
			items = append(items, mapBooking(m))
		}
		return domain.ListPage[domain.Booking]{Items: items, Total: datatableTotal(body, len(items))}, nil
	}
}

func (s *DashboardService) InvoiceFetcher(token string) Fetcher[domain.Invoice] {
	return func(ctx context.Context, q domain.ListQuery) (domain.ListPage[domain.Invoice], error) {
		body, err := s.backend.Invoices(ctx, token, q)
		if err != nil {
			return domain.ListPage[domain.Invoice]{}, fmt.Errorf("list invoices: %w", err)
		}
		raw := datatableItems(body)
		items := make([]domain.Invoice, 0, len(raw))
		for _, m := range raw {
			items = append(items, mapInvoice(m))
		}
		return domain.ListPage[domain.Invoice]{Items: items, Total: datatableTotal(body, len(items))}, nil
	}
}

func browse[T any](ctx context.Context, cursors domain.ListCursors, sid, list string, fetch Fetcher[T], page int, search string) (ListState[T], error) {
	v := NewListView(fetch)
	var saved domain.ListCursor
	if cursors != nil && sid != "" {
		cur, err := cursors.ListCursor(ctx, sid, list)
		if err != nil {
			return ListState[T]{}, fmt.Errorf("read %s cursor: %w", list, err)
		}
		saved = cur
		v.Track(sessionTracker{cursors: cursors, sid: sid, list: list})
	}
	if saved.Gen > 0 && search != saved.Search {
		v.SetSearch(search)
	} else {
		v.Restore(page, search)
	}

	applied, err := v.Load(ctx)
	if err != nil {
		return ListState[T]{}, err
	}
	if !applied {
		return ListState[T]{}, domain.ErrSuperseded
	}
	return v.State(), nil
}

// sessionTracker keeps a list's generation in the visitor's session so
// loads from separate requests are ordered too.
type sessionTracker struct {
	cursors domain.ListCursors
	sid     string
	list    string
}

func (t sessionTracker) Begin(ctx context.Context, page int, search string) (uint64, error) {
	return t.cursors.BeginListLoad(ctx, t.sid, t.list, page, search)
}

func (t sessionTracker) Current(ctx context.Context) (uint64, error) {
	return t.cursors.ListGen(ctx, t.sid, t.list)
}
