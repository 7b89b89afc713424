package domain

import (
	"context"
	"encoding/json"
	"net/http"
)

// Backend is the subset of the external SoarFare API the app layer calls
// with typed results. Pass-through routes use the client directly.
type Backend interface {
	FAQs(ctx context.Context) ([]map[string]any, error)
	Testimonials(ctx context.Context) ([]map[string]any, error)
	UserPoints(ctx context.Context, token string) (map[string]any, error)
	PurchasePoints(ctx context.Context, token string, amount int64) (map[string]any, error)
	FareSourceCode(ctx context.Context, token, flightID string) (map[string]any, error)
	Bookings(ctx context.Context, token string, q ListQuery) (map[string]any, error)
	Invoices(ctx context.Context, token string, q ListQuery) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SessionStore replaces the browser's sessionStorage between booking steps.
type SessionStore interface {
	SaveSelectedFlight(ctx context.Context, sid string, sf SelectedFlight) error
	SelectedFlight(ctx context.Context, sid string) (SelectedFlight, error)
	SaveTravelerDetails(ctx context.Context, sid string, details json.RawMessage) error
	TravelerDetails(ctx context.Context, sid string) (json.RawMessage, error)
}

// ListCursors remembers where a visitor is in each dashboard list. Every
// load bumps the list's generation so older loads can tell they are stale.
type ListCursors interface {
	ListCursor(ctx context.Context, sid, list string) (ListCursor, error)
	BeginListLoad(ctx context.Context, sid, list string, page int, search string) (uint64, error)
	ListGen(ctx context.Context, sid, list string) (uint64, error)
}

type ContentRepository interface {
	// Write paths
	ReplaceFAQs(ctx context.Context, items []FAQ) error
	ReplaceTestimonials(ctx context.Context, items []Testimonial) error
	LogMiss(ctx context.Context, kind string, status int, reason string) error

	// Read paths
	ListFAQs(ctx context.Context) ([]FAQ, error)
	ListTestimonials(ctx context.Context) ([]Testimonial, error)
}

// ListQuery is the datatable window sent to the backend.
type ListQuery struct {
	Start  int
	Length int
	Search string
}

const (
	ListBookings = "bookings"
	ListInvoices = "invoices"
)

// ListCursor is the saved position of one list. The zero value means
// nothing was saved yet.
type ListCursor struct {
	Page   int
	Search string
	Gen    uint64
}

type ListPage[T any] struct {
	Items []T
	Total int
}

// Relay is a backend response passed through to the browser as-is.
type Relay struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

func (r Relay) OK() bool { return r.Status >= 200 && r.Status < 300 }
