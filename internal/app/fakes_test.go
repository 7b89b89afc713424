package app_test

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"soarfare/internal/domain"
)

// ---- fakes ----

type fakeBackend struct {
	mu sync.Mutex

	faqs         []map[string]any
	faqsErr      error
	testimonials []map[string]any
	testErr      error

	points      map[string]any
	pointsErr   error
	purchase    map[string]any
	purchaseErr error
	purchased   []int64
	fare        map[string]any
	fareErr     error
	fareCalls   int

	bookings   map[string]any
	invoices   map[string]any
	listErr    error
	lastQuery  domain.ListQuery
	searchHits int
	search     domain.Relay
	searchErr  error
	lastForm   url.Values
}

func (f *fakeBackend) FAQs(ctx context.Context) ([]map[string]any, error) {
	return f.faqs, f.faqsErr
}
func (f *fakeBackend) Testimonials(ctx context.Context) ([]map[string]any, error) {
	return f.testimonials, f.testErr
}
func (f *fakeBackend) UserPoints(ctx context.Context, token string) (map[string]any, error) {
	return f.points, f.pointsErr
}
func (f *fakeBackend) PurchasePoints(ctx context.Context, token string, amount int64) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchased = append(f.purchased, amount)
	return f.purchase, f.purchaseErr
}
func (f *fakeBackend) FareSourceCode(ctx context.Context, token, flightID string) (map[string]any, error) {
	f.fareCalls++
	return f.fare, f.fareErr
}
func (f *fakeBackend) Bookings(ctx context.Context, token string, q domain.ListQuery) (map[string]any, error) {
	f.lastQuery = q
	return f.bookings, f.listErr
}
func (f *fakeBackend) Invoices(ctx context.Context, token string, q domain.ListQuery) (map[string]any, error) {
	f.lastQuery = q
	return f.invoices, f.listErr
}
func (f *fakeBackend) SearchFlights(ctx context.Context, token string, form url.Values) (domain.Relay, error) {
	f.searchHits++
	f.lastForm = form
	return f.search, f.searchErr
}

// fakeCache round-trips through JSON like the redis cache does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type miss struct {
	kind   string
	status int
}

type fakeRepo struct {
	mu           sync.Mutex
	faqs         []domain.FAQ
	testimonials []domain.Testimonial
	misses       []miss
}

func (r *fakeRepo) ReplaceFAQs(ctx context.Context, items []domain.FAQ) error {
	r.faqs = items
	return nil
}
func (r *fakeRepo) ReplaceTestimonials(ctx context.Context, items []domain.Testimonial) error {
	r.testimonials = items
	return nil
}
func (r *fakeRepo) LogMiss(ctx context.Context, kind string, status int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses = append(r.misses, miss{kind, status})
	return nil
}
func (r *fakeRepo) ListFAQs(ctx context.Context) ([]domain.FAQ, error) { return r.faqs, nil }
func (r *fakeRepo) ListTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	return r.testimonials, nil
}

type fakeSessions struct {
	saved    []domain.SelectedFlight
	saveErr  error
	traveler json.RawMessage
}

func (s *fakeSessions) SaveSelectedFlight(ctx context.Context, sid string, sf domain.SelectedFlight) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, sf)
	return nil
}
func (s *fakeSessions) SelectedFlight(ctx context.Context, sid string) (domain.SelectedFlight, error) {
	if len(s.saved) == 0 {
		return domain.SelectedFlight{}, domain.ErrNotFound
	}
	return s.saved[len(s.saved)-1], nil
}
func (s *fakeSessions) SaveTravelerDetails(ctx context.Context, sid string, d json.RawMessage) error {
	s.traveler = d
	return nil
}
func (s *fakeSessions) TravelerDetails(ctx context.Context, sid string) (json.RawMessage, error) {
	if s.traveler == nil {
		return nil, domain.ErrNotFound
	}
	return s.traveler, nil
}

type fakeCursors struct {
	mu   sync.Mutex
	curs map[string]domain.ListCursor
}

func newFakeCursors() *fakeCursors {
	return &fakeCursors{curs: map[string]domain.ListCursor{}}
}

func (f *fakeCursors) ListCursor(ctx context.Context, sid, list string) (domain.ListCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.curs[sid+":"+list], nil
}

func (f *fakeCursors) BeginListLoad(ctx context.Context, sid, list string, page int, search string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.curs[sid+":"+list]
	c.Page, c.Search = page, search
	c.Gen++
	f.curs[sid+":"+list] = c
	return c.Gen, nil
}

func (f *fakeCursors) ListGen(ctx context.Context, sid, list string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.curs[sid+":"+list].Gen, nil
}
