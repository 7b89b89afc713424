package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"soarfare/internal/adapters/observability"
	"soarfare/internal/domain"
)

const (
	SourceCache    = "cache"
	SourceBackend  = "backend"
	SourceSnapshot = "snapshot"
	SourceDefault  = "default"

	cacheKeyFAQs         = "content:faqs"
	cacheKeyTestimonials = "content:testimonials"
)

// ContentBackend is the slice of the backend the marketing sections read.
type ContentBackend interface {
	FAQs(ctx context.Context) ([]map[string]any, error)
	Testimonials(ctx context.Context) ([]map[string]any, error)
}

// ContentService serves FAQs and testimonials. It never fails: when every
// source is unavailable the built-in defaults are returned.
type ContentService struct {
	backend  ContentBackend
	cache    domain.Cache
	repo     domain.ContentRepository // optional
	cacheTTL time.Duration
}

func NewContentService(b ContentBackend, c domain.Cache, repo domain.ContentRepository, ttl time.Duration) *ContentService {
	return &ContentService{backend: b, cache: c, repo: repo, cacheTTL: ttl}
}

func (s *ContentService) FAQs(ctx context.Context) ([]domain.FAQ, string) {
	src := contentSource[domain.FAQ]{
		kind:     "faqs",
		cacheKey: cacheKeyFAQs,
		fetch:    s.backend.FAQs,
		mapItems: mapFAQs,
		defaults: DefaultFAQs,
	}
	if s.repo != nil {
		src.snapshot = s.repo.ListFAQs
	}
	return readContent(ctx, s, src)
}

func (s *ContentService) Testimonials(ctx context.Context) ([]domain.Testimonial, string) {
	src := contentSource[domain.Testimonial]{
		kind:     "testimonials",
		cacheKey: cacheKeyTestimonials,
		fetch:    s.backend.Testimonials,
		mapItems: mapTestimonials,
		defaults: DefaultTestimonials,
	}
	if s.repo != nil {
		src.snapshot = s.repo.ListTestimonials
	}
	return readContent(ctx, s, src)
}

// contentSource is one kind of marketing content. snapshot is nil when no
// repository is configured.
type contentSource[T any] struct {
	kind     string
	cacheKey string
	fetch    func(ctx context.Context) ([]map[string]any, error)
	mapItems func([]map[string]any) []T
	snapshot func(ctx context.Context) ([]T, error)
	defaults func() []T
}

// readContent tries cache, backend, snapshot, then defaults. Empty answers
// count as misses.
func readContent[T any](ctx context.Context, s *ContentService, src contentSource[T]) ([]T, string) {
	lg := log.With().Str("kind", src.kind).Logger()

	var out []T
	if ok, err := s.cache.Get(ctx, src.cacheKey, &out); err != nil {
		lg.Warn().Err(err).Msg("content cache read failed")
	} else if ok && len(out) > 0 {
		observability.ObserveContent(src.kind, SourceCache)
		return out, SourceCache
	}

	raw, err := src.fetch(ctx)
	if err == nil {
		if items := src.mapItems(raw); len(items) > 0 {
			if err := s.cache.Set(ctx, src.cacheKey, items, int(s.cacheTTL.Seconds())); err != nil {
				lg.Warn().Err(err).Msg("content cache write failed")
			}
			observability.ObserveContent(src.kind, SourceBackend)
			return items, SourceBackend
		}
	} else {
		lg.Warn().Err(err).Msg("fetch content from backend failed")
	}

	if src.snapshot != nil {
		items, err := src.snapshot(ctx)
		if err != nil {
			lg.Warn().Err(err).Msg("read content snapshot failed")
		} else if len(items) > 0 {
			observability.ObserveContent(src.kind, SourceSnapshot)
			return items, SourceSnapshot
		}
	}

	observability.ObserveContent(src.kind, SourceDefault)
	return src.defaults(), SourceDefault
}

// DefaultFAQs is the copy shown when no content source answers.
func DefaultFAQs() []domain.FAQ {
	return []domain.FAQ{
		{ID: "1", Question: "How does SoarFare work?", Answer: "You save a fixed amount every month and it is converted into travel points. When you find a flight you like, you book it with your points instead of paying the fare at checkout."},
		{ID: "2", Question: "What can I book with my points?", Answer: "Points can be used for one-way, round-trip and multi-city flights offered through the SoarFare booking flow."},
		{ID: "3", Question: "What happens if I don't have enough points?", Answer: "You can top up the difference at any time. The booking continues as soon as the extra points are added to your balance."},
		{ID: "4", Question: "Do my points expire?", Answer: "Points stay in your account while your membership is active."},
		{ID: "5", Question: "Can I cancel my plan?", Answer: "Yes. You can cancel from your dashboard; invoices for past billing periods remain available under My Invoices."},
	}
}

// DefaultTestimonials is the copy shown when no content source answers.
func DefaultTestimonials() []domain.Testimonial {
	return []domain.Testimonial{
		{ID: "1", Name: "Sarah M.", Role: "Frequent flyer", Quote: "Saving a little every month meant our family trip was already paid for when we booked.", Rating: 5},
		{ID: "2", Name: "James K.", Role: "Business traveler", Quote: "Booking with points took two minutes and the tickets were issued the same day.", Rating: 5},
		{ID: "3", Name: "Priya R.", Role: "Student", Quote: "I topped up the few points I was missing and finished the booking right away.", Rating: 4},
	}
}
