package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"soarfare/internal/adapters/observability"
	"soarfare/internal/domain"
)

const (
	KindFAQs         = "faqs"
	KindTestimonials = "testimonials"
)

// SyncService copies marketing content from the backend into the local
// snapshot store so the site keeps real copy while the backend is down.
type SyncService struct {
	backend ContentBackend
	repo    domain.ContentRepository
	cache   domain.Cache
}

func NewSyncService(b ContentBackend, r domain.ContentRepository, c domain.Cache) *SyncService {
	return &SyncService{backend: b, repo: r, cache: c}
}

// SyncAll syncs every content kind, at most workers at a time. Errors from
// individual kinds are joined; a failed kind does not stop the others.
func (s *SyncService) SyncAll(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, kind := range []string{KindFAQs, KindTestimonials} {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.SyncKind(ctx, kind); err != nil {
				log.Warn().Str("kind", kind).Str("err_type", observability.LabelErr(err)).Err(err).Msg("content sync failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", kind, err))
				mu.Unlock()
				return
			}
			log.Info().Str("kind", kind).Msg("content sync ok")
		}(kind)
	}

	wg.Wait()
	return errors.Join(errs...)
}

func (s *SyncService) SyncKind(ctx context.Context, kind string) error {
	var (
		raw      []map[string]any
		err      error
		cacheKey string
	)
	switch kind {
	case KindFAQs:
		raw, err = s.backend.FAQs(ctx)
		cacheKey = cacheKeyFAQs
	case KindTestimonials:
		raw, err = s.backend.Testimonials(ctx)
		cacheKey = cacheKeyTestimonials
	default:
		return fmt.Errorf("unknown content kind %q", kind)
	}

	if err != nil {
		// 404/401/403: record a miss and keep the previous snapshot.
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, kind, 404, "not found")
			return nil
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, kind, 403, "forbidden")
			return nil
		}
		return err
	}

	switch kind {
	case KindFAQs:
		items := mapFAQs(raw)
		if len(items) == 0 {
			_ = s.repo.LogMiss(ctx, kind, 204, "empty")
			return nil
		}
		if err := s.repo.ReplaceFAQs(ctx, items); err != nil {
			return fmt.Errorf("store faqs: %w", err)
		}
	case KindTestimonials:
		items := mapTestimonials(raw)
		if len(items) == 0 {
			_ = s.repo.LogMiss(ctx, kind, 204, "empty")
			return nil
		}
		if err := s.repo.ReplaceTestimonials(ctx, items); err != nil {
			return fmt.Errorf("store testimonials: %w", err)
		}
	}

	// fresh snapshot: drop the cached copy so the next read goes to the backend
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey)
	}
	return nil
}
