package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"soarfare/internal/domain"
)

// BookingBackend is the slice of the backend the booking flow needs.
type BookingBackend interface {
	UserPoints(ctx context.Context, token string) (map[string]any, error)
	PurchasePoints(ctx context.Context, token string, amount int64) (map[string]any, error)
	FareSourceCode(ctx context.Context, token, flightID string) (map[string]any, error)
}

type BookingService struct {
	backend BookingBackend
}

func NewBookingService(b BookingBackend) *BookingService {
	return &BookingService{backend: b}
}

func (s *BookingService) GetUserPoints(ctx context.Context, token string) (domain.UserPoints, error) {
	raw, err := s.backend.UserPoints(ctx, token)
	if err != nil {
		return domain.UserPoints{}, fmt.Errorf("get user points: %w", err)
	}
	p, ok := pointsFrom(raw)
	if !ok {
		return domain.UserPoints{}, errors.New("get user points: balance missing from response")
	}
	return domain.UserPoints{Balance: p}, nil
}

// GetFareSourceCode resolves the opaque fare token required to commit a booking.
func (s *BookingService) GetFareSourceCode(ctx context.Context, token, flightID string) (string, error) {
	if strings.TrimSpace(flightID) == "" {
		return "", errors.New("fare source code: flight id is required")
	}
	raw, err := s.backend.FareSourceCode(ctx, token, flightID)
	if err != nil {
		return "", fmt.Errorf("fare source code for %s: %w", flightID, err)
	}
	code := fareSourceCodeFrom(raw)
	if code == "" {
		return "", fmt.Errorf("fare source code for %s: %w", flightID, domain.ErrNotFound)
	}
	return code, nil
}

func (s *BookingService) PurchasePoints(ctx context.Context, token string, amount int64) (domain.PurchaseResult, error) {
	if amount < 0 {
		return domain.PurchaseResult{}, fmt.Errorf("purchase points: amount must not be negative, got %d", amount)
	}
	raw, err := s.backend.PurchasePoints(ctx, token, amount)
	if err != nil {
		return domain.PurchaseResult{}, fmt.Errorf("purchase points: %w", err)
	}
	return purchaseFrom(raw), nil
}

// ParsePassengers reads adults/children/infants from a query string,
// defaulting to one adult. Unparseable or negative values fall back too.
func ParsePassengers(q url.Values) domain.Passengers {
	n := func(key string, def int) int {
		v, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
		if err != nil || v < 0 {
			return def
		}
		return v
	}
	p := domain.Passengers{Adults: n("adults", 1), Children: n("children", 0), Infants: n("infants", 0)}
	if p.Adults < 1 {
		p.Adults = 1
	}
	return p
}
