package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"soarfare/internal/adapters/observability"
	"soarfare/internal/domain"
)

const BookingPath = "/booking"

type CardState int

const (
	StateIdle CardState = iota
	StateNavigatingToBooking
	StateAwaitingPurchaseDecision
)

func (s CardState) String() string {
	switch s {
	case StateNavigatingToBooking:
		return "navigating_to_booking"
	case StateAwaitingPurchaseDecision:
		return "awaiting_purchase_decision"
	default:
		return "idle"
	}
}

func (s CardState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Outcome is what the browser acts on after a booking step.
type Outcome struct {
	State        CardState `json:"state"`
	Redirect     string    `json:"redirect,omitempty"`
	PointsNeeded int64     `json:"points_needed,omitempty"`
	Balance      int64     `json:"balance"`
}

// FlightCard drives the booking decision for one displayed flight:
// enough points books straight away, otherwise a purchase of the
// difference is offered first. A card is used by one request at a time.
type FlightCard struct {
	svc      *BookingService
	sessions domain.SessionStore
	token    string
	sid      string

	flight       domain.Flight
	pax          domain.Passengers
	balance      int64
	state        CardState
	pointsNeeded int64
	navigated    bool
	showMore     bool

	now func() time.Time
}

func NewFlightCard(svc *BookingService, sessions domain.SessionStore, token, sid string, f domain.Flight) *FlightCard {
	return &FlightCard{svc: svc, sessions: sessions, token: token, sid: sid, flight: f, now: time.Now}
}

func (c *FlightCard) State() CardState    { return c.state }
func (c *FlightCard) Balance() int64      { return c.balance }
func (c *FlightCard) PointsNeeded() int64 { return c.pointsNeeded }
func (c *FlightCard) ShowMore() bool      { return c.showMore }

// LoadPoints refreshes the balance. A failure is logged and the previous
// balance is kept.
func (c *FlightCard) LoadPoints(ctx context.Context) {
	up, err := c.svc.GetUserPoints(ctx, c.token)
	if err != nil {
		log.Warn().Err(err).Str("flight_id", c.flight.ID).Int64("balance", c.balance).Msg("load points failed; keeping previous balance")
		return
	}
	c.balance = up.Balance
}

func (c *FlightCard) BookNow(ctx context.Context, pax domain.Passengers) (Outcome, error) {
	c.pax = pax
	if c.balance >= c.flight.Points {
		out, err := c.saveAndNavigate(ctx)
		if err != nil {
			observability.ObserveBooking("error")
			return out, err
		}
		observability.ObserveBooking("direct")
		return out, nil
	}

	c.state = StateAwaitingPurchaseDecision
	c.pointsNeeded = c.flight.Points - c.balance
	observability.ObserveBooking("purchase_required")
	return c.outcome(), nil
}

// PurchasePoints buys the missing points and then continues the booking.
func (c *FlightCard) PurchasePoints(ctx context.Context) (Outcome, error) {
	if c.state != StateAwaitingPurchaseDecision {
		return c.outcome(), domain.ErrNotAwaitingPurchase
	}
	needed := c.pointsNeeded
	res, err := c.svc.PurchasePoints(ctx, c.token, needed)
	if err != nil {
		observability.ObserveBooking("error")
		return c.outcome(), err
	}

	expected := c.balance + needed
	if res.Points != 0 && res.Points != expected {
		log.Info().Int64("backend_total", res.Points).Int64("expected", expected).
			Str("transaction_id", res.TransactionID).Msg("purchase total differs from requested top-up")
	}
	c.balance = expected
	c.pointsNeeded = 0

	if c.balance < c.flight.Points {
		c.state = StateIdle
		observability.ObserveBooking("error")
		return c.outcome(), domain.ErrInsufficientPoints
	}
	out, err := c.saveAndNavigate(ctx)
	if err != nil {
		observability.ObserveBooking("error")
		return out, err
	}
	observability.ObserveBooking("purchased")
	return out, nil
}

// ToggleShowMore flips the expanded segment details.
func (c *FlightCard) ToggleShowMore() bool {
	c.showMore = !c.showMore
	return c.showMore
}

func (c *FlightCard) saveAndNavigate(ctx context.Context) (Outcome, error) {
	if c.navigated {
		return c.outcome(), nil
	}
	if c.flight.FareSourceCode == "" {
		code, err := c.svc.GetFareSourceCode(ctx, c.token, c.flight.ID)
		if err != nil {
			c.state = StateIdle
			log.Error().Err(err).Str("flight_id", c.flight.ID).Msg("booking aborted: fare source code unavailable")
			return c.outcome(), err
		}
		c.flight.FareSourceCode = code
	}

	sf := domain.SelectedFlight{Flight: c.flight, Passengers: c.pax, SelectedAt: c.now().UTC()}
	if err := c.sessions.SaveSelectedFlight(ctx, c.sid, sf); err != nil {
		c.state = StateIdle
		return c.outcome(), fmt.Errorf("save selected flight: %w", err)
	}
	c.state = StateNavigatingToBooking
	c.navigated = true
	return c.outcome(), nil
}

func (c *FlightCard) outcome() Outcome {
	o := Outcome{State: c.state, Balance: c.balance}
	switch c.state {
	case StateNavigatingToBooking:
		o.Redirect = BookingPath
	case StateAwaitingPurchaseDecision:
		o.PointsNeeded = c.pointsNeeded
	}
	return o
}
