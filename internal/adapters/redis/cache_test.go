package redisad_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "soarfare/internal/adapters/redis"
	"soarfare/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestCache_SetGetDel(t *testing.T) {
	mr, rc := newRedis(t)
	c := redisad.New(rc, "content:")
	ctx := context.Background()

	var out []domain.FAQ
	ok, err := c.Get(ctx, "faqs", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := []domain.FAQ{{ID: "1", Question: "How do points work?", Answer: "Save monthly."}}
	if err := c.Set(ctx, "faqs", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("content:faqs") {
		t.Fatalf("expected prefixed key in redis")
	}
	if ttl := mr.TTL("content:faqs"); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	ok, err = c.Get(ctx, "faqs", &out)
	if err != nil || !ok || len(out) != 1 || out[0].Question != "How do points work?" {
		t.Fatalf("unexpected hit: ok=%v err=%v out=%+v", ok, err, out)
	}

	if err := c.Del(ctx, "faqs"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("content:faqs") {
		t.Fatalf("expected key removed")
	}
}

func TestSessions_SelectedFlightAndTraveler(t *testing.T) {
	mr, rc := newRedis(t)
	s := redisad.NewSessions(rc, 30*time.Minute)
	ctx := context.Background()

	if _, err := s.SelectedFlight(ctx, "sid-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	sf := domain.SelectedFlight{
		Flight:     domain.Flight{ID: "f-1", Points: 350, FareSourceCode: "FSC"},
		Passengers: domain.Passengers{Adults: 2, Children: 1},
	}
	if err := s.SaveSelectedFlight(ctx, "sid-1", sf); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.SelectedFlight(ctx, "sid-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Flight.ID != "f-1" || got.Passengers.Adults != 2 || got.Passengers.Children != 1 {
		t.Fatalf("unexpected selected flight: %+v", got)
	}

	if err := s.SaveTravelerDetails(ctx, "sid-1", json.RawMessage(`{"first_name":"Ana"}`)); err != nil {
		t.Fatalf("save traveler: %v", err)
	}
	details, err := s.TravelerDetails(ctx, "sid-1")
	if err != nil || string(details) != `{"first_name":"Ana"}` {
		t.Fatalf("unexpected traveler details: %s %v", details, err)
	}

	// sessions are isolated per id
	if _, err := s.TravelerDetails(ctx, "sid-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other session, got %v", err)
	}

	mr.FastForward(31 * time.Minute)
	if _, err := s.SelectedFlight(ctx, "sid-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected session to expire, got %v", err)
	}
}

func TestSessions_RejectsInvalidTravelerJSON(t *testing.T) {
	_, rc := newRedis(t)
	s := redisad.NewSessions(rc, time.Minute)
	if err := s.SaveTravelerDetails(context.Background(), "sid", json.RawMessage(`{nope`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestSessions_ListCursor(t *testing.T) {
	mr, rc := newRedis(t)
	s := redisad.NewSessions(rc, time.Hour)
	ctx := context.Background()

	cur, err := s.ListCursor(ctx, "sid1", domain.ListBookings)
	if err != nil || cur != (domain.ListCursor{}) {
		t.Fatalf("expected zero cursor, got %+v err=%v", cur, err)
	}

	g1, err := s.BeginListLoad(ctx, "sid1", domain.ListBookings, 3, "")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	g2, err := s.BeginListLoad(ctx, "sid1", domain.ListBookings, 1, "TR")
	if err != nil {
		t.Fatalf("begin again: %v", err)
	}
	if g1 != 1 || g2 != 2 {
		t.Fatalf("unexpected generations %d %d", g1, g2)
	}
	if gen, err := s.ListGen(ctx, "sid1", domain.ListBookings); err != nil || gen != 2 {
		t.Fatalf("ListGen = %d err=%v", gen, err)
	}

	cur, err = s.ListCursor(ctx, "sid1", domain.ListBookings)
	if err != nil || cur.Page != 1 || cur.Search != "TR" || cur.Gen != 2 {
		t.Fatalf("unexpected cursor %+v err=%v", cur, err)
	}
	if ttl := mr.TTL("session:sid1:list:bookings"); ttl != time.Hour {
		t.Fatalf("expected list ttl, got %v", ttl)
	}

	// lists are independent
	if gen, _ := s.ListGen(ctx, "sid1", domain.ListInvoices); gen != 0 {
		t.Fatalf("invoices gen = %d", gen)
	}
}

func TestSessions_EmptyIDRejected(t *testing.T) {
	mr, rc := newRedis(t)
	s := redisad.NewSessions(rc, time.Hour)
	ctx := context.Background()

	if err := s.SaveTravelerDetails(ctx, "", json.RawMessage(`{"first_name":"Ana"}`)); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("save: expected ErrNoSession, got %v", err)
	}
	if err := s.SaveSelectedFlight(ctx, "", domain.SelectedFlight{}); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("save flight: expected ErrNoSession, got %v", err)
	}
	if _, err := s.TravelerDetails(ctx, ""); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("load: expected ErrNoSession, got %v", err)
	}
	if _, err := s.BeginListLoad(ctx, "", domain.ListBookings, 1, ""); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("list: expected ErrNoSession, got %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("nothing should be written, got %v", keys)
	}
}
