package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"soarfare/internal/domain"
)

const (
	slotSelectedFlight  = "selected_flight"
	slotTravelerDetails = "traveler_details"
)

var allSlots = []string{
	slotSelectedFlight,
	slotTravelerDetails,
	listSlot(domain.ListBookings),
	listSlot(domain.ListInvoices),
}

func listSlot(list string) string { return "list:" + list }

// Sessions keeps per-visitor booking state between steps. Every write
// refreshes the TTL of the whole session. An empty sid is rejected with
// domain.ErrNoSession so visitors never share keys.
type Sessions struct {
	c   redis.UniversalClient
	ttl time.Duration
}

func NewSessions(c redis.UniversalClient, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Sessions{c: c, ttl: ttl}
}

func sessionKey(sid, slot string) string {
	return fmt.Sprintf("session:%s:%s", sid, slot)
}

func (s *Sessions) SaveSelectedFlight(ctx context.Context, sid string, sf domain.SelectedFlight) error {
	b, err := json.Marshal(sf)
	if err != nil {
		return fmt.Errorf("encode selected flight: %w", err)
	}
	return s.put(ctx, sid, slotSelectedFlight, b)
}

func (s *Sessions) SelectedFlight(ctx context.Context, sid string) (domain.SelectedFlight, error) {
	var sf domain.SelectedFlight
	b, err := s.get(ctx, sid, slotSelectedFlight)
	if err != nil {
		return sf, err
	}
	if err := json.Unmarshal(b, &sf); err != nil {
		return sf, fmt.Errorf("decode selected flight: %w", err)
	}
	return sf, nil
}

func (s *Sessions) SaveTravelerDetails(ctx context.Context, sid string, details json.RawMessage) error {
	if !json.Valid(details) {
		return fmt.Errorf("traveler details are not valid JSON")
	}
	return s.put(ctx, sid, slotTravelerDetails, details)
}

func (s *Sessions) TravelerDetails(ctx context.Context, sid string) (json.RawMessage, error) {
	b, err := s.get(ctx, sid, slotTravelerDetails)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// ListCursor returns the saved position of a list, or the zero cursor.
func (s *Sessions) ListCursor(ctx context.Context, sid, list string) (domain.ListCursor, error) {
	var cur domain.ListCursor
	if sid == "" {
		return cur, domain.ErrNoSession
	}
	m, err := s.c.HGetAll(ctx, sessionKey(sid, listSlot(list))).Result()
	if err != nil {
		return cur, err
	}
	cur.Page, _ = strconv.Atoi(m["page"])
	cur.Search = m["search"]
	cur.Gen, _ = strconv.ParseUint(m["gen"], 10, 64)
	return cur, nil
}

// BeginListLoad saves the position a load is about to fetch and returns
// the load's generation.
func (s *Sessions) BeginListLoad(ctx context.Context, sid, list string, page int, search string) (uint64, error) {
	if sid == "" {
		return 0, domain.ErrNoSession
	}
	key := sessionKey(sid, listSlot(list))
	pipe := s.c.TxPipeline()
	pipe.HSet(ctx, key, "page", page, "search", search)
	gen := pipe.HIncrBy(ctx, key, "gen", 1)
	s.touch(ctx, pipe, sid, "")
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return uint64(gen.Val()), nil
}

func (s *Sessions) ListGen(ctx context.Context, sid, list string) (uint64, error) {
	if sid == "" {
		return 0, domain.ErrNoSession
	}
	n, err := s.c.HGet(ctx, sessionKey(sid, listSlot(list)), "gen").Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (s *Sessions) put(ctx context.Context, sid, slot string, b []byte) error {
	if sid == "" {
		return domain.ErrNoSession
	}
	pipe := s.c.TxPipeline()
	pipe.Set(ctx, sessionKey(sid, slot), b, s.ttl)
	s.touch(ctx, pipe, sid, slot)
	_, err := pipe.Exec(ctx)
	return err
}

// touch slides the TTL of every slot except skip.
func (s *Sessions) touch(ctx context.Context, pipe redis.Pipeliner, sid, skip string) {
	for _, slot := range allSlots {
		if slot != skip {
			pipe.Expire(ctx, sessionKey(sid, slot), s.ttl)
		}
	}
}

func (s *Sessions) get(ctx context.Context, sid, slot string) ([]byte, error) {
	if sid == "" {
		return nil, domain.ErrNoSession
	}
	b, err := s.c.Get(ctx, sessionKey(sid, slot)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	return b, err
}
