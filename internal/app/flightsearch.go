package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"soarfare/internal/domain"
)

const (
	TripOneWay    = "oneway"
	TripRoundTrip = "roundtrip"
	TripMultiCity = "multicity"

	dateLayout    = "2006-01-02"
	maxPassengers = 9
)

var cabinClasses = map[string]bool{"economy": true, "premium_economy": true, "business": true, "first": true}

// SearchRequest is a flight search as submitted by the search widget.
// Passenger counts stay raw so non-numeric input can be reported.
type SearchRequest struct {
	TripType     string
	From         string
	To           string
	TravelDate   string
	ReturnDate   string
	Adults       string
	Children     string
	Infants      string
	CabinClass   string
	FromMC       []string
	ToMC         []string
	TravelDateMC []string
}

// ValidationError carries every message found in one pass.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// SearchRequestFromForm reads form fields; array fields accept both "from_mc[]" and "from_mc".
func SearchRequestFromForm(v url.Values) SearchRequest {
	arr := func(k string) []string {
		if vals, ok := v[k+"[]"]; ok {
			return vals
		}
		return v[k]
	}
	return SearchRequest{
		TripType:     v.Get("trip_type"),
		From:         v.Get("from"),
		To:           v.Get("to"),
		TravelDate:   v.Get("travel_date"),
		ReturnDate:   v.Get("return_date"),
		Adults:       v.Get("adults"),
		Children:     v.Get("children"),
		Infants:      v.Get("infants"),
		CabinClass:   v.Get("cabin_class"),
		FromMC:       arr("from_mc"),
		ToMC:         arr("to_mc"),
		TravelDateMC: arr("travel_date_mc"),
	}
}

// SearchRequestFromJSON reads a JSON object; numbers and strings are both accepted.
func SearchRequestFromJSON(body []byte) (SearchRequest, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return SearchRequest{}, fmt.Errorf("decode search request: %w", err)
	}
	strs := func(k string) []string {
		raw, ok := m[k].([]any)
		if !ok {
			return nil
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				out = append(out, t)
			case float64:
				out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
			default:
				out = append(out, "")
			}
		}
		return out
	}
	return SearchRequest{
		TripType:     lookupStr(m, "trip_type"),
		From:         lookupStr(m, "from"),
		To:           lookupStr(m, "to"),
		TravelDate:   lookupStr(m, "travel_date"),
		ReturnDate:   lookupStr(m, "return_date"),
		Adults:       lookupStr(m, "adults"),
		Children:     lookupStr(m, "children"),
		Infants:      lookupStr(m, "infants"),
		CabinClass:   lookupStr(m, "cabin_class"),
		FromMC:       strs("from_mc"),
		ToMC:         strs("to_mc"),
		TravelDateMC: strs("travel_date_mc"),
	}, nil
}

// Normalize trims input and applies defaults (oneway, economy, 1/0/0 passengers).
func (r SearchRequest) Normalize() SearchRequest {
	r.TripType = normalizeTripType(r.TripType)
	r.From = strings.ToUpper(strings.TrimSpace(r.From))
	r.To = strings.ToUpper(strings.TrimSpace(r.To))
	r.TravelDate = strings.TrimSpace(r.TravelDate)
	r.ReturnDate = strings.TrimSpace(r.ReturnDate)
	r.Adults = orDefault(strings.TrimSpace(r.Adults), "1")
	r.Children = orDefault(strings.TrimSpace(r.Children), "0")
	r.Infants = orDefault(strings.TrimSpace(r.Infants), "0")
	r.CabinClass = orDefault(strings.ToLower(strings.TrimSpace(r.CabinClass)), "economy")
	r.CabinClass = strings.ReplaceAll(r.CabinClass, " ", "_")
	r.FromMC = trimAll(r.FromMC, true)
	r.ToMC = trimAll(r.ToMC, true)
	r.TravelDateMC = trimAll(r.TravelDateMC, false)
	return r
}

func normalizeTripType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	if s == "" {
		return TripOneWay
	}
	return s
}

func trimAll(in []string, upper bool) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		s = strings.TrimSpace(s)
		if upper {
			s = strings.ToUpper(s)
		}
		out[i] = s
	}
	return out
}

// Validate checks a normalized request against the backend's rules and
// returns every violation, in field order.
func Validate(r SearchRequest, today time.Time) []string {
	var errs []string
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	switch r.TripType {
	case TripOneWay, TripRoundTrip, TripMultiCity:
	default:
		errs = append(errs, "The selected trip type is invalid.")
	}

	if r.From == "" {
		errs = append(errs, "The from field is required.")
	}
	if r.To == "" {
		errs = append(errs, "The to field is required.")
	}
	if r.From != "" && r.From == r.To {
		errs = append(errs, "The from and to fields must be different.")
	}

	var travel time.Time
	travelOK := false
	switch {
	case r.TravelDate == "":
		errs = append(errs, "The travel date field is required.")
	default:
		t, err := time.Parse(dateLayout, r.TravelDate)
		switch {
		case err != nil:
			errs = append(errs, "The travel date must be a valid date in YYYY-MM-DD format.")
		case t.Before(today):
			errs = append(errs, "The travel date must be a date after or equal to today.")
		default:
			travel, travelOK = t, true
		}
	}

	if r.TripType == TripRoundTrip {
		switch {
		case r.ReturnDate == "":
			errs = append(errs, "The return date field is required when trip type is roundtrip.")
		default:
			t, err := time.Parse(dateLayout, r.ReturnDate)
			switch {
			case err != nil:
				errs = append(errs, "The return date must be a valid date in YYYY-MM-DD format.")
			case travelOK && !t.After(travel):
				errs = append(errs, "The return date must be a date after travel date.")
			}
		}
	}

	if r.TripType == TripMultiCity {
		errs = append(errs, validateMultiCity(r, travel, travelOK)...)
	}

	errs = append(errs, validatePassengers(r)...)

	if !cabinClasses[r.CabinClass] {
		errs = append(errs, "The selected cabin class is invalid.")
	}
	return errs
}

func validateMultiCity(r SearchRequest, travel time.Time, travelOK bool) []string {
	var errs []string
	missing := false
	for _, f := range []struct {
		name string
		vals []string
	}{{"from_mc", r.FromMC}, {"to_mc", r.ToMC}, {"travel_date_mc", r.TravelDateMC}} {
		if len(f.vals) == 0 {
			errs = append(errs, fmt.Sprintf("The %s field is required when trip type is multicity.", f.name))
			missing = true
		}
	}
	if missing {
		return errs
	}
	if len(r.FromMC) != len(r.ToMC) || len(r.ToMC) != len(r.TravelDateMC) {
		return append(errs, "The multi-city segments must have the same number of from, to and travel date entries.")
	}

	prev, prevOK := travel, travelOK
	for i := range r.FromMC {
		if r.FromMC[i] == "" {
			errs = append(errs, fmt.Sprintf("The from_mc.%d field is required.", i))
		}
		if r.ToMC[i] == "" {
			errs = append(errs, fmt.Sprintf("The to_mc.%d field is required.", i))
		}
		if r.FromMC[i] != "" && r.FromMC[i] == r.ToMC[i] {
			errs = append(errs, fmt.Sprintf("The from_mc.%d and to_mc.%d fields must be different.", i, i))
		}
		if r.TravelDateMC[i] == "" {
			errs = append(errs, fmt.Sprintf("The travel_date_mc.%d field is required.", i))
			prevOK = false
			continue
		}
		t, err := time.Parse(dateLayout, r.TravelDateMC[i])
		if err != nil {
			errs = append(errs, fmt.Sprintf("The travel_date_mc.%d must be a valid date in YYYY-MM-DD format.", i))
			prevOK = false
			continue
		}
		if prevOK && t.Before(prev) {
			errs = append(errs, fmt.Sprintf("The travel_date_mc.%d must be a date after or equal to the previous segment.", i))
		}
		prev, prevOK = t, true
	}
	return errs
}

func validatePassengers(r SearchRequest) []string {
	var errs []string
	count := func(field, raw string, min int) (int, bool) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("The %s must be an integer.", field))
			return 0, false
		}
		if n < min {
			errs = append(errs, fmt.Sprintf("The %s must be at least %d.", field, min))
			return n, false
		}
		return n, true
	}
	adults, aok := count("adults", r.Adults, 1)
	children, cok := count("children", r.Children, 0)
	infants, iok := count("infants", r.Infants, 0)
	if aok && iok && infants > adults {
		errs = append(errs, "The number of infants may not be greater than the number of adults.")
	}
	if aok && cok && iok && adults+children+infants > maxPassengers {
		errs = append(errs, fmt.Sprintf("The total number of passengers may not be greater than %d.", maxPassengers))
	}
	return errs
}

// Form renders the request in the backend's form encoding.
func (r SearchRequest) Form() url.Values {
	v := url.Values{
		"trip_type":   {r.TripType},
		"from":        {r.From},
		"to":          {r.To},
		"travel_date": {r.TravelDate},
		"adults":      {r.Adults},
		"children":    {r.Children},
		"infants":     {r.Infants},
		"cabin_class": {r.CabinClass},
	}
	if r.TripType == TripRoundTrip {
		v.Set("return_date", r.ReturnDate)
	}
	if r.TripType == TripMultiCity {
		v["from_mc[]"] = r.FromMC
		v["to_mc[]"] = r.ToMC
		v["travel_date_mc[]"] = r.TravelDateMC
	}
	return v
}

// SearchBackend forwards a validated search once.
type SearchBackend interface {
	SearchFlights(ctx context.Context, token string, form url.Values) (domain.Relay, error)
}

// FlightSearchService validates searches and relays the backend answer.
// With a mock installed, a failed backend answer is replaced by the mock's.
type FlightSearchService struct {
	backend SearchBackend
	mock    func(url.Values) domain.Relay
	now     func() time.Time
}

// NewFlightSearchService wires the search route. mock may be nil (production).
func NewFlightSearchService(b SearchBackend, mock func(url.Values) domain.Relay) *FlightSearchService {
	return &FlightSearchService{backend: b, mock: mock, now: time.Now}
}

// WithClock overrides the date used for "not in the past" checks.
func (s *FlightSearchService) WithClock(now func() time.Time) *FlightSearchService {
	s.now = now
	return s
}

// SearchResult is what the route relays; Mock marks a fabricated answer.
type SearchResult struct {
	Relay domain.Relay
	Mock  bool
}

func (s *FlightSearchService) Search(ctx context.Context, token string, req SearchRequest) (SearchResult, error) {
	req = req.Normalize()
	if errs := Validate(req, s.now()); len(errs) > 0 {
		return SearchResult{}, &ValidationError{Errors: errs}
	}

	form := req.Form()
	reply, err := s.backend.SearchFlights(ctx, token, form)
	failed := err != nil || !reply.OK() || envelopeFailed(reply.Body)
	if !failed {
		return SearchResult{Relay: reply}, nil
	}

	if s.mock != nil {
		ev := log.Warn().Str("from", req.From).Str("to", req.To)
		if err != nil {
			ev = ev.Err(err)
		} else {
			ev = ev.Int("status", reply.Status)
		}
		ev.Msg("flight search failed upstream; serving mock results")
		return SearchResult{Relay: s.mock(form), Mock: true}, nil
	}
	if err != nil {
		return SearchResult{}, fmt.Errorf("flight search: %w", err)
	}
	return SearchResult{Relay: reply}, nil
}

func envelopeFailed(body []byte) bool {
	var env struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return env.Success != nil && !*env.Success
}
