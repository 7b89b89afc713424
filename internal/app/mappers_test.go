package app

import "testing"

func TestMapFlight_NestedAndFlat(t *testing.T) {
	nested := MapFlight(map[string]any{
		"flight_id":   "F-7",
		"origin":      map[string]any{"city": "New York", "iata": "jfk", "airport_name": "JFK Intl"},
		"destination": map[string]any{"city": "London", "code": "LHR"},
		"price":       map[string]any{"amount": "1,099.90", "currency": "GBP"},
		"points":      "1200",
		"duration":    155.0,
		"return_segments": []any{
			map[string]any{"from_code": "LHR", "to_code": "JFK"},
		},
	})
	if nested.ID != "F-7" || nested.Origin.Code != "JFK" || nested.Origin.Name != "JFK Intl" || nested.Destination.City != "London" {
		t.Fatalf("unexpected places: %+v", nested)
	}
	if nested.Price != 1099.90 || nested.Currency != "GBP" || nested.Points != 1200 || nested.Duration != "2h 35m" {
		t.Fatalf("unexpected numbers: %+v", nested)
	}
	if !nested.HasMoreSegments() || nested.ReturnSegments[0].Destination.Code != "JFK" {
		t.Fatalf("unexpected return segments: %+v", nested.ReturnSegments)
	}

	flat := MapFlight(map[string]any{"id": 3.0, "from_city": "Paris", "from_code": "cdg", "to": "nrt", "fare": 10.0})
	if flat.ID != "3" || flat.Origin.City != "Paris" || flat.Destination.Code != "NRT" || flat.Currency != "USD" || flat.HasMoreSegments() {
		t.Fatalf("unexpected flat flight: %+v", flat)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   map[string]any
		want string
	}{
		{map[string]any{"amount": 49.0}, "$49.00"},
		{map[string]any{"total": "1250.5"}, "$1,250.50"},
		{map[string]any{"amount": 10.0, "currency": "gbp"}, "£10.00"},
		{map[string]any{"amount": 10.0, "currency": "AED"}, "10.00 AED"},
		{map[string]any{"amount": "n/a"}, "n/a"},
	}
	for _, c := range cases {
		if got := formatAmount(c.in); got != c.want {
			t.Errorf("%v: got %q want %q", c.in, got, c.want)
		}
	}
}

func TestScalarPayloads(t *testing.T) {
	if p, ok := pointsFrom(map[string]any{"available_points": 75.0}); !ok || p != 75 {
		t.Fatalf("points: %d %v", p, ok)
	}
	if _, ok := pointsFrom(map[string]any{}); ok {
		t.Fatalf("missing balance should report !ok")
	}
	res := purchaseFrom(map[string]any{"reference": "R-1", "new_balance": "650"})
	if res.TransactionID != "R-1" || res.Points != 650 {
		t.Fatalf("unexpected purchase: %+v", res)
	}
	if c := fareSourceCodeFrom(map[string]any{"FareSourceCode": "abc=="}); c != "abc==" {
		t.Fatalf("fare code: %q", c)
	}
}
