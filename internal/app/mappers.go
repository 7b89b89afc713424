package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"soarfare/internal/domain"
)

/********** alias registries (single source of truth) **********/

var flightAliases = map[string][]string{
	"id":               {"id", "flight_id", "offer_id", "result_index"},
	"departure_time":   {"departure_time", "departure", "depart_time", "departure_datetime"},
	"arrival_time":     {"arrival_time", "arrival", "arrive_time", "arrival_datetime"},
	"duration":         {"duration", "total_duration", "journey_duration"},
	"stops":            {"stops", "stop_count", "total_stops"},
	"price":            {"price", "price.amount", "total_fare", "fare"},
	"currency":         {"currency", "price.currency"},
	"points":           {"points", "required_points", "points_required"},
	"fare_source_code": {"fare_source_code", "FareSourceCode", "fareSourceCode"},
	"airline":          {"airline", "airline_name", "airline.name", "carrier"},
	"flight_number":    {"flight_number", "flight_no", "flightNumber"},
}

var originAliases = map[string][]string{
	"city": {"from_city", "origin_city", "departure_city"},
	"code": {"from_code", "origin_code", "from", "origin", "departure_airport_code"},
	"name": {"from_name", "origin_name", "from_airport", "departure_airport"},
}

var destinationAliases = map[string][]string{
	"city": {"to_city", "destination_city", "arrival_city"},
	"code": {"to_code", "destination_code", "to", "destination", "arrival_airport_code"},
	"name": {"to_name", "destination_name", "to_airport", "arrival_airport"},
}

var placeAliases = map[string][]string{
	"city": {"city", "city_name"},
	"code": {"code", "iata", "airport_code"},
	"name": {"name", "airport_name", "airport"},
}

var bookingAliases = map[string][]string{
	"id":            {"id", "booking_id"},
	"trip_id":       {"trip_id", "tripId", "pnr", "booking_reference"},
	"points_used":   {"points_used", "points", "points_spent", "used_points"},
	"ticket_issued": {"ticket_issued", "is_ticket_issued", "ticketIssued", "ticket_status"},
	"created_at":    {"created_at", "createdAt", "booked_at"},
	"updated_at":    {"updated_at", "updatedAt"},
	"segments":      {"flights", "segments", "flight_details", "itinerary"},
}

var invoiceAliases = map[string][]string{
	"id":         {"id", "invoice_id", "invoice_number"},
	"title":      {"title", "description", "name", "plan"},
	"amount":     {"amount", "total", "price", "amount_paid"},
	"currency":   {"currency"},
	"start_date": {"start_date", "from_date", "period_start"},
	"end_date":   {"end_date", "to_date", "period_end"},
}

var faqAliases = map[string][]string{
	"id":       {"id", "faq_id"},
	"question": {"question", "title", "q"},
	"answer":   {"answer", "content", "a", "description"},
}

var testimonialAliases = map[string][]string{
	"id":     {"id", "testimonial_id"},
	"name":   {"name", "author", "customer_name", "user.name"},
	"role":   {"role", "designation", "title", "position"},
	"quote":  {"quote", "message", "content", "review", "text"},
	"rating": {"rating", "stars", "score"},
	"avatar": {"avatar_url", "avatar", "image", "photo"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the value at path as a string; numbers are rendered without exponent.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// firstAlias: first non-empty string for a named alias set.
func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "1,250.50").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			if f, ok := parseNumber(v); ok {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	if f := getFloatFlexible(m, paths...); f != nil {
		x := int64(*f)
		return &x
	}
	return nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// boolFlexible understands true/false, 1/0 and a few backend status words.
func boolFlexible(m map[string]any, paths ...string) bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes", "issued":
				return true
			case "0", "false", "no", "pending", "not_issued":
				return false
			}
		}
	}
	return false
}

func mapsAt(m map[string]any, paths ...string) []map[string]any {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, it := range raw {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// formatDuration renders backend minute counts as "2h 35m"; strings pass through.
func formatDuration(m map[string]any, paths ...string) string {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case string:
			if t := strings.TrimSpace(v); t != "" {
				return t
			}
		case float64:
			mins := int(v)
			if mins <= 0 {
				continue
			}
			h, rem := mins/60, mins%60
			switch {
			case h == 0:
				return fmt.Sprintf("%dm", rem)
			case rem == 0:
				return fmt.Sprintf("%dh", h)
			default:
				return fmt.Sprintf("%dh %02dm", h, rem)
			}
		}
	}
	return ""
}

/********** flight mappers **********/

func mapPlace(m map[string]any, key string, flat map[string][]string) domain.Place {
	if obj, ok := lookupAny(m, key).(map[string]any); ok {
		return domain.Place{
			City: firstAlias(obj, placeAliases, "city"),
			Code: strings.ToUpper(firstAlias(obj, placeAliases, "code")),
			Name: firstAlias(obj, placeAliases, "name"),
		}
	}
	return domain.Place{
		City: firstAlias(m, flat, "city"),
		Code: strings.ToUpper(firstAlias(m, flat, "code")),
		Name: firstAlias(m, flat, "name"),
	}
}

func mapSegment(m map[string]any) domain.Segment {
	stops := 0
	if v := firstInt64Flexible(m, flightAliases["stops"]...); v != nil {
		stops = int(*v)
	}
	return domain.Segment{
		Origin:        mapPlace(m, "origin", originAliases),
		Destination:   mapPlace(m, "destination", destinationAliases),
		DepartureTime: firstAlias(m, flightAliases, "departure_time"),
		ArrivalTime:   firstAlias(m, flightAliases, "arrival_time"),
		Duration:      formatDuration(m, flightAliases["duration"]...),
		Stops:         stops,
		Airline:       firstAlias(m, flightAliases, "airline"),
		FlightNumber:  firstAlias(m, flightAliases, "flight_number"),
	}
}

func mapSegments(in []map[string]any) []domain.Segment {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Segment, 0, len(in))
	for _, s := range in {
		out = append(out, mapSegment(s))
	}
	return out
}

// MapFlight builds a card's flight from one backend search result.
func MapFlight(m map[string]any) domain.Flight {
	seg := mapSegment(m)
	f := domain.Flight{
		ID:                firstAlias(m, flightAliases, "id"),
		Origin:            seg.Origin,
		Destination:       seg.Destination,
		DepartureTime:     seg.DepartureTime,
		ArrivalTime:       seg.ArrivalTime,
		Duration:          seg.Duration,
		Stops:             seg.Stops,
		Currency:          orDefault(firstAlias(m, flightAliases, "currency"), "USD"),
		FareSourceCode:    firstAlias(m, flightAliases, "fare_source_code"),
		ReturnSegments:    mapSegments(mapsAt(m, "return_segments", "return_flights", "return")),
		MultiCitySegments: mapSegments(mapsAt(m, "multi_city_segments", "segments_mc", "multi_city")),
	}
	if p := getFloatFlexible(m, flightAliases["price"]...); p != nil {
		f.Price = *p
	}
	if pts := firstInt64Flexible(m, flightAliases["points"]...); pts != nil {
		f.Points = *pts
	}
	return f
}

/********** account mappers **********/

func mapBooking(m map[string]any) domain.Booking {
	b := domain.Booking{
		ID:           firstAlias(m, bookingAliases, "id"),
		TripID:       firstAlias(m, bookingAliases, "trip_id"),
		TicketIssued: boolFlexible(m, bookingAliases["ticket_issued"]...),
		CreatedAt:    firstAlias(m, bookingAliases, "created_at"),
		UpdatedAt:    firstAlias(m, bookingAliases, "updated_at"),
		Segments:     mapSegments(mapsAt(m, bookingAliases["segments"]...)),
	}
	if p := firstInt64Flexible(m, bookingAliases["points_used"]...); p != nil {
		b.PointsUsed = *p
	}
	if b.Segments == nil {
		b.Segments = []domain.Segment{}
	}
	return b
}

func mapInvoice(m map[string]any) domain.Invoice {
	return domain.Invoice{
		ID:        firstAlias(m, invoiceAliases, "id"),
		Title:     firstAlias(m, invoiceAliases, "title"),
		Amount:    formatAmount(m),
		StartDate: firstAlias(m, invoiceAliases, "start_date"),
		EndDate:   firstAlias(m, invoiceAliases, "end_date"),
	}
}

// formatAmount renders "$1,234.50"; unparseable strings are shown as the backend sent them.
func formatAmount(m map[string]any) string {
	amount := getFloatFlexible(m, invoiceAliases["amount"]...)
	if amount == nil {
		return firstAlias(m, invoiceAliases, "amount")
	}
	formatted := humanize.FormatFloat("#,###.##", *amount)
	switch cur := strings.ToUpper(orDefault(firstAlias(m, invoiceAliases, "currency"), "USD")); cur {
	case "USD":
		return "$" + formatted
	case "EUR":
		return "€" + formatted
	case "GBP":
		return "£" + formatted
	default:
		return formatted + " " + cur
	}
}

/********** content mappers **********/

func mapFAQs(in []map[string]any) []domain.FAQ {
	out := make([]domain.FAQ, 0, len(in))
	for i, m := range in {
		q := domain.FAQ{
			ID:       orDefault(firstAlias(m, faqAliases, "id"), strconv.Itoa(i+1)),
			Question: firstAlias(m, faqAliases, "question"),
			Answer:   firstAlias(m, faqAliases, "answer"),
		}
		if q.Question == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}

func mapTestimonials(in []map[string]any) []domain.Testimonial {
	out := make([]domain.Testimonial, 0, len(in))
	for i, m := range in {
		t := domain.Testimonial{
			ID:        orDefault(firstAlias(m, testimonialAliases, "id"), strconv.Itoa(i+1)),
			Name:      firstAlias(m, testimonialAliases, "name"),
			Role:      firstAlias(m, testimonialAliases, "role"),
			Quote:     firstAlias(m, testimonialAliases, "quote"),
			AvatarURL: firstAlias(m, testimonialAliases, "avatar"),
		}
		if r := getFloatFlexible(m, testimonialAliases["rating"]...); r != nil {
			t.Rating = *r
		}
		if t.Quote == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

/********** scalar payloads **********/

func pointsFrom(m map[string]any) (int64, bool) {
	if p := firstInt64Flexible(m, "points", "balance", "total_points", "user_points", "available_points"); p != nil {
		return *p, true
	}
	return 0, false
}

func purchaseFrom(m map[string]any) domain.PurchaseResult {
	res := domain.PurchaseResult{
		TransactionID: firstAlias(m, map[string][]string{"tx": {"transaction_id", "transactionId", "reference", "id"}}, "tx"),
	}
	if p := firstInt64Flexible(m, "points", "new_balance", "total_points", "balance"); p != nil {
		res.Points = *p
	}
	return res
}

func fareSourceCodeFrom(m map[string]any) string {
	return firstAlias(m, flightAliases, "fare_source_code")
}

/********** datatables **********/

func datatableItems(body map[string]any) []map[string]any {
	if items := mapsAt(body, "data"); items != nil {
		return items
	}
	return mapsAt(body, "data.data", "data.items", "items")
}

func datatableTotal(body map[string]any, fallback int) int {
	if n := firstInt64Flexible(body,
		"recordsFiltered", "recordsTotal", "total",
		"data.recordsFiltered", "data.recordsTotal", "data.total",
	); n != nil {
		return int(*n)
	}
	return fallback
}
