package soarfare

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// MockFlightSearch fabricates a flight-search reply for the given form.
// It stands in for the backend only when mock mode is switched on in config.
func MockFlightSearch(form url.Values) Reply {
	from := strings.ToUpper(form.Get("from"))
	to := strings.ToUpper(form.Get("to"))
	date := form.Get("travel_date")

	flights := make([]map[string]any, 0, 3)
	for i, dep := range []string{"06:30", "11:15", "19:45"} {
		stops := i % 2
		points := int64(300 + 125*i)
		f := map[string]any{
			"id":             uuid.NewString(),
			"origin":         map[string]any{"code": from, "city": from, "name": from + " International"},
			"destination":    map[string]any{"code": to, "city": to, "name": to + " International"},
			"departure_time": fmt.Sprintf("%sT%s:00", date, dep),
			"arrival_time":   fmt.Sprintf("%sT%s:00", date, addHours(dep, 3+stops)),
			"duration":       fmt.Sprintf("%dh 00m", 3+stops),
			"stops":          stops,
			"price":          float64(points) * 0.85,
			"currency":       "USD",
			"points":         points,
		}
		if rd := form.Get("return_date"); rd != "" {
			f["return_segments"] = []map[string]any{{
				"origin":         map[string]any{"code": to, "city": to},
				"destination":    map[string]any{"code": from, "city": from},
				"departure_time": rd + "T10:00:00",
				"arrival_time":   fmt.Sprintf("%sT%s:00", rd, addHours("10:00", 3+stops)),
				"duration":       fmt.Sprintf("%dh 00m", 3+stops),
				"stops":          stops,
			}}
		}
		flights = append(flights, f)
	}

	body, _ := json.Marshal(map[string]any{
		"success": true,
		"message": "mock flight search results",
		"data":    map[string]any{"flights": flights, "total": len(flights)},
	})
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Reply{Status: http.StatusOK, ContentType: "application/json", Header: h, Body: body}
}

func addHours(hhmm string, n int) string {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return hhmm
	}
	return fmt.Sprintf("%02d:%02d", (h+n)%24, m)
}
