package domain

import "time"

type Place struct {
	City string `json:"city"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Segment struct {
	Origin        Place  `json:"origin"`
	Destination   Place  `json:"destination"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Duration      string `json:"duration"`
	Stops         int    `json:"stops"`
	Airline       string `json:"airline,omitempty"`
	FlightNumber  string `json:"flight_number,omitempty"`
}

// Flight is a single offer as shown on a flight card. Constructed from
// backend search results and never mutated afterwards.
type Flight struct {
	ID                string    `json:"id"`
	Origin            Place     `json:"origin"`
	Destination       Place     `json:"destination"`
	DepartureTime     string    `json:"departure_time"`
	ArrivalTime       string    `json:"arrival_time"`
	Duration          string    `json:"duration"`
	Stops             int       `json:"stops"`
	Price             float64   `json:"price"`
	Currency          string    `json:"currency,omitempty"`
	Points            int64     `json:"points"`
	FareSourceCode    string    `json:"fare_source_code,omitempty"`
	ReturnSegments    []Segment `json:"return_segments,omitempty"`
	MultiCitySegments []Segment `json:"multi_city_segments,omitempty"`
}

// HasMoreSegments reports whether the card has return or multi-city legs to expand.
func (f Flight) HasMoreSegments() bool {
	return len(f.ReturnSegments) > 0 || len(f.MultiCitySegments) > 0
}

type Passengers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// SelectedFlight is what the booking page reads back from session storage.
type SelectedFlight struct {
	Flight     Flight     `json:"flight"`
	Passengers Passengers `json:"passengers"`
	SelectedAt time.Time  `json:"selected_at"`
}
