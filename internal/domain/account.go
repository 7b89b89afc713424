package domain

type Booking struct {
	ID           string    `json:"id"`
	TripID       string    `json:"trip_id"`
	PointsUsed   int64     `json:"points_used"`
	TicketIssued bool      `json:"ticket_issued"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
	Segments     []Segment `json:"segments"`
}

type Invoice struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Amount    string `json:"amount"` // already formatted for display
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type UserPoints struct {
	Balance int64 `json:"balance"`
}

type PurchaseResult struct {
	TransactionID string `json:"transaction_id"`
	Points        int64  `json:"points"` // balance after the purchase, as reported by the backend
}
