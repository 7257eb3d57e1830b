package vitals

// VitalsLog maps to the vitals_logs table. Either measurement may be absent.
type VitalsLog struct {
	ID          int      `db:"id" json:"id"`
	Temperature *float64 `db:"temperature" json:"temperature,omitempty"`
	HeartRate   *int     `db:"heart_rate" json:"heart_rate,omitempty"`
	Status      string   `db:"status" json:"status"`
	CreatedAt   string   `db:"created_at" json:"created_at"`
}

// CreateVitalsRequest is the body of POST /api/vitals.
type CreateVitalsRequest struct {
	Temperature *float64 `json:"temperature"`
	HeartRate   *int     `json:"heart_rate"`
	Status      string   `json:"status"`
}
