package medication

// Medication maps to the medications table (the schedule catalog).
type Medication struct {
	ID           int    `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	ScheduleTime string `db:"schedule_time" json:"schedule_time"`
	Active       bool   `db:"active" json:"active"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// MedicationLog maps to the medication_logs table. One row is written per
// scheduled dose, whether it was taken or missed.
type MedicationLog struct {
	ID             int      `db:"id" json:"id"`
	MedicationID   *int     `db:"medication_id" json:"medication_id,omitempty"`
	MedicationName string   `db:"medication_name" json:"medication_name"`
	ScheduledTime  string   `db:"scheduled_time" json:"scheduled_time"`
	ActualTime     string   `db:"actual_time" json:"actual_time"`
	Status         string   `db:"status" json:"status"`
	Temperature    *float64 `db:"temperature" json:"temperature,omitempty"`
	HeartRate      *int     `db:"heart_rate" json:"heart_rate,omitempty"`
	CreatedAt      string   `db:"created_at" json:"created_at"`
}

// CreateMedicationRequest is the body of POST /api/medications.
type CreateMedicationRequest struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"schedule_time"`
}

// RecordLogRequest is the body of POST /api/logs/medications.
type RecordLogRequest struct {
	MedicationID  int      `json:"medication_id"`
	Status        string   `json:"status"`
	ScheduledTime string   `json:"scheduled_time"`
	ActualTime    string   `json:"actual_time"`
	Temperature   *float64 `json:"temperature,omitempty"`
	HeartRate     *int     `json:"heart_rate,omitempty"`
}
