package medication

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a medication row does not exist.
var ErrNotFound = errors.New("medication not found")

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id int) (*Medication, error)
	ListActive(ctx context.Context) ([]*Medication, error)
	Deactivate(ctx context.Context, id int) error
}

// LogRepository reads and writes adherence logs. List methods return rows
// newest first.
type LogRepository interface {
	Create(ctx context.Context, l *MedicationLog) error
	List(ctx context.Context, limit, offset int) ([]*MedicationLog, error)
	ListByMedication(ctx context.Context, medicationID, limit, offset int) ([]*MedicationLog, error)
}
