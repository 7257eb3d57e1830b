package medication

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/medhealth/medhealth/internal/domain/vitals"
	"github.com/medhealth/medhealth/internal/platform/fhir"
	"github.com/medhealth/medhealth/internal/platform/metrics"
	"github.com/medhealth/medhealth/pkg/fhirmodels"
)

const maxNameLength = 100

type Service struct {
	medications MedicationRepository
	logs        LogRepository
	mapper      *fhir.Mapper
	metrics     *metrics.Collector
}

func NewService(meds MedicationRepository, logs LogRepository, mapper *fhir.Mapper, collector *metrics.Collector) *Service {
	return &Service{medications: meds, logs: logs, mapper: mapper, metrics: collector}
}

// ValidateName rejects empty or overlong names and markup characters.
func ValidateName(name string) error {
	if name == "" {
		return fhir.NewValidationError("name", "medication name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fhir.NewValidationError("name", "medication name too long (max %d characters)", maxNameLength)
	}
	if strings.ContainsAny(name, `<>"'`) {
		return fhir.NewValidationError("name", "invalid characters in medication name")
	}
	return nil
}

// ValidateClockTime accepts 24-hour HH:MM values.
func ValidateClockTime(field, value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return fhir.NewValidationError(field, "invalid time format, use HH:MM")
	}
	hour, herr := strconv.ParseUint(parts[0], 10, 8)
	minute, merr := strconv.ParseUint(parts[1], 10, 8)
	if herr != nil || merr != nil {
		return fhir.NewValidationError(field, "time must be numeric (HH:MM)")
	}
	if hour > 23 || minute > 59 {
		return fhir.NewValidationError(field, "hour must be 0-23, minute must be 0-59")
	}
	return nil
}

// -- Medication --

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	m.ScheduleTime = strings.TrimSpace(m.ScheduleTime)
	if err := ValidateName(m.Name); err != nil {
		return err
	}
	if err := ValidateClockTime("schedule_time", m.ScheduleTime); err != nil {
		return err
	}
	if err := s.medications.Create(ctx, m); err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

func (s *Service) GetMedication(ctx context.Context, id int) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

// ListMedications returns the active schedule, never nil.
func (s *Service) ListMedications(ctx context.Context) ([]*Medication, error) {
	items, err := s.medications.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Medication{}
	}
	return items, nil
}

// DeleteMedication deactivates a medication. Its logs are kept.
func (s *Service) DeleteMedication(ctx context.Context, id int) error {
	return s.medications.Deactivate(ctx, id)
}

// -- Adherence logs --

func (s *Service) statements(logs []*MedicationLog) []*fhir.MedicationStatement {
	out := ToStatements(s.mapper, logs)
	s.metrics.ResourcesMapped("MedicationStatement", len(out))
	return out
}

// ListStatements maps the newest logs across all medications.
func (s *Service) ListStatements(ctx context.Context, limit, offset int) ([]*fhir.MedicationStatement, error) {
	logs, err := s.logs.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.statements(logs), nil
}

// ListStatementsForMedication maps the newest logs of one medication. An
// unknown id yields an empty list.
func (s *Service) ListStatementsForMedication(ctx context.Context, medicationID, limit, offset int) ([]*fhir.MedicationStatement, error) {
	logs, err := s.logs.ListByMedication(ctx, medicationID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.statements(logs), nil
}

// RecordLog stores an adherence event for an existing medication and returns
// it as a MedicationStatement. The medication name is copied onto the log.
func (s *Service) RecordLog(ctx context.Context, req *RecordLogRequest) (*fhir.MedicationStatement, error) {
	if req.Status != fhirmodels.LogStatusTaken && req.Status != fhirmodels.LogStatusMissed {
		return nil, fhir.NewValidationError("status", "must be taken or missed")
	}
	if req.MedicationID <= 0 {
		return nil, fhir.NewValidationError("medication_id", "is required")
	}
	req.ScheduledTime = strings.TrimSpace(req.ScheduledTime)
	req.ActualTime = strings.TrimSpace(req.ActualTime)
	if req.ScheduledTime != "" {
		if err := ValidateClockTime("scheduled_time", req.ScheduledTime); err != nil {
			return nil, err
		}
	}
	if req.ActualTime != "" {
		if err := ValidateClockTime("actual_time", req.ActualTime); err != nil {
			return nil, err
		}
	}
	if err := vitals.ValidateReadings(req.Temperature, req.HeartRate); err != nil {
		return nil, err
	}

	med, err := s.medications.GetByID(ctx, req.MedicationID)
	if err != nil {
		return nil, err
	}

	scheduled := req.ScheduledTime
	if scheduled == "" {
		scheduled = med.ScheduleTime
	}
	medID := med.ID
	log := &MedicationLog{
		MedicationID:   &medID,
		MedicationName: med.Name,
		ScheduledTime:  scheduled,
		ActualTime:     req.ActualTime,
		Status:         req.Status,
		Temperature:    req.Temperature,
		HeartRate:      req.HeartRate,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("create medication log: %w", err)
	}

	stmt := ToStatement(s.mapper, log)
	s.metrics.ResourcesMapped("MedicationStatement", 1)
	return stmt, nil
}
