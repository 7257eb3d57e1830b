package vitals

import (
	"context"
	"fmt"

	"github.com/medhealth/medhealth/internal/platform/fhir"
	"github.com/medhealth/medhealth/internal/platform/metrics"
	"github.com/medhealth/medhealth/pkg/fhirmodels"
)

// Accepted measurement ranges, in Celsius and beats per minute.
const (
	MinTemperature = 20.0
	MaxTemperature = 45.0
	MinHeartRate   = 30
	MaxHeartRate   = 250
)

var validStatuses = map[string]bool{
	fhirmodels.VitalsStatusNormal:   true,
	fhirmodels.VitalsStatusAbnormal: true,
	fhirmodels.VitalsStatusWarning:  true,
}

// ValidateReadings checks whichever measurements are present.
func ValidateReadings(temperature *float64, heartRate *int) error {
	if temperature != nil && (*temperature < MinTemperature || *temperature > MaxTemperature) {
		return fhir.NewValidationError("temperature", "out of valid range (%g-%g°C)", MinTemperature, MaxTemperature)
	}
	if heartRate != nil && (*heartRate < MinHeartRate || *heartRate > MaxHeartRate) {
		return fhir.NewValidationError("heart_rate", "out of valid range (%d-%d bpm)", MinHeartRate, MaxHeartRate)
	}
	return nil
}

type Service struct {
	repo    Repository
	mapper  *fhir.Mapper
	metrics *metrics.Collector
}

func NewService(repo Repository, mapper *fhir.Mapper, collector *metrics.Collector) *Service {
	return &Service{repo: repo, mapper: mapper, metrics: collector}
}

// Record validates and stores a reading. An empty status defaults to normal.
func (s *Service) Record(ctx context.Context, v *VitalsLog) error {
	if err := ValidateReadings(v.Temperature, v.HeartRate); err != nil {
		return err
	}
	if v.Status == "" {
		v.Status = fhirmodels.VitalsStatusNormal
	}
	if !validStatuses[v.Status] {
		return fhir.NewValidationError("status", "must be one of normal, abnormal, warning")
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return fmt.Errorf("create vitals: %w", err)
	}
	return nil
}

// ListObservations maps the newest rows to observations, newest first.
func (s *Service) ListObservations(ctx context.Context, limit, offset int) ([]*fhir.Observation, error) {
	logs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	obs := ToObservations(s.mapper, logs)
	s.metrics.ResourcesMapped("Observation", len(obs))
	return obs, nil
}
