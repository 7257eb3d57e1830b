package vitals

import (
	"github.com/medhealth/medhealth/internal/platform/fhir"
	"github.com/medhealth/medhealth/pkg/fhirmodels"
)

func observation(m *fhir.Mapper, log *VitalsLog, code fhir.CodeableConcept, value fhir.Quantity) *fhir.Observation {
	return &fhir.Observation{
		ResourceType:      "Observation",
		ID:                m.NewID(),
		Status:            fhir.ObservationStatusFinal,
		Category:          fhir.VitalSignsCategory(),
		Code:              code,
		Subject:           fhir.Subject(),
		EffectiveDateTime: m.EffectiveTime(log.CreatedAt),
		ValueQuantity:     value,
		Meta:              m.NewMeta(),
	}
}

// TemperatureObservation maps the body temperature of log, if recorded.
func TemperatureObservation(m *fhir.Mapper, log *VitalsLog) (*fhir.Observation, bool) {
	if log.Temperature == nil {
		return nil, false
	}
	return observation(m, log,
		fhir.LOINCConcept(fhirmodels.LOINCBodyTemperature, fhirmodels.LOINCBodyTemperatureDisplay, fhirmodels.LOINCBodyTemperatureText),
		fhir.UCUMQuantity(*log.Temperature, fhirmodels.UnitCelsius),
	), true
}

// HeartRateObservation maps the heart rate of log, if recorded.
func HeartRateObservation(m *fhir.Mapper, log *VitalsLog) (*fhir.Observation, bool) {
	if log.HeartRate == nil {
		return nil, false
	}
	return observation(m, log,
		fhir.LOINCConcept(fhirmodels.LOINCHeartRate, fhirmodels.LOINCHeartRateDisplay, fhirmodels.LOINCHeartRateText),
		fhir.UCUMQuantity(float64(*log.HeartRate), fhirmodels.UnitPerMinute),
	), true
}

// ToObservations flattens logs into observations. Each row contributes its
// temperature then its heart rate, skipping whichever is absent, and row
// order is preserved.
func ToObservations(m *fhir.Mapper, logs []*VitalsLog) []*fhir.Observation {
	out := make([]*fhir.Observation, 0, 2*len(logs))
	for _, l := range logs {
		if obs, ok := TemperatureObservation(m, l); ok {
			out = append(out, obs)
		}
		if obs, ok := HeartRateObservation(m, l); ok {
			out = append(out, obs)
		}
	}
	return out
}
