package vitals

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/medhealth/internal/platform/fhir"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

var fixedNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func testMapper() *fhir.Mapper {
	n := 0
	return fhir.NewMapper(
		fhir.WithClock(fhir.ClockFunc(func() time.Time { return fixedNow })),
		fhir.WithIDGenerator(fhir.IDFunc(func() string {
			n++
			return fmt.Sprintf("obs-%d", n)
		})),
	)
}

func TestTemperatureObservation_Present(t *testing.T) {
	log := &VitalsLog{ID: 1, Temperature: floatPtr(36.7), Status: "normal", CreatedAt: "2024-01-13T10:00:00Z"}

	obs, ok := TemperatureObservation(testMapper(), log)
	if !ok {
		t.Fatal("expected an observation")
	}
	if obs.ResourceType != "Observation" {
		t.Errorf("expected Observation, got %s", obs.ResourceType)
	}
	if obs.Status != fhir.ObservationStatusFinal {
		t.Errorf("expected final, got %s", obs.Status)
	}
	if obs.Code.Coding[0].Code != "8310-5" {
		t.Errorf("expected 8310-5, got %s", obs.Code.Coding[0].Code)
	}
	if obs.Code.Coding[0].System != "http://loinc.org" {
		t.Errorf("expected LOINC system, got %s", obs.Code.Coding[0].System)
	}
	if obs.Code.Coding[0].Display != "Body temperature" {
		t.Errorf("unexpected display %s", obs.Code.Coding[0].Display)
	}
	if obs.ValueQuantity.Value != 36.7 {
		t.Errorf("expected 36.7, got %v", obs.ValueQuantity.Value)
	}
	if obs.ValueQuantity.Unit != "Cel" || obs.ValueQuantity.Code != "Cel" {
		t.Errorf("expected Cel, got %s/%s", obs.ValueQuantity.Unit, obs.ValueQuantity.Code)
	}
	if obs.ValueQuantity.System != "http://unitsofmeasure.org" {
		t.Errorf("unexpected unit system %s", obs.ValueQuantity.System)
	}
	if obs.Subject.Reference != "Patient/1" {
		t.Errorf("expected Patient/1, got %s", obs.Subject.Reference)
	}
	if len(obs.Category) != 1 || obs.Category[0].Coding[0].Code != "vital-signs" {
		t.Errorf("unexpected category %+v", obs.Category)
	}
	want := time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC)
	if !obs.EffectiveDateTime.Equal(want) {
		t.Errorf("expected %v, got %v", want, obs.EffectiveDateTime)
	}
	if obs.Meta == nil || obs.Meta.VersionID != "1" || !obs.Meta.LastUpdated.Equal(fixedNow) {
		t.Errorf("unexpected meta %+v", obs.Meta)
	}
}

func TestTemperatureObservation_Absent(t *testing.T) {
	obs, ok := TemperatureObservation(testMapper(), &VitalsLog{HeartRate: intPtr(75)})
	if ok || obs != nil {
		t.Errorf("expected no observation, got %+v", obs)
	}
}

func TestHeartRateObservation_Present(t *testing.T) {
	obs, ok := HeartRateObservation(testMapper(), &VitalsLog{HeartRate: intPtr(75), CreatedAt: "2024-01-13T10:00:00Z"})
	if !ok {
		t.Fatal("expected an observation")
	}
	if obs.Code.Coding[0].Code != "8867-4" {
		t.Errorf("expected 8867-4, got %s", obs.Code.Coding[0].Code)
	}
	if obs.Code.Text != "Heart Rate" {
		t.Errorf("expected text Heart Rate, got %s", obs.Code.Text)
	}
	if obs.ValueQuantity.Value != 75.0 {
		t.Errorf("expected 75, got %v", obs.ValueQuantity.Value)
	}
	if obs.ValueQuantity.Unit != "/min" || obs.ValueQuantity.Code != "/min" {
		t.Errorf("expected /min, got %s/%s", obs.ValueQuantity.Unit, obs.ValueQuantity.Code)
	}
}

func TestHeartRateObservation_Absent(t *testing.T) {
	obs, ok := HeartRateObservation(testMapper(), &VitalsLog{Temperature: floatPtr(37)})
	if ok || obs != nil {
		t.Errorf("expected no observation, got %+v", obs)
	}
}

func TestToObservations_BothPresent(t *testing.T) {
	logs := []*VitalsLog{{Temperature: floatPtr(36.7), HeartRate: intPtr(75), CreatedAt: "2024-01-13T10:00:00Z"}}

	obs := ToObservations(testMapper(), logs)
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if obs[0].Code.Coding[0].Code != "8310-5" || obs[0].ValueQuantity.Value != 36.7 || obs[0].ValueQuantity.Unit != "Cel" {
		t.Errorf("unexpected first observation %+v", obs[0])
	}
	if obs[1].Code.Coding[0].Code != "8867-4" || obs[1].ValueQuantity.Value != 75 || obs[1].ValueQuantity.Unit != "/min" {
		t.Errorf("unexpected second observation %+v", obs[1])
	}
	if obs[0].ID == obs[1].ID {
		t.Error("expected distinct ids")
	}
}

func TestToObservations_HeartRateOnly(t *testing.T) {
	obs := ToObservations(testMapper(), []*VitalsLog{{HeartRate: intPtr(75), CreatedAt: "2024-01-13T10:00:00Z"}})
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].Code.Coding[0].Code != "8867-4" {
		t.Errorf("expected heart rate, got %s", obs[0].Code.Coding[0].Code)
	}
}

func TestToObservations_NeitherPresent(t *testing.T) {
	obs := ToObservations(testMapper(), []*VitalsLog{{Status: "normal"}})
	if len(obs) != 0 {
		t.Errorf("expected 0 observations, got %d", len(obs))
	}
	if obs == nil {
		t.Error("expected an empty slice so the JSON body is []")
	}
}

func TestToObservations_PreservesRowOrder(t *testing.T) {
	logs := []*VitalsLog{
		{ID: 3, Temperature: floatPtr(37.1), CreatedAt: "2024-01-13T12:00:00Z"},
		{ID: 2},
		{ID: 1, Temperature: floatPtr(36.5), HeartRate: intPtr(62), CreatedAt: "2024-01-13T08:00:00Z"},
	}

	obs := ToObservations(testMapper(), logs)
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs))
	}
	wantValues := []float64{37.1, 36.5, 62}
	wantCodes := []string{"8310-5", "8310-5", "8867-4"}
	for i := range obs {
		if obs[i].ValueQuantity.Value != wantValues[i] {
			t.Errorf("obs[%d]: expected value %v, got %v", i, wantValues[i], obs[i].ValueQuantity.Value)
		}
		if obs[i].Code.Coding[0].Code != wantCodes[i] {
			t.Errorf("obs[%d]: expected code %s, got %s", i, wantCodes[i], obs[i].Code.Coding[0].Code)
		}
	}
}

func TestObservation_MalformedTimestampFallsBackToNow(t *testing.T) {
	start := time.Now().UTC().Add(-time.Second)
	obs, ok := TemperatureObservation(fhir.NewMapper(), &VitalsLog{Temperature: floatPtr(37), CreatedAt: "not-a-date"})
	if !ok {
		t.Fatal("expected an observation")
	}
	if obs.EffectiveDateTime.Before(start) {
		t.Errorf("expected effective time at or after %v, got %v", start, obs.EffectiveDateTime)
	}
}

func TestObservation_DefaultIDsAreUUIDs(t *testing.T) {
	m := fhir.NewMapper()
	log := &VitalsLog{Temperature: floatPtr(37), HeartRate: intPtr(70)}
	first := ToObservations(m, []*VitalsLog{log})
	second := ToObservations(m, []*VitalsLog{log})

	for _, o := range append(first, second...) {
		if _, err := uuid.Parse(o.ID); err != nil {
			t.Errorf("expected UUID id, got %q", o.ID)
		}
	}
	if first[0].ID == second[0].ID {
		t.Error("expected a fresh id on every mapping")
	}
}
