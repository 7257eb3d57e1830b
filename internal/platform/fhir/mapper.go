package fhir

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/medhealth/pkg/fhirmodels"
)

// Clock supplies the current time to resource mapping.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies fresh logical ids for mapped resources.
type IDGenerator interface {
	NewID() string
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// IDFunc adapts a function to the IDGenerator interface.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// Mapper holds the time and identity sources shared by every record-to-resource
// conversion. A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	clock Clock
	ids   IDGenerator
}

// MapperOption customizes a Mapper.
type MapperOption func(*Mapper)

// WithClock overrides the clock used for meta timestamps and the effective
// time fallback.
func WithClock(c Clock) MapperOption {
	return func(m *Mapper) { m.clock = c }
}

// WithIDGenerator overrides the resource id source.
func WithIDGenerator(g IDGenerator) MapperOption {
	return func(m *Mapper) { m.ids = g }
}

// NewMapper returns a Mapper using the system clock and random UUIDv4 ids
// unless overridden.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{clock: systemClock{}, ids: uuidGenerator{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the mapper clock's current time in UTC.
func (m *Mapper) Now() time.Time {
	return m.clock.Now().UTC()
}

// NewID returns a fresh resource id. Ids are never derived from the source row.
func (m *Mapper) NewID() string {
	return m.ids.NewID()
}

// EffectiveTime parses a stored RFC 3339 timestamp, including the lowercase
// "t" and "z" forms. Anything unparseable yields the current time instead of
// an error.
func (m *Mapper) EffectiveTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, strings.ToUpper(raw))
	}
	if err != nil {
		return m.Now()
	}
	return t.UTC()
}

// NewMeta returns version 1 metadata stamped with the current time.
func (m *Mapper) NewMeta() *Meta {
	return &Meta{VersionID: "1", LastUpdated: m.Now()}
}

// Subject returns the fixed patient reference of the single-patient deployment.
func Subject() Reference {
	return Reference{
		Reference: fhirmodels.SubjectPatientReference,
		Display:   fhirmodels.SubjectPatientDisplay,
	}
}

// VitalSignsCategory returns the observation-category concept shared by all
// vital-sign observations.
func VitalSignsCategory() []CodeableConcept {
	return []CodeableConcept{{
		Coding: []Coding{{
			System:  fhirmodels.SystemObservationCategory,
			Code:    fhirmodels.ObsCategoryVitalSigns,
			Display: fhirmodels.ObsCategoryVitalSignsDisplay,
		}},
		Text: fhirmodels.ObsCategoryVitalSignsDisplay,
	}}
}

// LOINCConcept builds a single-coding LOINC concept.
func LOINCConcept(code, display, text string) CodeableConcept {
	return CodeableConcept{
		Coding: []Coding{{System: fhirmodels.SystemLOINC, Code: code, Display: display}},
		Text:   text,
	}
}

// UCUMQuantity builds a quantity whose unit and code are the same UCUM symbol.
func UCUMQuantity(value float64, unit string) Quantity {
	return Quantity{Value: value, Unit: unit, System: fhirmodels.SystemUCUM, Code: unit}
}
