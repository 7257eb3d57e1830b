package fhirmodels

// Common FHIR value set constants used across the application.

// Code systems.
const (
	SystemLOINC               = "http://loinc.org"
	SystemUCUM                = "http://unitsofmeasure.org"
	SystemObservationCategory = "http://terminology.hl7.org/CodeSystem/observation-category"
)

// ObservationCategory codes.
const (
	ObsCategoryVitalSigns        = "vital-signs"
	ObsCategoryVitalSignsDisplay = "Vital Signs"
)

// LOINC vital-sign codes.
const (
	LOINCBodyTemperature        = "8310-5"
	LOINCBodyTemperatureDisplay = "Body temperature"
	LOINCBodyTemperatureText    = "Body Temperature"
	LOINCHeartRate              = "8867-4"
	LOINCHeartRateDisplay       = "Heart rate"
	LOINCHeartRateText          = "Heart Rate"
)

// UCUM units.
const (
	UnitCelsius   = "Cel"
	UnitPerMinute = "/min"
)

// Fixed subject for the single-patient deployment.
const (
	SubjectPatientReference = "Patient/1"
	SubjectPatientDisplay   = "Patient"
)

// Medication log status tags as stored by the adherence tracker.
const (
	LogStatusTaken  = "taken"
	LogStatusMissed = "missed"
)

// Vitals log status tags.
const (
	VitalsStatusNormal   = "normal"
	VitalsStatusAbnormal = "abnormal"
	VitalsStatusWarning  = "warning"
)
