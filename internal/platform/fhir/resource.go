package fhir

import (
	"time"
)

// Meta carries resource metadata. The wire names are snake_case to stay
// compatible with existing dashboard clients.
type Meta struct {
	VersionID   string    `json:"version_id"`
	LastUpdated time.Time `json:"last_updated"`
}

type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding"`
	Text   string   `json:"text"`
}

type Reference struct {
	Reference string `json:"reference"`
	Display   string `json:"display"`
}

// Quantity is a measured amount with its UCUM unit coding.
type Quantity struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	System string  `json:"system"`
	Code   string  `json:"code"`
}

type Dosage struct {
	Timing Timing `json:"timing"`
	Text   string `json:"text"`
}

type Timing struct {
	Repeat Repeat `json:"repeat"`
}

type Repeat struct {
	Frequency  int     `json:"frequency"`
	Period     float64 `json:"period"`
	PeriodUnit string  `json:"period_unit"`
}

// MedicationStatementStatus values per FHIR R4.
type MedicationStatementStatus string

const (
	MedicationStatusActive         MedicationStatementStatus = "active"
	MedicationStatusCompleted      MedicationStatementStatus = "completed"
	MedicationStatusEnteredInError MedicationStatementStatus = "entered-in-error"
	MedicationStatusIntended       MedicationStatementStatus = "intended"
	MedicationStatusStopped        MedicationStatementStatus = "stopped"
	MedicationStatusOnHold         MedicationStatementStatus = "on-hold"
	MedicationStatusUnknown        MedicationStatementStatus = "unknown"
	MedicationStatusNotTaken       MedicationStatementStatus = "not-taken"
)

// ObservationStatus values per FHIR R4.
type ObservationStatus string

const (
	ObservationStatusRegistered     ObservationStatus = "registered"
	ObservationStatusPreliminary    ObservationStatus = "preliminary"
	ObservationStatusFinal          ObservationStatus = "final"
	ObservationStatusAmended        ObservationStatus = "amended"
	ObservationStatusCorrected      ObservationStatus = "corrected"
	ObservationStatusCancelled      ObservationStatus = "cancelled"
	ObservationStatusEnteredInError ObservationStatus = "entered-in-error"
	ObservationStatusUnknown        ObservationStatus = "unknown"
)

// MedicationStatement records whether a scheduled dose was taken.
type MedicationStatement struct {
	ResourceType      string                    `json:"resourceType"`
	ID                string                    `json:"id"`
	Status            MedicationStatementStatus `json:"status"`
	Medication        Reference                 `json:"medication"`
	Subject           Reference                 `json:"subject"`
	EffectiveDateTime time.Time                 `json:"effectiveDateTime"`
	Dosage            *Dosage                   `json:"dosage,omitempty"`
	Meta              *Meta                     `json:"meta,omitempty"`
}

// Observation is a single vital-sign measurement.
type Observation struct {
	ResourceType      string            `json:"resourceType"`
	ID                string            `json:"id"`
	Status            ObservationStatus `json:"status"`
	Category          []CodeableConcept `json:"category"`
	Code              CodeableConcept   `json:"code"`
	Subject           Reference         `json:"subject"`
	EffectiveDateTime time.Time         `json:"effectiveDateTime"`
	ValueQuantity     Quantity          `json:"valueQuantity"`
	Meta              *Meta             `json:"meta,omitempty"`
}

// OperationOutcome represents a FHIR OperationOutcome for errors.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	Diagnostics string   `json:"diagnostics,omitempty"`
	Expression  []string `json:"expression,omitempty"`
}

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    severity,
				Code:        code,
				Diagnostics: diagnostics,
			},
		},
	}
}

func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, diagnostics)
}

func NotFoundOutcome(resourceType, id string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, resourceType+"/"+id+" not found")
}

// FormatReference builds a relative literal reference such as "Medication/3".
func FormatReference(resourceType, id string) string {
	return resourceType + "/" + id
}
