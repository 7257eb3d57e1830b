package medication

import (
	"strconv"

	"github.com/medhealth/medhealth/internal/platform/fhir"
	"github.com/medhealth/medhealth/pkg/fhirmodels"
)

// StatusFromLog maps the free-text log status to a statement status. The
// match is exact and case-sensitive.
func StatusFromLog(status string) fhir.MedicationStatementStatus {
	switch status {
	case fhirmodels.LogStatusTaken:
		return fhir.MedicationStatusCompleted
	case fhirmodels.LogStatusMissed:
		return fhir.MedicationStatusNotTaken
	default:
		return fhir.MedicationStatusUnknown
	}
}

// ToStatement converts a stored adherence log into a MedicationStatement.
// It never fails: a missing medication id becomes 0 and an unparseable
// created_at becomes the mapper's current time.
func ToStatement(m *fhir.Mapper, log *MedicationLog) *fhir.MedicationStatement {
	medID := 0
	if log.MedicationID != nil {
		medID = *log.MedicationID
	}
	return &fhir.MedicationStatement{
		ResourceType: "MedicationStatement",
		ID:           m.NewID(),
		Status:       StatusFromLog(log.Status),
		Medication: fhir.Reference{
			Reference: fhir.FormatReference("Medication", strconv.Itoa(medID)),
			Display:   log.MedicationName,
		},
		Subject:           fhir.Subject(),
		EffectiveDateTime: m.EffectiveTime(log.CreatedAt),
		Meta:              m.NewMeta(),
	}
}

// ToStatements maps each log in order.
func ToStatements(m *fhir.Mapper, logs []*MedicationLog) []*fhir.MedicationStatement {
	out := make([]*fhir.MedicationStatement, 0, len(logs))
	for _, l := range logs {
		out = append(out, ToStatement(m, l))
	}
	return out
}
