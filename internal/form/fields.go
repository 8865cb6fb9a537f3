// Package form drives the create and rework task forms: required-field
// completion, attachment staging and the submission payload.
package form

import (
	"strings"
)

type Field string

const (
	FieldTitle                Field = "title"
	FieldDescription          Field = "description"
	FieldContribution         Field = "contribution"
	FieldCompanyServed        Field = "company_served"
	FieldRelatedProject       Field = "related_project"
	FieldAchievedDeliverables Field = "achieved_deliverables"
	FieldStatus               Field = "status"
	FieldDueDate              Field = "due_date"
	FieldTaskTypeID           Field = "task_type_id"
)

// Rework passthrough fields. They are carried with the form but never
// edited by the user.
const (
	fieldTaskID          Field = "task_id"
	fieldIsShifted       Field = "is_shifted"
	fieldOriginalDueDate Field = "original_due_date"
)

// EditableFields lists the user-facing fields in layout order.
var EditableFields = []Field{
	FieldTitle, FieldDescription, FieldContribution, FieldCompanyServed,
	FieldRelatedProject, FieldAchievedDeliverables, FieldStatus, FieldDueDate, FieldTaskTypeID,
}

func (f Field) Label() string {
	switch f {
	case FieldTaskTypeID:
		return "Task Type"
	case FieldDueDate:
		return "Due Date"
	}
	words := strings.Split(string(f), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Fields holds form values. A missing key and an empty value are both
// treated as unfilled.
type Fields map[Field]string

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f Fields) filled(field Field) bool {
	return strings.TrimSpace(f[field]) != ""
}

// RequiredFields returns the required set. company_served joins it
// only when the organization supplies a company.
func RequiredFields(companyFieldRequired bool) []Field {
	required := []Field{FieldTitle, FieldDescription, FieldContribution}
	if companyFieldRequired {
		required = append(required, FieldCompanyServed)
	}
	return append(required, FieldRelatedProject, FieldAchievedDeliverables, FieldStatus, FieldDueDate)
}

// CompletionPercent is the share of required fields that are filled,
// from 0 to 100.
func CompletionPercent(fields Fields, companyFieldRequired bool) float64 {
	required := RequiredFields(companyFieldRequired)
	filled := 0
	for _, f := range required {
		if fields.filled(f) {
			filled++
		}
	}
	return float64(filled) / float64(len(required)) * 100
}

// Missing lists the unfilled required fields in layout order.
func Missing(fields Fields, companyFieldRequired bool) []Field {
	var missing []Field
	for _, f := range RequiredFields(companyFieldRequired) {
		if !fields.filled(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
