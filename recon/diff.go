package recon

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReconcileAction is the outcome recorded for one source row.
type ReconcileAction string

const (
	ActionAdded   ReconcileAction = "added"
	ActionUpdated ReconcileAction = "updated"
	ActionSkipped ReconcileAction = "skipped"
	ActionError   ReconcileAction = "error"
)

// FieldChange is one field-level variance between the stored record and the
// insurer row.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeDetail is the per-row audit entry. RowIndex is the position in the
// uploaded file (0-based, data rows only); ChangeDetails in a report keep
// file order because auditors read them side by side with the file.
type ChangeDetail struct {
	RowIndex      int                    `json:"row_index"`
	PolicyNumber  string                 `json:"policy_number"`
	Action        ReconcileAction        `json:"action"`
	ChangedFields map[string]FieldChange `json:"changed_fields,omitempty"`
	// NewValues carries the full field set for added rows.
	NewValues map[string]string `json:"new_values,omitempty"`
	// Message explains error rows.
	Message string `json:"message,omitempty"`
}

// ReportStats are pure reductions over the per-row actions. FieldChanges
// counts rows in which a field changed, one increment per row.
type ReportStats struct {
	TotalRecordsProcessed int            `json:"total_records_processed"`
	TotalRecordsUpdated   int            `json:"total_records_updated"`
	TotalRecordsAdded     int            `json:"total_records_added"`
	TotalRecordsSkipped   int            `json:"total_records_skipped"`
	TotalErrors           int            `json:"total_errors"`
	FieldChanges          map[string]int `json:"field_changes"`
	StartedAt             time.Time      `json:"started_at"`
	CompletedAt           time.Time      `json:"completed_at"`
}

// ReconciliationReport is the append-only artifact of one upload. It is never
// mutated after Reconcile returns.
type ReconciliationReport struct {
	ID            string         `json:"id"`
	InsurerName   string         `json:"insurer_name"`
	Stats         ReportStats    `json:"stats"`
	ChangeDetails []ChangeDetail `json:"change_details"`
	ErrorDetails  []ChangeDetail `json:"error_details,omitempty"`
}

// Reconcile compares normalized insurer rows against a snapshot of system
// records and reports every field-level discrepancy.
//
// The snapshot must not be mutated while Reconcile runs. Matching is on the
// normalized policy number; a row without one becomes an error entry and the
// batch continues. Rows with a duplicate policy number in the snapshot match
// the first occurrence.
func Reconcile(insurerName string, systemRecords []CanonicalRecord, sourceRows []CanonicalRecord) *ReconciliationReport {
	report := &ReconciliationReport{
		ID:          uuid.NewString(),
		InsurerName: insurerName,
		Stats: ReportStats{
			FieldChanges: make(map[string]int),
			StartedAt:    time.Now().UTC(),
		},
		ChangeDetails: make([]ChangeDetail, 0, len(sourceRows)),
	}

	index := make(map[string]CanonicalRecord, len(systemRecords))
	for _, rec := range systemRecords {
		key := rec.PolicyNumber()
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = rec
		}
	}

	for i, row := range sourceRows {
		detail := reconcileRow(i, row, index)
		report.ChangeDetails = append(report.ChangeDetails, detail)

		switch detail.Action {
		case ActionAdded:
			report.Stats.TotalRecordsAdded++
		case ActionUpdated:
			report.Stats.TotalRecordsUpdated++
			for field := range detail.ChangedFields {
				report.Stats.FieldChanges[field]++
			}
		case ActionSkipped:
			report.Stats.TotalRecordsSkipped++
		case ActionError:
			report.Stats.TotalErrors++
			report.ErrorDetails = append(report.ErrorDetails, detail)
			// Error rows are excluded from the processed count.
			continue
		}
		report.Stats.TotalRecordsProcessed++
	}

	report.Stats.CompletedAt = time.Now().UTC()
	return report
}

func reconcileRow(rowIndex int, row CanonicalRecord, index map[string]CanonicalRecord) ChangeDetail {
	key := row.PolicyNumber()
	if key == "" {
		return ChangeDetail{
			RowIndex: rowIndex,
			Action:   ActionError,
			Message:  "policy number missing or unparseable",
		}
	}

	system, found := index[key]
	if !found {
		newValues := make(map[string]string, len(row.Fields))
		for field, fv := range row.Fields {
			if fv.Present {
				newValues[field] = fv.Raw
			}
		}
		return ChangeDetail{
			RowIndex:     rowIndex,
			PolicyNumber: key,
			Action:       ActionAdded,
			NewValues:    newValues,
		}
	}

	changed := diffFields(system, row)
	if len(changed) == 0 {
		return ChangeDetail{
			RowIndex:     rowIndex,
			PolicyNumber: key,
			Action:       ActionSkipped,
		}
	}
	return ChangeDetail{
		RowIndex:      rowIndex,
		PolicyNumber:  key,
		Action:        ActionUpdated,
		ChangedFields: changed,
	}
}

// diffFields compares every canonical field across both records. A field
// present on only one side counts as a difference only when the present
// value is non-empty; unmapped leftovers never participate.
func diffFields(system, source CanonicalRecord) map[string]FieldChange {
	fields := make(map[string]bool, len(system.Fields)+len(source.Fields))
	for f := range system.Fields {
		fields[f] = true
	}
	for f := range source.Fields {
		fields[f] = true
	}

	var changed map[string]FieldChange
	for field := range fields {
		if field == PolicyNumberField {
			continue
		}
		oldVal, oldOk := presentValue(system.Fields[field])
		newVal, newOk := presentValue(source.Fields[field])

		if !oldOk && !newOk {
			continue
		}
		if oldOk != newOk {
			// One side absent: only a real value on the other side counts.
			if oldVal == "" && newVal == "" {
				continue
			}
		} else if fieldValuesEqual(field, system.Fields[field], source.Fields[field]) {
			continue
		}
		if changed == nil {
			changed = make(map[string]FieldChange)
		}
		changed[field] = FieldChange{Old: oldVal, New: newVal}
	}
	return changed
}

func presentValue(fv FieldValue) (string, bool) {
	if !fv.Present {
		return "", false
	}
	return fv.Raw, true
}

func fieldValuesEqual(field string, a, b FieldValue) bool {
	if a.Amount != nil && b.Amount != nil {
		return a.Amount.Equal(*b.Amount)
	}
	if numericFields[field] {
		// Stored side may carry a raw string even for numeric fields
		// (e.g. legacy imports); compare numerically when both parse.
		av, aok := ParseAmount(a.Raw)
		bv, bok := ParseAmount(b.Raw)
		if aok && bok {
			return av.Equal(bv)
		}
	}
	return normalizeText(a.Raw) == normalizeText(b.Raw)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
