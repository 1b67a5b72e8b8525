package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HeshMedia/insurezeal-sub005/recon"
	"gorm.io/gorm"
)

// ReconciliationRun is the stored header of one reconciliation report:
// aggregate stats plus upload metadata. Runs are append-only audit
// artifacts; nothing updates them after creation.
type ReconciliationRun struct {
	ID          string `gorm:"primary_key;size:36" json:"id"`
	InsurerName string `gorm:"size:200;index;not null" json:"insurer_name"`
	FileName    string `gorm:"size:300" json:"file_name"`

	TotalRecordsProcessed int    `json:"total_records_processed"`
	TotalRecordsUpdated   int    `json:"total_records_updated"`
	TotalRecordsAdded     int    `json:"total_records_added"`
	TotalRecordsSkipped   int    `json:"total_records_skipped"`
	TotalErrors           int    `json:"total_errors"`
	FieldChanges          []byte `gorm:"type:json" json:"field_changes"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ReconciliationRowChange is one ChangeDetail row of a run, stored in file
// order (RowIndex ascending within a run).
type ReconciliationRowChange struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	RunId         string                `gorm:"size:36;index;not null" json:"run_id"`
	RowIndex      int                   `gorm:"not null" json:"row_index"`
	PolicyNumber  string                `gorm:"size:100;index" json:"policy_number"`
	Action        recon.ReconcileAction `gorm:"size:20;index" json:"action"`
	ChangedFields []byte                `gorm:"type:json" json:"changed_fields"`
	NewValues     []byte                `gorm:"type:json" json:"new_values"`
	Message       string                `gorm:"size:500" json:"message"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

// SaveReconciliationReport persists a finished report: one run row and one
// change row per source row. Must run inside the caller's transaction so the
// report and the universal-record updates commit together.
func SaveReconciliationReport(ctx context.Context, tx *gorm.DB, fileName string, report *recon.ReconciliationReport) (*ReconciliationRun, error) {
	fieldChanges, err := json.Marshal(report.Stats.FieldChanges)
	if err != nil {
		return nil, err
	}
	run := &ReconciliationRun{
		ID:                    report.ID,
		InsurerName:           report.InsurerName,
		FileName:              fileName,
		TotalRecordsProcessed: report.Stats.TotalRecordsProcessed,
		TotalRecordsUpdated:   report.Stats.TotalRecordsUpdated,
		TotalRecordsAdded:     report.Stats.TotalRecordsAdded,
		TotalRecordsSkipped:   report.Stats.TotalRecordsSkipped,
		TotalErrors:           report.Stats.TotalErrors,
		FieldChanges:          fieldChanges,
		StartedAt:             report.Stats.StartedAt,
		CompletedAt:           report.Stats.CompletedAt,
	}
	if err := tx.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}

	changes := make([]ReconciliationRowChange, 0, len(report.ChangeDetails))
	for _, detail := range report.ChangeDetails {
		row := ReconciliationRowChange{
			RunId:        run.ID,
			RowIndex:     detail.RowIndex,
			PolicyNumber: detail.PolicyNumber,
			Action:       detail.Action,
			Message:      detail.Message,
		}
		if len(detail.ChangedFields) > 0 {
			row.ChangedFields, err = json.Marshal(detail.ChangedFields)
			if err != nil {
				return nil, err
			}
		}
		if len(detail.NewValues) > 0 {
			row.NewValues, err = json.Marshal(detail.NewValues)
			if err != nil {
				return nil, err
			}
		}
		changes = append(changes, row)
	}
	if len(changes) > 0 {
		if err := tx.WithContext(ctx).CreateInBatches(&changes, 200).Error; err != nil {
			return nil, err
		}
	}
	return run, nil
}

// GetReconciliationRun loads a stored run header.
func GetReconciliationRun(ctx context.Context, db *gorm.DB, runId string) (*ReconciliationRun, error) {
	var run ReconciliationRun
	if err := db.WithContext(ctx).First(&run, "id = ?", runId).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// LoadReconciliationReport rehydrates a stored run into the in-memory report
// shape, preserving file order, for API responses and Excel export.
func LoadReconciliationReport(ctx context.Context, db *gorm.DB, runId string) (*recon.ReconciliationReport, error) {
	run, err := GetReconciliationRun(ctx, db, runId)
	if err != nil {
		return nil, err
	}
	var rows []ReconciliationRowChange
	if err := db.WithContext(ctx).
		Where("run_id = ?", runId).
		Order("row_index").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	fieldChanges := make(map[string]int)
	if len(run.FieldChanges) > 0 {
		if err := json.Unmarshal(run.FieldChanges, &fieldChanges); err != nil {
			return nil, err
		}
	}

	report := &recon.ReconciliationReport{
		ID:          run.ID,
		InsurerName: run.InsurerName,
		Stats: recon.ReportStats{
			TotalRecordsProcessed: run.TotalRecordsProcessed,
			TotalRecordsUpdated:   run.TotalRecordsUpdated,
			TotalRecordsAdded:     run.TotalRecordsAdded,
			TotalRecordsSkipped:   run.TotalRecordsSkipped,
			TotalErrors:           run.TotalErrors,
			FieldChanges:          fieldChanges,
			StartedAt:             run.StartedAt,
			CompletedAt:           run.CompletedAt,
		},
		ChangeDetails: make([]recon.ChangeDetail, 0, len(rows)),
	}
	for _, row := range rows {
		detail := recon.ChangeDetail{
			RowIndex:     row.RowIndex,
			PolicyNumber: row.PolicyNumber,
			Action:       row.Action,
			Message:      row.Message,
		}
		if len(row.ChangedFields) > 0 {
			if err := json.Unmarshal(row.ChangedFields, &detail.ChangedFields); err != nil {
				return nil, err
			}
		}
		if len(row.NewValues) > 0 {
			if err := json.Unmarshal(row.NewValues, &detail.NewValues); err != nil {
				return nil, err
			}
		}
		report.ChangeDetails = append(report.ChangeDetails, detail)
		if detail.Action == recon.ActionError {
			report.ErrorDetails = append(report.ErrorDetails, detail)
		}
	}
	return report, nil
}

// ListReconciliationRuns returns recent runs, newest first.
func ListReconciliationRuns(ctx context.Context, db *gorm.DB, insurerName string, limit int) ([]ReconciliationRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if insurerName != "" {
		query = query.Where("insurer_name = ?", insurerName)
	}
	var runs []ReconciliationRun
	err := query.Find(&runs).Error
	return runs, err
}
