package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HeshMedia/insurezeal-sub005/config"
	"github.com/HeshMedia/insurezeal-sub005/models"
	"github.com/HeshMedia/insurezeal-sub005/recon"
	"github.com/HeshMedia/insurezeal-sub005/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrReconciliationInProgress is returned when another run for the same
// insurer holds the lock.
var ErrReconciliationInProgress = errors.New("a reconciliation run for this insurer is already in progress")

const reconLockTTL = 5 * time.Minute

// ProcessReconciliationWorkflow runs one reconciliation batch: normalize the
// uploaded rows through the insurer's header mapping, diff them against the
// stored universal records, apply added/updated rows and persist the report.
// The record writes and the report commit in a single transaction; a missing
// header mapping fails the whole batch before anything is written.
//
// Runs are serialized per insurer with a Redis lock so two concurrent uploads
// cannot interleave writes on the same record set. When Redis is not
// connected the run proceeds unlocked with a warning.
func ProcessReconciliationWorkflow(ctx context.Context, db *gorm.DB, logger *logrus.Logger, insurerName string, fileName string, rawRows []map[string]string) (*models.ReconciliationRun, *recon.ReconciliationReport, error) {
	if locker := config.GetRedisLock(); locker != nil {
		lockKey := fmt.Sprintf("recon:lock:%s", insurerName)
		lock, err := locker.Obtain(ctx, lockKey, reconLockTTL, nil)
		if err == redislock.ErrNotObtained {
			return nil, nil, ErrReconciliationInProgress
		}
		if err != nil {
			logger.WithFields(logrus.Fields{
				"module":   "ReconciliationWorkflow.go",
				"funcName": "ProcessReconciliationWorkflow",
				"insurer":  insurerName,
			}).Warnf("could not obtain reconciliation lock, proceeding unlocked: %v", err)
		} else {
			defer lock.Release(context.Background())
		}
	} else {
		logger.WithFields(logrus.Fields{
			"module":  "ReconciliationWorkflow.go",
			"insurer": insurerName,
		}).Warn("redis not connected, reconciliation running unlocked")
	}

	store, err := models.LoadMappingStore(ctx, db)
	if err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "LoadMappingStore", insurerName, err)
		return nil, nil, err
	}

	sourceRows, err := recon.NormalizeRows(store, insurerName, rawRows)
	if err != nil {
		// ErrMappingNotFound lands here: without a header mapping every row
		// would be garbage, so the batch fails before touching the DB.
		config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "NormalizeRows", insurerName, err)
		return nil, nil, err
	}

	var (
		run    *models.ReconciliationRun
		report *recon.ReconciliationReport
	)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		storedRows, systemRecords, err := models.LoadUniversalSnapshot(ctx, tx, insurerName)
		if err != nil {
			config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "LoadUniversalSnapshot", insurerName, err)
			return err
		}

		report = recon.Reconcile(insurerName, systemRecords, sourceRows)

		if err := applyReportActions(ctx, tx, logger, insurerName, storedRows, sourceRows, report); err != nil {
			return err
		}

		run, err = models.SaveReconciliationReport(ctx, tx, fileName, report)
		if err != nil {
			config.LogError(logger, "ReconciliationWorkflow.go", "ProcessReconciliationWorkflow", "SaveReconciliationReport", report.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	publishReconReport(ctx, logger, run)
	return run, report, nil
}

// universalWrite is one planned write against the universal record table.
// Insert creates a new row; otherwise the row matching the policy number is
// refreshed in place.
type universalWrite struct {
	detail recon.ChangeDetail
	insert bool
}

// planUniversalWrites decides, in file order, which report rows insert a new
// universal record and which refresh an existing one. Reconcile marks every
// file row for an unseen policy as added, so a second added row with the same
// policy number must refresh the row the first one inserts rather than insert
// again. Skipped and error rows produce no write.
func planUniversalWrites(existing map[string]bool, details []recon.ChangeDetail) []universalWrite {
	writes := make([]universalWrite, 0, len(details))
	for _, detail := range details {
		switch detail.Action {
		case recon.ActionAdded:
			if existing[detail.PolicyNumber] {
				writes = append(writes, universalWrite{detail: detail})
				continue
			}
			existing[detail.PolicyNumber] = true
			writes = append(writes, universalWrite{detail: detail, insert: true})
		case recon.ActionUpdated:
			writes = append(writes, universalWrite{detail: detail})
		}
	}
	return writes
}

// applyReportActions writes the added and updated rows back to the universal
// record table. Skipped and error rows touch nothing.
func applyReportActions(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, insurerName string, storedRows []models.UniversalRecord, sourceRows []recon.CanonicalRecord, report *recon.ReconciliationReport) error {
	// First occurrence wins, same rule the diff uses for matching.
	byPolicy := make(map[string]*models.UniversalRecord, len(storedRows))
	existing := make(map[string]bool, len(storedRows))
	for i := range storedRows {
		key := storedRows[i].PolicyNumber
		if _, exists := byPolicy[key]; !exists {
			byPolicy[key] = &storedRows[i]
			existing[key] = true
		}
	}

	for _, write := range planUniversalWrites(existing, report.ChangeDetails) {
		detail := write.detail
		source := sourceRows[detail.RowIndex]

		if write.insert {
			rec, err := models.NewUniversalRecord(insurerName, source)
			if err != nil {
				config.LogError(logger, "ReconciliationWorkflow.go", "applyReportActions", "NewUniversalRecord", detail.PolicyNumber, err)
				return err
			}
			if err := tx.Create(rec).Error; err != nil {
				config.LogError(logger, "ReconciliationWorkflow.go", "applyReportActions", "CreateUniversalRecord", detail.PolicyNumber, err)
				return err
			}
			byPolicy[rec.PolicyNumber] = rec
			continue
		}

		stored, found := byPolicy[detail.PolicyNumber]
		if !found {
			// Snapshot row with a corrupt payload; the diff matched on a
			// parallel record we cannot rehydrate, leave it as is.
			continue
		}
		canonical, err := stored.Canonical()
		if err != nil {
			continue
		}
		if detail.Action == recon.ActionUpdated {
			// Only the fields the diff flagged move; everything else keeps
			// its stored value.
			for field := range detail.ChangedFields {
				if fv, ok := source.Fields[field]; ok && fv.Present {
					canonical.Fields[field] = fv
				} else {
					delete(canonical.Fields, field)
				}
			}
		} else {
			// Duplicate added row: the later file row wins wholesale, same
			// as if it had arrived in a second upload.
			for field, fv := range source.Fields {
				if fv.Present {
					canonical.Fields[field] = fv
				}
			}
		}
		if err := stored.ReplacePayload(canonical); err != nil {
			config.LogError(logger, "ReconciliationWorkflow.go", "applyReportActions", "ReplacePayload", detail.PolicyNumber, err)
			return err
		}
		if err := tx.Save(stored).Error; err != nil {
			config.LogError(logger, "ReconciliationWorkflow.go", "applyReportActions", "SaveUniversalRecord", detail.PolicyNumber, err)
			return err
		}
	}
	return nil
}

// publishReconReport notifies downstream consumers. Best effort: the report
// is already committed, a publish failure only logs.
func publishReconReport(ctx context.Context, logger *logrus.Logger, run *models.ReconciliationRun) {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	msg := config.ReconReportMessage{
		RunId:         run.ID,
		InsurerName:   run.InsurerName,
		FileName:      run.FileName,
		TotalUpdated:  run.TotalRecordsUpdated,
		TotalAdded:    run.TotalRecordsAdded,
		TotalSkipped:  run.TotalRecordsSkipped,
		TotalErrors:   run.TotalErrors,
		CompletedAt:   run.CompletedAt,
		CorrelationId: correlationId,
	}
	if _, err := config.PublishReconReport(ctx, msg); err != nil {
		logger.WithFields(logrus.Fields{
			"module":   "ReconciliationWorkflow.go",
			"funcName": "publishReconReport",
			"run_id":   run.ID,
		}).Warnf("failed to publish reconciliation report notification: %v", err)
	}
}
