package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/HeshMedia/insurezeal-sub005/recon"
	"gorm.io/gorm"
)

// UniversalRecord is the stored canonical system record a reconciliation run
// compares insurer files against. The canonical fields live in a JSON
// payload because the field set varies per insurer; the matching key is
// lifted into its own indexed column.
type UniversalRecord struct {
	ID           int       `gorm:"primary_key" json:"id"`
	InsurerName  string    `gorm:"size:200;not null;index:idx_universal_insurer_policy" json:"insurer_name"`
	PolicyNumber string    `gorm:"size:100;not null;index:idx_universal_insurer_policy" json:"policy_number"`
	Payload      []byte    `gorm:"type:json" json:"payload"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewUniversalRecord builds a storable row from a canonical record.
func NewUniversalRecord(insurerName string, rec recon.CanonicalRecord) (*UniversalRecord, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return &UniversalRecord{
		InsurerName:  insurerName,
		PolicyNumber: rec.PolicyNumber(),
		Payload:      payload,
	}, nil
}

// Canonical unpacks the stored payload.
func (r *UniversalRecord) Canonical() (recon.CanonicalRecord, error) {
	var rec recon.CanonicalRecord
	if err := json.Unmarshal(r.Payload, &rec); err != nil {
		return recon.CanonicalRecord{}, err
	}
	return rec, nil
}

// ReplacePayload overwrites the stored canonical fields after an update
// action. The payload is replaced whole, mirroring how calculation results
// are replaced rather than patched.
func (r *UniversalRecord) ReplacePayload(rec recon.CanonicalRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	r.Payload = payload
	r.PolicyNumber = rec.PolicyNumber()
	return nil
}

// UpsertUniversalRecord seeds or refreshes the stored record for one policy.
// Cutpay transactions flow into the snapshot through here, so reconciliation
// compares against them the same way it compares against file-added rows.
func UpsertUniversalRecord(tx *gorm.DB, insurerName string, rec recon.CanonicalRecord) (*UniversalRecord, error) {
	policy := rec.PolicyNumber()
	if policy == "" {
		return nil, nil
	}
	var existing UniversalRecord
	err := tx.Where("insurer_name = ? AND policy_number = ?", insurerName, policy).
		Order("id").
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row, err := NewUniversalRecord(insurerName, rec)
		if err != nil {
			return nil, err
		}
		if err := tx.Create(row).Error; err != nil {
			return nil, err
		}
		return row, nil
	}
	if err != nil {
		return nil, err
	}
	if err := existing.ReplacePayload(rec); err != nil {
		return nil, err
	}
	if err := tx.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// LoadUniversalSnapshot reads every system record for one insurer in primary
// key order. The returned slice is the consistent snapshot one reconciliation
// run works on; rows written after this load are not seen by the run.
func LoadUniversalSnapshot(ctx context.Context, db *gorm.DB, insurerName string) ([]UniversalRecord, []recon.CanonicalRecord, error) {
	var rows []UniversalRecord
	if err := db.WithContext(ctx).
		Where("insurer_name = ?", insurerName).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	records := make([]recon.CanonicalRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].Canonical()
		if err != nil {
			// A corrupt payload is unmatchable; skip it rather than fail
			// the run, the row keeps its stored form.
			continue
		}
		records = append(records, rec)
	}
	return rows, records, nil
}
