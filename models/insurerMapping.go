package models

import (
	"context"
	"time"

	"github.com/HeshMedia/insurezeal-sub005/recon"
	"gorm.io/gorm"
)

// InsurerMapping is one admin-configured header translation: which column in
// an insurer's bulk file feeds which canonical field. Maintained through the
// admin screens, consumed read-only by reconciliation.
type InsurerMapping struct {
	ID             int       `gorm:"primary_key" json:"id"`
	InsurerName    string    `gorm:"size:200;not null;uniqueIndex:idx_insurer_header" json:"insurer_name" binding:"required"`
	RawHeader      string    `gorm:"size:200;not null;uniqueIndex:idx_insurer_header" json:"raw_header" binding:"required"`
	CanonicalField string    `gorm:"size:100;not null" json:"canonical_field" binding:"required"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoadMappingStore reads every mapping row and builds the immutable lookup
// the normalizer works from. Call it once per reconciliation run; the store
// is a value and never sees later DB writes.
func LoadMappingStore(ctx context.Context, db *gorm.DB) (recon.MappingStore, error) {
	var mappings []InsurerMapping
	if err := db.WithContext(ctx).Find(&mappings).Error; err != nil {
		return recon.MappingStore{}, err
	}
	rows := make([]recon.MappingRow, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, recon.MappingRow{
			InsurerName:    m.InsurerName,
			RawHeader:      m.RawHeader,
			CanonicalField: m.CanonicalField,
		})
	}
	return recon.NewMappingStore(rows), nil
}

// ListInsurerMappings returns the mapping rows for one insurer.
func ListInsurerMappings(ctx context.Context, db *gorm.DB, insurerName string) ([]InsurerMapping, error) {
	var mappings []InsurerMapping
	err := db.WithContext(ctx).
		Where("insurer_name = ?", insurerName).
		Order("raw_header").
		Find(&mappings).Error
	return mappings, err
}

// ReplaceInsurerMappings swaps the full mapping table for one insurer.
// Header mappings are edited as a sheet in the admin UI, so partial updates
// are not supported; the new set replaces the old atomically.
func ReplaceInsurerMappings(ctx context.Context, db *gorm.DB, insurerName string, mappings []InsurerMapping) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("insurer_name = ?", insurerName).Delete(&InsurerMapping{}).Error; err != nil {
			return err
		}
		for i := range mappings {
			mappings[i].ID = 0
			mappings[i].InsurerName = insurerName
		}
		if len(mappings) == 0 {
			return nil
		}
		return tx.Create(&mappings).Error
	})
}
