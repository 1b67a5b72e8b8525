package recon

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMappingNotFound means no header mapping exists for the named insurer.
// Without a mapping no column can be trusted, so the whole batch is rejected.
var ErrMappingNotFound = errors.New("insurer field mapping not found")

// PolicyNumberField is the canonical key every record is matched on.
const PolicyNumberField = "policy_number"

// FieldValue is one canonical field of a record. Present distinguishes
// "column existed but was empty/unparseable" from a real value; a field that
// never appeared in the source has no FieldValue at all.
type FieldValue struct {
	Raw     string           `json:"raw"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Present bool             `json:"present"`
}

// CanonicalRecord is a row translated into canonical field names, either a
// normalized insurer row or a stored system record loaded for comparison.
type CanonicalRecord struct {
	Fields map[string]FieldValue `json:"fields"`
	// Unmapped keeps raw headers that had no mapping entry. They are carried
	// through for reporting and never take part in the comparison.
	Unmapped map[string]string `json:"unmapped,omitempty"`
}

// PolicyNumber returns the normalized matching key, empty when absent.
func (r CanonicalRecord) PolicyNumber() string {
	fv, ok := r.Fields[PolicyNumberField]
	if !ok || !fv.Present {
		return ""
	}
	return NormalizePolicyNumber(fv.Raw)
}

// NormalizePolicyNumber makes policy numbers comparable across sources:
// insurer files routinely vary case and pad with whitespace.
func NormalizePolicyNumber(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// MappingStore is an immutable lookup of insurer -> raw header -> canonical
// field. It is built once from configuration rows and passed by value into
// normalization; nothing mutates it after construction.
type MappingStore struct {
	byInsurer map[string]map[string]string
}

// MappingRow is one admin-configured header translation.
type MappingRow struct {
	InsurerName    string
	RawHeader      string
	CanonicalField string
}

func NewMappingStore(rows []MappingRow) MappingStore {
	byInsurer := make(map[string]map[string]string)
	for _, row := range rows {
		insurer := strings.TrimSpace(row.InsurerName)
		header := normalizeHeader(row.RawHeader)
		field := strings.TrimSpace(row.CanonicalField)
		if insurer == "" || header == "" || field == "" {
			continue
		}
		m, ok := byInsurer[insurer]
		if !ok {
			m = make(map[string]string)
			byInsurer[insurer] = m
		}
		m[header] = field
	}
	return MappingStore{byInsurer: byInsurer}
}

// HeaderMap returns the header translation table for one insurer.
func (s MappingStore) HeaderMap(insurerName string) (map[string]string, error) {
	m, ok := s.byInsurer[strings.TrimSpace(insurerName)]
	if !ok || len(m) == 0 {
		return nil, ErrMappingNotFound
	}
	return m, nil
}

// Insurers lists the insurer names a mapping exists for.
func (s MappingStore) Insurers() []string {
	names := make([]string, 0, len(s.byInsurer))
	for name := range s.byInsurer {
		names = append(names, name)
	}
	return names
}

// Header matching tolerates the usual spreadsheet noise: case differences
// and stray whitespace inside or around the header cell.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
