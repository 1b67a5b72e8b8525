package recon

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numericFields are the canonical fields parsed as money/decimal amounts.
// Everything else stays textual.
var numericFields = map[string]bool{
	"gross_premium":                         true,
	"net_premium":                           true,
	"od_premium":                            true,
	"tp_premium":                            true,
	"gst_amount":                            true,
	"cut_pay_amount":                        true,
	"agent_po_amt":                          true,
	"agent_extra_amount":                    true,
	"total_agent_po_amt":                    true,
	"receivable_from_broker":                true,
	"extra_amount_receivable_from_broker":   true,
	"total_receivable_from_broker":          true,
	"total_receivable_from_broker_with_gst": true,
	"running_bal":                           true,
	"commission_grid_percent":               true,
	"agent_commission_percent":              true,
}

// compositeFields map a single source column onto two canonical fields,
// split on the first " - " separator. Insurers commonly encode
// "NEFT - HDFC0001234" style values in one "Payment Mode" column.
var compositeFields = map[string][2]string{
	"payment_mode": {"payment_method", "payment_detail"},
}

const compositeSeparator = " - "

// NormalizeRows translates a batch of raw insurer rows into canonical
// records using the mapping configured for insurerName. A missing mapping
// fails the whole batch; a bad value inside a row never does.
func NormalizeRows(store MappingStore, insurerName string, rawRows []map[string]string) ([]CanonicalRecord, error) {
	headerMap, err := store.HeaderMap(insurerName)
	if err != nil {
		return nil, err
	}
	records := make([]CanonicalRecord, 0, len(rawRows))
	for _, raw := range rawRows {
		records = append(records, normalizeRow(headerMap, raw))
	}
	return records, nil
}

func normalizeRow(headerMap map[string]string, raw map[string]string) CanonicalRecord {
	record := CanonicalRecord{Fields: make(map[string]FieldValue)}
	for rawHeader, rawValue := range raw {
		canonical, ok := headerMap[normalizeHeader(rawHeader)]
		if !ok {
			if record.Unmapped == nil {
				record.Unmapped = make(map[string]string)
			}
			record.Unmapped[rawHeader] = rawValue
			continue
		}
		if parts, isComposite := compositeFields[canonical]; isComposite {
			method, detail := splitComposite(rawValue)
			record.Fields[parts[0]] = textValue(method)
			record.Fields[parts[1]] = textValue(detail)
			continue
		}
		record.Fields[canonical] = canonicalValue(canonical, rawValue)
	}
	return record
}

func canonicalValue(canonicalField, rawValue string) FieldValue {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		// Mapped header with no value: explicitly absent, not zero.
		return FieldValue{Present: false}
	}
	if numericFields[canonicalField] {
		amount, ok := ParseAmount(trimmed)
		if !ok {
			// Unparseable number is treated as absent rather than
			// poisoning the row; the raw text is kept for the report.
			return FieldValue{Raw: trimmed, Present: false}
		}
		return FieldValue{Raw: amount.String(), Amount: &amount, Present: true}
	}
	return FieldValue{Raw: trimmed, Present: true}
}

func textValue(s string) FieldValue {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return FieldValue{Present: false}
	}
	return FieldValue{Raw: trimmed, Present: true}
}

func splitComposite(rawValue string) (string, string) {
	if idx := strings.Index(rawValue, compositeSeparator); idx >= 0 {
		return rawValue[:idx], rawValue[idx+len(compositeSeparator):]
	}
	return rawValue, ""
}

// currencyPrefixRe matches currency markers glued to the front of a value:
// "₹", "Rs.", "INR ", "$ ". currencySuffixRe catches trailing codes ("9000 INR").
var (
	currencyPrefixRe = regexp.MustCompile(`^[₹$€£]?\s*[A-Za-z]*\.?\s+|^[₹$€£]\s*`)
	currencySuffixRe = regexp.MustCompile(`\s+[A-Za-z]+\.?$`)
)

// ParseAmount parses a numeric-looking cell into a decimal amount. It strips
// currency glyphs, currency codes, thousands separators and surrounding
// whitespace ("₹ 1,23,456.78", "Rs. 9000", "(500)" for negatives). Anything
// that still fails to parse reports ok=false; it never returns an error.
func ParseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	// Accountant-style negatives: (1,234.56).
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	cleaned = currencyPrefixRe.ReplaceAllString(cleaned, "")
	cleaned = currencySuffixRe.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimSuffix(cleaned, "%")

	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = cleaned[1:]
	}
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Decimal{}, false
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
