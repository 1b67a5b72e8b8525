package recon

import (
	"testing"
)

func hdfcStore() MappingStore {
	return NewMappingStore([]MappingRow{
		{InsurerName: "HDFC Ergo", RawHeader: "Policy No.", CanonicalField: "policy_number"},
		{InsurerName: "HDFC Ergo", RawHeader: "Customer Name", CanonicalField: "customer_name"},
		{InsurerName: "HDFC Ergo", RawHeader: "Net Premium", CanonicalField: "net_premium"},
		{InsurerName: "HDFC Ergo", RawHeader: "Gross Premium", CanonicalField: "gross_premium"},
		{InsurerName: "HDFC Ergo", RawHeader: "Payment Mode", CanonicalField: "payment_mode"},
	})
}

func TestParseAmount_FormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
		ok       bool
	}{
		{"20000", "20000", true},
		{"20,000", "20000", true},
		{"  1,23,456.78 ", "123456.78", true},
		{"₹ 9,000", "9000", true},
		{"Rs. 9000", "9000", true},
		{"INR 9000.50", "9000.5", true},
		{"9000 INR", "9000", true},
		{"-1,200", "-1200", true},
		{"(500)", "-500", true},
		{"12.5%", "12.5", true},
		{"", "", false},
		{"N/A", "", false},
		{"pending", "", false},
		{"12.3.4", "", false},
	}
	for _, tc := range cases {
		d, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseAmount(%q): expected ok=%v, got ok=%v (value %s)", tc.in, tc.ok, ok, d)
			continue
		}
		if ok && d.String() != tc.expected {
			t.Errorf("ParseAmount(%q): expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestNormalizeRows_UnknownInsurer(t *testing.T) {
	_, err := NormalizeRows(hdfcStore(), "Nonexistent Insurance Co", []map[string]string{
		{"Policy No.": "P1"},
	})
	if err != ErrMappingNotFound {
		t.Fatalf("expected ErrMappingNotFound, got %v", err)
	}
}

func TestNormalizeRows_TranslatesHeaders(t *testing.T) {
	records, err := NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{
			"Policy No.":    " hdfc/mot/001 ",
			"Customer Name": "Asha Rao",
			"Net Premium":   "₹ 9,000",
			"Gross Premium": "10,000.00",
		},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	rec := records[0]

	if got := rec.PolicyNumber(); got != "HDFC/MOT/001" {
		t.Errorf("policy number: expected HDFC/MOT/001, got %q", got)
	}
	net := rec.Fields["net_premium"]
	if !net.Present || net.Amount == nil || net.Amount.String() != "9000" {
		t.Errorf("net_premium: expected parsed 9000, got %+v", net)
	}
	name := rec.Fields["customer_name"]
	if !name.Present || name.Raw != "Asha Rao" {
		t.Errorf("customer_name: expected Asha Rao, got %+v", name)
	}
}

func TestNormalizeRows_HeaderMatchingTolerant(t *testing.T) {
	// Case and internal whitespace differences in headers must not matter.
	records, err := NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{"POLICY  no.": "P42", "net premium": "100"},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	if got := records[0].PolicyNumber(); got != "P42" {
		t.Errorf("expected header to match despite casing, got policy %q", got)
	}
	if fv := records[0].Fields["net_premium"]; !fv.Present {
		t.Errorf("net premium header should map despite casing, got %+v", fv)
	}
}

func TestNormalizeRows_AbsentVersusEmpty(t *testing.T) {
	records, err := NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{
			"Policy No.":  "P1",
			"Net Premium": "", // header present, value empty
			// Gross Premium column missing entirely.
		},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	rec := records[0]

	net, mapped := rec.Fields["net_premium"]
	if !mapped {
		t.Fatal("net_premium should exist as an explicitly absent field")
	}
	if net.Present {
		t.Errorf("empty net_premium must be absent, not zero: %+v", net)
	}
	if _, mapped := rec.Fields["gross_premium"]; mapped {
		t.Error("gross_premium column was not in the source; no field expected")
	}
}

func TestNormalizeRows_GarbageNumberDoesNotKillRow(t *testing.T) {
	records, err := NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{"Policy No.": "P1", "Net Premium": "see remarks"},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	net := records[0].Fields["net_premium"]
	if net.Present {
		t.Errorf("garbage amount must be absent, got %+v", net)
	}
	if net.Raw != "see remarks" {
		t.Errorf("raw text should be preserved for reporting, got %q", net.Raw)
	}
}

func TestNormalizeRows_UnmappedHeadersRetained(t *testing.T) {
	records, err := NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{"Policy No.": "P1", "Branch Code": "MUM-04"},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	rec := records[0]
	if rec.Unmapped["Branch Code"] != "MUM-04" {
		t.Errorf("unmapped header should be retained, got %+v", rec.Unmapped)
	}
	if _, ok := rec.Fields["Branch Code"]; ok {
		t.Error("unmapped header must not leak into canonical fields")
	}
}

func TestNormalizeRows_CompositePaymentMode(t *testing.T) {
	records, err := NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{"Policy No.": "P1", "Payment Mode": "NEFT - HDFC0001234 - branch ref"},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	rec := records[0]
	if got := rec.Fields["payment_method"].Raw; got != "NEFT" {
		t.Errorf("payment_method: expected NEFT, got %q", got)
	}
	// Split on the FIRST separator only; the remainder stays intact.
	if got := rec.Fields["payment_detail"].Raw; got != "HDFC0001234 - branch ref" {
		t.Errorf("payment_detail: expected remainder after first separator, got %q", got)
	}

	records, err = NormalizeRows(hdfcStore(), "HDFC Ergo", []map[string]string{
		{"Policy No.": "P2", "Payment Mode": "Cash"},
	})
	if err != nil {
		t.Fatalf("NormalizeRows returned error: %v", err)
	}
	rec = records[0]
	if got := rec.Fields["payment_method"].Raw; got != "Cash" {
		t.Errorf("payment_method without separator: expected Cash, got %q", got)
	}
	if rec.Fields["payment_detail"].Present {
		t.Errorf("payment_detail without separator must be absent, got %+v", rec.Fields["payment_detail"])
	}
}
