package models

import (
	"testing"

	"github.com/HeshMedia/insurezeal-sub005/cutpay"
	"github.com/HeshMedia/insurezeal-sub005/recon"
	"github.com/shopspring/decimal"
)

func motorTransaction() CutPayTransaction {
	return CutPayTransaction{
		ID: 7,
		Extracted: cutpay.ExtractedPolicyData{
			PolicyNumber:     "pol 12345",
			InsuranceCompany: "HDFC Ergo",
			CustomerName:     "Ravi Kumar",
			GrossPremium:     decimal.RequireFromString("10000"),
			NetPremium:       decimal.RequireFromString("9000"),
		},
		Calculation: cutpay.CalculationResult{
			CutPayAmount: decimal.RequireFromString("8650"),
			AgentPoAmt:   decimal.RequireFromString("1800"),
		},
		RunningBal: decimal.RequireFromString("1800"),
	}
}

func TestCutPayTransaction_CanonicalRecordProjection(t *testing.T) {
	txn := motorTransaction()
	rec := txn.CanonicalRecord()

	// The matching key is normalized the same way file rows are.
	if got := rec.PolicyNumber(); got != "POL12345" {
		t.Fatalf("policy number = %q, want POL12345", got)
	}

	net, ok := rec.Fields["net_premium"]
	if !ok || !net.Present || net.Amount == nil {
		t.Fatalf("net_premium should be present with an amount, got %+v", net)
	}
	if !net.Amount.Equal(decimal.RequireFromString("9000")) {
		t.Fatalf("net_premium = %s, want 9000", net.Amount)
	}
	if fv, ok := rec.Fields["cut_pay_amount"]; !ok || fv.Amount == nil || !fv.Amount.Equal(decimal.RequireFromString("8650")) {
		t.Fatalf("cut_pay_amount not projected: %+v", fv)
	}

	// Blank text fields are dropped, not stored as empty values.
	if _, ok := rec.Fields["broker_name"]; ok {
		t.Fatal("empty broker_name should be absent from the projection")
	}
}

func TestCutPayTransaction_ProjectionSeedsUniversalRecord(t *testing.T) {
	txn := motorTransaction()
	row, err := NewUniversalRecord(txn.Extracted.InsuranceCompany, txn.CanonicalRecord())
	if err != nil {
		t.Fatal(err)
	}
	if row.InsurerName != "HDFC Ergo" {
		t.Fatalf("insurer = %q", row.InsurerName)
	}
	if row.PolicyNumber != "POL12345" {
		t.Fatalf("stored policy number = %q, want normalized POL12345", row.PolicyNumber)
	}

	rec, err := row.Canonical()
	if err != nil {
		t.Fatal(err)
	}
	// A file row for the same policy matches the seed instead of adding a
	// second record, and equal values do not diff.
	source := recon.CanonicalRecord{Fields: map[string]recon.FieldValue{
		"policy_number": {Raw: "POL12345", Present: true},
		"net_premium":   numericField("9,000.00"),
		"customer_name": {Raw: "Ravi Kumar", Present: true},
	}}
	report := recon.Reconcile("HDFC Ergo", []recon.CanonicalRecord{rec}, []recon.CanonicalRecord{source})
	if report.Stats.TotalRecordsAdded != 0 {
		t.Fatalf("file row should match the seeded record, not add: %+v", report.ChangeDetails)
	}
	detail := report.ChangeDetails[0]
	if detail.PolicyNumber != "POL12345" {
		t.Fatalf("matched policy = %q", detail.PolicyNumber)
	}
	for _, field := range []string{"net_premium", "customer_name"} {
		if _, changed := detail.ChangedFields[field]; changed {
			t.Fatalf("%s carries the same value on both sides, should not diff", field)
		}
	}
}

func numericField(s string) recon.FieldValue {
	d, ok := recon.ParseAmount(s)
	if !ok {
		panic("bad test amount: " + s)
	}
	return recon.FieldValue{Raw: d.String(), Amount: &d, Present: true}
}
