package models

import (
	"context"
	"time"

	"github.com/HeshMedia/insurezeal-sub005/cutpay"
	"github.com/HeshMedia/insurezeal-sub005/recon"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CutPayTransaction is the persisted aggregate for one policy: the extracted
// document data, the admin-entered payout routing and the derived
// calculation. The calculation columns are only ever written as a complete
// set; an edit recomputes everything and replaces them in one update.
type CutPayTransaction struct {
	ID int `gorm:"primary_key" json:"id"`

	Extracted   cutpay.ExtractedPolicyData `gorm:"embedded" json:"extracted"`
	AdminInput  cutpay.AdminInputConfig    `gorm:"embedded" json:"admin_input"`
	Calculation cutpay.CalculationResult   `gorm:"embedded" json:"calculation"`

	ClaimedBy  string          `gorm:"size:100" json:"claimed_by"`
	RunningBal decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"running_bal"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CanonicalRecord projects the transaction onto the canonical field set the
// reconciliation engine compares against. This is how cutpay transactions
// are seeded into the universal record snapshot.
func (t *CutPayTransaction) CanonicalRecord() recon.CanonicalRecord {
	fields := map[string]recon.FieldValue{
		"policy_number":       textField(t.Extracted.PolicyNumber),
		"customer_name":       textField(t.Extracted.CustomerName),
		"insurer_name":        textField(t.Extracted.InsuranceCompany),
		"broker_name":         textField(t.Extracted.BrokerName),
		"product_type":        textField(t.Extracted.ProductType),
		"plan_type":           textField(t.Extracted.PlanType),
		"make_model":          textField(t.Extracted.MakeModel),
		"registration_number": textField(t.Extracted.RegistrationNumber),

		"gross_premium": amountField(t.Extracted.GrossPremium),
		"net_premium":   amountField(t.Extracted.NetPremium),
		"od_premium":    amountField(t.Extracted.OdPremium),
		"tp_premium":    amountField(t.Extracted.TpPremium),
		"gst_amount":    amountField(t.Extracted.GstAmount),

		"cut_pay_amount":               amountField(t.Calculation.CutPayAmount),
		"agent_po_amt":                 amountField(t.Calculation.AgentPoAmt),
		"total_agent_po_amt":           amountField(t.Calculation.TotalAgentPoAmt),
		"receivable_from_broker":       amountField(t.Calculation.ReceivableFromBroker),
		"total_receivable_from_broker": amountField(t.Calculation.TotalReceivableFromBroker),
		"running_bal":                  amountField(t.RunningBal),
	}
	for field, fv := range fields {
		if !fv.Present {
			delete(fields, field)
		}
	}
	return recon.CanonicalRecord{Fields: fields}
}

func textField(s string) recon.FieldValue {
	if s == "" {
		return recon.FieldValue{Present: false}
	}
	return recon.FieldValue{Raw: s, Present: true}
}

func amountField(d decimal.Decimal) recon.FieldValue {
	amount := d
	return recon.FieldValue{Raw: amount.String(), Amount: &amount, Present: true}
}

// GetCutPayTransaction loads one aggregate by id.
func GetCutPayTransaction(ctx context.Context, db *gorm.DB, id int) (*CutPayTransaction, error) {
	var txn CutPayTransaction
	if err := db.WithContext(ctx).First(&txn, id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListCutPayTransactions returns a page of aggregates, newest first.
func ListCutPayTransactions(ctx context.Context, db *gorm.DB, limit, offset int) ([]CutPayTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txns []CutPayTransaction
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	return txns, err
}
