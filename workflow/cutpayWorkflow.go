package workflow

import (
	"errors"

	"github.com/HeshMedia/insurezeal-sub005/config"
	"github.com/HeshMedia/insurezeal-sub005/cutpay"
	"github.com/HeshMedia/insurezeal-sub005/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidPaymentBy = errors.New("payment_by must be Agent or InsureZeal")
	ErrInvalidPayoutOn  = errors.New("payout_on must be OD, NP or OD+TP")
)

// CutPayInput is the payload for creating or editing one cutpay transaction.
// The calculation fields are never part of the input; they are always derived.
type CutPayInput struct {
	Extracted  cutpay.ExtractedPolicyData `json:"extracted"`
	AdminInput cutpay.AdminInputConfig    `json:"admin_input" binding:"required"`
	ClaimedBy  string                     `json:"claimed_by"`
	RunningBal *decimal.Decimal           `json:"running_bal"`
	Notes      string                     `json:"notes"`
}

func validateCutPayInput(input CutPayInput) error {
	if !input.AdminInput.PaymentBy.IsValid() {
		return ErrInvalidPaymentBy
	}
	if !input.AdminInput.PayoutOn.IsValid() {
		return ErrInvalidPayoutOn
	}
	return nil
}

// ProcessCutPayCreateWorkflow computes the full payout breakdown for a new
// transaction and persists it in one row. Extraction output and admin config
// are stored alongside the derived amounts so the numbers can always be
// re-derived and audited.
func ProcessCutPayCreateWorkflow(tx *gorm.DB, logger *logrus.Logger, input CutPayInput) (*models.CutPayTransaction, error) {
	if err := validateCutPayInput(input); err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayCreateWorkflow", "ValidateInput", input.AdminInput, err)
		return nil, err
	}

	calc, err := cutpay.Calculate(input.Extracted, input.AdminInput)
	if err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayCreateWorkflow", "Calculate", input.Extracted.PolicyNumber, err)
		return nil, err
	}

	txn := models.CutPayTransaction{
		Extracted:   input.Extracted,
		AdminInput:  input.AdminInput,
		Calculation: calc,
		ClaimedBy:   input.ClaimedBy,
		Notes:       input.Notes,
	}
	if input.RunningBal != nil {
		txn.RunningBal = input.RunningBal.Round(2)
	}

	if err := tx.Create(&txn).Error; err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayCreateWorkflow", "CreateCutPayTransaction", input.Extracted.PolicyNumber, err)
		return nil, err
	}
	if err := seedUniversalRecord(tx, logger, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// seedUniversalRecord projects the transaction onto the canonical field set
// and upserts the insurer's universal record, so later reconciliation runs
// compare uploaded files against what was persisted here.
func seedUniversalRecord(tx *gorm.DB, logger *logrus.Logger, txn *models.CutPayTransaction) error {
	insurer := txn.Extracted.InsuranceCompany
	if insurer == "" {
		return nil
	}
	if _, err := models.UpsertUniversalRecord(tx, insurer, txn.CanonicalRecord()); err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "seedUniversalRecord", "UpsertUniversalRecord", txn.Extracted.PolicyNumber, err)
		return err
	}
	return nil
}

// ProcessCutPayEditWorkflow reapplies the calculation for an existing
// transaction. Every derived column is recomputed and replaced as a set;
// there is no partial update of calculation results.
func ProcessCutPayEditWorkflow(tx *gorm.DB, logger *logrus.Logger, id int, input CutPayInput) (*models.CutPayTransaction, error) {
	if err := validateCutPayInput(input); err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayEditWorkflow", "ValidateInput", input.AdminInput, err)
		return nil, err
	}

	var txn models.CutPayTransaction
	if err := tx.First(&txn, id).Error; err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayEditWorkflow", "GetCutPayTransaction", id, err)
		return nil, err
	}

	calc, err := cutpay.Calculate(input.Extracted, input.AdminInput)
	if err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayEditWorkflow", "Calculate", input.Extracted.PolicyNumber, err)
		return nil, err
	}

	txn.Extracted = input.Extracted
	txn.AdminInput = input.AdminInput
	txn.Calculation = calc
	txn.ClaimedBy = input.ClaimedBy
	txn.Notes = input.Notes
	if input.RunningBal != nil {
		txn.RunningBal = input.RunningBal.Round(2)
	}

	if err := tx.Save(&txn).Error; err != nil {
		config.LogError(logger, "CutPayWorkflow.go", "ProcessCutPayEditWorkflow", "SaveCutPayTransaction", id, err)
		return nil, err
	}
	if err := seedUniversalRecord(tx, logger, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}
