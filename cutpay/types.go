package cutpay

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentBy identifies who fronts the premium to the insurer.
type PaymentBy string

const (
	PaymentByAgent      PaymentBy = "Agent"
	PaymentByInsureZeal PaymentBy = "InsureZeal"
)

func (t PaymentBy) IsValid() bool {
	return t == PaymentByAgent || t == PaymentByInsureZeal
}

func (t PaymentBy) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *PaymentBy) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = PaymentBy(v)
	case []byte:
		*t = PaymentBy(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentBy", value)
	}
	return nil
}

// PayoutOn is the premium basis the agent payout is computed against.
type PayoutOn string

const (
	PayoutOnOD   PayoutOn = "OD"
	PayoutOnNP   PayoutOn = "NP"
	PayoutOnODTP PayoutOn = "OD+TP"
)

func (t PayoutOn) IsValid() bool {
	return t == PayoutOnOD || t == PayoutOnNP || t == PayoutOnODTP
}

func (t PayoutOn) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *PayoutOn) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = PayoutOn(v)
	case []byte:
		*t = PayoutOn(v)
	default:
		return fmt.Errorf("cannot scan %T into PayoutOn", value)
	}
	return nil
}

// ErrIncompleteInput is returned when the two mandatory grid percentages are
// not both present. Optional fields never cause this; they default to zero.
var ErrIncompleteInput = errors.New("incoming grid percent and agent commission percent are required")

// ExtractedPolicyData is the read-only output of the document extraction
// service for one policy PDF. The calculator never mutates it.
type ExtractedPolicyData struct {
	PolicyNumber          string `gorm:"size:100;index" json:"policy_number"`
	FormattedPolicyNumber string `gorm:"size:100" json:"formatted_policy_number"`
	InsuranceCompany      string `gorm:"size:200" json:"insurance_company"`
	BrokerName            string `gorm:"size:200" json:"broker_name"`
	MajorCategorisation   string `gorm:"size:100" json:"major_categorisation"`
	ProductType           string `gorm:"size:100" json:"product_type"`
	PlanType              string `gorm:"size:100" json:"plan_type"`
	CustomerName          string `gorm:"size:200" json:"customer_name"`
	CustomerPhone         string `gorm:"size:30" json:"customer_phone"`
	RegistrationNumber    string `gorm:"size:30" json:"registration_number"`
	MakeModel             string `gorm:"size:200" json:"make_model"`
	FuelType              string `gorm:"size:30" json:"fuel_type"`
	RTO                   string `gorm:"size:30" json:"rto"`

	GrossPremium decimal.Decimal `gorm:"type:decimal(20,2)" json:"gross_premium"`
	NetPremium   decimal.Decimal `gorm:"type:decimal(20,2)" json:"net_premium"`
	OdPremium    decimal.Decimal `gorm:"type:decimal(20,2)" json:"od_premium"`
	TpPremium    decimal.Decimal `gorm:"type:decimal(20,2)" json:"tp_premium"`
	GstAmount    decimal.Decimal `gorm:"type:decimal(20,2)" json:"gst_amount"`
}

// AdminInputConfig is the operator-entered payout routing for one transaction.
// Percentages are whole-number percent values (12.5 means 12.5%, not 0.125).
// Nil optional percentages mean "not entered" and compute as zero. The OD/TP
// overrides only participate when PayoutOn is OD+TP.
type AdminInputConfig struct {
	PaymentBy PaymentBy `gorm:"size:30" json:"payment_by" binding:"required"`
	PayoutOn  PayoutOn  `gorm:"size:10" json:"payout_on" binding:"required"`

	IncomingGridPercent         *decimal.Decimal `gorm:"type:decimal(10,4)" json:"incoming_grid_percent" binding:"required"`
	AgentCommissionGivenPercent *decimal.Decimal `gorm:"type:decimal(10,4)" json:"agent_commission_given_percent" binding:"required"`
	ExtraGridPercent            *decimal.Decimal `gorm:"type:decimal(10,4)" json:"extra_grid_percent"`
	AgentExtraPercent           *decimal.Decimal `gorm:"type:decimal(10,4)" json:"agent_extra_percent"`

	OdIncomingGridPercent *decimal.Decimal `gorm:"type:decimal(10,4)" json:"od_incoming_grid_percent"`
	TpIncomingGridPercent *decimal.Decimal `gorm:"type:decimal(10,4)" json:"tp_incoming_grid_percent"`
	OdPayoutPercent       *decimal.Decimal `gorm:"type:decimal(10,4)" json:"od_payout_percent"`
	TpPayoutPercent       *decimal.Decimal `gorm:"type:decimal(10,4)" json:"tp_payout_percent"`
}

// CalculationResult is derived in full from one (extracted, config) pair.
// It is persisted all-or-nothing; an edit recomputes and replaces every field.
type CalculationResult struct {
	CutPayAmount                     decimal.Decimal `gorm:"type:decimal(20,2)" json:"cut_pay_amount"`
	AgentPoAmt                       decimal.Decimal `gorm:"type:decimal(20,2)" json:"agent_po_amt"`
	AgentExtraAmount                 decimal.Decimal `gorm:"type:decimal(20,2)" json:"agent_extra_amount"`
	TotalAgentPoAmt                  decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_agent_po_amt"`
	ReceivableFromBroker             decimal.Decimal `gorm:"type:decimal(20,2)" json:"receivable_from_broker"`
	ExtraAmountReceivableFromBroker  decimal.Decimal `gorm:"type:decimal(20,2)" json:"extra_amount_receivable_from_broker"`
	TotalReceivableFromBroker        decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_receivable_from_broker"`
	TotalReceivableFromBrokerWithGst decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_receivable_from_broker_with_gst"`
}
