package workflow

import (
	"testing"

	"github.com/HeshMedia/insurezeal-sub005/cutpay"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the input
// gate in front of the calculator; persistence paths need MySQL and are
// exercised in an environment that can run it.

func pctPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestValidateCutPayInput(t *testing.T) {
	valid := CutPayInput{
		AdminInput: cutpay.AdminInputConfig{
			PaymentBy:                   cutpay.PaymentByInsureZeal,
			PayoutOn:                    cutpay.PayoutOnNP,
			IncomingGridPercent:         pctPtr("15"),
			AgentCommissionGivenPercent: pctPtr("20"),
		},
	}
	if err := validateCutPayInput(valid); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	badPayment := valid
	badPayment.AdminInput.PaymentBy = "Broker"
	if err := validateCutPayInput(badPayment); err != ErrInvalidPaymentBy {
		t.Fatalf("expected ErrInvalidPaymentBy, got %v", err)
	}

	badPayout := valid
	badPayout.AdminInput.PayoutOn = "TP"
	if err := validateCutPayInput(badPayout); err != ErrInvalidPayoutOn {
		t.Fatalf("expected ErrInvalidPayoutOn, got %v", err)
	}

	empty := CutPayInput{}
	if err := validateCutPayInput(empty); err == nil {
		t.Fatal("expected empty input to be rejected")
	}
}
