package cutpay

import "github.com/shopspring/decimal"

var (
	decimalZero       = decimal.NewFromInt(0)
	decimalOneHundred = decimal.NewFromInt(100)

	// GST on broker receivables is a fixed statutory 18%, not configuration.
	gstMultiplier = decimal.NewFromFloat(1.18)
)

// Calculate computes the full payout breakdown for one transaction.
//
// It is a pure function: no I/O, no shared state, safe to call concurrently.
// The same inputs always produce the same result, and recomputation after an
// admin edit replaces the stored result wholesale.
//
// Unknown PaymentBy/PayoutOn values fall through to zero amounts instead of
// erroring; stored computations from the legacy system depend on that.
func Calculate(extracted ExtractedPolicyData, cfg AdminInputConfig) (CalculationResult, error) {
	if cfg.IncomingGridPercent == nil || cfg.AgentCommissionGivenPercent == nil {
		return CalculationResult{}, ErrIncompleteInput
	}

	incomingGrid := *cfg.IncomingGridPercent
	agentCommission := *cfg.AgentCommissionGivenPercent

	cutPayAmount := cutPayAmount(extracted, cfg.PaymentBy, agentCommission)
	agentPoAmt := agentPayoutAmount(extracted, cfg, incomingGrid, agentCommission)
	agentExtraAmount := percentOf(agentPoAmt, deref(cfg.AgentExtraPercent))
	totalAgentPoAmt := agentPoAmt.Add(agentExtraAmount)

	receivableFromBroker := percentOf(extracted.NetPremium, incomingGrid)
	extraReceivable := percentOf(extracted.NetPremium, deref(cfg.ExtraGridPercent))
	totalReceivable := receivableFromBroker.Add(extraReceivable)
	totalReceivableWithGst := totalReceivable.Mul(gstMultiplier)

	// Intermediate values keep full precision; only stored fields are rounded.
	return CalculationResult{
		CutPayAmount:                     cutPayAmount.Round(2),
		AgentPoAmt:                       agentPoAmt.Round(2),
		AgentExtraAmount:                 agentExtraAmount.Round(2),
		TotalAgentPoAmt:                  totalAgentPoAmt.Round(2),
		ReceivableFromBroker:             receivableFromBroker.Round(2),
		ExtraAmountReceivableFromBroker:  extraReceivable.Round(2),
		TotalReceivableFromBroker:        totalReceivable.Round(2),
		TotalReceivableFromBrokerWithGst: totalReceivableWithGst.Round(2),
	}, nil
}

// cutPayAmount is what the office advances on behalf of the agent.
// When the agent pays the customer directly there is nothing to advance.
func cutPayAmount(extracted ExtractedPolicyData, paymentBy PaymentBy, agentCommission decimal.Decimal) decimal.Decimal {
	switch paymentBy {
	case PaymentByAgent:
		return decimalZero
	case PaymentByInsureZeal:
		return extracted.GrossPremium.Sub(percentOf(extracted.NetPremium, agentCommission))
	default:
		return decimalZero
	}
}

// agentPayoutAmount selects the premium base from PayoutOn and the rate from
// PaymentBy: the agent's own commission rate when the agent fronted the
// premium, the incoming grid rate otherwise. For OD+TP the OD and TP legs are
// computed independently (each with its own optional override) and summed.
func agentPayoutAmount(extracted ExtractedPolicyData, cfg AdminInputConfig, incomingGrid, agentCommission decimal.Decimal) decimal.Decimal {
	baseRate := incomingGrid
	if cfg.PaymentBy == PaymentByAgent {
		baseRate = agentCommission
	}

	switch cfg.PayoutOn {
	case PayoutOnOD:
		return percentOf(extracted.OdPremium, baseRate)
	case PayoutOnNP:
		return percentOf(extracted.NetPremium, baseRate)
	case PayoutOnODTP:
		odRate := baseRate
		if cfg.OdPayoutPercent != nil {
			odRate = *cfg.OdPayoutPercent
		}
		tpRate := baseRate
		if cfg.TpPayoutPercent != nil {
			tpRate = *cfg.TpPayoutPercent
		}
		return percentOf(extracted.OdPremium, odRate).Add(percentOf(extracted.TpPremium, tpRate))
	default:
		return decimalZero
	}
}

func percentOf(base, ratePercent decimal.Decimal) decimal.Decimal {
	return base.Mul(ratePercent).Div(decimalOneHundred)
}

func deref(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimalZero
	}
	return *p
}
