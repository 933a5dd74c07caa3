package margin

import (
	"fmt"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// EquityType selects how venue accounts count toward total equity.
type EquityType int

const (
	// Total adds each venue's equity.
	Total EquityType = iota
	// InitReqAdjusted adds each venue's free collateral before the zero floor,
	// so an undercollateralized venue reduces the total.
	InitReqAdjusted
)

func (t EquityType) String() string {
	switch t {
	case Total:
		return "total"
	case InitReqAdjusted:
		return "init_req_adjusted"
	default:
		return fmt.Sprintf("equity_type(%d)", int(t))
	}
}

// RequirementType (保證金要求) selects the ledger margin ratio.
type RequirementType int

const (
	Init RequirementType = iota
	Maint
)

func (t RequirementType) String() string {
	switch t {
	case Init:
		return "init"
	case Maint:
		return "maint"
	default:
		return fmt.Sprintf("requirement_type(%d)", int(t))
	}
}

func (t RequirementType) ratio(bank Bank) (fixed.I80F48, error) {
	switch t {
	case Init:
		return bank.InitMarginRatio, nil
	case Maint:
		return bank.MaintMarginRatio, nil
	default:
		return fixed.Zero, fmt.Errorf("%w: %s", health.ErrUnknownFractionKind, t)
	}
}

// MarginRequirement is the account's ledger liabilities scaled by the
// ratio of t.
func MarginRequirement(bank Bank, account *LedgerAccount, t RequirementType) (fixed.I80F48, error) {
	ratio, err := t.ratio(bank)
	if err != nil {
		return fixed.Zero, err
	}
	liabilities, err := account.Liabilities(bank)
	if err != nil {
		return fixed.Zero, err
	}
	return liabilities.Mul(ratio)
}
