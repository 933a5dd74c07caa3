package margin

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// Bank holds the primary ledger's group-wide parameters.
type Bank struct {
	DepositAccumulator fixed.I80F48 `yaml:"deposit_accumulator"` // record → native deposits
	BorrowAccumulator  fixed.I80F48 `yaml:"borrow_accumulator"`  // record → native liabilities
	InitMarginRatio    fixed.I80F48 `yaml:"init_margin_ratio"`   // 初始保證金率
	MaintMarginRatio   fixed.I80F48 `yaml:"maint_margin_ratio"`  // 維持保證金率
}

// DefaultBank has unit accumulators and 115% / 105% margin ratios.
func DefaultBank() Bank {
	return Bank{
		DepositAccumulator: fixed.One,
		BorrowAccumulator:  fixed.One,
		InitMarginRatio:    fixed.MustParse("1.15"),
		MaintMarginRatio:   fixed.MustParse("1.05"),
	}
}

// Validate rejects accumulators and ratios that cannot value a record.
func (b Bank) Validate() error {
	if !b.DepositAccumulator.IsPositive() || !b.BorrowAccumulator.IsPositive() {
		return health.ErrInvalidWeight
	}
	if !b.InitMarginRatio.IsPositive() || !b.MaintMarginRatio.IsPositive() {
		return health.ErrInvalidWeight
	}
	return nil
}
