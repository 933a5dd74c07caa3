package margin

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
	"frizo/collateral_engine/internal/venue"
)

// LedgerAccount (保證金帳戶) is one account on the primary ledger together
// with a snapshot of every venue it currently mirrors collateral into.
type LedgerAccount struct {
	DepositRecord fixed.I80F48     `yaml:"deposit_record"`
	BorrowRecord  fixed.I80F48     `yaml:"borrow_record"`
	ActiveVenues  []venue.Snapshot `yaml:"active_venues"`
}

// Deposits is the account's ledger balance in native units.
func (a *LedgerAccount) Deposits(bank Bank) (fixed.I80F48, error) {
	return a.DepositRecord.Mul(bank.DepositAccumulator)
}

// Liabilities is the account's ledger debt in native units.
func (a *LedgerAccount) Liabilities(bank Bank) (fixed.I80F48, error) {
	return a.BorrowRecord.Mul(bank.BorrowAccumulator)
}

// orderedVenues returns the active venues sorted by slot index. Each index
// must be in range and appear at most once.
func (a *LedgerAccount) orderedVenues() ([]venue.Snapshot, error) {
	var slots [venue.MaxVenues]*venue.Snapshot
	for i := range a.ActiveVenues {
		s := &a.ActiveVenues[i]
		if s.Index < 0 || s.Index >= venue.MaxVenues {
			return nil, health.Inconsistent("venue index %d out of range", s.Index)
		}
		if slots[s.Index] != nil {
			return nil, health.Inconsistent("venue index %d appears twice", s.Index)
		}
		slots[s.Index] = s
	}

	ordered := make([]venue.Snapshot, 0, len(a.ActiveVenues))
	for _, s := range slots {
		if s != nil {
			ordered = append(ordered, *s)
		}
	}
	return ordered, nil
}
