// Package margin aggregates a primary ledger account and its venue accounts
// into one health summary.
package margin

import (
	"fmt"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
	"frizo/collateral_engine/internal/venue"
)

const ledgerName = "ledger"

// VenueHealth is the observation of one active venue slot.
type VenueHealth struct {
	Index       int                `json:"index" yaml:"index"`
	Kind        venue.Kind         `json:"kind" yaml:"kind"`
	Observation health.Observation `json:"observation" yaml:"observation"`
}

// Health is the account-level summary built from one set of snapshots.
type Health struct {
	Deposits    fixed.I80F48 `json:"deposits" yaml:"deposits"`
	Liabilities fixed.I80F48 `json:"liabilities" yaml:"liabilities"`

	Equity             fixed.I80F48 `json:"equity" yaml:"equity"`                             // Total
	InitAdjustedEquity fixed.I80F48 `json:"init_adjusted_equity" yaml:"init_adjusted_equity"` // InitReqAdjusted

	InitRequirement  fixed.I80F48 `json:"init_requirement" yaml:"init_requirement"`
	MaintRequirement fixed.I80F48 `json:"maint_requirement" yaml:"maint_requirement"`

	// 保證金率
	MarginRatio fixed.I80F48 `json:"margin_ratio" yaml:"margin_ratio"`
	InitHealth  fixed.I80F48 `json:"init_health" yaml:"init_health"`
	MaintHealth fixed.I80F48 `json:"maint_health" yaml:"maint_health"`

	Venues []VenueHealth `json:"venues" yaml:"venues"`
}

// ActiveVenueCount counts venues that are not empty.
func (h *Health) ActiveVenueCount() int {
	n := 0
	for _, v := range h.Venues {
		if !v.Observation.IsEmpty {
			n++
		}
	}
	return n
}

// =====================================================
// Aggregate
// =====================================================

// Aggregate observes every active venue of account in slot order and
// combines the results with the ledger balance. Any failure anywhere fails
// the whole aggregation.
func Aggregate(bank Bank, account *LedgerAccount, params venue.Params) (Health, error) {
	if account == nil {
		return Health{}, health.Inconsistent("nil ledger account")
	}
	if err := bank.Validate(); err != nil {
		return Health{}, health.Wrap(ledgerName, "bank", err)
	}

	venues, err := observeVenues(account, params)
	if err != nil {
		return Health{}, err
	}

	var h Health
	h.Venues = venues
	if h.Deposits, err = account.Deposits(bank); err != nil {
		return Health{}, health.Wrap(ledgerName, "deposits", err)
	}
	if h.Liabilities, err = account.Liabilities(bank); err != nil {
		return Health{}, health.Wrap(ledgerName, "liabilities", err)
	}
	if h.Equity, err = sumEquity(h.Deposits, venues, Total); err != nil {
		return Health{}, health.Wrap(ledgerName, "equity", err)
	}
	if h.InitAdjustedEquity, err = sumEquity(h.Deposits, venues, InitReqAdjusted); err != nil {
		return Health{}, health.Wrap(ledgerName, "init_adjusted_equity", err)
	}
	if h.InitRequirement, err = MarginRequirement(bank, account, Init); err != nil {
		return Health{}, health.Wrap(ledgerName, "init_requirement", err)
	}
	if h.MaintRequirement, err = MarginRequirement(bank, account, Maint); err != nil {
		return Health{}, health.Wrap(ledgerName, "maint_requirement", err)
	}

	h.MarginRatio = saturatingRatio(h.InitAdjustedEquity, h.Liabilities)
	h.InitHealth = saturatingRatio(h.InitAdjustedEquity, h.InitRequirement)
	h.MaintHealth = saturatingRatio(h.InitAdjustedEquity, h.MaintRequirement)
	return h, nil
}

// Equity is the account's total equity of type t.
func Equity(bank Bank, account *LedgerAccount, t EquityType, params venue.Params) (fixed.I80F48, error) {
	h, err := Aggregate(bank, account, params)
	if err != nil {
		return fixed.Zero, err
	}
	switch t {
	case Total:
		return h.Equity, nil
	case InitReqAdjusted:
		return h.InitAdjustedEquity, nil
	default:
		return fixed.Zero, fmt.Errorf("%w: %s", health.ErrUnknownFractionKind, t)
	}
}

// =====================================================
// tool methods
// =====================================================

func observeVenues(account *LedgerAccount, params venue.Params) ([]VenueHealth, error) {
	ordered, err := account.orderedVenues()
	if err != nil {
		return nil, err
	}
	out := make([]VenueHealth, 0, len(ordered))
	for _, s := range ordered {
		obs, err := venue.Observe(s, params)
		if err != nil {
			return nil, fmt.Errorf("venue %d: %w", s.Index, err)
		}
		out = append(out, VenueHealth{Index: s.Index, Kind: s.Kind, Observation: obs})
	}
	return out, nil
}

func sumEquity(deposits fixed.I80F48, venues []VenueHealth, t EquityType) (fixed.I80F48, error) {
	total := deposits
	for _, v := range venues {
		var part fixed.I80F48
		switch t {
		case Total:
			part = v.Observation.Equity
		case InitReqAdjusted:
			part = v.Observation.NetFreeCollateral
		default:
			return fixed.Zero, fmt.Errorf("%w: %s", health.ErrUnknownFractionKind, t)
		}
		var err error
		if total, err = total.Add(part); err != nil {
			return fixed.Zero, err
		}
	}
	return total, nil
}

// saturatingRatio returns num/den, or Max when den is zero. A quotient out
// of range saturates toward its sign.
func saturatingRatio(num, den fixed.I80F48) fixed.I80F48 {
	if den.IsZero() {
		return fixed.Max
	}
	r, err := num.Div(den)
	if err == nil {
		return r
	}
	if num.IsNegative() != den.IsNegative() {
		return fixed.Min
	}
	return fixed.Max
}
