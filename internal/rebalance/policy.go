// Package rebalance turns an account health summary into transfer decisions.
// It never executes a transfer.
package rebalance

import (
	"fmt"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
	"frizo/collateral_engine/internal/margin"
	"frizo/collateral_engine/internal/venue"
)

// Policy holds the decision thresholds.
type Policy struct {
	// A venue deposit moves MaxRebalanceDepositAmount / DepositDivisor.
	DepositDivisor int64 `yaml:"deposit_divisor"`
	// A withdraw fires only when the ledger shortfall exceeds this.
	WithdrawTolerance fixed.I80F48 `yaml:"withdraw_tolerance"`
}

func DefaultPolicy() Policy {
	return Policy{
		DepositDivisor:    2,
		WithdrawTolerance: fixed.One,
	}
}

// Deposit moves collateral from the ledger into one venue.
type Deposit struct {
	VenueIndex int          `json:"venue_index" yaml:"venue_index"`
	Kind       venue.Kind   `json:"kind" yaml:"kind"`
	Amount     fixed.I80F48 `json:"amount" yaml:"amount"`
}

// Withdraw moves collateral from a venue back to the ledger.
type Withdraw struct {
	SourceIndex int          `json:"source_index" yaml:"source_index"`
	Kind        venue.Kind   `json:"kind" yaml:"kind"`
	Amount      fixed.I80F48 `json:"amount" yaml:"amount"`
}

// Decision is the outcome of one evaluation. Deposits and the withdraw are
// decided independently and may both be present.
type Decision struct {
	Deposits []Deposit `json:"deposits" yaml:"deposits"`
	Withdraw *Withdraw `json:"withdraw,omitempty" yaml:"withdraw,omitempty"`
}

// IsNoAction reports whether the decision moves nothing.
func (d Decision) IsNoAction() bool {
	return len(d.Deposits) == 0 && d.Withdraw == nil
}

// Evaluate decides the transfers for h.
func Evaluate(h margin.Health, p Policy) (Decision, error) {
	if p.DepositDivisor <= 0 {
		return Decision{}, fmt.Errorf("%w: deposit divisor %d", health.ErrInvalidWeight, p.DepositDivisor)
	}
	divisor := fixed.FromInt(p.DepositDivisor)

	var d Decision
	for _, v := range h.Venues {
		if !v.Observation.IsRebalanceDepositValid {
			continue
		}
		amount, err := v.Observation.MaxRebalanceDepositAmount.Div(divisor)
		if err != nil {
			return Decision{}, health.Wrap("rebalance", "deposit", err)
		}
		amount = amount.Floor0()
		if !amount.IsPositive() {
			continue
		}
		d.Deposits = append(d.Deposits, Deposit{VenueIndex: v.Index, Kind: v.Kind, Amount: amount})
	}

	withdraw, err := evaluateWithdraw(h, p)
	if err != nil {
		return Decision{}, err
	}
	d.Withdraw = withdraw
	return d, nil
}

// EvaluateAccount aggregates account and evaluates the result.
func EvaluateAccount(bank margin.Bank, account *margin.LedgerAccount, params venue.Params, p Policy) (margin.Health, Decision, error) {
	h, err := margin.Aggregate(bank, account, params)
	if err != nil {
		return margin.Health{}, Decision{}, err
	}
	d, err := Evaluate(h, p)
	if err != nil {
		return margin.Health{}, Decision{}, err
	}
	return h, d, nil
}

// evaluateWithdraw sizes the withdraw to the ledger's initial requirement
// shortfall and picks the venue with the most free collateral as source.
func evaluateWithdraw(h margin.Health, p Policy) (*Withdraw, error) {
	if len(h.Venues) == 0 {
		return nil, nil
	}
	shortfall, err := h.InitRequirement.Sub(h.InitAdjustedEquity)
	if err != nil {
		return nil, health.Wrap("rebalance", "withdraw", err)
	}
	if !shortfall.GreaterThan(p.WithdrawTolerance) {
		return nil, nil
	}

	src := withdrawSource(h.Venues)
	return &Withdraw{SourceIndex: src.Index, Kind: src.Kind, Amount: shortfall}, nil
}

// withdrawSource prefers non-empty venues, then the largest uncapped free
// collateral, then the lowest index.
func withdrawSource(venues []margin.VenueHealth) margin.VenueHealth {
	best := venues[0]
	for _, v := range venues[1:] {
		if better(v, best) {
			best = v
		}
	}
	return best
}

func better(a, b margin.VenueHealth) bool {
	if a.Observation.IsEmpty != b.Observation.IsEmpty {
		return !a.Observation.IsEmpty
	}
	return a.Observation.NetFreeCollateral.GreaterThan(b.Observation.NetFreeCollateral)
}
