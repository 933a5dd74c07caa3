// Package health defines the venue-agnostic observation contract shared by
// every venue risk model, together with the engine's failure taxonomy.
package health

import "frizo/collateral_engine/internal/fixed"

// DefaultDustThreshold is the equity below which a venue account counts as empty.
var DefaultDustThreshold = fixed.One

// Observable is implemented by every venue risk model. Each call recomputes
// from the immutable snapshot the implementation was built from.
type Observable interface {
	// FreeCollateral is equity above the initial requirement, floored at zero.
	FreeCollateral() (fixed.I80F48, error)
	// NetFreeCollateral is FreeCollateral before the zero floor.
	NetFreeCollateral() (fixed.I80F48, error)
	Equity() (fixed.I80F48, error)
	InitMarginRequirement() (fixed.I80F48, error)
	IsEmpty() (bool, error)
	IsRebalanceDepositValid() (bool, error)
	MaxRebalanceDepositAmount() (fixed.I80F48, error)
	LiquidationValue() (fixed.I80F48, error)
}

// Observation bundles every Observable quantity for one venue snapshot.
type Observation struct {
	Equity                    fixed.I80F48 `json:"equity" yaml:"equity"`
	FreeCollateral            fixed.I80F48 `json:"free_collateral" yaml:"free_collateral"`
	NetFreeCollateral         fixed.I80F48 `json:"net_free_collateral" yaml:"net_free_collateral"`
	InitMarginRequirement     fixed.I80F48 `json:"init_margin_requirement" yaml:"init_margin_requirement"`
	IsEmpty                   bool         `json:"is_empty" yaml:"is_empty"`
	IsRebalanceDepositValid   bool         `json:"is_rebalance_deposit_valid" yaml:"is_rebalance_deposit_valid"`
	MaxRebalanceDepositAmount fixed.I80F48 `json:"max_rebalance_deposit_amount" yaml:"max_rebalance_deposit_amount"`
	LiquidationValue          fixed.I80F48 `json:"liquidation_value" yaml:"liquidation_value"`
}

// Observe evaluates every quantity of o. The first failure aborts.
func Observe(o Observable) (Observation, error) {
	var (
		obs Observation
		err error
	)
	if obs.Equity, err = o.Equity(); err != nil {
		return Observation{}, err
	}
	if obs.FreeCollateral, err = o.FreeCollateral(); err != nil {
		return Observation{}, err
	}
	if obs.NetFreeCollateral, err = o.NetFreeCollateral(); err != nil {
		return Observation{}, err
	}
	if obs.InitMarginRequirement, err = o.InitMarginRequirement(); err != nil {
		return Observation{}, err
	}
	if obs.IsEmpty, err = o.IsEmpty(); err != nil {
		return Observation{}, err
	}
	if obs.IsRebalanceDepositValid, err = o.IsRebalanceDepositValid(); err != nil {
		return Observation{}, err
	}
	if obs.MaxRebalanceDepositAmount, err = o.MaxRebalanceDepositAmount(); err != nil {
		return Observation{}, err
	}
	if obs.LiquidationValue, err = o.LiquidationValue(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}
