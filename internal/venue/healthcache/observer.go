package healthcache

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

const venueName = "healthcache"

// Observer exposes a Snapshot through health.Observable.
type Observer struct {
	snapshot *Snapshot
	dust     fixed.I80F48
}

var _ health.Observable = (*Observer)(nil)

func NewObserver(s *Snapshot, dust fixed.I80F48) *Observer {
	return &Observer{snapshot: s, dust: dust}
}

// initComponents returns collateral and requirement under Init weights.
func (o *Observer) initComponents(op string) (fixed.I80F48, fixed.I80F48, error) {
	collateral, requirement, err := Components(o.snapshot, Init)
	return collateral, requirement, health.Wrap(venueName, op, err)
}

func (o *Observer) NetFreeCollateral() (fixed.I80F48, error) {
	collateral, requirement, err := o.initComponents("net_free_collateral")
	if err != nil {
		return fixed.Zero, err
	}
	net, err := collateral.Sub(requirement)
	return net, health.Wrap(venueName, "net_free_collateral", err)
}

func (o *Observer) FreeCollateral() (fixed.I80F48, error) {
	net, err := o.NetFreeCollateral()
	if err != nil {
		return fixed.Zero, err
	}
	return net.Floor0(), nil
}

func (o *Observer) InitMarginRequirement() (fixed.I80F48, error) {
	_, requirement, err := o.initComponents("init_margin_requirement")
	return requirement, err
}

// IsRebalanceDepositValid also holds when collateral exactly meets the
// requirement.
func (o *Observer) IsRebalanceDepositValid() (bool, error) {
	collateral, requirement, err := o.initComponents("is_rebalance_deposit_valid")
	if err != nil {
		return false, err
	}
	return collateral.LessThanOrEqual(requirement), nil
}

func (o *Observer) MaxRebalanceDepositAmount() (fixed.I80F48, error) {
	collateral, requirement, err := o.initComponents("max_rebalance_deposit_amount")
	if err != nil {
		return fixed.Zero, err
	}
	shortfall, err := requirement.Sub(collateral)
	if err != nil {
		return fixed.Zero, health.Wrap(venueName, "max_rebalance_deposit_amount", err)
	}
	return shortfall.Floor0(), nil
}

// Equity is unweighted assets minus liabilities, floored at zero.
func (o *Observer) Equity() (fixed.I80F48, error) {
	assets, liabs, err := Components(o.snapshot, Equity)
	if err != nil {
		return fixed.Zero, health.Wrap(venueName, "equity", err)
	}
	equity, err := assets.Sub(liabs)
	if err != nil {
		return fixed.Zero, health.Wrap(venueName, "equity", err)
	}
	return equity.Floor0(), nil
}

func (o *Observer) LiquidationValue() (fixed.I80F48, error) {
	return o.Equity()
}

func (o *Observer) IsEmpty() (bool, error) {
	equity, err := o.Equity()
	if err != nil {
		return false, err
	}
	return equity.LessThan(o.dust), nil
}
