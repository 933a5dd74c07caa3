package perpbook

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

const venueName = "perpbook"

// Observer exposes a Snapshot through health.Observable.
type Observer struct {
	snapshot *Snapshot
	params   RiskParams
	dust     fixed.I80F48
}

var _ health.Observable = (*Observer)(nil)

// NewObserver builds an Observer over s. The snapshot is not copied and must
// not be changed while the Observer is in use.
func NewObserver(s *Snapshot, params RiskParams, dust fixed.I80F48) *Observer {
	return &Observer{snapshot: s, params: params, dust: dust}
}

func (o *Observer) fraction(op string, kind health.MarginFractionKind) (fixed.I80F48, error) {
	v, err := MarginFraction(o.snapshot, kind, o.params)
	return v, health.Wrap(venueName, op, err)
}

func (o *Observer) Equity() (fixed.I80F48, error) {
	return o.fraction("equity", health.Equity)
}

func (o *Observer) InitMarginRequirement() (fixed.I80F48, error) {
	return o.fraction("init_margin_requirement", health.InitReq)
}

func (o *Observer) NetFreeCollateral() (fixed.I80F48, error) {
	v, err := NetFreeCollateral(o.snapshot, o.params)
	return v, health.Wrap(venueName, "net_free_collateral", err)
}

func (o *Observer) FreeCollateral() (fixed.I80F48, error) {
	net, err := o.NetFreeCollateral()
	if err != nil {
		return fixed.Zero, err
	}
	return net.Floor0(), nil
}

// IsRebalanceDepositValid reports whether the account sits below its
// initial requirement.
func (o *Observer) IsRebalanceDepositValid() (bool, error) {
	net, err := o.NetFreeCollateral()
	if err != nil {
		return false, err
	}
	return net.IsNegative(), nil
}

// MaxRebalanceDepositAmount is the deposit that brings OpenEquity back up
// to the initial requirement.
func (o *Observer) MaxRebalanceDepositAmount() (fixed.I80F48, error) {
	openEquity, err := o.fraction("max_rebalance_deposit_amount", health.OpenEquity)
	if err != nil {
		return fixed.Zero, err
	}
	initReq, err := o.fraction("max_rebalance_deposit_amount", health.InitReq)
	if err != nil {
		return fixed.Zero, err
	}
	shortfall, err := initReq.Sub(openEquity)
	if err != nil {
		return fixed.Zero, health.Wrap(venueName, "max_rebalance_deposit_amount", err)
	}
	return shortfall.Floor0(), nil
}

func (o *Observer) LiquidationValue() (fixed.I80F48, error) {
	return o.fraction("liquidation_value", health.Equity)
}

func (o *Observer) IsEmpty() (bool, error) {
	equity, err := o.fraction("is_empty", health.Equity)
	if err != nil {
		return false, err
	}
	return equity.LessThan(o.dust), nil
}
