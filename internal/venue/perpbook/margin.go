// Package perpbook values an order-book perpetuals venue account whose
// resting orders count against it as if filled at the worst side.
package perpbook

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// RiskParams are the venue-wide constants of the weight rules.
type RiskParams struct {
	// Negative collateral weight is -(Spot/weight - 1), both in permille.
	SpotInitPermille  int64 `yaml:"spot_init_permille"`
	SpotMaintPermille int64 `yaml:"spot_maint_permille"`

	// Market weight is BaseIMF / divisor for each requirement kind.
	InitDivisor       int64 `yaml:"init_divisor"`
	MaintDivisor      int64 `yaml:"maint_divisor"`
	ContinuousDivisor int64 `yaml:"continuous_divisor"`
}

// DefaultRiskParams returns the venue's published constants.
func DefaultRiskParams() RiskParams {
	return RiskParams{
		SpotInitPermille:  1100,
		SpotMaintPermille: 1030,
		InitDivisor:       1000,
		MaintDivisor:      2000,
		ContinuousDivisor: 1600,
	}
}

const permille = 1000

// MarginFraction computes the weighted value of s for one kind. Any failure
// in any slot fails the whole computation.
func MarginFraction(s *Snapshot, kind health.MarginFractionKind, p RiskParams) (fixed.I80F48, error) {
	if !kind.Valid() {
		return fixed.Zero, health.ErrUnknownFractionKind
	}
	if err := s.Validate(); err != nil {
		return fixed.Zero, err
	}

	value := fixed.Zero
	unrealizedPnL := fixed.Zero
	realizedPnL := fixed.Zero

	for i, info := range s.Markets {
		if info.idle() {
			continue
		}
		price, err := marketPrice(s, i)
		if err != nil {
			return fixed.Zero, err
		}
		position := fixed.FromInt(info.PosSize)

		if info.PosSize != 0 {
			upnl, err := calcUnrealizedPnL(info, price, position)
			if err != nil {
				return fixed.Zero, err
			}
			if unrealizedPnL, err = unrealizedPnL.Add(upnl); err != nil {
				return fixed.Zero, err
			}
			rpnl, err := calcRealizedPnL(s, i, position)
			if err != nil {
				return fixed.Zero, err
			}
			if realizedPnL, err = realizedPnL.Add(rpnl); err != nil {
				return fixed.Zero, err
			}
		}

		if kind == health.InitReq || kind == health.ContinuousReq {
			if position, err = atRiskPosition(info); err != nil {
				return fixed.Zero, err
			}
		}

		weight, err := marketWeight(kind, position, s.Weights.Markets[i], p)
		if err != nil {
			return fixed.Zero, err
		}
		if weight.IsZero() {
			continue
		}
		weightedPrice, err := price.Mul(weight)
		if err != nil {
			return fixed.Zero, err
		}
		if value, err = mulAdd(value, position, weightedPrice); err != nil {
			return fixed.Zero, err
		}
	}

	for i, balance := range s.Collateral {
		if balance.IsZero() && (i != 0 || realizedPnL.IsZero()) {
			continue
		}
		weight, err := collateralWeight(kind, balance, s.Weights.Collaterals[i], p)
		if err != nil {
			return fixed.Zero, err
		}
		if weight.IsZero() {
			continue
		}

		// realized P&L settles into slot 0 at slot 0's weight
		if i == 0 {
			if value, err = mulAdd(value, realizedPnL, weight); err != nil {
				return fixed.Zero, err
			}
			if balance.IsZero() {
				continue
			}
		}

		price, err := collateralPrice(s, i, balance)
		if err != nil {
			return fixed.Zero, err
		}
		weightedPrice, err := price.Mul(weight)
		if err != nil {
			return fixed.Zero, err
		}
		if value, err = mulAdd(value, balance, weightedPrice); err != nil {
			return fixed.Zero, err
		}
	}

	switch kind {
	case health.Equity:
		return value.Add(unrealizedPnL)
	case health.OpenEquity:
		return value.Add(fixed.MinOf(unrealizedPnL, fixed.Zero))
	default:
		return value, nil
	}
}

// NetFreeCollateral is OpenEquity minus the initial requirement, uncapped.
func NetFreeCollateral(s *Snapshot, p RiskParams) (fixed.I80F48, error) {
	openEquity, err := MarginFraction(s, health.OpenEquity, p)
	if err != nil {
		return fixed.Zero, err
	}
	initReq, err := MarginFraction(s, health.InitReq, p)
	if err != nil {
		return fixed.Zero, err
	}
	return openEquity.Sub(initReq)
}

// --------------------------------------------------------------------------------------------
// weights and prices
// --------------------------------------------------------------------------------------------

// marketWeight is zero for the equity kinds; otherwise BaseIMF scaled by the
// kind's divisor, carrying the sign of position.
func marketWeight(kind health.MarginFractionKind, position fixed.I80F48, info MarketInfo, p RiskParams) (fixed.I80F48, error) {
	var divisor int64
	switch kind {
	case health.Equity, health.OpenEquity:
		return fixed.Zero, nil
	case health.InitReq:
		divisor = p.InitDivisor
	case health.MaintReq:
		divisor = p.MaintDivisor
	case health.ContinuousReq:
		divisor = p.ContinuousDivisor
	default:
		return fixed.Zero, health.ErrUnknownFractionKind
	}
	if divisor <= 0 {
		return fixed.Zero, health.ErrInvalidWeight
	}

	weight, err := fixed.FromRatio(int64(info.BaseIMF), divisor)
	if err != nil {
		return fixed.Zero, err
	}
	if position.IsNegative() {
		return weight.Neg()
	}
	return weight, nil
}

// collateralWeight credits positive balances only for the equity kinds and
// charges negative balances an overcollateralization weight.
func collateralWeight(kind health.MarginFractionKind, balance fixed.I80F48, info CollateralInfo, p RiskParams) (fixed.I80F48, error) {
	positive := !balance.IsNegative()
	if positive && kind.IsRequirement() {
		return fixed.Zero, nil
	}

	switch kind {
	case health.Equity, health.OpenEquity:
		if positive {
			return fixed.FromRatio(int64(info.Weight), permille)
		}
		return fixed.One, nil
	case health.MaintReq:
		return spotWeight(p.SpotMaintPermille, info.Weight)
	case health.InitReq, health.ContinuousReq:
		return spotWeight(p.SpotInitPermille, info.Weight)
	default:
		return fixed.Zero, health.ErrUnknownFractionKind
	}
}

// spotWeight returns -(spot/weight - 1).
func spotWeight(spot int64, weight uint16) (fixed.I80F48, error) {
	if weight == 0 {
		return fixed.Zero, health.ErrInvalidWeight
	}
	ratio, err := fixed.FromRatio(spot, int64(weight))
	if err != nil {
		return fixed.Zero, err
	}
	excess, err := ratio.Sub(fixed.One)
	if err != nil {
		return fixed.Zero, err
	}
	return excess.Neg()
}

// collateralPrice applies the borrow multiplier to debts and the supply
// multiplier to deposits.
func collateralPrice(s *Snapshot, i int, balance fixed.I80F48) (fixed.I80F48, error) {
	adjustment := s.Prices.SupplyMultiplier[i]
	if balance.IsNegative() {
		adjustment = s.Prices.BorrowMultiplier[i]
	}
	return s.Prices.CollateralPrice[i].Mul(adjustment)
}

func marketPrice(s *Snapshot, i int) (fixed.I80F48, error) {
	switch s.Weights.Markets[i].PerpType {
	case Future:
		return s.Prices.MarketOraclePrice[i], nil
	case Square:
		return s.Prices.MarkPrice[i], nil
	default:
		return fixed.Zero, health.Inconsistent("market %d has perp type %v", i, s.Weights.Markets[i].PerpType)
	}
}

// --------------------------------------------------------------------------------------------
// P&L
// --------------------------------------------------------------------------------------------

func calcUnrealizedPnL(info MarketPosition, price, position fixed.I80F48) (fixed.I80F48, error) {
	return mulAdd(fixed.FromInt(info.NativePcTotal), position, price)
}

// calcRealizedPnL adds funding accrued since the last settlement to the
// stored realized P&L: (current index - settled index) × position / 10^decimals.
func calcRealizedPnL(s *Snapshot, i int, position fixed.I80F48) (fixed.I80F48, error) {
	info := s.Markets[i]
	realized := fixed.FromInt(info.RealizedPnL)

	fundingDiff, err := s.Prices.FundingIndex[i].Sub(info.FundingIndex)
	if err != nil {
		return fixed.Zero, err
	}
	if fundingDiff.IsZero() {
		return realized, nil
	}

	scale, err := fixed.Pow10(s.Weights.Markets[i].AssetDecimals)
	if err != nil {
		return fixed.Zero, err
	}
	funding, err := fundingDiff.Mul(position)
	if err != nil {
		return fixed.Zero, err
	}
	if funding, err = funding.Div(scale); err != nil {
		return fixed.Zero, err
	}
	return funding.Add(realized)
}

// atRiskPosition assumes every resting order fills against the trader.
func atRiskPosition(info MarketPosition) (fixed.I80F48, error) {
	position := fixed.FromInt(info.PosSize)

	bidSide, err := position.Add(fixed.FromUint(info.CoinOnBids))
	if err != nil {
		return fixed.Zero, err
	}
	if bidSide, err = bidSide.Abs(); err != nil {
		return fixed.Zero, err
	}
	askSide, err := position.Sub(fixed.FromUint(info.CoinOnAsks))
	if err != nil {
		return fixed.Zero, err
	}
	if askSide, err = askSide.Abs(); err != nil {
		return fixed.Zero, err
	}
	return fixed.MaxOf(bidSide, askSide), nil
}

// mulAdd returns acc + a*b.
func mulAdd(acc, a, b fixed.I80F48) (fixed.I80F48, error) {
	product, err := a.Mul(b)
	if err != nil {
		return fixed.Zero, err
	}
	return acc.Add(product)
}
