// Package healthcache values an account on a lending venue that reports
// health as a pair of totals: weighted assets and weighted liabilities.
//
// The totals are rebuilt from the snapshot on every call and never retained.
package healthcache

import (
	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// HealthType selects the weight set used for both totals.
type HealthType int

const (
	Maint HealthType = iota
	Init
	Equity // unit weights
)

func (h HealthType) String() string {
	switch h {
	case Maint:
		return "maint"
	case Init:
		return "init"
	case Equity:
		return "equity"
	default:
		return "unknown"
	}
}

// HealthTypeFor maps a margin fraction kind onto the venue's weight sets.
// The venue has no open-equity or continuous rule, so those fall back to
// Equity and Init.
func HealthTypeFor(kind health.MarginFractionKind) (HealthType, error) {
	switch kind {
	case health.Equity, health.OpenEquity:
		return Equity, nil
	case health.InitReq, health.ContinuousReq:
		return Init, nil
	case health.MaintReq:
		return Maint, nil
	default:
		return 0, health.ErrUnknownFractionKind
	}
}

type weights struct {
	asset, liab fixed.I80F48
}

func (h HealthType) tokenWeights(info TokenInfo) (weights, error) {
	switch h {
	case Maint:
		return checkWeights(info.MaintAssetWeight, info.MaintLiabWeight)
	case Init:
		return checkWeights(info.InitAssetWeight, info.InitLiabWeight)
	case Equity:
		return weights{asset: fixed.One, liab: fixed.One}, nil
	default:
		return weights{}, health.ErrUnknownFractionKind
	}
}

func (h HealthType) perpWeights(info PerpInfo) (weights, error) {
	switch h {
	case Maint:
		return checkWeights(info.MaintAssetWeight, info.MaintLiabWeight)
	case Init:
		return checkWeights(info.InitAssetWeight, info.InitLiabWeight)
	case Equity:
		return weights{asset: fixed.One, liab: fixed.One}, nil
	default:
		return weights{}, health.ErrUnknownFractionKind
	}
}

// checkWeights rejects negative asset weights and liability weights that
// would not charge a debt at all.
func checkWeights(asset, liab fixed.I80F48) (weights, error) {
	if asset.IsNegative() || !liab.IsPositive() {
		return weights{}, health.ErrInvalidWeight
	}
	return weights{asset: asset, liab: liab}, nil
}

// Components returns the weighted asset total and the weighted liability
// total of s under h. Both are non-negative.
func Components(s *Snapshot, h HealthType) (assets, liabs fixed.I80F48, err error) {
	if err := s.Validate(); err != nil {
		return fixed.Zero, fixed.Zero, err
	}

	var cache healthCache
	for i, pos := range s.Tokens {
		if pos.idle() {
			continue
		}
		w, err := h.tokenWeights(s.TokenInfos[i])
		if err != nil {
			return fixed.Zero, fixed.Zero, err
		}
		value, err := tokenValue(s, i)
		if err != nil {
			return fixed.Zero, fixed.Zero, err
		}
		if err := cache.add(value, w); err != nil {
			return fixed.Zero, fixed.Zero, err
		}
	}

	for i, pos := range s.Perps {
		if pos.idle() {
			continue
		}
		w, err := h.perpWeights(s.PerpInfos[i])
		if err != nil {
			return fixed.Zero, fixed.Zero, err
		}
		value, err := perpHealth(s, i, w)
		if err != nil {
			return fixed.Zero, fixed.Zero, err
		}
		// perp health is already weighted
		if err := cache.add(value, weights{asset: fixed.One, liab: fixed.One}); err != nil {
			return fixed.Zero, fixed.Zero, err
		}
	}

	return cache.assets, cache.liabs, nil
}

// healthCache accumulates the two totals for one Components call.
type healthCache struct {
	assets fixed.I80F48
	liabs  fixed.I80F48
}

func (c *healthCache) add(value fixed.I80F48, w weights) error {
	if value.IsNegative() {
		debt, err := value.Neg()
		if err != nil {
			return err
		}
		weighted, err := debt.Mul(w.liab)
		if err != nil {
			return err
		}
		c.liabs, err = c.liabs.Add(weighted)
		return err
	}
	weighted, err := value.Mul(w.asset)
	if err != nil {
		return err
	}
	c.assets, err = c.assets.Add(weighted)
	return err
}

// tokenValue is the native net balance priced in quote.
func tokenValue(s *Snapshot, i int) (fixed.I80F48, error) {
	pos := s.Tokens[i]
	deposits, err := pos.Deposits.Mul(s.Cache.DepositIndex[i])
	if err != nil {
		return fixed.Zero, err
	}
	borrows, err := pos.Borrows.Mul(s.Cache.BorrowIndex[i])
	if err != nil {
		return fixed.Zero, err
	}
	net, err := deposits.Sub(borrows)
	if err != nil {
		return fixed.Zero, err
	}
	return net.Mul(s.Cache.TokenPrices[i])
}

// perpHealth is the weighted value of one perp slot under whichever of
// "all bids fill" and "all asks fill" is worse for the account.
func perpHealth(s *Snapshot, i int, w weights) (fixed.I80F48, error) {
	pos := s.Perps[i]
	info := s.PerpInfos[i]
	if info.BaseLotSize <= 0 {
		return fixed.Zero, health.Inconsistent("perp %d has base lot size %d", i, info.BaseLotSize)
	}

	quote, err := fundedQuote(s, i)
	if err != nil {
		return fixed.Zero, err
	}
	lotPrice, err := s.Cache.PerpPrices[i].Mul(fixed.FromInt(info.BaseLotSize))
	if err != nil {
		return fixed.Zero, err
	}

	bidsFilled, err := scenarioHealth(pos.BasePosition, pos.BidsQuantity, quote, lotPrice, w)
	if err != nil {
		return fixed.Zero, err
	}
	asksFilled, err := scenarioHealth(pos.BasePosition, -pos.AsksQuantity, quote, lotPrice, w)
	if err != nil {
		return fixed.Zero, err
	}
	return fixed.MinOf(bidsFilled, asksFilled), nil
}

// scenarioHealth values the slot after fillLots more base lots trade at lotPrice.
func scenarioHealth(base, fillLots int64, quote, lotPrice fixed.I80F48, w weights) (fixed.I80F48, error) {
	baseLots, err := fixed.FromInt(base).Add(fixed.FromInt(fillLots))
	if err != nil {
		return fixed.Zero, err
	}
	paid, err := fixed.FromInt(fillLots).Mul(lotPrice)
	if err != nil {
		return fixed.Zero, err
	}
	if quote, err = quote.Sub(paid); err != nil {
		return fixed.Zero, err
	}

	baseValue, err := baseLots.Mul(lotPrice)
	if err != nil {
		return fixed.Zero, err
	}
	weight := w.asset
	if baseValue.IsNegative() {
		weight = w.liab
	}
	if baseValue, err = baseValue.Mul(weight); err != nil {
		return fixed.Zero, err
	}
	return baseValue.Add(quote)
}

// fundedQuote charges funding accrued since the last settlement against the
// quote position.
func fundedQuote(s *Snapshot, i int) (fixed.I80F48, error) {
	pos := s.Perps[i]
	var accrued fixed.I80F48
	var err error
	switch {
	case pos.BasePosition > 0:
		accrued, err = s.Cache.PerpLongFunding[i].Sub(pos.LongSettledFunding)
	case pos.BasePosition < 0:
		accrued, err = s.Cache.PerpShortFunding[i].Sub(pos.ShortSettledFunding)
	default:
		return pos.QuotePosition, nil
	}
	if err != nil {
		return fixed.Zero, err
	}
	owed, err := accrued.Mul(fixed.FromInt(pos.BasePosition))
	if err != nil {
		return fixed.Zero, err
	}
	return pos.QuotePosition.Sub(owed)
}
