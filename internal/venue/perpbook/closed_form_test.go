package perpbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
)

// closedFormNetFreeCollateral computes equity and the initial requirement in a
// single pass. It is only used to cross-check NetFreeCollateral.
func closedFormNetFreeCollateral(s *Snapshot, p RiskParams) (fixed.I80F48, error) {
	if err := s.Validate(); err != nil {
		return fixed.Zero, err
	}

	equity := fixed.Zero
	requirement := fixed.Zero
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
			rpnl, err := calcRealizedPnL(s, i, position)
			if err != nil {
				return fixed.Zero, err
			}
			if unrealizedPnL, err = unrealizedPnL.Add(upnl); err != nil {
				return fixed.Zero, err
			}
			if realizedPnL, err = realizedPnL.Add(rpnl); err != nil {
				return fixed.Zero, err
			}
		}

		atRisk, err := atRiskPosition(info)
		if err != nil {
			return fixed.Zero, err
		}
		weight, err := marketWeight(health.InitReq, atRisk, s.Weights.Markets[i], p)
		if err != nil {
			return fixed.Zero, err
		}
		weightedPrice, err := price.Mul(weight)
		if err != nil {
			return fixed.Zero, err
		}
		if requirement, err = mulAdd(requirement, atRisk, weightedPrice); err != nil {
			return fixed.Zero, err
		}
	}

	for i, balance := range s.Collateral {
		if balance.IsZero() && (i != 0 || realizedPnL.IsZero()) {
			continue
		}
		price, err := collateralPrice(s, i, balance)
		if err != nil {
			return fixed.Zero, err
		}

		if !balance.IsNegative() {
			base, err := fixed.FromRatio(int64(s.Weights.Collaterals[i].Weight), permille)
			if err != nil {
				return fixed.Zero, err
			}
			if i == 0 {
				if equity, err = mulAdd(equity, realizedPnL, base); err != nil {
					return fixed.Zero, err
				}
			}
			weightedPrice, err := price.Mul(base)
			if err != nil {
				return fixed.Zero, err
			}
			if equity, err = mulAdd(equity, balance, weightedPrice); err != nil {
				return fixed.Zero, err
			}
			continue
		}

		imf, err := spotWeight(p.SpotInitPermille, s.Weights.Collaterals[i].Weight)
		if err != nil {
			return fixed.Zero, err
		}
		if i == 0 {
			if equity, err = equity.Add(realizedPnL); err != nil {
				return fixed.Zero, err
			}
			if requirement, err = mulAdd(requirement, realizedPnL, imf); err != nil {
				return fixed.Zero, err
			}
		}
		if equity, err = mulAdd(equity, balance, price); err != nil {
			return fixed.Zero, err
		}
		weightedPrice, err := price.Mul(imf)
		if err != nil {
			return fixed.Zero, err
		}
		if requirement, err = mulAdd(requirement, balance, weightedPrice); err != nil {
			return fixed.Zero, err
		}
	}

	equity, err := equity.Add(fixed.MinOf(unrealizedPnL, fixed.Zero))
	if err != nil {
		return fixed.Zero, err
	}
	return equity.Sub(requirement)
}

func fuzzSnapshot(bal0, bal1, pos int64, bids, asks uint32, pc, rpnl int64, w1, imf uint16, price uint32) *Snapshot {
	s := newTestSnapshot(
		[]CollateralInfo{{Symbol: "USDC", Weight: 1000}, {Symbol: "SOL", Weight: w1%1000 + 1}},
		[]MarketInfo{
			{Symbol: "BTC-PERP", PerpType: Future, BaseIMF: imf % 1000, AssetDecimals: 6},
			{Symbol: "SOL-SQUARE", PerpType: Square, BaseIMF: 50, AssetDecimals: 9},
		},
	)
	s.Collateral[0] = fixed.FromInt(bal0)
	s.Collateral[1] = fixed.FromInt(bal1)
	s.Prices.CollateralPrice[1] = fixed.FromInt(int64(price))
	s.Prices.BorrowMultiplier[1] = fixed.MustParse("1.02")
	s.Markets[0] = MarketPosition{PosSize: pos, CoinOnBids: uint64(bids), CoinOnAsks: uint64(asks), NativePcTotal: pc, RealizedPnL: rpnl}
	s.Markets[1] = MarketPosition{PosSize: -pos / 3, CoinOnAsks: uint64(bids / 2), NativePcTotal: -pc / 2}
	s.Prices.MarketOraclePrice[0] = fixed.FromInt(int64(price))
	s.Prices.MarkPrice[1] = fixed.MustParse("0.25")
	s.Prices.FundingIndex[0] = fixed.FromInt(rpnl)
	return s
}

func TestNetFreeCollateralMatchesClosedForm(t *testing.T) {
	cases := []*Snapshot{
		usdcOnly(1_000_000),
		usdcOnly(-1_000),
		shortSquare(),
		fuzzSnapshot(5_000, -20, 12, 3, 9, -1_500, 7, 800, 120, 130),
		fuzzSnapshot(0, 0, 0, 0, 0, 0, 0, 0, 0, 1),
		fuzzSnapshot(-100, 100, -8, 0, 40, 900, -3, 999, 999, 20_000),
	}
	for i, s := range cases {
		want, err := closedFormNetFreeCollateral(s, DefaultRiskParams())
		require.NoError(t, err, "case %d", i)
		got, err := NetFreeCollateral(s, DefaultRiskParams())
		require.NoError(t, err, "case %d", i)
		assert.Equal(t, want, got, "case %d: %s != %s", i, want, got)
	}
}

func FuzzNetFreeCollateralMatchesClosedForm(f *testing.F) {
	f.Add(int64(5_000), int64(-20), int64(12), uint32(3), uint32(9), int64(-1_500), int64(7), uint16(800), uint16(120), uint32(130))
	f.Add(int64(0), int64(0), int64(-4), uint32(0), uint32(0), int64(0), int64(-1), uint16(0), uint16(0), uint32(1))

	f.Fuzz(func(t *testing.T, bal0, bal1, pos int64, bids, asks uint32, pc, rpnl int64, w1, imf uint16, price uint32) {
		s := fuzzSnapshot(bal0, bal1, pos, bids, asks, pc, rpnl, w1, imf, price)

		want, errWant := closedFormNetFreeCollateral(s, DefaultRiskParams())
		got, errGot := NetFreeCollateral(s, DefaultRiskParams())
		if errWant != nil || errGot != nil {
			// intermediate sums are ordered differently and may overflow in only one
			return
		}
		if want != got {
			t.Fatalf("net free collateral %s, closed form %s", got, want)
		}
	})
}
