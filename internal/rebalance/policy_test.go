package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/collateral_engine/internal/fixed"
	"frizo/collateral_engine/internal/health"
	"frizo/collateral_engine/internal/margin"
	"frizo/collateral_engine/internal/venue"
	"frizo/collateral_engine/internal/venue/healthcache"
)

// Test helpers
func venueHealth(index int, net, equity int64) margin.VenueHealth {
	netFree := fixed.FromInt(net)
	eq := fixed.FromInt(equity)
	return margin.VenueHealth{
		Index: index,
		Kind:  venue.KindHealthCache,
		Observation: health.Observation{
			Equity:                    eq,
			FreeCollateral:            netFree.Floor0(),
			NetFreeCollateral:         netFree,
			IsEmpty:                   eq.LessThan(health.DefaultDustThreshold),
			IsRebalanceDepositValid:   netFree.IsNegative(),
			MaxRebalanceDepositAmount: fixed.Zero.SaturatingSub(netFree).Floor0(),
			LiquidationValue:          eq,
		},
	}
}

func accountHealth(initReq, initAdjusted int64, venues ...margin.VenueHealth) margin.Health {
	return margin.Health{
		InitRequirement:    fixed.FromInt(initReq),
		InitAdjustedEquity: fixed.FromInt(initAdjusted),
		Venues:             venues,
	}
}

func TestEvaluateDeposits(t *testing.T) {
	settled := venueHealth(4, 0, 10)
	settled.Observation.IsRebalanceDepositValid = true

	h := accountHealth(0, 100,
		venueHealth(0, -20, 30),
		venueHealth(1, 500, 900),
		venueHealth(2, -1, 5),
		venueHealth(3, -7, 0),
		settled,
	)

	d, err := Evaluate(h, DefaultPolicy())
	require.NoError(t, err)

	require.Len(t, d.Deposits, 3)
	assert.Equal(t, Deposit{VenueIndex: 0, Kind: venue.KindHealthCache, Amount: fixed.FromInt(10)}, d.Deposits[0])
	assert.Equal(t, 2, d.Deposits[1].VenueIndex)
	assert.Equal(t, fixed.MustParse("0.5"), d.Deposits[1].Amount)
	assert.Equal(t, 3, d.Deposits[2].VenueIndex)
	assert.Equal(t, fixed.MustParse("3.5"), d.Deposits[2].Amount)
	assert.Nil(t, d.Withdraw)
	assert.False(t, d.IsNoAction())
}

func TestEvaluateWithdraw(t *testing.T) {
	t.Run("ShortfallAboveTolerance", func(t *testing.T) {
		h := accountHealth(46, 30, venueHealth(0, -20, 30))

		d, err := Evaluate(h, DefaultPolicy())
		require.NoError(t, err)
		require.NotNil(t, d.Withdraw)
		assert.Equal(t, fixed.FromInt(16), d.Withdraw.Amount)
		assert.Equal(t, 0, d.Withdraw.SourceIndex)
	})

	t.Run("ShortfallWithinTolerance", func(t *testing.T) {
		d, err := Evaluate(accountHealth(31, 30, venueHealth(0, 5, 30)), DefaultPolicy())
		require.NoError(t, err)
		assert.Nil(t, d.Withdraw)
		assert.True(t, d.IsNoAction())
	})

	t.Run("NoActiveVenue", func(t *testing.T) {
		d, err := Evaluate(accountHealth(500, 30), DefaultPolicy())
		require.NoError(t, err)
		assert.True(t, d.IsNoAction())
	})

	t.Run("SourcePrefersNonEmptyVenue", func(t *testing.T) {
		h := accountHealth(100, 0,
			venueHealth(0, 50, 0),
			venueHealth(1, 10, 40),
			venueHealth(2, 30, 40),
			venueHealth(3, 30, 90),
		)

		d, err := Evaluate(h, DefaultPolicy())
		require.NoError(t, err)
		require.NotNil(t, d.Withdraw)
		assert.Equal(t, 2, d.Withdraw.SourceIndex)
	})

	t.Run("AllVenuesEmpty", func(t *testing.T) {
		h := accountHealth(100, 0, venueHealth(4, -3, 0), venueHealth(6, 0, 0))

		d, err := Evaluate(h, DefaultPolicy())
		require.NoError(t, err)
		require.NotNil(t, d.Withdraw)
		assert.Equal(t, 6, d.Withdraw.SourceIndex)
	})
}

func TestEvaluateCustomPolicy(t *testing.T) {
	p := Policy{DepositDivisor: 4, WithdrawTolerance: fixed.FromInt(20)}
	h := accountHealth(46, 30, venueHealth(0, -20, 30))

	d, err := Evaluate(h, p)
	require.NoError(t, err)
	require.Len(t, d.Deposits, 1)
	assert.Equal(t, fixed.FromInt(5), d.Deposits[0].Amount)
	assert.Nil(t, d.Withdraw)

	_, err = Evaluate(h, Policy{DepositDivisor: 0, WithdrawTolerance: fixed.One})
	assert.ErrorIs(t, err, health.ErrInvalidWeight)
}

func TestEvaluateAccountDepositAndWithdrawTogether(t *testing.T) {
	// venue: 130 USDC against 10 SOL at 10 with a 1.5 liability weight
	lending := venue.Snapshot{
		Index: 0,
		Kind:  venue.KindHealthCache,
		HealthCache: &healthcache.Snapshot{
			Tokens: []healthcache.TokenPosition{{Deposits: fixed.FromInt(130)}, {Borrows: fixed.FromInt(10)}},
			TokenInfos: []healthcache.TokenInfo{
				{Symbol: "USDC", MaintAssetWeight: fixed.One, InitAssetWeight: fixed.One, MaintLiabWeight: fixed.One, InitLiabWeight: fixed.One},
				{Symbol: "SOL", MaintAssetWeight: fixed.One, InitAssetWeight: fixed.One, MaintLiabWeight: fixed.MustParse("1.5"), InitLiabWeight: fixed.MustParse("1.5")},
			},
			Cache: healthcache.Cache{
				TokenPrices:  []fixed.I80F48{fixed.One, fixed.FromInt(10)},
				DepositIndex: []fixed.I80F48{fixed.One, fixed.One},
				BorrowIndex:  []fixed.I80F48{fixed.One, fixed.One},
			},
		},
	}
	bank := margin.DefaultBank()
	bank.InitMarginRatio = fixed.MustParse("1.25")
	account := &margin.LedgerAccount{
		DepositRecord: fixed.FromInt(50),
		BorrowRecord:  fixed.FromInt(40),
		ActiveVenues:  []venue.Snapshot{lending},
	}

	h, d, err := EvaluateAccount(bank, account, venue.DefaultParams(), DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, fixed.FromInt(30), h.InitAdjustedEquity)
	require.Len(t, d.Deposits, 1)
	assert.Equal(t, fixed.FromInt(10), d.Deposits[0].Amount)
	require.NotNil(t, d.Withdraw)
	// 40 × 1.25 - (50 - 20)
	assert.Equal(t, fixed.FromInt(20), d.Withdraw.Amount)
}

func TestEvaluateAccountPropagatesFailure(t *testing.T) {
	account := &margin.LedgerAccount{
		DepositRecord: fixed.FromInt(50),
		ActiveVenues:  []venue.Snapshot{{Index: 0, Kind: venue.Kind(42)}},
	}

	_, d, err := EvaluateAccount(margin.DefaultBank(), account, venue.DefaultParams(), DefaultPolicy())
	assert.ErrorIs(t, err, health.ErrUnknownVenueKind)
	assert.True(t, d.IsNoAction())
}

func TestEvaluateIsPure(t *testing.T) {
	h := accountHealth(46, 30, venueHealth(0, -20, 30), venueHealth(1, 8, 12))

	first, err := Evaluate(h, DefaultPolicy())
	require.NoError(t, err)
	second, err := Evaluate(h, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
