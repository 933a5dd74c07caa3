package health

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/collateral_engine/internal/fixed"
)

type stubObservable struct {
	equity, net, req fixed.I80F48
	failOn           string
}

func (s stubObservable) fail(op string) error {
	if s.failOn == op {
		return Wrap("stub", op, ErrInvalidWeight)
	}
	return nil
}

func (s stubObservable) FreeCollateral() (fixed.I80F48, error) {
	return s.net.Floor0(), s.fail("free_collateral")
}
func (s stubObservable) NetFreeCollateral() (fixed.I80F48, error) {
	return s.net, s.fail("net_free_collateral")
}
func (s stubObservable) Equity() (fixed.I80F48, error) { return s.equity, s.fail("equity") }
func (s stubObservable) InitMarginRequirement() (fixed.I80F48, error) {
	return s.req, s.fail("init_margin_requirement")
}
func (s stubObservable) IsEmpty() (bool, error) {
	return s.equity.LessThan(DefaultDustThreshold), s.fail("is_empty")
}
func (s stubObservable) IsRebalanceDepositValid() (bool, error) {
	return s.net.IsNegative(), s.fail("is_rebalance_deposit_valid")
}
func (s stubObservable) MaxRebalanceDepositAmount() (fixed.I80F48, error) {
	return fixed.Zero.SaturatingSub(s.net).Floor0(), s.fail("max_rebalance_deposit_amount")
}
func (s stubObservable) LiquidationValue() (fixed.I80F48, error) {
	return s.equity, s.fail("liquidation_value")
}

func TestObserve(t *testing.T) {
	stub := stubObservable{equity: fixed.FromInt(30), net: fixed.FromInt(-20), req: fixed.FromInt(50)}

	obs, err := Observe(stub)
	require.NoError(t, err)
	assert.Equal(t, fixed.FromInt(30), obs.Equity)
	assert.Equal(t, fixed.Zero, obs.FreeCollateral)
	assert.Equal(t, fixed.FromInt(-20), obs.NetFreeCollateral)
	assert.Equal(t, fixed.FromInt(50), obs.InitMarginRequirement)
	assert.False(t, obs.IsEmpty)
	assert.True(t, obs.IsRebalanceDepositValid)
	assert.Equal(t, fixed.FromInt(20), obs.MaxRebalanceDepositAmount)
	assert.Equal(t, fixed.FromInt(30), obs.LiquidationValue)
}

func TestObserveStopsAtFirstFailure(t *testing.T) {
	for _, op := range []string{"equity", "is_empty", "liquidation_value"} {
		t.Run(op, func(t *testing.T) {
			obs, err := Observe(stubObservable{failOn: op})
			assert.ErrorIs(t, err, ErrInvalidWeight)
			assert.Equal(t, Observation{}, obs)
		})
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("perpbook", "equity", nil))

	err := Wrap("perpbook", "equity", ErrArithmeticOverflow)
	assert.EqualError(t, err, "perpbook equity: arithmetic overflow")
	assert.ErrorIs(t, err, fixed.ErrOverflow)

	// the innermost annotation wins
	again := Wrap("account", "aggregate", err)
	assert.Same(t, err, again)

	var ce *ComputationError
	require.True(t, errors.As(fmt.Errorf("cycle: %w", again), &ce))
	assert.Equal(t, "perpbook", ce.Venue)
}

func TestIsComputationFailure(t *testing.T) {
	assert.True(t, IsComputationFailure(Inconsistent("slot %d", 4)))
	assert.True(t, IsComputationFailure(Wrap("healthcache", "equity", ErrDivisionByZero)))
	assert.True(t, IsComputationFailure(fmt.Errorf("venue 2: %w", ErrUnknownVenueKind)))
	assert.False(t, IsComputationFailure(io.EOF))
	assert.False(t, IsComputationFailure(nil))
}

func TestMarginFractionKind(t *testing.T) {
	assert.Equal(t, "open_equity", OpenEquity.String())
	assert.Equal(t, "unknown", MarginFractionKind(99).String())
	assert.False(t, MarginFractionKind(99).Valid())
	assert.True(t, ContinuousReq.Valid())

	assert.True(t, InitReq.IsRequirement())
	assert.True(t, MaintReq.IsRequirement())
	assert.True(t, ContinuousReq.IsRequirement())
	assert.False(t, Equity.IsRequirement())
	assert.False(t, OpenEquity.IsRequirement())
}
