package fixed

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromInt(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		for _, v := range []int64{0, 1, -1, 42, -1_000_000, math.MaxInt64, math.MinInt64} {
			assert.Equal(t, decimal.NewFromInt(v).String(), FromInt(v).String(), "value %d", v)
		}
	})

	t.Run("Uint", func(t *testing.T) {
		assert.Equal(t, "18446744073709551615", FromUint(math.MaxUint64).String())
		assert.Equal(t, FromInt(7), FromUint(7))
	})

	t.Run("Sign", func(t *testing.T) {
		assert.Equal(t, -1, FromInt(-3).Sign())
		assert.Equal(t, 0, Zero.Sign())
		assert.Equal(t, 1, One.Sign())
		assert.True(t, FromInt(-3).IsNegative())
		assert.True(t, One.IsPositive())
		assert.False(t, Zero.IsPositive())
	})
}

func TestParse(t *testing.T) {
	t.Run("ExactBinaryFractions", func(t *testing.T) {
		assert.Equal(t, "2.5", MustParse("2.5").String())
		assert.Equal(t, "-0.125", MustParse("-0.125").String())
		assert.Equal(t, "1000000", MustParse("1000000").String())
	})

	t.Run("TruncatesTowardZero", func(t *testing.T) {
		tenth := MustParse("0.1")
		assert.True(t, tenth.LessThan(MustParse("0.10000000000001")))
		assert.True(t, tenth.GreaterThan(MustParse("0.09999999999999")))

		negTenth := MustParse("-0.1")
		pos, err := negTenth.Neg()
		require.NoError(t, err)
		assert.Equal(t, tenth, pos)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := Parse("abc")
		assert.Error(t, err)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := Parse("1e30")
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestAddSub(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		sum, err := MustParse("1.5").Add(MustParse("2.25"))
		require.NoError(t, err)
		assert.Equal(t, "3.75", sum.String())

		diff, err := MustParse("1.5").Sub(MustParse("2.25"))
		require.NoError(t, err)
		assert.Equal(t, "-0.75", diff.String())
	})

	t.Run("CarryAcrossWords", func(t *testing.T) {
		a := FromBits(0, math.MaxUint64)
		b := FromBits(0, 1)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, FromBits(1, 0), sum)

		back, err := sum.Sub(b)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	})

	t.Run("Overflow", func(t *testing.T) {
		_, err := Max.Add(One)
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = Min.Sub(One)
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = Min.Neg()
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = Min.Abs()
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("NoFalseOverflow", func(t *testing.T) {
		sum, err := Max.Add(Min)
		require.NoError(t, err)
		assert.Equal(t, FromBits(-1, math.MaxUint64), sum)
	})
}

func TestMulDiv(t *testing.T) {
	t.Run("Mul", func(t *testing.T) {
		p, err := FromInt(500).Mul(MustParse("2"))
		require.NoError(t, err)
		assert.Equal(t, FromInt(1000), p)

		p, err = FromInt(-3).Mul(MustParse("0.5"))
		require.NoError(t, err)
		assert.Equal(t, "-1.5", p.String())
	})

	t.Run("MulRoundsTowardNegativeInfinity", func(t *testing.T) {
		tiny := FromBits(0, 1)
		half := MustParse("0.5")

		p, err := tiny.Mul(half)
		require.NoError(t, err)
		assert.Equal(t, Zero, p)

		negTiny, err := tiny.Neg()
		require.NoError(t, err)
		p, err = negTiny.Mul(half)
		require.NoError(t, err)
		assert.Equal(t, negTiny, p)
	})

	t.Run("Div", func(t *testing.T) {
		q, err := FromInt(7).Div(FromInt(2))
		require.NoError(t, err)
		assert.Equal(t, "3.5", q.String())

		q, err = FromInt(-7).Div(FromInt(2))
		require.NoError(t, err)
		assert.Equal(t, "-3.5", q.String())
	})

	t.Run("DivTruncatesTowardZero", func(t *testing.T) {
		third, err := FromRatio(1, 3)
		require.NoError(t, err)
		negThird, err := FromRatio(-1, 3)
		require.NoError(t, err)

		back, err := negThird.Neg()
		require.NoError(t, err)
		assert.Equal(t, third, back)
	})

	t.Run("DivisionByZero", func(t *testing.T) {
		_, err := One.Div(Zero)
		assert.ErrorIs(t, err, ErrDivisionByZero)

		_, err = FromRatio(1, 0)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("MulOverflow", func(t *testing.T) {
		_, err := Max.Mul(MustParse("1.1"))
		assert.ErrorIs(t, err, ErrOverflow)

		_, err = FromInt(math.MaxInt64).Mul(FromInt(math.MaxInt64))
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("DivOverflow", func(t *testing.T) {
		_, err := Max.Div(MustParse("0.5"))
		assert.ErrorIs(t, err, ErrOverflow)
	})
}

func TestPow10(t *testing.T) {
	p, err := Pow10(6)
	require.NoError(t, err)
	assert.Equal(t, FromInt(1_000_000), p)

	p, err = Pow10(0)
	require.NoError(t, err)
	assert.Equal(t, One, p)

	_, err = Pow10(24)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestOrdering(t *testing.T) {
	a, b := MustParse("-1.5"), MustParse("2")

	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
	assert.True(t, Min.LessThan(Max))
	assert.True(t, a.LessThanOrEqual(a))
	assert.True(t, b.GreaterThanOrEqual(a))

	assert.Equal(t, b, MaxOf(a, b))
	assert.Equal(t, a, MinOf(a, b))
	assert.Equal(t, Zero, a.Floor0())
	assert.Equal(t, b, b.Floor0())
}

func TestSaturatingSub(t *testing.T) {
	assert.Equal(t, Max, Max.SaturatingSub(FromInt(-1)))
	assert.Equal(t, Min, Min.SaturatingSub(One))
	assert.Equal(t, FromInt(1), FromInt(3).SaturatingSub(FromInt(2)))
}

func TestText(t *testing.T) {
	var f I80F48
	require.NoError(t, f.UnmarshalText([]byte("12.75")))
	assert.Equal(t, "12.75", f.String())

	out, err := f.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "12.75", string(out))

	assert.Error(t, f.UnmarshalText([]byte("twelve")))
	assert.Equal(t, "12.75", f.String())
}

func TestDisplay(t *testing.T) {
	f := FromInt(1_234_567)
	assert.Equal(t, "1.234567", f.Scaled(1_000_000).String())
	assert.Equal(t, "1234567.00", f.StringFixed(2))
	assert.InDelta(t, 1234567.0, f.InexactFloat64(), 1e-9)
}
