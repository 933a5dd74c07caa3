// Package fixed implements the signed 80.48 fixed-point number used for every
// monetary and weight quantity in the engine.
//
// All arithmetic is checked: an operation whose exact result does not fit in
// 128 bits returns ErrOverflow instead of wrapping.
package fixed

import (
	"errors"
	"math"
	"math/big"
	"math/bits"

	"github.com/shopspring/decimal"
)

const fracBits = 48

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// I80F48 is a two's complement 128-bit value scaled by 2^48.
// The zero value is 0 and values compare with == bit for bit.
type I80F48 struct {
	hi int64
	lo uint64
}

var (
	Zero = I80F48{}
	One  = FromInt(1)
	Max  = I80F48{hi: math.MaxInt64, lo: math.MaxUint64}
	Min  = I80F48{hi: math.MinInt64, lo: 0}
)

var (
	bigOne   = big.NewInt(1)
	maxRaw   = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 127), bigOne)
	minRaw   = new(big.Int).Neg(new(big.Int).Lsh(bigOne, 127))
	mod128   = new(big.Int).Lsh(bigOne, 128)
	mask64   = new(big.Int).SetUint64(math.MaxUint64)
	pow5Frac = new(big.Int).Exp(big.NewInt(5), big.NewInt(fracBits), nil)
)

// FromInt converts an integer exactly.
func FromInt(v int64) I80F48 {
	return I80F48{hi: v >> (64 - fracBits), lo: uint64(v) << fracBits}
}

// FromUint converts an unsigned integer exactly.
func FromUint(v uint64) I80F48 {
	return I80F48{hi: int64(v >> (64 - fracBits)), lo: v << fracBits}
}

// FromBits builds a value from its raw high and low words.
func FromBits(hi int64, lo uint64) I80F48 {
	return I80F48{hi: hi, lo: lo}
}

// Bits returns the raw high and low words.
func (f I80F48) Bits() (int64, uint64) {
	return f.hi, f.lo
}

// FromRatio returns num/den, truncated toward zero.
func FromRatio(num, den int64) (I80F48, error) {
	return FromInt(num).Div(FromInt(den))
}

// FromDecimal converts d, truncating toward zero below 2^-48.
func FromDecimal(d decimal.Decimal) (I80F48, error) {
	raw := new(big.Int).Lsh(d.Coefficient(), fracBits)
	exp := d.Exponent()
	if exp >= 0 {
		raw.Mul(raw, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	} else {
		raw.Quo(raw, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil))
	}
	return fromBig(raw)
}

// Parse reads a decimal string such as "-12.5".
func Parse(s string) (I80F48, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, err
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) I80F48 {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Pow10 returns 10^n.
func Pow10(n uint8) (I80F48, error) {
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	return fromBig(p.Lsh(p, fracBits))
}

// =====================================================
// checked arithmetic
// =====================================================

// Add returns f+g.
func (f I80F48) Add(g I80F48) (I80F48, error) {
	lo, carry := bits.Add64(f.lo, g.lo, 0)
	hi := f.hi + g.hi + int64(carry)
	if (f.hi < 0) == (g.hi < 0) && (hi < 0) != (f.hi < 0) {
		return Zero, ErrOverflow
	}
	return I80F48{hi: hi, lo: lo}, nil
}

// Sub returns f-g.
func (f I80F48) Sub(g I80F48) (I80F48, error) {
	lo, borrow := bits.Sub64(f.lo, g.lo, 0)
	hi := f.hi - g.hi - int64(borrow)
	if (f.hi < 0) != (g.hi < 0) && (hi < 0) != (f.hi < 0) {
		return Zero, ErrOverflow
	}
	return I80F48{hi: hi, lo: lo}, nil
}

// Mul returns f*g rounded toward negative infinity.
func (f I80F48) Mul(g I80F48) (I80F48, error) {
	if f.IsZero() || g.IsZero() {
		return Zero, nil
	}
	p := new(big.Int).Mul(f.big(), g.big())
	return fromBig(p.Rsh(p, fracBits))
}

// Div returns f/g truncated toward zero.
func (f I80F48) Div(g I80F48) (I80F48, error) {
	if g.IsZero() {
		return Zero, ErrDivisionByZero
	}
	n := f.big()
	n.Lsh(n, fracBits)
	return fromBig(n.Quo(n, g.big()))
}

// Neg returns -f. Min has no negation.
func (f I80F48) Neg() (I80F48, error) {
	return Zero.Sub(f)
}

// Abs returns |f|.
func (f I80F48) Abs() (I80F48, error) {
	if f.IsNegative() {
		return f.Neg()
	}
	return f, nil
}

// SaturatingSub returns f-g clamped to [Min, Max].
func (f I80F48) SaturatingSub(g I80F48) I80F48 {
	d, err := f.Sub(g)
	if err == nil {
		return d
	}
	if f.IsNegative() {
		return Min
	}
	return Max
}

// Floor0 returns max(f, 0).
func (f I80F48) Floor0() I80F48 {
	if f.IsNegative() {
		return Zero
	}
	return f
}

// =====================================================
// comparison
// =====================================================

func (f I80F48) IsZero() bool     { return f.hi == 0 && f.lo == 0 }
func (f I80F48) IsNegative() bool { return f.hi < 0 }
func (f I80F48) IsPositive() bool { return !f.IsNegative() && !f.IsZero() }

// Sign returns -1, 0 or 1.
func (f I80F48) Sign() int {
	switch {
	case f.IsNegative():
		return -1
	case f.IsZero():
		return 0
	default:
		return 1
	}
}

// Cmp returns -1, 0 or 1 as f is less than, equal to or greater than g.
func (f I80F48) Cmp(g I80F48) int {
	switch {
	case f.hi < g.hi:
		return -1
	case f.hi > g.hi:
		return 1
	case f.lo < g.lo:
		return -1
	case f.lo > g.lo:
		return 1
	default:
		return 0
	}
}

func (f I80F48) LessThan(g I80F48) bool           { return f.Cmp(g) < 0 }
func (f I80F48) LessThanOrEqual(g I80F48) bool    { return f.Cmp(g) <= 0 }
func (f I80F48) GreaterThan(g I80F48) bool        { return f.Cmp(g) > 0 }
func (f I80F48) GreaterThanOrEqual(g I80F48) bool { return f.Cmp(g) >= 0 }

// MaxOf returns the larger of a and b.
func MaxOf(a, b I80F48) I80F48 {
	if a.LessThan(b) {
		return b
	}
	return a
}

// MinOf returns the smaller of a and b.
func MinOf(a, b I80F48) I80F48 {
	if b.LessThan(a) {
		return b
	}
	return a
}

// =====================================================
// conversion
// =====================================================

// Decimal returns the exact decimal value of f.
func (f I80F48) Decimal() decimal.Decimal {
	raw := f.big()
	return decimal.NewFromBigInt(raw.Mul(raw, pow5Frac), -fracBits)
}

// String prints the exact value without trailing zeros.
func (f I80F48) String() string {
	return f.Decimal().String()
}

// StringFixed prints f rounded to the given number of places.
func (f I80F48) StringFixed(places int32) string {
	return f.Decimal().StringFixed(places)
}

// Scaled divides by scale for display, e.g. native units to whole tokens.
func (f I80F48) Scaled(scale int64) decimal.Decimal {
	return f.Decimal().Div(decimal.NewFromInt(scale))
}

// InexactFloat64 is for metrics and logs only.
func (f I80F48) InexactFloat64() float64 {
	return f.Decimal().InexactFloat64()
}

func (f I80F48) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *I80F48) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f I80F48) big() *big.Int {
	v := new(big.Int).SetInt64(f.hi)
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(f.lo))
}

func fromBig(v *big.Int) (I80F48, error) {
	if v.Cmp(maxRaw) > 0 || v.Cmp(minRaw) < 0 {
		return Zero, ErrOverflow
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, mod128)
	}
	lo := new(big.Int).And(u, mask64).Uint64()
	hi := u.Rsh(u, 64).Uint64()
	return I80F48{hi: int64(hi), lo: lo}, nil
}
