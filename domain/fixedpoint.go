package domain

import (
	"database/sql/driver"
	"fmt"
	"math/bits"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	fixedPointDecimals = 18
	fixedPointBits     = 128
)

// expScale is the number of raw units in one whole FixedPoint unit.
var expScale = uint256.NewInt(1_000_000_000_000_000_000)

// FixedPoint is an unsigned value v / 10^18 with v kept below 2^128.
// Every operation is checked and returns ErrorArithmeticOverflow instead of wrapping.
type FixedPoint struct {
	raw uint256.Int
}

func fixedPointFrom(v *uint256.Int) (FixedPoint, error) {
	if v.BitLen() > fixedPointBits {
		return FixedPoint{}, ErrorArithmeticOverflow
	}
	return FixedPoint{raw: *v}, nil
}

// NewFixedPoint returns the whole number n as a FixedPoint.
func NewFixedPoint(n uint64) FixedPoint {
	var v uint256.Int
	v.Mul(uint256.NewInt(n), expScale)
	return FixedPoint{raw: v}
}

// FixedPointFromRaw interprets raw as a count of 10^-18 units.
func FixedPointFromRaw(raw *uint256.Int) (FixedPoint, error) {
	return fixedPointFrom(raw)
}

// FixedPointFromDecimal parses a decimal count of raw units.
func FixedPointFromDecimal(s string) (FixedPoint, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return FixedPoint{}, err
	}
	return fixedPointFrom(v)
}

// Raw returns a copy of the underlying raw units.
func (f FixedPoint) Raw() *uint256.Int {
	return f.raw.Clone()
}

func (f FixedPoint) IsZero() bool {
	return f.raw.IsZero()
}

func (f FixedPoint) Cmp(o FixedPoint) int {
	return f.raw.Cmp(&o.raw)
}

func (f FixedPoint) Add(o FixedPoint) (FixedPoint, error) {
	var v uint256.Int
	if _, overflow := v.AddOverflow(&f.raw, &o.raw); overflow {
		return FixedPoint{}, ErrorArithmeticOverflow
	}
	return fixedPointFrom(&v)
}

func (f FixedPoint) Sub(o FixedPoint) (FixedPoint, error) {
	var v uint256.Int
	if _, underflow := v.SubOverflow(&f.raw, &o.raw); underflow {
		return FixedPoint{}, ErrorArithmeticOverflow
	}
	return FixedPoint{raw: v}, nil
}

func (f FixedPoint) MulScalar(n uint64) (FixedPoint, error) {
	var v uint256.Int
	if _, overflow := v.MulOverflow(&f.raw, uint256.NewInt(n)); overflow {
		return FixedPoint{}, ErrorArithmeticOverflow
	}
	return fixedPointFrom(&v)
}

func (f FixedPoint) DivScalar(n uint64) (FixedPoint, error) {
	if n == 0 {
		return FixedPoint{}, ErrorArithmeticOverflow
	}
	var v uint256.Int
	v.Div(&f.raw, uint256.NewInt(n))
	return FixedPoint{raw: v}, nil
}

// Truncate drops the fractional part. The whole part must fit 64 bits.
func (f FixedPoint) Truncate() (uint64, error) {
	var v uint256.Int
	v.Div(&f.raw, expScale)
	if !v.IsUint64() {
		return 0, ErrorArithmeticOverflow
	}
	return v.Uint64(), nil
}

// String renders the raw unit count.
func (f FixedPoint) String() string {
	return f.raw.Dec()
}

// Float64 is the nearest float64 and whether it is exact.
func (f FixedPoint) Float64() (float64, bool) {
	return decimal.NewFromBigInt(f.raw.ToBig(), -fixedPointDecimals).Float64()
}

// Decimal renders the value with its 18 fractional digits.
func (f FixedPoint) Decimal() string {
	s := f.raw.Dec()
	if len(s) <= fixedPointDecimals {
		s = strings.Repeat("0", fixedPointDecimals+1-len(s)) + s
	}
	return s[:len(s)-fixedPointDecimals] + "." + s[len(s)-fixedPointDecimals:]
}

func (f FixedPoint) MarshalText() ([]byte, error) {
	return []byte(f.raw.Dec()), nil
}

func (f *FixedPoint) UnmarshalText(text []byte) error {
	v, err := FixedPointFromDecimal(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Value stores the raw unit count in a numeric column.
func (f FixedPoint) Value() (driver.Value, error) {
	return f.raw.Dec(), nil
}

func (f *FixedPoint) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return f.UnmarshalText(v)
	case string:
		return f.UnmarshalText([]byte(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("negative fixed point value %v", v)
		}
		*f = FixedPoint{raw: *uint256.NewInt(uint64(v))}
		return nil
	case nil:
		*f = FixedPoint{}
		return nil
	}
	return fmt.Errorf("unsupported fixed point source %T", src)
}

// mulDiv returns a*b/d computed at full width. The result must fit 64 bits.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrorArithmeticOverflow
	}
	var v uint256.Int
	v.MulDivOverflow(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(d))
	if !v.IsUint64() {
		return 0, ErrorArithmeticOverflow
	}
	return v.Uint64(), nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrorArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrorArithmeticOverflow
	}
	return a - b, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrorArithmeticOverflow
	}
	return lo, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
