package util

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// TokenString renders a native amount in whole tokens with the given decimals.
func TokenString(native uint64, decimals int32) string {
	amount := decimal.NewFromBigInt(new(big.Int).SetUint64(native), -decimals)
	whole := amount.Truncate(0)
	text := humanize.BigComma(whole.BigInt())
	if fraction := amount.Sub(whole); !fraction.IsZero() {
		text += strings.TrimPrefix(fraction.String(), "0")
	}
	return fmt.Sprintf("%v Token", text)
}

// NativeString renders a native amount with thousands separators.
func NativeString(native uint64) string {
	return fmt.Sprintf("%v Native", humanize.BigComma(new(big.Int).SetUint64(native)))
}

// ParseTokenAmount converts a decimal token amount into native units.
// Digits beyond the token decimals are rejected.
func ParseTokenAmount(s string, decimals int32) (uint64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount '%v'", s)
	}
	native := amount.Shift(decimals)
	if !native.Equal(native.Truncate(0)) {
		return 0, fmt.Errorf("amount '%v' has more than %v decimals", s, decimals)
	}
	value := native.BigInt()
	if !value.IsUint64() {
		return 0, fmt.Errorf("amount '%v' is too large", s)
	}
	return value.Uint64(), nil
}
