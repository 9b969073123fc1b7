// Package wei converts between weibar (the unit every inbound Ethereum RPC
// value/gasPrice field is expressed in) and tinybar (the unit the consensus
// and mirror nodes store and charge in). spec.md §3/§4.1/§8 fix the factor at
// 10^10 and require exact, round-up-on-remainder conversion.
package wei

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"
)

// TinybarToWeibarFactor is the fixed conversion factor between the two units
// (1 tinybar == 10^10 weibar), per spec.md §4.1.
var TinybarToWeibarFactor = sdkmath.NewInt(10_000_000_000)

// TotalSupplyTinybars bounds the range of values this gateway will ever need
// to convert; anything beyond it cannot represent a real HBAR balance.
var TotalSupplyTinybars = sdkmath.NewInt(50_000_000_000).MulRaw(100_000_000)

// ToWeibar converts a tinybar amount to weibar. It fails if the tinybar value
// exceeds the total HBAR supply (spec.md §8 invariant 6).
func ToWeibar(tinybar sdkmath.Int) (sdkmath.Int, error) {
	if tinybar.IsNegative() {
		return sdkmath.Int{}, errors.New("tinybar amount must not be negative")
	}
	if tinybar.GT(TotalSupplyTinybars) {
		return sdkmath.Int{}, errors.Errorf("tinybar amount %s exceeds total supply", tinybar)
	}
	return tinybar.Mul(TinybarToWeibarFactor), nil
}

// ToTinybar converts a weibar amount to tinybar, rounding any non-zero
// remainder up to the next whole tinybar (spec.md §8: "0x5" weibar rounds up
// to 1 tinybar).
func ToTinybar(weibar sdkmath.Int) sdkmath.Int {
	if weibar.IsZero() {
		return weibar
	}
	quotient := weibar.Quo(TinybarToWeibarFactor)
	remainder := weibar.Mod(TinybarToWeibarFactor)
	if remainder.IsPositive() {
		quotient = quotient.AddRaw(1)
	}
	return quotient
}

// WeibarHexToTinybar parses a 0x-prefixed hex weibar value and converts it to
// tinybar, per the boundary behaviour in spec.md §8.
func WeibarHexToTinybar(hexValue string) (sdkmath.Int, error) {
	v, ok := new(big.Int).SetString(trimHexPrefix(hexValue), 16)
	if !ok {
		return sdkmath.Int{}, errors.Errorf("not a valid hex value: %s", hexValue)
	}
	return ToTinybar(sdkmath.NewIntFromBigInt(v)), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// BelowMinimumNonZero reports whether a weibar value is the kind of
// "dust-but-not-zero" amount spec.md §4.1/§8 rejects: strictly positive and
// less than one tinybar's worth of weibar (10^10).
func BelowMinimumNonZero(weibar sdkmath.Int) bool {
	return weibar.IsPositive() && weibar.LT(TinybarToWeibarFactor)
}
