package rpc

import (
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/wei"
)

// hexUint64 renders n as a 0x-prefixed quantity.
func hexUint64(n int64) string {
	if n < 0 {
		n = 0
	}
	return hexutil.Uint64(n).String()
}

// nullableHexUint64 renders n as a quantity, or nil when unknown is true —
// the shape go-ethereum's JSON encoding expects for e.g. a pending
// transaction's blockNumber.
func nullableHexUint64(n int64, unknown bool) interface{} {
	if unknown {
		return nil
	}
	return hexUint64(n)
}

// weibarHex converts a mirror-node tinybar decimal string (the unit
// contracts/results' "amount" field is expressed in) into a 0x-prefixed
// weibar quantity, per spec.md §4.1's fixed 10^10 conversion factor.
func weibarHex(tinybarDecimal string) string {
	if tinybarDecimal == "" {
		return "0x0"
	}
	tinybar, ok := sdkmath.NewIntFromString(tinybarDecimal)
	if !ok {
		return "0x0"
	}
	weibarAmount, err := wei.ToWeibar(tinybar)
	if err != nil {
		return "0x0"
	}
	return hexutil.EncodeBig(weibarAmount.BigInt())
}

// timestampToUnixSeconds truncates a mirror-node "seconds.nanos" consensus
// timestamp down to whole seconds, for block/transaction "timestamp"
// fields.
func timestampToUnixSeconds(ts string) int64 {
	if ts == "" {
		return 0
	}
	seconds := ts
	for i, c := range ts {
		if c == '.' {
			seconds = ts[:i]
			break
		}
	}
	n, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// weibarFromTinybarInt converts an int64 tinybar balance (mirror node
// account balances are always non-negative) into a 0x-prefixed weibar
// quantity.
func weibarFromTinybarInt(tinybar int64) (string, error) {
	weibarAmount, err := wei.ToWeibar(sdkmath.NewInt(tinybar))
	if err != nil {
		return "", err
	}
	return hexutil.EncodeBig(weibarAmount.BigInt()), nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
