package rpcserver

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// Params decoding: a JSON-RPC params array decodes into []interface{} with
// encoding/json's generic types (string, float64, bool, nil,
// map[string]interface{}, []interface{}). These helpers give namespace
// handlers typed access to it with a uniform INVALID_ARGUMENTS error on
// mismatch, instead of each handler repeating its own type assertion.

// String returns args[i] as a string.
func String(args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", errors.Wrapf(rpcerr.ErrInvalidArguments, "missing parameter %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter %d must be a string", i)
	}
	return s, nil
}

// OptBool returns args[i] as a bool, or fallback when absent.
func OptBool(args []interface{}, i int, fallback bool) bool {
	if i >= len(args) || args[i] == nil {
		return fallback
	}
	b, ok := args[i].(bool)
	if !ok {
		return fallback
	}
	return b
}

// OptObject returns args[i] as a map, or nil when absent.
func OptObject(args []interface{}, i int) map[string]interface{} {
	if i >= len(args) || args[i] == nil {
		return nil
	}
	m, _ := args[i].(map[string]interface{})
	return m
}

// Address decodes args[i] as a 0x-prefixed 20-byte address.
func Address(args []interface{}, i int) (common.Address, error) {
	s, err := String(args, i)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter %d is not a valid address: %s", i, s)
	}
	return common.HexToAddress(s), nil
}

// BlockRef normalizes a JSON-RPC block-number-or-tag parameter into the
// string ref mirrornode.Client/tracer.Tracer accept: a decimal block
// number, a 0x-hash, or "" for latest/pending/earliest (the mirror node has
// no separate "earliest" concept, so it is treated the same as "latest").
func BlockRef(args []interface{}, i int, fallback string) (string, error) {
	if i >= len(args) || args[i] == nil {
		return fallback, nil
	}
	s, ok := args[i].(string)
	if !ok {
		return "", errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter %d must be a block tag or number", i)
	}
	switch s {
	case "latest", "pending", "earliest", "":
		return "", nil
	}
	if len(s) == 66 && s[:2] == "0x" {
		return s, nil
	}
	n, err := hexutil.DecodeUint64(s)
	if err != nil {
		return "", errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter %d is not a valid block number: %s", i, s)
	}
	return itoa(n), nil
}

// HashParam decodes args[i] as a 32-byte transaction/block hash, returned
// in its original 0x-prefixed hex form (the form mirrornode.Client's
// ContractResult/Block paths consume directly).
func HashParam(args []interface{}, i int) (string, error) {
	s, err := String(args, i)
	if err != nil {
		return "", err
	}
	if len(s) != 66 || s[:2] != "0x" {
		return "", errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter %d is not a valid 32-byte hash: %s", i, s)
	}
	return s, nil
}

// Index decodes args[i] as a hex quantity into an int, for transaction/log
// index lookups.
func Index(args []interface{}, i int) (int, error) {
	s, err := String(args, i)
	if err != nil {
		return 0, err
	}
	n, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter %d is not a valid quantity: %s", i, s)
	}
	return int(n), nil
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
