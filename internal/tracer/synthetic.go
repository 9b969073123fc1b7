package tracer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// defaultTxGas is the gas figure a synthetic transaction is reported with:
// it never ran the EVM, so there is no real gas accounting to report
// (spec.md §4.3.4).
const defaultTxGas = "0x61a80" // 400000

// syntheticTransferLog fetches the first log matching txID, the shared
// first step of spec.md §4.3.4's fallback path.
func syntheticTransferLog(ctx context.Context, mirror *mirrornode.Client, txID string) (mirrornode.Log, error) {
	logs, err := mirror.LogsByTransactionHash(ctx, txID)
	if err != nil && !mirrornode.IsNotFound(err) {
		return mirrornode.Log{}, err
	}
	if len(logs) == 0 {
		return mirrornode.Log{}, errors.Wrapf(rpcerr.ErrResourceNotFound, "Failed to retrieve transaction information for %s", txID)
	}
	return logs[0], nil
}

// SyntheticCallTrace implements spec.md §4.3.4's callTracer fallback: a
// standard ERC-20-shaped Transfer event becomes a minimal CALL frame between
// its resolved from/to addresses; anything else collapses to a self-call on
// the log's emitting address.
func SyntheticCallTrace(ctx context.Context, mirror *mirrornode.Client, txID string) (*CallFrame, error) {
	log, err := syntheticTransferLog(ctx, mirror, txID)
	if err != nil {
		return nil, err
	}

	from, to := log.Address, log.Address
	if len(log.Topics) >= 3 {
		from = last20Bytes(log.Topics[1])
		to = last20Bytes(log.Topics[2])
	}

	allowed := []mirrornode.EntityType{mirrornode.EntityContract, mirrornode.EntityToken, mirrornode.EntityAccount}
	from = ResolveAddress(ctx, mirror, from, allowed)
	to = ResolveAddress(ctx, mirror, to, allowed)

	return &CallFrame{
		Type:    "CALL",
		From:    from,
		To:      to,
		Gas:     defaultTxGas,
		GasUsed: "0x0",
		Value:   "0x0",
		Input:   "0x",
		Output:  "0x",
		Calls:   []*CallFrame{},
	}, nil
}

// SyntheticPrestateTrace implements spec.md §4.3.4's prestateTracer
// fallback: an empty result, since a log-only event has no EVM state to
// report.
func SyntheticPrestateTrace(ctx context.Context, mirror *mirrornode.Client, txID string) (PrestateResult, error) {
	if _, err := syntheticTransferLog(ctx, mirror, txID); err != nil {
		return nil, err
	}
	return PrestateResult{}, nil
}

// SyntheticOpcodeTrace implements spec.md §4.3.4's opcodeLogger fallback.
func SyntheticOpcodeTrace(ctx context.Context, mirror *mirrornode.Client, txID string) (*OpcodeTrace, error) {
	if _, err := syntheticTransferLog(ctx, mirror, txID); err != nil {
		return nil, err
	}
	return &OpcodeTrace{Gas: 0, Failed: false, ReturnValue: "", StructLogs: []StructLog{}}, nil
}

// last20Bytes extracts an address from a 32-byte topic, per the standard
// Transfer(address,address,uint256) ABI packing.
func last20Bytes(topic string) string {
	h := common.HexToHash(topic)
	return common.BytesToAddress(h.Bytes()).Hex()
}
