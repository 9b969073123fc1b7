package tracer

import (
	"context"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

// BuildOpcodeTrace implements spec.md §4.3.1's opcodeLogger branch: opcodes
// are fetched with a query string derived from cfg's memory/stack/storage
// flags, and each field's nullability in the result mirrors that flag.
func BuildOpcodeTrace(ctx context.Context, mirror *mirrornode.Client, txID string, cfg Config) (*OpcodeTrace, error) {
	includeMemory := cfg.EnableMemory
	includeStack := !cfg.DisableStack
	includeStorage := !cfg.DisableStorage

	opcodes, err := mirror.ContractResultOpcodes(ctx, txID, includeMemory, includeStack, includeStorage)
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return SyntheticOpcodeTrace(ctx, mirror, txID)
		}
		return nil, err
	}

	out := &OpcodeTrace{
		Gas:         uint64(opcodes.Gas),
		Failed:      opcodes.Failed,
		ReturnValue: orHex(opcodes.ReturnValue),
		StructLogs:  make([]StructLog, 0, len(opcodes.StructLogs)),
	}
	for _, l := range opcodes.StructLogs {
		out.StructLogs = append(out.StructLogs, structLogFromMirror(l, includeMemory, includeStack, includeStorage))
	}
	return out, nil
}

func structLogFromMirror(l mirrornode.StructLog, includeMemory, includeStack, includeStorage bool) StructLog {
	sl := StructLog{
		PC:      uint64(l.PC),
		Op:      l.Op,
		Gas:     uint64(l.Gas),
		GasCost: uint64(l.GasCost),
		Depth:   int(l.Depth),
	}
	if includeStack {
		stack := l.Stack
		sl.Stack = &stack
	}
	if includeMemory {
		memory := l.Memory
		sl.Memory = &memory
	}
	if includeStorage {
		storage := l.Storage
		sl.Storage = &storage
	}
	if l.Reason != "" {
		reason := l.Reason
		sl.Reason = &reason
	}
	return sl
}
