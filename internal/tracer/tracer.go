package tracer

import (
	"context"

	"github.com/pkg/errors"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/metrics"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// Tracer wires the mirror-node client and shared cache the three trace
// kinds of spec.md §4.3 read from, and dispatches trace_transaction and
// trace_block_by_number.
type Tracer struct {
	logger log.Logger
	mirror *mirrornode.Client
	cache  cache.Cache
}

// New constructs a Tracer.
func New(logger log.Logger, mirror *mirrornode.Client, c cache.Cache) *Tracer {
	return &Tracer{
		logger: logger.With(log.ModuleKey, "tracer"),
		mirror: mirror,
		cache:  c,
	}
}

// TraceTransaction implements spec.md §4.3.1: dispatch on cfg.Tracer
// (OpcodeLogger when unset) to the matching trace builder.
func (t *Tracer) TraceTransaction(ctx context.Context, txID string, cfg Config) (interface{}, error) {
	metrics.TracesBuilt.Inc(1)
	switch cfg.Tracer {
	case CallTracerKind:
		return BuildCallTrace(ctx, t.mirror, txID, cfg)
	case PrestateTracerKind:
		return BuildPrestateTrace(ctx, t.mirror, t.cache, txID, cfg)
	case OpcodeLoggerKind, "":
		return BuildOpcodeTrace(ctx, t.mirror, txID, cfg)
	default:
		return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "unknown tracer %q", cfg.Tracer)
	}
}

// TraceCall traces an unsubmitted call object (debug_traceCall). There is no
// consensus-submitted transaction behind it and no local EVM to run it
// against (spec.md §1 non-goals), so it returns a zeroed trace of the
// requested tracer's shape: a CALL frame with no children, an empty
// prestate map, or an opcode trace with no steps and failed=false.
func (t *Tracer) TraceCall(_ context.Context, cfg Config) (interface{}, error) {
	switch cfg.Tracer {
	case CallTracerKind:
		return &CallFrame{Type: "CALL", Calls: []*CallFrame{}}, nil
	case PrestateTracerKind:
		return PrestateResult{}, nil
	case OpcodeLoggerKind, "":
		return &OpcodeTrace{Gas: 0, Failed: false, ReturnValue: "0x", StructLogs: []StructLog{}}, nil
	default:
		return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "unknown tracer %q", cfg.Tracer)
	}
}
