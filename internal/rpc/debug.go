package rpc

import (
	"context"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/tracer"
)

// debugMethods implements the debug_* namespace (spec.md §4.3), gated on
// Config.DebugAPIEnabled the way the teacher gates its own debug namespace
// registration.
func debugMethods(d Dependencies) []rpcserver.Method {
	return []rpcserver.Method{
		{
			Name:      "debug_traceTransaction",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				hash, err := rpcserver.HashParam(args, 0)
				if err != nil {
					return nil, err
				}
				cfg := parseTracerConfig(rpcserver.OptObject(args, 1))
				return d.Tracer.TraceTransaction(ctx, hash, cfg)
			},
		},
		{
			Name:      "debug_traceBlockByNumber",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.BlockRef(args, 0, "")
				if err != nil {
					return nil, err
				}
				cfg := parseTracerConfig(rpcserver.OptObject(args, 1))
				return d.Tracer.TraceBlockByNumber(ctx, ref, cfg)
			},
		},
		{
			Name:      "debug_traceCall",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				cfg := parseTracerConfig(rpcserver.OptObject(args, 2))
				return d.Tracer.TraceCall(ctx, cfg)
			},
		},
		{
			Name:      "debug_getRawBlock",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.BlockRef(args, 0, "")
				if err != nil {
					return nil, err
				}
				return d.Tracer.GetRawBlock(ctx, ref)
			},
		},
	}
}

// parseTracerConfig reads the go-ethereum-shaped {tracer, tracerConfig}
// object debug_trace* methods take as their second parameter. A nil/absent
// object resolves to opcodeLogger with every flag at its zero value, the
// same default Tracer.TraceTransaction applies.
func parseTracerConfig(obj map[string]interface{}) tracer.Config {
	if obj == nil {
		return tracer.Config{}
	}
	cfg := tracer.Config{}
	if kind, ok := obj["tracer"].(string); ok {
		cfg.Tracer = tracer.Kind(kind)
	}
	nested, _ := obj["tracerConfig"].(map[string]interface{})
	if nested == nil {
		nested = obj
	}
	cfg.OnlyTopCall, _ = nested["onlyTopCall"].(bool)
	cfg.EnableMemory, _ = nested["enableMemory"].(bool)
	cfg.DisableStack, _ = nested["disableStack"].(bool)
	cfg.DisableStorage, _ = nested["disableStorage"].(bool)
	return cfg
}
