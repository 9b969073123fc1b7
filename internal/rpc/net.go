package rpc

import (
	"context"
	"strconv"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
)

// netMethods implements the net_* namespace (spec.md §4 supplemented
// features): trivial, config-derived responses registered through the same
// method registry as every other namespace, the way the teacher registers
// multiple namespaces off one dispatcher (rpc.GetRPCAPIs).
func netMethods(d Dependencies) []rpcserver.Method {
	return []rpcserver.Method{
		{
			Name:      "net_version",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return strconv.FormatUint(d.Config.ChainID, 10), nil
			},
		},
		{
			Name:      "net_listening",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return true, nil
			},
		},
		{
			Name:      "net_peerCount",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				// The gateway has no peer-to-peer network of its own
				// (spec.md §1 non-goals); it always reports zero peers.
				return "0x0", nil
			},
		},
	}
}
