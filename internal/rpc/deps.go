// Package rpc registers the eth_*/net_*/web3_*/debug_*/txpool_* namespace
// methods (spec.md §6) against an rpcserver.Registry, grounded on the
// method shapes rpc/backend/blocks.go, tx_info.go, and tx_pool.go exposed
// in the teacher before those Cosmos-specific translations were replaced.
package rpc

import (
	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/config"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/tracer"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/txservice"
)

// ClientVersion is the string returned by web3_clientVersion.
const ClientVersion = "hiero-json-rpc-relay-go/v1"

// Dependencies are the collaborators every namespace's handlers read from;
// a single struct threaded through registration rather than a handful of
// same-shaped constructor arguments per namespace file.
type Dependencies struct {
	Logger    log.Logger
	Config    *config.Config
	Cache     cache.Cache
	Mirror    *mirrornode.Client
	Tracer    *tracer.Tracer
	TxService *txservice.Service
	Pool      *txservice.Pool
}

// Register wires every namespace's methods into reg. debug_* is only
// registered when Config.DebugAPIEnabled; txpool_* only when
// Config.TxPoolAPIEnabled — matching the teacher's own api_enabled gating
// in rpc.GetRPCAPIs.
func Register(reg *rpcserver.Registry, deps Dependencies) {
	reg.RegisterAll(ethMethods(deps))
	reg.RegisterAll(netMethods(deps))
	reg.RegisterAll(web3Methods(deps))
	if deps.Config.DebugAPIEnabled {
		reg.RegisterAll(debugMethods(deps))
	}
	if deps.Config.TxPoolAPIEnabled {
		reg.RegisterAll(txpoolMethods(deps))
	}
}

// skipBlockTag builds the cache.Policy skip rules for a method whose block
// reference argument sits at index i and is a bare string ("latest",
// "pending", or "" which resolves to the latest block) rather than a named
// object field — the common
// case across eth_get*ByNumber methods (spec.md §4.7's "never cache a
// moving tag" rule).
func skipBlockTag(i int) []cache.SkipParam {
	return []cache.SkipParam{
		{Index: i, Value: "latest"},
		{Index: i, Value: "pending"},
		{Index: i, Value: ""},
	}
}
