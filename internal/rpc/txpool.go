package rpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/txservice"
)

// txpoolMethods implements the txpool_* namespace (spec.md §4 supplemented
// features), gated on Config.TxPoolAPIEnabled. Grounded on the teacher's
// Backend.Content/ContentFrom/Inspect/Status (rpc/backend/tx_pool.go) and
// its pending/queued map-of-maps convention, adapted to key by this
// gateway's own Pool entries rather than a geth legacy pool: every entry
// here is "pending" (submitted or awaiting submission), since the pool has
// no nonce-gap "queued" concept of its own.
func txpoolMethods(d Dependencies) []rpcserver.Method {
	return []rpcserver.Method{
		{
			Name:      "txpool_content",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return map[string]interface{}{
					"pending": groupBySender(d.Pool.All(), pendingTxObject),
					"queued":  map[string]interface{}{},
				}, nil
			},
		},
		{
			Name:      "txpool_contentFrom",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				addr, err := rpcserver.Address(args, 0)
				if err != nil {
					return nil, err
				}
				entries := d.Pool.BySender(addr.Hex())
				return map[string]interface{}{
					"pending": byNonce(entries, pendingTxObject),
					"queued":  map[string]interface{}{},
				}, nil
			},
		},
		{
			Name:      "txpool_inspect",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return map[string]interface{}{
					"pending": groupBySender(d.Pool.All(), pendingTxSummary),
					"queued":  map[string]interface{}{},
				}, nil
			},
		},
		{
			Name:      "txpool_status",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return map[string]interface{}{
					"pending": hexUint64(int64(d.Pool.Len())),
					"queued":  "0x0",
				}, nil
			},
		},
	}
}

func pendingTxObject(e *txservice.PoolEntry) interface{} {
	env := e.Envelope
	var to interface{}
	if env.To() != nil {
		to = env.To().Hex()
	}
	return map[string]interface{}{
		"hash":     env.Hash.Hex(),
		"nonce":    hexUint64(int64(env.Nonce())),
		"from":     env.Sender.Hex(),
		"to":       to,
		"value":    hexutil.EncodeBig(env.ValueWeibar()),
		"gas":      hexUint64(int64(env.GasLimit())),
		"gasPrice": hexutil.EncodeBig(env.EffectiveGasPrice()),
		"input":    hexutil.Encode(env.Payload()),
	}
}

func pendingTxSummary(e *txservice.PoolEntry) interface{} {
	env := e.Envelope
	to := "contract creation"
	if env.To() != nil {
		to = env.To().Hex()
	}
	return fmt.Sprintf("%s: %s wei + %d gas × %s wei", to, env.ValueWeibar(), env.GasLimit(), env.EffectiveGasPrice())
}

func groupBySender(entries []*txservice.PoolEntry, render func(*txservice.PoolEntry) interface{}) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for _, e := range entries {
		sender := e.Envelope.Sender.Hex()
		if out[sender] == nil {
			out[sender] = make(map[string]interface{})
		}
		out[sender][hexUint64(int64(e.Envelope.Nonce()))] = render(e)
	}
	return out
}

func byNonce(entries []*txservice.PoolEntry, render func(*txservice.PoolEntry) interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, e := range entries {
		out[hexUint64(int64(e.Envelope.Nonce()))] = render(e)
	}
	return out
}
