package rpc

import (
	"context"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
)

// blockCacheTTL and receiptCacheTTL follow spec.md §4.7: historical data
// keyed by an immutable hash/number is cached generously; anything that can
// still change (a "latest"/"pending" lookup) is skipped by the policy
// instead of given a shorter TTL.
const (
	blockCacheTTLMillis   = 60_000
	receiptCacheTTLMillis = 60_000
)

func ethMethods(d Dependencies) []rpcserver.Method {
	return []rpcserver.Method{
		{
			Name:      "eth_chainId",
			MinParams: 0,
			Cached:    true,
			Policy:    cache.Policy{TTLMillis: cache.NoExpiry},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return hexUint64(int64(d.Config.ChainID)), nil
			},
		},
		{
			Name:      "eth_blockNumber",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				block, err := d.Mirror.LatestBlock(ctx)
				if err != nil {
					return nil, translateNotFound(err, "latest block")
				}
				return hexUint64(block.Number), nil
			},
		},
		{
			Name:      "eth_getBlockByNumber",
			MinParams: 1,
			Cached:    true,
			Policy:    cache.Policy{TTLMillis: blockCacheTTLMillis, SkipParams: skipBlockTag(0)},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.BlockRef(args, 0, "")
				if err != nil {
					return nil, err
				}
				fullTx := rpcserver.OptBool(args, 1, false)
				return d.getBlock(ctx, ref, fullTx)
			},
		},
		{
			Name:      "eth_getBlockByHash",
			MinParams: 1,
			Cached:    true,
			Policy:    cache.Policy{TTLMillis: blockCacheTTLMillis},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.HashParam(args, 0)
				if err != nil {
					return nil, err
				}
				fullTx := rpcserver.OptBool(args, 1, false)
				return d.getBlock(ctx, ref, fullTx)
			},
		},
		{
			Name:      "eth_getBlockTransactionCountByNumber",
			MinParams: 1,
			Policy:    cache.Policy{TTLMillis: blockCacheTTLMillis, SkipParams: skipBlockTag(0)},
			Cached:    true,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.BlockRef(args, 0, "")
				if err != nil {
					return nil, err
				}
				return d.blockTransactionCount(ctx, ref)
			},
		},
		{
			Name:      "eth_getBlockTransactionCountByHash",
			MinParams: 1,
			Cached:    true,
			Policy:    cache.Policy{TTLMillis: blockCacheTTLMillis},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.HashParam(args, 0)
				if err != nil {
					return nil, err
				}
				return d.blockTransactionCount(ctx, ref)
			},
		},
		{
			Name:      "eth_getTransactionByHash",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				hash, err := rpcserver.HashParam(args, 0)
				if err != nil {
					return nil, err
				}
				cr, err := d.Mirror.ContractResult(ctx, hash)
				if err != nil {
					if mirrornode.IsNotFound(err) {
						return nil, nil
					}
					return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
				}
				return d.buildTransaction(ctx, cr, nil), nil
			},
		},
		{
			Name:      "eth_getTransactionReceipt",
			MinParams: 1,
			Cached:    true,
			Policy:    cache.Policy{TTLMillis: receiptCacheTTLMillis},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				hash, err := rpcserver.HashParam(args, 0)
				if err != nil {
					return nil, err
				}
				return d.getReceipt(ctx, hash)
			},
		},
		{
			Name:      "eth_getTransactionByBlockNumberAndIndex",
			MinParams: 2,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.BlockRef(args, 0, "")
				if err != nil {
					return nil, err
				}
				idx, err := rpcserver.Index(args, 1)
				if err != nil {
					return nil, err
				}
				return d.transactionByBlockAndIndex(ctx, ref, idx)
			},
		},
		{
			Name:      "eth_getTransactionByBlockHashAndIndex",
			MinParams: 2,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				ref, err := rpcserver.HashParam(args, 0)
				if err != nil {
					return nil, err
				}
				idx, err := rpcserver.Index(args, 1)
				if err != nil {
					return nil, err
				}
				return d.transactionByBlockAndIndex(ctx, ref, idx)
			},
		},
		{
			Name:      "eth_getBalance",
			MinParams: 2,
			Policy:    cache.Policy{TTLMillis: 5_000, SkipParams: skipBlockTag(1)},
			Cached:    true,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				addr, err := rpcserver.Address(args, 0)
				if err != nil {
					return nil, err
				}
				account, err := d.Mirror.Account(ctx, addr.Hex())
				if err != nil {
					if mirrornode.IsNotFound(err) {
						return "0x0", nil
					}
					return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
				}
				weibarAmount, werr := weibarFromTinybarInt(account.Balance)
				if werr != nil {
					return "0x0", nil
				}
				return weibarAmount, nil
			},
		},
		{
			Name:      "eth_getTransactionCount",
			MinParams: 2,
			Policy:    cache.Policy{TTLMillis: 5_000, SkipParams: skipBlockTag(1)},
			Cached:    true,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				addr, err := rpcserver.Address(args, 0)
				if err != nil {
					return nil, err
				}
				account, err := d.Mirror.Account(ctx, addr.Hex())
				if err != nil {
					if mirrornode.IsNotFound(err) {
						return "0x0", nil
					}
					return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
				}
				return hexUint64(account.EthereumNonce), nil
			},
		},
		{
			Name:      "eth_getCode",
			MinParams: 2,
			Policy:    cache.Policy{TTLMillis: blockCacheTTLMillis, SkipParams: skipBlockTag(1)},
			Cached:    true,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				addr, err := rpcserver.Address(args, 0)
				if err != nil {
					return nil, err
				}
				entity, err := d.Mirror.Contract(ctx, addr.Hex())
				if err != nil {
					if mirrornode.IsNotFound(err) {
						return "0x", nil
					}
					return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
				}
				if entity.RuntimeBytecode == "" {
					return "0x", nil
				}
				return hexutil.Encode(mustDecodeHex(entity.RuntimeBytecode)), nil
			},
		},
		{
			Name:      "eth_getLogs",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return d.getLogs(ctx, rpcserver.OptObject(args, 0))
			},
		},
		{
			Name:      "eth_gasPrice",
			MinParams: 0,
			Cached:    true,
			Policy:    cache.Policy{TTLMillis: 15_000},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return d.gasPrice(ctx)
			},
		},
		{
			Name:      "eth_accounts",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return []string{}, nil
			},
		},
		{
			Name:      "eth_syncing",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return false, nil
			},
		},
		{
			Name:      "eth_mining",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return false, nil
			},
		},
		{
			Name:      "eth_hashrate",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return "0x0", nil
			},
		},
		{
			Name:      "eth_sendRawTransaction",
			MinParams: 1,
			Validate: func(args []interface{}) error {
				raw, err := rpcserver.String(args, 0)
				if err != nil {
					return err
				}
				if len(raw) < 2 || raw[:2] != "0x" {
					return errors.Wrapf(rpcerr.ErrInvalidArguments, "raw transaction must be 0x-prefixed")
				}
				return nil
			},
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				raw, _ := rpcserver.String(args, 0)
				decoded, err := hexutil.Decode(raw)
				if err != nil {
					return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "failed to decode raw transaction: %v", err)
				}
				hash, err := d.TxService.SendRawTransaction(ctx, decoded, rpcserver.ClientIP(ctx))
				if err != nil {
					return nil, err
				}
				return hash.Hex(), nil
			},
		},
	}
}

func mustDecodeHex(s string) []byte {
	trimmed := s
	if len(trimmed) >= 2 && trimmed[0] == '0' && (trimmed[1] == 'x' || trimmed[1] == 'X') {
		trimmed = trimmed[2:]
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil
	}
	return b
}

func translateNotFound(err error, detail string) error {
	if mirrornode.IsNotFound(err) {
		return errors.Wrapf(rpcerr.ErrResourceNotFound, "%s", detail)
	}
	return errors.Wrap(rpcerr.ErrInternal, err.Error())
}
