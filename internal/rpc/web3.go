package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
)

// web3Methods implements the web3_* namespace (spec.md §4 supplemented
// features).
func web3Methods(d Dependencies) []rpcserver.Method {
	return []rpcserver.Method{
		{
			Name:      "web3_clientVersion",
			MinParams: 0,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				return ClientVersion, nil
			},
		},
		{
			Name:      "web3_sha3",
			MinParams: 1,
			Handler: func(ctx context.Context, args []interface{}) (interface{}, error) {
				raw, err := rpcserver.String(args, 0)
				if err != nil {
					return nil, err
				}
				decoded, err := hexutil.Decode(raw)
				if err != nil {
					return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "parameter 0 must be 0x-prefixed hex data: %v", err)
				}
				return hexutil.Encode(crypto.Keccak256(decoded)), nil
			},
		},
	}
}
