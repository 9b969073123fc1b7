package txservice

import (
	"context"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/wei"
)

// PrecheckConfig holds the network parameters every precheck step is
// compared against (spec.md §4.1 step 3, §6).
type PrecheckConfig struct {
	ChainID          *big.Int
	GasLimitCap      uint64
	MinGasPriceWeibar *big.Int
}

// AccountReader is the narrow mirror-node surface the precheck needs —
// just enough to look up a sender's nonce/balance (spec.md §4.1 step 3).
type AccountReader interface {
	Account(ctx context.Context, addr string) (mirrornode.Account, error)
}

// Precheck runs the ordered validation of spec.md §4.1 step 3. Each
// condition is terminal: the first failure short-circuits the rest.
func Precheck(ctx context.Context, mirror AccountReader, cfg PrecheckConfig, env *Envelope) error {
	if env.ChainID() != nil && cfg.ChainID != nil && env.ChainID().Cmp(cfg.ChainID) != 0 {
		return errors.Wrapf(rpcerr.ErrInvalidArguments, "chain id mismatch: expected %s, got %s", cfg.ChainID, env.ChainID())
	}

	if env.GasLimit() > cfg.GasLimitCap {
		return errors.Wrapf(rpcerr.ErrGasLimitTooHigh, "gas limit %d exceeds cap %d", env.GasLimit(), cfg.GasLimitCap)
	}

	value := sdkmath.NewIntFromBigInt(env.ValueWeibar())
	if wei.BelowMinimumNonZero(value) {
		return errors.Wrap(rpcerr.ErrInvalidArguments, rpcerr.ValueTooSmallMsg)
	}

	// Gas price/fee-total arithmetic runs in uint256, the same fixed-width
	// type go-ethereum's mempool/state machinery uses for EVM value math,
	// rather than unbounded math/big: these are wei-scale quantities the
	// EVM itself never lets exceed 256 bits.
	price, overflow := uint256.FromBig(env.EffectiveGasPrice())
	if overflow {
		return errors.Wrap(rpcerr.ErrInvalidArguments, "gas price exceeds uint256 range")
	}
	if cfg.MinGasPriceWeibar != nil {
		minPrice, overflow := uint256.FromBig(cfg.MinGasPriceWeibar)
		if !overflow && price.Cmp(minPrice) < 0 {
			return errors.Wrap(rpcerr.ErrInvalidArguments, rpcerr.ValueTooSmallMsg)
		}
	}

	account, err := mirror.Account(ctx, env.Sender.Hex())
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return errors.Wrap(rpcerr.ErrInsufficientFunds, "sender account does not exist")
		}
		return errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	valueUint, overflow := uint256.FromBig(env.ValueWeibar())
	if overflow {
		return errors.Wrap(rpcerr.ErrInvalidArguments, "value exceeds uint256 range")
	}
	gasCost := new(uint256.Int).Mul(price, new(uint256.Int).SetUint64(env.GasLimit()))
	required := new(uint256.Int).Add(valueUint, gasCost)

	balanceWeibar, err := wei.ToWeibar(sdkmath.NewInt(account.Balance))
	if err != nil {
		return errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	balanceUint, overflow := uint256.FromBig(balanceWeibar.BigInt())
	if overflow {
		return errors.Wrap(rpcerr.ErrInternal, "account balance exceeds uint256 range")
	}
	if balanceUint.Lt(required) {
		return rpcerr.ErrInsufficientFunds
	}

	if env.Nonce() < uint64(account.EthereumNonce) {
		return errors.Wrapf(rpcerr.ErrNonceTooLow, "nonce %d below account nonce %d", env.Nonce(), account.EthereumNonce)
	}

	return nil
}
