// Package txservice implements the transaction submission pipeline of
// spec.md §4.1: parse, precheck, per-sender lock, pool admit, payload
// staging, budget gate, submit, hash reconciliation, and pool removal.
package txservice

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// Envelope is the parsed raw transaction of spec.md §3: type, chain id,
// nonce, gas price/fee fields, gas limit, recipient, value (weibar),
// payload, signature, and the derived sender/hash.
type Envelope struct {
	tx     *ethtypes.Transaction
	Sender common.Address
	Hash   common.Hash
}

// Type returns the EIP-2718 transaction type (0=legacy, 1=2930, 2=1559).
func (e *Envelope) Type() uint8 { return e.tx.Type() }

// ChainID returns the signed chain id, or nil for a pre-EIP-155 legacy tx.
func (e *Envelope) ChainID() *big.Int { return e.tx.ChainId() }

// Nonce returns the sender-reported nonce.
func (e *Envelope) Nonce() uint64 { return e.tx.Nonce() }

// GasLimit returns the transaction's gas limit.
func (e *Envelope) GasLimit() uint64 { return e.tx.Gas() }

// To returns the recipient, or nil for contract creation.
func (e *Envelope) To() *common.Address { return e.tx.To() }

// ValueWeibar returns the transfer value in weibar (the unit every inbound
// Ethereum field is expressed in, per spec.md §3).
func (e *Envelope) ValueWeibar() *big.Int { return e.tx.Value() }

// EffectiveGasPrice returns the price basis used for the precheck/funds
// calculations: GasPrice for legacy/2930, GasFeeCap for 1559 (the worst-case
// price the sender could pay).
func (e *Envelope) EffectiveGasPrice() *big.Int {
	switch e.tx.Type() {
	case ethtypes.DynamicFeeTxType:
		return e.tx.GasFeeCap()
	default:
		return e.tx.GasPrice()
	}
}

// Payload returns the call-data/init-code bytes.
func (e *Envelope) Payload() []byte { return e.tx.Data() }

// RawBytes returns the RLP/EIP-2718 serialized form this envelope decoded
// from, used to compute the locally-derived transaction hash (spec.md
// §4.1's async-mode hash and fallback hash).
func (e *Envelope) RawBytes() ([]byte, error) {
	return e.tx.MarshalBinary()
}

// ParseEnvelope RLP-decodes raw into an Envelope, rejecting type-3 (blob)
// transactions and recovering the sender address from the signature
// (spec.md §4.1 step 1).
func ParseEnvelope(raw []byte) (*Envelope, error) {
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "failed to decode transaction: %v", err)
	}

	if tx.Type() == ethtypes.BlobTxType {
		return nil, rpcerr.ErrUnsupportedTransactionType3
	}

	signer := ethtypes.LatestSignerForChainID(tx.ChainId())
	sender, err := ethtypes.Sender(signer, tx)
	if err != nil {
		return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "failed to recover sender: %v", err)
	}

	return &Envelope{
		tx:     tx,
		Sender: sender,
		Hash:   tx.Hash(),
	}, nil
}
