package tracer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

// syntheticBeneficiary is the fixed coinbase address spec.md §4.3.3 assigns
// every reconstructed block, since the mirror node's backend has no
// block-proposer concept to report.
var syntheticBeneficiary = common.HexToAddress("0x0000000000000000000000000000000000000321")

// rlpBlock mirrors go-ethereum's own (unexported) block RLP envelope —
// header, transactions, uncles, withdrawals — so GetRawBlock produces the
// same wire shape as a real Ethereum full-block encoding.
type rlpBlock struct {
	Header       *gethtypes.Header
	Transactions []*gethtypes.Transaction
	Uncles       []*gethtypes.Header
	Withdrawals  []*gethtypes.Withdrawal `rlp:"optional"`
}

// GetRawBlock implements spec.md §4.3.3: resolve the block, reconstruct an
// Ethereum header plus every contract result in it as an EIP-2718-encoded
// transaction, and RLP-encode the whole thing. Absent blocks return the
// literal string "0x".
func (t *Tracer) GetRawBlock(ctx context.Context, blockRef string) (string, error) {
	block, err := t.resolveBlock(ctx, blockRef)
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return "0x", nil
		}
		return "", err
	}

	results, err := t.mirror.ContractResultsInRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil {
		return "", err
	}

	txs := make([]*gethtypes.Transaction, 0, len(results))
	for _, r := range results {
		tx, err := transactionFromResult(r)
		if err != nil {
			continue
		}
		txs = append(txs, tx)
	}

	header := &gethtypes.Header{
		ParentHash:      common.HexToHash(block.PreviousHash),
		UncleHash:       gethtypes.EmptyUncleHash,
		Coinbase:        syntheticBeneficiary,
		Root:            common.Hash{},
		TxHash:          common.Hash{},
		ReceiptHash:     common.Hash{},
		Bloom:           gethtypes.Bloom{},
		Difficulty:      big.NewInt(0),
		Number:          big.NewInt(block.Number),
		GasLimit:        uint64(block.GasUsed),
		GasUsed:         uint64(block.GasUsed),
		Time:            timestampToUnix(block.Timestamp.From),
		Extra:           []byte{},
		MixDigest:       common.Hash{}, // prevRandao = 0
		Nonce:           gethtypes.BlockNonce{},
		BaseFee:         big.NewInt(0), // must be non-nil: WithdrawalsHash is a later optional RLP field
		WithdrawalsHash: &common.Hash{}, // withdrawalsRoot = 32 zero bytes
	}

	encoded, err := rlp.EncodeToBytes(&rlpBlock{
		Header:       header,
		Transactions: txs,
		Uncles:       []*gethtypes.Header{},
		Withdrawals:  []*gethtypes.Withdrawal{},
	})
	if err != nil {
		return "", errors.Wrap(err, "rlp-encoding raw block")
	}
	return hexutil.Encode(encoded), nil
}

// timestampToUnix truncates a mirror-node "seconds.nanos" consensus
// timestamp down to whole seconds for the header's Time field.
func timestampToUnix(ts string) uint64 {
	if ts == "" {
		return 0
	}
	seconds := ts
	if i := indexOfDot(ts); i >= 0 {
		seconds = ts[:i]
	}
	n, ok := new(big.Int).SetString(seconds, 10)
	if !ok {
		return 0
	}
	return n.Uint64()
}

func indexOfDot(s string) int {
	for i, c := range s {
		if c == '.' {
			return i
		}
	}
	return -1
}

// transactionFromResult rebuilds the EIP-2718 envelope for one mirror-node
// contract result. The mirror node's own signature fields (nonce, type,
// chain_id, gas_price/fee-cap fields, v/r/s) are carried straight through;
// a result missing them (pre-dating their addition to the API) yields an
// error so the caller can skip it rather than emit a malformed transaction.
func transactionFromResult(r mirrornode.ContractResult) (*gethtypes.Transaction, error) {
	if r.R == "" || r.S == "" {
		return nil, errors.New("contract result has no signature")
	}
	var to *common.Address
	if r.To != "" {
		addr := common.HexToAddress(r.To)
		to = &addr
	}
	value := decimalOrHexToBig(r.Value)
	input, err := hexutil.Decode(orHex(r.Input))
	if err != nil {
		return nil, errors.Wrap(err, "decoding input")
	}
	v := big.NewInt(r.V)
	rr := decimalOrHexToBig(r.R)
	s := decimalOrHexToBig(r.S)

	switch r.Type {
	case 2:
		tx := gethtypes.NewTx(&gethtypes.DynamicFeeTx{
			ChainID:   decimalOrHexToBig(r.ChainID),
			Nonce:     uint64(r.Nonce),
			GasTipCap: decimalOrHexToBig(r.MaxPriorityFeePerGas),
			GasFeeCap: decimalOrHexToBig(r.MaxFeePerGas),
			Gas:       uint64(r.Gas),
			To:        to,
			Value:     value,
			Data:      input,
			V:         v,
			R:         rr,
			S:         s,
		})
		return tx, nil
	case 1:
		tx := gethtypes.NewTx(&gethtypes.AccessListTx{
			ChainID:  decimalOrHexToBig(r.ChainID),
			Nonce:    uint64(r.Nonce),
			GasPrice: decimalOrHexToBig(r.GasPrice),
			Gas:      uint64(r.Gas),
			To:       to,
			Value:    value,
			Data:     input,
			V:        v,
			R:        rr,
			S:        s,
		})
		return tx, nil
	default:
		tx := gethtypes.NewTx(&gethtypes.LegacyTx{
			Nonce:    uint64(r.Nonce),
			GasPrice: decimalOrHexToBig(r.GasPrice),
			Gas:      uint64(r.Gas),
			To:       to,
			Value:    value,
			Data:     input,
			V:        v,
			R:        rr,
			S:        s,
		})
		return tx, nil
	}
}

func decimalOrHexToBig(v string) *big.Int {
	if v == "" {
		return big.NewInt(0)
	}
	if len(v) >= 2 && v[0:2] == "0x" {
		n, err := hexutil.DecodeBig(v)
		if err != nil {
			return big.NewInt(0)
		}
		return n
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}
