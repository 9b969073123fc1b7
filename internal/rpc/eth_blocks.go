package rpc

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// getBlock implements the shared body of eth_getBlockByNumber/ByHash,
// grounded on the teacher's Backend.GetBlockByNumber/GetBlockByHash
// (rpc/backend/blocks.go): resolve the block, pull every contract result
// in its timestamp window, and render transactions as hashes or full
// objects depending on fullTx.
func (d Dependencies) getBlock(ctx context.Context, ref string, fullTx bool) (interface{}, error) {
	block, err := d.resolveBlock(ctx, ref)
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	results, err := d.Mirror.ContractResultsInRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	txs := make([]interface{}, 0, len(results))
	for i, r := range results {
		idx := i
		if fullTx {
			txs = append(txs, d.buildTransaction(ctx, r, &idx))
		} else {
			txs = append(txs, r.Hash)
		}
	}

	return map[string]interface{}{
		"number":           hexUint64(block.Number),
		"hash":             block.Hash,
		"parentHash":       block.PreviousHash,
		"nonce":            "0x0000000000000000",
		"sha3Uncles":       emptyUnclesHash,
		"logsBloom":        emptyBloom,
		"transactionsRoot": common.Hash{}.Hex(),
		"stateRoot":        common.Hash{}.Hex(),
		"receiptsRoot":     common.Hash{}.Hex(),
		"miner":            syntheticBeneficiaryHex,
		"difficulty":       "0x0",
		"totalDifficulty":  "0x0",
		"extraData":        "0x",
		"size":             "0x0",
		"gasLimit":         hexUint64(block.GasUsed),
		"gasUsed":          hexUint64(block.GasUsed),
		"timestamp":        hexUint64(timestampToUnixSeconds(block.Timestamp.From)),
		"transactions":     txs,
		"uncles":           []string{},
	}, nil
}

// blockTransactionCount implements eth_getBlockTransactionCountByNumber/
// ByHash, grounded on Backend.GetBlockTransactionCountByHash/Number.
func (d Dependencies) blockTransactionCount(ctx context.Context, ref string) (interface{}, error) {
	block, err := d.resolveBlock(ctx, ref)
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	results, err := d.Mirror.ContractResultsInRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	return hexUint64(int64(len(results))), nil
}

// transactionByBlockAndIndex implements eth_getTransactionByBlock{Hash,
// Number}AndIndex, grounded on Backend.GetTransactionByBlockHashAndIndex/
// GetTransactionByBlockNumberAndIndex.
func (d Dependencies) transactionByBlockAndIndex(ctx context.Context, ref string, index int) (interface{}, error) {
	block, err := d.resolveBlock(ctx, ref)
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	results, err := d.Mirror.ContractResultsInRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	if index < 0 || index >= len(results) {
		return nil, nil
	}
	return d.buildTransaction(ctx, results[index], &index), nil
}

// getReceipt implements eth_getTransactionReceipt, grounded on
// Backend.GetTransactionReceipt/GetTransactionLogs.
func (d Dependencies) getReceipt(ctx context.Context, hash string) (interface{}, error) {
	cr, err := d.Mirror.ContractResult(ctx, hash)
	if err != nil {
		if mirrornode.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	logs, err := d.Mirror.LogsByTransactionHash(ctx, hash)
	if err != nil && !mirrornode.IsNotFound(err) {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	status := "0x1"
	if cr.Result != "SUCCESS" {
		status = "0x0"
	}

	logsOut := make([]map[string]interface{}, 0, len(logs))
	for i, l := range logs {
		logsOut = append(logsOut, map[string]interface{}{
			"address":          l.Address,
			"topics":           l.Topics,
			"data":             l.Data,
			"transactionHash":  l.TxHash,
			"blockNumber":      hexUint64(cr.BlockNumber),
			"logIndex":         hexUint64(int64(i)),
			"transactionIndex": "0x0",
			"removed":          false,
		})
	}

	return map[string]interface{}{
		"transactionHash":   cr.Hash,
		"transactionIndex":  "0x0",
		"blockHash":         "",
		"blockNumber":       hexUint64(cr.BlockNumber),
		"from":              cr.From,
		"to":                nilIfEmpty(cr.To),
		"cumulativeGasUsed": hexUint64(cr.GasUsed),
		"gasUsed":           hexUint64(cr.GasUsed),
		"contractAddress":   contractAddressFor(cr),
		"logs":              logsOut,
		"logsBloom":         emptyBloom,
		"status":            status,
		"type":              hexUint64(cr.Type),
	}, nil
}

// getLogs implements eth_getLogs over a best-effort subset of the standard
// filter object: {fromBlock, toBlock, address} with a block range
// resolved against the mirror node and a single address matched
// client-side (the mirror node's logs endpoint itself only filters by
// transaction hash or consensus-timestamp range, per spec.md §6). The
// filter's topics field is not applied: logs are returned whatever their
// topics.
func (d Dependencies) getLogs(ctx context.Context, filter map[string]interface{}) (interface{}, error) {
	fromRef, _ := filter["fromBlock"].(string)
	toRef, _ := filter["toBlock"].(string)

	fromBlock, err := d.resolveBlock(ctx, refOrLatest(fromRef))
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	toBlock, err := d.resolveBlock(ctx, refOrLatest(toRef))
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	logs, err := d.Mirror.LogsInRange(ctx, fromBlock.Timestamp.From, toBlock.Timestamp.To)
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}

	address, _ := filter["address"].(string)
	address = strings.ToLower(address)

	out := make([]map[string]interface{}, 0, len(logs))
	for i, l := range logs {
		if address != "" && strings.ToLower(l.Address) != address {
			continue
		}
		out = append(out, map[string]interface{}{
			"address":          l.Address,
			"topics":           l.Topics,
			"data":             l.Data,
			"transactionHash":  l.TxHash,
			"logIndex":         hexUint64(int64(i)),
			"transactionIndex": "0x0",
			"removed":          false,
		})
	}
	return out, nil
}

// gasPrice implements eth_gasPrice, reading the consensus node's current
// gas price in tinybars off network/fees (spec.md §6) and converting it to
// weibar.
func (d Dependencies) gasPrice(ctx context.Context) (interface{}, error) {
	body, err := d.Mirror.NetworkFees(ctx)
	if err != nil {
		return nil, errors.Wrap(rpcerr.ErrInternal, err.Error())
	}
	fees := gjson.GetBytes(body, "fees")
	for _, f := range fees.Array() {
		if f.Get("transaction_type").String() == "EthereumTransaction" {
			return weibarHex(f.Get("gas").String()), nil
		}
	}
	return "0x0", nil
}

func (d Dependencies) resolveBlock(ctx context.Context, ref string) (mirrornode.Block, error) {
	if ref == "" {
		return d.Mirror.LatestBlock(ctx)
	}
	return d.Mirror.Block(ctx, ref)
}

func refOrLatest(s string) string {
	switch s {
	case "", "latest", "pending", "earliest":
		return ""
	}
	return s
}

// buildTransaction renders one contract result as an eth_getTransaction*
// result object, grounded on Backend.convertToRPCTransaction
// (rpc/backend/tx_pool.go). index is the transaction's position within its
// block, nil when unknown (e.g. looked up directly by hash).
func (d Dependencies) buildTransaction(ctx context.Context, cr mirrornode.ContractResult, index *int) map[string]interface{} {
	var blockHash interface{}
	if block, err := d.Mirror.Block(ctx, strconv.FormatInt(cr.BlockNumber, 10)); err == nil {
		blockHash = block.Hash
	}

	txIndex := interface{}(nil)
	if index != nil {
		txIndex = hexUint64(int64(*index))
	}

	return map[string]interface{}{
		"hash":                 cr.Hash,
		"nonce":                hexUint64(cr.Nonce),
		"blockHash":            blockHash,
		"blockNumber":          hexUint64(cr.BlockNumber),
		"transactionIndex":     txIndex,
		"from":                 cr.From,
		"to":                   nilIfEmpty(cr.To),
		"value":                weibarHex(cr.Value),
		"gas":                  hexUint64(cr.Gas),
		"gasPrice":             weibarHex(cr.GasPrice),
		"maxFeePerGas":         weibarHex(cr.MaxFeePerGas),
		"maxPriorityFeePerGas": weibarHex(cr.MaxPriorityFeePerGas),
		"input":                cr.Input,
		"type":                 hexUint64(cr.Type),
		"chainId":              nilIfEmpty(cr.ChainID),
		"v":                    hexUint64(cr.V),
		"r":                    nilIfEmpty(cr.R),
		"s":                    nilIfEmpty(cr.S),
	}
}

func contractAddressFor(cr mirrornode.ContractResult) interface{} {
	if cr.To == "" {
		return cr.From
	}
	return nil
}

const (
	emptyUnclesHash         = "0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347"
	emptyBloom              = "0x" + "00000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"
	syntheticBeneficiaryHex = "0x0000000000000000000000000000000000000321"
)
