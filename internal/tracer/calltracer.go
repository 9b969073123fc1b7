package tracer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

// BuildCallTrace implements spec.md §4.3.1's callTracer branch: actions and
// the contract result are fetched concurrently (the teacher's
// golang.org/x/sync/errgroup idiom for fanning out mirror-node reads), and
// either being absent falls through to the synthetic-transaction path.
func BuildCallTrace(ctx context.Context, mirror *mirrornode.Client, txID string, cfg Config) (*CallFrame, error) {
	var result mirrornode.ContractResult
	var actions []mirrornode.Action

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := mirror.ContractResult(gctx, txID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	g.Go(func() error {
		a, err := mirror.ContractResultActions(gctx, txID)
		if err != nil {
			return err
		}
		actions = a
		return nil
	})

	if err := g.Wait(); err != nil || result.TransactionID == "" || len(actions) == 0 {
		return SyntheticCallTrace(ctx, mirror, txID)
	}

	root := frameFromResult(result)
	if !cfg.OnlyTopCall {
		attachChildren(root, actions[1:])
	}
	return root, nil
}

func frameFromResult(result mirrornode.ContractResult) *CallFrame {
	callType := "CALL"
	if result.To == "" {
		callType = "CREATE"
	}
	frame := &CallFrame{
		Type:    callType,
		From:    result.From,
		To:      result.To,
		Value:   toHexQuantity(result.Value),
		Gas:     hexutil.EncodeUint64(uint64(result.Gas)),
		GasUsed: hexutil.EncodeUint64(uint64(result.GasUsed)),
		Input:   orHex(result.Input),
		Output:  orHex(result.CallResult),
		Calls:   []*CallFrame{},
	}
	if result.Result != "" && result.Result != "SUCCESS" {
		frame.Error = result.Result
		frame.RevertReason = decodeErrorMessage(orHex(result.CallResult))
	}
	return frame
}

// attachChildren rebuilds the action list's flat (call_depth, order) shape
// into the nested call tree callTracer requires, per spec.md §4.3.1. The
// root itself corresponds to actions[0] and is skipped by the caller;
// actions[1:]'s call_depth is always relative to the root's depth of 0.
func attachChildren(root *CallFrame, actions []mirrornode.Action) {
	stack := []*CallFrame{root}
	for _, a := range actions {
		frame := frameFromAction(a)
		parentDepth := int(a.CallDepth) - 1
		if parentDepth < 0 {
			parentDepth = 0
		}
		if parentDepth >= len(stack) {
			parentDepth = len(stack) - 1
		}
		stack = stack[:parentDepth+1]
		parent := stack[len(stack)-1]
		parent.Calls = append(parent.Calls, frame)
		stack = append(stack, frame)
	}
}

func frameFromAction(a mirrornode.Action) *CallFrame {
	return &CallFrame{
		Type:    a.CallType,
		From:    a.From,
		To:      a.To,
		Value:   toHexQuantity(a.Value),
		Gas:     hexutil.EncodeUint64(uint64(a.Gas)),
		GasUsed: hexutil.EncodeUint64(uint64(a.GasUsed)),
		Input:   orHex(a.Input),
		Output:  orHex(a.Output),
		Calls:   []*CallFrame{},
	}
}

func orHex(s string) string {
	if s == "" {
		return "0x"
	}
	return s
}

// toHexQuantity converts a mirror-node decimal-string amount field into a
// 0x-prefixed hex quantity; an already-hex or empty value passes through.
func toHexQuantity(v string) string {
	if v == "" {
		return "0x0"
	}
	if len(v) >= 2 && v[0:2] == "0x" {
		return v
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return "0x0"
	}
	return hexutil.EncodeBig(n)
}
