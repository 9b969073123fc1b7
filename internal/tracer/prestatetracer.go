package tracer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

const prestateTracerCollection = "PRESTATE_TRACER"

// BuildPrestateTrace implements spec.md §4.3.1's prestateTracer branch: the
// result is cached per (tx_id, only_top_call), actions are fetched once to
// discover the distinct addresses involved, and each is resolved to a
// {balance, nonce, code, storage} entry depending on whether the mirror node
// reports it as a contract or a plain account.
func BuildPrestateTrace(ctx context.Context, mirror *mirrornode.Client, c cache.Cache, txID string, cfg Config) (PrestateResult, error) {
	key := cache.Key(prestateTracerCollection, txID, fmt.Sprintf("%t", cfg.OnlyTopCall))
	if cached, ok := c.Get(key, "tracer"); ok {
		var result PrestateResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result, nil
		}
	}

	actions, err := mirror.ContractResultActions(ctx, txID)
	if err != nil || len(actions) == 0 {
		return SyntheticPrestateTrace(ctx, mirror, txID)
	}
	if cfg.OnlyTopCall {
		filtered := actions[:0:0]
		for _, a := range actions {
			if a.CallDepth == 0 {
				filtered = append(filtered, a)
			}
		}
		actions = filtered
	}

	type addressRef struct {
		timestamp string
	}
	addresses := make(map[string]addressRef)
	for _, a := range actions {
		if a.From != "" {
			addresses[a.From] = addressRef{timestamp: a.Timestamp}
		}
		if a.To != "" {
			addresses[a.To] = addressRef{timestamp: a.Timestamp}
		}
	}

	result := make(PrestateResult, len(addresses))
	for addr, ref := range addresses {
		state, err := prestateForAddress(ctx, mirror, addr, ref.timestamp)
		if err != nil {
			continue
		}
		result[addr] = state
	}

	if encoded, err := json.Marshal(result); err == nil {
		_ = c.Set(key, string(encoded), "tracer", cache.NoExpiry)
	}
	return result, nil
}

func prestateForAddress(ctx context.Context, mirror *mirrornode.Client, addr, timestamp string) (AccountState, error) {
	entity, err := mirror.Contract(ctx, addr)
	if err == nil {
		balance, _ := mirror.Balances(ctx, addr)
		account, _ := mirror.Account(ctx, addr)
		slots, _ := mirror.ContractStateAt(ctx, entity.Address, timestamp)
		storage := make(map[string]string, len(slots))
		for _, s := range slots {
			storage[s.Slot] = s.Value
		}
		return AccountState{
			Balance: toHexQuantity(fmt.Sprintf("%d", balance)),
			Nonce:   uint64(account.EthereumNonce),
			Code:    orHex(entity.RuntimeBytecode),
			Storage: storage,
		}, nil
	}

	account, err := mirror.Account(ctx, addr)
	if err != nil {
		return AccountState{}, err
	}
	return AccountState{
		Balance: toHexQuantity(fmt.Sprintf("%d", account.Balance)),
		Nonce:   uint64(account.EthereumNonce),
		Code:    "0x",
		Storage: map[string]string{},
	}, nil
}
