package tracer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/tracer"
)

// TestTraceBlockByNumber_MixedTxTypes grounds on spec.md §8 Scenario F: a
// block with one SUCCESS contract result, one WRONG_NONCE contract result,
// and one synthetic (logs-only) transaction hash must produce three
// deduplicated entries, with WRONG_NONCE resolved to an empty trace and its
// actions endpoint never consulted.
func TestTraceBlockByNumber_MixedTxTypes(t *testing.T) {
	const (
		successHash   = "0xaaaa000000000000000000000000000000000000000000000000000000aaaa"
		wrongNonce    = "0xbbbb000000000000000000000000000000000000000000000000000000bbbb"
		syntheticHash = "0xcccc000000000000000000000000000000000000000000000000000000cccc"
	)
	actionsRequested := map[string]bool{}

	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"number": 5, "hash": "0xblock5", "previous_hash": "0xblock4", "gas_used": 100000, "timestamp": {"from": "1700000000.000000000", "to": "1700000001.000000000"}}`))
	})
	mux.HandleFunc("/contracts/results", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"transaction_id": "0.0.1-1-1", "hash": "` + successHash + `", "from": "0xaaaa000000000000000000000000000000aaaa", "to": "0xbbbb000000000000000000000000000000bbbb", "amount": "0", "gas_limit": 50000, "gas_used": 21000, "function_parameters": "0x", "call_result": "0x", "result": "SUCCESS"},
			{"transaction_id": "0.0.1-1-2", "hash": "` + wrongNonce + `", "from": "0xaaaa000000000000000000000000000000aaaa", "to": "0xbbbb000000000000000000000000000000bbbb", "amount": "0", "gas_limit": 50000, "gas_used": 0, "function_parameters": "0x", "call_result": "0x", "result": "WRONG_NONCE"}
		]}`))
	})
	mux.HandleFunc("/contracts/results/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logs": [
			{"address": "0xdddd000000000000000000000000000000dddd", "topics": [], "data": "0x", "transaction_hash": "` + syntheticHash + `"}
		]}`))
	})
	mux.HandleFunc("/contracts/results/"+successHash+"/actions", func(w http.ResponseWriter, r *http.Request) {
		actionsRequested[successHash] = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"actions": [
			{"call_depth": 0, "call_type": "CALL", "caller": "0xaaaa000000000000000000000000000000aaaa", "recipient": "0xbbbb000000000000000000000000000000bbbb", "value": "0", "gas": 50000, "gas_used": 21000, "input": "0x", "result_data": "0x"}
		]}`))
	})
	mux.HandleFunc("/contracts/results/"+wrongNonce+"/actions", func(w http.ResponseWriter, r *http.Request) {
		actionsRequested[wrongNonce] = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"actions": []}`))
	})
	mux.HandleFunc("/contracts/results/"+successHash, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transaction_id": "0.0.1-1-1", "hash": "` + successHash + `", "from": "0xaaaa000000000000000000000000000000aaaa", "to": "0xbbbb000000000000000000000000000000bbbb", "amount": "0", "gas_limit": 50000, "gas_used": 21000, "function_parameters": "0x", "call_result": "0x", "result": "SUCCESS"}`))
	})
	// Both LogsInRange (block-level discovery) and LogsByTransactionHash
	// (the synthetic fallback tracing syntheticHash) hit this same path —
	// net/http's ServeMux routes on path only, and the same log fixture
	// serves both lookups here.
	mux.HandleFunc("/contracts/0xdddd000000000000000000000000000000dddd", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/accounts/0xdddd000000000000000000000000000000dddd", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	c, err := cache.New(log.NewNopLogger(), 1<<20)
	require.NoError(t, err)
	tr := tracer.New(log.NewNopLogger(), client, c)

	entries, err := tr.TraceBlockByNumber(context.Background(), "5", tracer.Config{Tracer: tracer.CallTracerKind})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byHash := make(map[string]tracer.BlockTraceEntry, 3)
	for _, e := range entries {
		byHash[e.TxHash] = e
	}

	success, ok := byHash[successHash]
	require.True(t, ok)
	successFrame, ok := success.Result.(*tracer.CallFrame)
	require.True(t, ok)
	require.Empty(t, successFrame.Error)

	wrong, ok := byHash[wrongNonce]
	require.True(t, ok)
	wrongFrame, ok := wrong.Result.(*tracer.CallFrame)
	require.True(t, ok)
	require.Equal(t, "WRONG_NONCE", wrongFrame.Error)
	require.Equal(t, "WRONG_NONCE", wrongFrame.RevertReason)
	require.False(t, actionsRequested[wrongNonce], "actions endpoint must not be consulted for WRONG_NONCE")

	synthetic, ok := byHash[syntheticHash]
	require.True(t, ok)
	syntheticFrame, ok := synthetic.Result.(*tracer.CallFrame)
	require.True(t, ok)
	require.Equal(t, "CALL", syntheticFrame.Type)
	require.Empty(t, syntheticFrame.Calls)
}
