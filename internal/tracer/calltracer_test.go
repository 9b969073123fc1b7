package tracer_test

import (
	"context"
	"fmt"
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

// mirrorMux builds an httptest server serving the mirror-node REST paths a
// test supplies, keyed by exact request path+query.
func mirrorMux(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func newMirrorClient(t *testing.T, routes map[string]string) (*mirrornode.Client, func()) {
	t.Helper()
	srv := mirrorMux(t, routes)
	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	return client, srv.Close
}

func TestBuildCallTrace_FullCallTreeWithRevert(t *testing.T) {
	const txID = "0.0.1001-1700000000-000000001"
	routes := map[string]string{
		"/contracts/results/" + txID: `{
			"transaction_id": "` + txID + `",
			"from": "0x0000000000000000000000000000000000000001",
			"to": "0x0000000000000000000000000000000000000002",
			"amount": "0",
			"gas_limit": 100000,
			"gas_used": 54000,
			"function_parameters": "0x",
			"call_result": "0x08c379a0` +
			`0000000000000000000000000000000000000000000000000000000000000020` +
			`0000000000000000000000000000000000000000000000000000000000000003` +
			`6261640000000000000000000000000000000000000000000000000000000000",
			"result": "CONTRACT_REVERT_EXECUTED"
		}`,
		"/contracts/results/" + txID + "/actions": `{
			"actions": [
				{"call_depth": 0, "call_type": "CALL", "caller": "0x0000000000000000000000000000000000000001", "recipient": "0x0000000000000000000000000000000000000002", "value": "0", "gas": 100000, "gas_used": 54000, "input": "0x", "result_data": "0x"},
				{"call_depth": 1, "call_type": "CALL", "caller": "0x0000000000000000000000000000000000000002", "recipient": "0x0000000000000000000000000000000000000003", "value": "0", "gas": 50000, "gas_used": 20000, "input": "0x", "result_data": "0x"}
			]
		}`,
	}
	client, closeFn := newMirrorClient(t, routes)
	defer closeFn()

	frame, err := tracer.BuildCallTrace(context.Background(), client, txID, tracer.Config{})
	require.NoError(t, err)
	require.Equal(t, "CALL", frame.Type)
	require.Equal(t, "CONTRACT_REVERT_EXECUTED", frame.Error)
	require.Equal(t, "bad", frame.RevertReason)
	require.Len(t, frame.Calls, 1)
	require.Equal(t, "0x0000000000000000000000000000000000000003", frame.Calls[0].To)
}

func TestBuildCallTrace_OnlyTopCall(t *testing.T) {
	const txID = "0.0.1001-1700000000-000000002"
	routes := map[string]string{
		"/contracts/results/" + txID: `{
			"transaction_id": "` + txID + `",
			"from": "0xaaaa000000000000000000000000000000aaaa",
			"to": "0xbbbb000000000000000000000000000000bbbb",
			"amount": "0",
			"gas_limit": 100000,
			"gas_used": 21000,
			"function_parameters": "0x",
			"call_result": "0x",
			"result": "SUCCESS"
		}`,
		"/contracts/results/" + txID + "/actions": `{
			"actions": [
				{"call_depth": 0, "call_type": "CALL", "caller": "0xaaaa000000000000000000000000000000aaaa", "recipient": "0xbbbb000000000000000000000000000000bbbb", "value": "0", "gas": 100000, "gas_used": 21000, "input": "0x", "result_data": "0x"},
				{"call_depth": 1, "call_type": "CALL", "caller": "0xbbbb000000000000000000000000000000bbbb", "recipient": "0xcccc000000000000000000000000000000cccc", "value": "0", "gas": 50000, "gas_used": 5000, "input": "0x", "result_data": "0x"}
			]
		}`,
	}
	client, closeFn := newMirrorClient(t, routes)
	defer closeFn()

	frame, err := tracer.BuildCallTrace(context.Background(), client, txID, tracer.Config{OnlyTopCall: true})
	require.NoError(t, err)
	require.Empty(t, frame.Error)
	require.Empty(t, frame.Calls)
}

func TestBuildCallTrace_FallsThroughToSyntheticWhenActionsAbsent(t *testing.T) {
	const txID = "0xb9a000000000000000000000000000000000000000000000000000000bca82"
	transferSig := "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	from := "0x000000000000000000000000aaaa000000000000000000000000000000aaaa"
	to := "0x000000000000000000000000bbbb000000000000000000000000000000bbbb"
	routes := map[string]string{
		"/contracts/results/logs?transaction.hash=" + txID + "&limit=100&order=asc": fmt.Sprintf(`{
			"logs": [
				{"address": "0xcccc000000000000000000000000000000cccc", "topics": ["%s", "%s", "%s"], "data": "0x", "transaction_hash": "%s"}
			]
		}`, transferSig, from, to, txID),
		"/contracts/" + to: `{}`,
		"/accounts/" + to + "?transactions=false": `{}`,
	}
	client, closeFn := newMirrorClient(t, routes)
	defer closeFn()

	frame, err := tracer.BuildCallTrace(context.Background(), client, txID, tracer.Config{})
	require.NoError(t, err)
	require.Equal(t, "CALL", frame.Type)
	require.Equal(t, "0x61a80", frame.Gas)
	require.Equal(t, "0x0", frame.GasUsed)
	require.Equal(t, "0x0", frame.Value)
	require.Empty(t, frame.Calls)
}

func TestBuildPrestateTrace_CachesResult(t *testing.T) {
	const txID = "0.0.1001-1700000000-000000003"
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/results/"+txID+"/actions", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"actions": [
			{"call_depth": 0, "call_type": "CALL", "caller": "0xaaaa000000000000000000000000000000aaaa", "recipient": "0xbbbb000000000000000000000000000000bbbb", "value": "0", "gas": 100000, "gas_used": 21000, "input": "0x", "result_data": "0x"}
		]}`))
	})
	mux.HandleFunc("/contracts/0xbbbb000000000000000000000000000000bbbb", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/accounts/0xbbbb000000000000000000000000000000bbbb", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account": "0.0.2", "balance": {"balance": 500}, "ethereum_nonce": 3}`))
	})
	mux.HandleFunc("/contracts/0xaaaa000000000000000000000000000000aaaa", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/accounts/0xaaaa000000000000000000000000000000aaaa", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account": "0.0.1", "balance": {"balance": 1000}, "ethereum_nonce": 1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	c, err := cache.New(log.NewNopLogger(), 1<<20)
	require.NoError(t, err)

	result, err := tracer.BuildPrestateTrace(context.Background(), client, c, txID, tracer.Config{})
	require.NoError(t, err)
	require.Contains(t, result, "0xbbbb000000000000000000000000000000bbbb")
	require.Equal(t, uint64(3), result["0xbbbb000000000000000000000000000000bbbb"].Nonce)
	require.Equal(t, "0x", result["0xbbbb000000000000000000000000000000bbbb"].Code)

	firstCalls := calls
	result2, err := tracer.BuildPrestateTrace(context.Background(), client, c, txID, tracer.Config{})
	require.NoError(t, err)
	require.Equal(t, result, result2)
	require.Equal(t, firstCalls, calls, "second call must be served from cache without refetching actions")
}
