package tracer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/tracer"
)

func TestBuildOpcodeTrace_FieldNullabilityFollowsFlags(t *testing.T) {
	const txID = "0.0.1001-1700000000-000000009"
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/results/"+txID+"/opcodes", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("memory"))
		require.Equal(t, "true", r.URL.Query().Get("stack"))
		require.Equal(t, "false", r.URL.Query().Get("storage"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"gas": 21000,
			"failed": false,
			"return_value": "0x",
			"opcodes": [
				{"pc": 0, "op": "PUSH1", "gas": 21000, "gas_cost": 3, "depth": 1, "stack": ["0x1"], "memory": ["0x0"]}
			]
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	trace, err := tracer.BuildOpcodeTrace(context.Background(), client, txID, tracer.Config{EnableMemory: true, DisableStorage: true})
	require.NoError(t, err)
	require.Equal(t, uint64(21000), trace.Gas)
	require.False(t, trace.Failed)
	require.Len(t, trace.StructLogs, 1)

	log := trace.StructLogs[0]
	require.NotNil(t, log.Stack)
	require.NotNil(t, log.Memory)
	require.Nil(t, log.Storage)
	require.Nil(t, log.Reason)
}

func TestBuildOpcodeTrace_SyntheticFallbackOn404(t *testing.T) {
	const txID = "0xe1e1000000000000000000000000000000000000000000000000000000e1e1"
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/results/"+txID+"/opcodes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/contracts/results/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logs": [
			{"address": "0xffff000000000000000000000000000000ffff", "topics": [], "data": "0x", "transaction_hash": "` + txID + `"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	trace, err := tracer.BuildOpcodeTrace(context.Background(), client, txID, tracer.Config{})
	require.NoError(t, err)
	require.Equal(t, uint64(0), trace.Gas)
	require.False(t, trace.Failed)
	require.Empty(t, trace.StructLogs)
}
