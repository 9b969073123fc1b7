package mirrornode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

func TestContractResult_ParsesSignatureFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/results/0.0.1-1-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"transaction_id": "0.0.1-1-1",
			"hash": "0xhash",
			"from": "0xfrom",
			"to": "0xto",
			"amount": "0",
			"gas_limit": 100000,
			"gas_used": 21000,
			"function_parameters": "0x",
			"call_result": "0x",
			"result": "SUCCESS",
			"block_number": 5,
			"nonce": 7,
			"type": 2,
			"chain_id": "0x128",
			"gas_price": "0x0",
			"max_fee_per_gas": "0x3b9aca00",
			"max_priority_fee_per_gas": "0x3b9aca00",
			"v": 1,
			"r": "0xabc",
			"s": "0xdef"
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	result, err := client.ContractResult(context.Background(), "0.0.1-1-1")
	require.NoError(t, err)
	require.Equal(t, int64(5), result.BlockNumber)
	require.Equal(t, int64(7), result.Nonce)
	require.Equal(t, int64(2), result.Type)
	require.Equal(t, "0x128", result.ChainID)
	require.Equal(t, "0x3b9aca00", result.MaxFeePerGas)
	require.Equal(t, int64(1), result.V)
	require.Equal(t, "0xabc", result.R)
	require.Equal(t, "0xdef", result.S)
}

func TestContract_ParsesRuntimeBytecode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/0.0.2002", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contract_id": "0.0.2002", "evm_address": "0xevm", "runtime_bytecode": "0x6001"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	entity, err := client.Contract(context.Background(), "0.0.2002")
	require.NoError(t, err)
	require.Equal(t, mirrornode.EntityContract, entity.Type)
	require.Equal(t, "0xevm", entity.EVMAddress)
	require.Equal(t, "0x6001", entity.RuntimeBytecode)
}

func TestLogsInRange_ParsesLogsAndDedupesNothing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/results/logs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "gte:1000.0", r.URL.Query().Get("timestamp"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logs": [
			{"address": "0xaddr1", "topics": ["0xt1", "0xt2"], "data": "0xd1", "transaction_hash": "0xh1"},
			{"address": "0xaddr2", "topics": [], "data": "0xd2", "transaction_hash": "0xh2"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	logs, err := client.LogsInRange(context.Background(), "1000.0", "2000.0")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "0xh1", logs[0].TxHash)
	require.Equal(t, []string{"0xt1", "0xt2"}, logs[0].Topics)
	require.Equal(t, "0xh2", logs[1].TxHash)
}

func TestAccount_NotFoundReturnsSentinelError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/0.0.9999", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	_, err := client.Account(context.Background(), "0.0.9999")
	require.True(t, mirrornode.IsNotFound(err))
}
