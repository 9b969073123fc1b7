package tracer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/tracer"
)

func TestGetRawBlock_AbsentBlockReturnsLiteralZeroX(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/99", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	c, err := cache.New(log.NewNopLogger(), 1<<20)
	require.NoError(t, err)
	tr := tracer.New(log.NewNopLogger(), client, c)

	raw, err := tr.GetRawBlock(context.Background(), "99")
	require.NoError(t, err)
	require.Equal(t, "0x", raw)
}

func TestGetRawBlock_EncodesHeaderAndSignedTransactions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"number": 5, "hash": "0xblock5", "previous_hash": "0xblock4", "gas_used": 21000, "timestamp": {"from": "1700000000.000000000", "to": "1700000001.000000000"}}`))
	})
	mux.HandleFunc("/contracts/results", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"transaction_id": "0.0.1-1-1", "hash": "0xaaaa", "from": "0xaaaa000000000000000000000000000000aaaa", "to": "0xbbbb000000000000000000000000000000bbbb", "amount": "0", "gas_limit": 21000, "gas_used": 21000, "function_parameters": "0x", "call_result": "0x", "result": "SUCCESS", "nonce": 7, "type": 0, "gas_price": "1000000000", "v": 27, "r": "0x1111111111111111111111111111111111111111111111111111111111111111", "s": "0x2222222222222222222222222222222222222222222222222222222222222222"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	c, err := cache.New(log.NewNopLogger(), 1<<20)
	require.NoError(t, err)
	tr := tracer.New(log.NewNopLogger(), client, c)

	raw, err := tr.GetRawBlock(context.Background(), "5")
	require.NoError(t, err)
	require.NotEqual(t, "0x", raw)

	var decoded struct {
		Header       *gethtypes.Header
		Transactions []*gethtypes.Transaction
		Uncles       []*gethtypes.Header
		Withdrawals  []*gethtypes.Withdrawal `rlp:"optional"`
	}
	data, err := hexutil.Decode(raw)
	require.NoError(t, err)
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	require.Equal(t, uint64(5), decoded.Header.Number.Uint64())
	require.Empty(t, decoded.Uncles)
	require.Empty(t, decoded.Withdrawals)
	require.Len(t, decoded.Transactions, 1)
	require.Equal(t, uint64(7), decoded.Transactions[0].Nonce())
}
