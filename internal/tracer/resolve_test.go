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

func TestResolveAddress_ContractSubstitutesEVMAddress(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/0.0.1001", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contract_id": "0.0.1001", "evm_address": "0xresolvedcontract"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	got := tracer.ResolveAddress(context.Background(), client, "0.0.1001", []mirrornode.EntityType{mirrornode.EntityContract})
	require.Equal(t, "0xresolvedcontract", got)
}

func TestResolveAddress_AccountSubstitutesEVMAddress(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/0.0.2002", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account": "0.0.2002", "evm_address": "0xresolvedaccount", "balance": {"balance": 0}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	got := tracer.ResolveAddress(context.Background(), client, "0.0.2002", []mirrornode.EntityType{mirrornode.EntityAccount})
	require.Equal(t, "0xresolvedaccount", got)
}

func TestResolveAddress_UnmatchedFallsBackToInput(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/0.0.3003", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/accounts/0.0.3003", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	allowed := []mirrornode.EntityType{mirrornode.EntityContract, mirrornode.EntityToken, mirrornode.EntityAccount}
	got := tracer.ResolveAddress(context.Background(), client, "0.0.3003", allowed)
	require.Equal(t, "0.0.3003", got)
}

func TestResolveAddress_EmptyInputPassesThrough(t *testing.T) {
	got := tracer.ResolveAddress(context.Background(), nil, "", nil)
	require.Equal(t, "", got)
}
