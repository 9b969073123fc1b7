package rpc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/config"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpc"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/txservice"
)

func newTestDeps(t *testing.T, mirror *mirrornode.Client, cfg *config.Config) rpc.Dependencies {
	t.Helper()
	logger := log.NewNopLogger()
	c, err := cache.New(logger, 1<<20)
	require.NoError(t, err)
	if cfg == nil {
		cfg = &config.Config{ChainID: 0x127}
	}
	return rpc.Dependencies{
		Logger: logger,
		Config: cfg,
		Cache:  c,
		Mirror: mirror,
		Pool:   txservice.NewPool(logger),
	}
}

func newRegistry(t *testing.T, deps rpc.Dependencies) *rpcserver.Registry {
	t.Helper()
	reg := rpcserver.NewRegistry(deps.Logger, deps.Cache)
	rpc.Register(reg, deps)
	return reg
}

func TestRegister_GatesDebugAndTxPoolOnConfig(t *testing.T) {
	deps := newTestDeps(t, nil, &config.Config{ChainID: 1})
	reg := newRegistry(t, deps)
	names := reg.Names()
	require.NotContains(t, names, "debug_traceTransaction")
	require.NotContains(t, names, "txpool_content")
	require.Contains(t, names, "eth_chainId")
	require.Contains(t, names, "net_version")
	require.Contains(t, names, "web3_clientVersion")

	deps = newTestDeps(t, nil, &config.Config{ChainID: 1, DebugAPIEnabled: true, TxPoolAPIEnabled: true})
	reg = newRegistry(t, deps)
	names = reg.Names()
	require.Contains(t, names, "debug_traceTransaction")
	require.Contains(t, names, "debug_traceCall")
	require.Contains(t, names, "txpool_content")
	require.Contains(t, names, "txpool_status")
}

func TestNetMethods(t *testing.T) {
	deps := newTestDeps(t, nil, &config.Config{ChainID: 0x128})
	reg := newRegistry(t, deps)

	version, err := reg.Dispatch(context.Background(), "net_version", nil)
	require.NoError(t, err)
	require.Equal(t, "296", version)

	listening, err := reg.Dispatch(context.Background(), "net_listening", nil)
	require.NoError(t, err)
	require.Equal(t, true, listening)

	peerCount, err := reg.Dispatch(context.Background(), "net_peerCount", nil)
	require.NoError(t, err)
	require.Equal(t, "0x0", peerCount)
}

func TestWeb3Methods(t *testing.T) {
	deps := newTestDeps(t, nil, nil)
	reg := newRegistry(t, deps)

	version, err := reg.Dispatch(context.Background(), "web3_clientVersion", nil)
	require.NoError(t, err)
	require.Equal(t, rpc.ClientVersion, version)

	sha3, err := reg.Dispatch(context.Background(), "web3_sha3", []interface{}{"0x68656c6c6f"})
	require.NoError(t, err)
	require.Equal(t, "0x1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8", sha3)

	_, err = reg.Dispatch(context.Background(), "web3_sha3", []interface{}{"not-hex"})
	require.Error(t, err)
}

func TestEthChainId_ReturnsConfiguredChainID(t *testing.T) {
	deps := newTestDeps(t, nil, &config.Config{ChainID: 0x127})
	reg := newRegistry(t, deps)

	r1, err := reg.Dispatch(context.Background(), "eth_chainId", nil)
	require.NoError(t, err)
	require.Equal(t, "0x127", r1)
}

func TestEthGetBalance_AccountFoundAndNotFound(t *testing.T) {
	// Both addresses are digit-only (no a-f letters) so EIP-55 checksum
	// casing never changes their rendered form, keeping the fake mirror's
	// routes stable regardless of common.Address.Hex()'s casing rules.
	const found = "0x1234567890123456789012345678901234567890"
	const missing = "0x9999999999999999999999999999999999999999"

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/"+found, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account": "0.0.100", "balance": {"balance": 5}, "ethereum_nonce": 3}`))
	})
	mux.HandleFunc("/accounts/"+missing, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mirror := mirrornode.New(log.NewNopLogger(), srv.URL, time.Second)
	deps := newTestDeps(t, mirror, nil)
	reg := newRegistry(t, deps)

	balance, err := reg.Dispatch(context.Background(), "eth_getBalance", []interface{}{found, "latest"})
	require.NoError(t, err)
	require.Equal(t, "0xba43b7400", balance)

	nonce, err := reg.Dispatch(context.Background(), "eth_getTransactionCount", []interface{}{found, "latest"})
	require.NoError(t, err)
	require.Equal(t, "0x3", nonce)

	missingBalance, err := reg.Dispatch(context.Background(), "eth_getBalance", []interface{}{missing, "latest"})
	require.NoError(t, err)
	require.Equal(t, "0x0", missingBalance)
}

func TestEthSendRawTransaction_RejectsNonHexPayload(t *testing.T) {
	deps := newTestDeps(t, nil, nil)
	reg := newRegistry(t, deps)

	_, err := reg.Dispatch(context.Background(), "eth_sendRawTransaction", []interface{}{"not-hex"})
	require.Error(t, err)
}

func TestTxpoolMethods_EmptyPool(t *testing.T) {
	deps := newTestDeps(t, nil, &config.Config{TxPoolAPIEnabled: true})
	reg := newRegistry(t, deps)

	status, err := reg.Dispatch(context.Background(), "txpool_status", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"pending": "0x0", "queued": "0x0"}, status)

	content, err := reg.Dispatch(context.Background(), "txpool_content", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"pending": map[string]map[string]interface{}{},
		"queued":  map[string]interface{}{},
	}, content)
}
