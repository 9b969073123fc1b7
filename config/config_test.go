package config_test

import (
	"encoding/json"
	"os"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/limiter"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/config"
)

func TestLoad_DefaultsWhenEnvAbsent(t *testing.T) {
	cfg := config.Load(log.NewNopLogger())

	require.Equal(t, uint64(0x127), cfg.ChainID)
	require.Equal(t, "testnet", cfg.HederaNetwork)
	require.Equal(t, config.OperatorKeyFormatDER, cfg.OperatorKeyFormat)
	require.False(t, cfg.ReadOnly)
	require.Equal(t, 4096, cfg.FileAppendChunkSize)
	require.Equal(t, 20, cfg.FileAppendMaxChunks)
	require.Equal(t, 80*1e9, float64(cfg.HbarRateLimitDuration))
}

func TestLoad_ReadsHexChainIDAndBooleans(t *testing.T) {
	t.Setenv("CHAIN_ID", "0x12a")
	t.Setenv("READ_ONLY", "true")
	t.Setenv("DEBUG_API_ENABLED", "true")
	t.Setenv("HAPI_CLIENT_TRANSACTION_RESET", "2")
	t.Setenv("HAPI_CLIENT_DURATION_RESET", "1h")
	t.Setenv("OPERATOR_KEY_FORMAT", "HEX_ECDSA")

	cfg := config.Load(log.NewNopLogger())

	require.Equal(t, uint64(0x12a), cfg.ChainID)
	require.True(t, cfg.ReadOnly)
	require.True(t, cfg.DebugAPIEnabled)
	require.Equal(t, int64(2), cfg.HapiClientTransactionReset)
	require.Equal(t, "1h0m0s", cfg.HapiClientDurationReset.String())
	require.Equal(t, config.OperatorKeyFormat("HEX_ECDSA"), cfg.OperatorKeyFormat)
}

func TestLoad_InvalidChainIDFallsBackToDefault(t *testing.T) {
	t.Setenv("CHAIN_ID", "not-a-chain-id")

	cfg := config.Load(log.NewNopLogger())

	require.Equal(t, uint64(0x127), cfg.ChainID)
}

func TestLoad_ParsesErrorResetCodeSet(t *testing.T) {
	t.Setenv("HAPI_CLIENT_ERROR_RESET", "RST_STREAM, UNAVAILABLE")

	cfg := config.Load(log.NewNopLogger())

	require.Equal(t, map[string]bool{"RST_STREAM": true, "UNAVAILABLE": true}, cfg.HapiClientErrorReset)
}

func TestSpendingPlansSource_InlineJSON(t *testing.T) {
	raw, err := config.SpendingPlansSource(`[{"id":"P1","tier":"EXTENDED"}]`)
	require.NoError(t, err)

	var plans []limiter.PlanConfig
	require.NoError(t, json.Unmarshal(raw, &plans))
	require.Len(t, plans, 1)
	require.Equal(t, "P1", plans[0].ID)
	require.Equal(t, limiter.TierExtended, plans[0].Tier)
}

func TestSpendingPlansSource_File(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/plans.json"
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"P2","tier":"BASIC"}]`), 0o600))

	raw, err := config.SpendingPlansSource(path)
	require.NoError(t, err)

	var plans []limiter.PlanConfig
	require.NoError(t, json.Unmarshal(raw, &plans))
	require.Len(t, plans, 1)
	require.Equal(t, "P2", plans[0].ID)
}

func TestSpendingPlansSource_Empty(t *testing.T) {
	raw, err := config.SpendingPlansSource("")
	require.NoError(t, err)
	require.Nil(t, raw)
}
