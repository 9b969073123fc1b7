// Package config loads the gateway's environment-keyed configuration
// (spec.md §6) via viper, the teacher's own config substrate
// (evmd/cmd/evmd/cmd/root.go's *viper.Viper app options). Every field here
// has a direct env-var origin; GetXXX-style helpers mirror the teacher's
// server_app_options.go idiom of a defensive read with a logged fallback
// rather than a bare struct tag unmarshal.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"cosmossdk.io/log"
)

// OperatorKeyFormat is the consensus-node operator key encoding (spec.md §6).
type OperatorKeyFormat string

const (
	OperatorKeyFormatDER        OperatorKeyFormat = "DER"
	OperatorKeyFormatHexEd25519 OperatorKeyFormat = "HEX_ED25519"
	OperatorKeyFormatHexECDSA   OperatorKeyFormat = "HEX_ECDSA"
)

// Config is the fully-resolved process configuration (spec.md §6).
type Config struct {
	ChainID           uint64
	HederaNetwork     string
	OperatorID        string
	OperatorKey       string
	OperatorKeyFormat OperatorKeyFormat

	ReadOnly             bool
	DebugAPIEnabled      bool
	OpcodeLoggerEnabled  bool
	TxPoolAPIEnabled     bool
	EnableTxPool         bool
	UseAsyncTxProcessing bool
	EnableNonceOrdering  bool
	JumboTxEnabled       bool

	HapiClientTransactionReset int64
	HapiClientDurationReset    time.Duration
	HapiClientErrorReset       map[string]bool

	FileAppendChunkSize int
	FileAppendMaxChunks int

	HbarRateLimitDuration   time.Duration
	HbarSpendingPlansConfig string

	// MirrorNodeURL/MirrorNodeTimeout dial the REST mirror node (spec.md
	// §6 "Outbound to mirror node"); not an OpenRPC-facing toggle, but
	// every deployment of this gateway needs a target.
	MirrorNodeURL     string
	MirrorNodeTimeout time.Duration

	// ConsensusNodeTarget dials the consensus-node gRPC endpoint (spec.md
	// §6 "Outbound to consensus node").
	ConsensusNodeTarget string

	// JSONRPCAddr/CorsAllowAll/MetricsAddr size the two HTTP listeners
	// this process owns, mirroring evmd's JSON_RPC_ADDRESS/METRICS_ADDRESS
	// app options.
	JSONRPCAddr   string
	CorsAllowAll  bool
	MetricsAddr   string

	// CacheMaxCost bounds the shared cache's ristretto cost budget; every
	// entry is stored with cost 1, so this is an entry count, not bytes.
	CacheMaxCost int64

	GasLimitCap       uint64
	MinGasPriceWeibar string

	TierCapTinybar     map[string]int64
	GlobalBasicCapTiny int64
}

// defaults mirrors the zero-value fallbacks server_app_options.go logs and
// returns when an app option is absent, applied here via viper.SetDefault
// instead of a per-call nil check.
var defaults = map[string]interface{}{
	"CHAIN_ID":                      "0x127",
	"HEDERA_NETWORK":                "testnet",
	"OPERATOR_KEY_FORMAT":           string(OperatorKeyFormatDER),
	"READ_ONLY":                     false,
	"DEBUG_API_ENABLED":             false,
	"OPCODELOGGER_ENABLED":          false,
	"TXPOOL_API_ENABLED":            false,
	"ENABLE_TX_POOL":                false,
	"USE_ASYNC_TX_PROCESSING":       false,
	"ENABLE_NONCE_ORDERING":         false,
	"JUMBO_TX_ENABLED":              false,
	"HAPI_CLIENT_TRANSACTION_RESET": 0,
	"HAPI_CLIENT_DURATION_RESET":    "0s",
	"HAPI_CLIENT_ERROR_RESET":       "",
	"FILE_APPEND_CHUNK_SIZE":        4096,
	"FILE_APPEND_MAX_CHUNKS":        20,
	"HBAR_RATE_LIMIT_DURATION":      "80s",
	"MIRROR_NODE_URL":               "https://testnet.mirrornode.hedera.com/api/v1",
	"MIRROR_NODE_TIMEOUT":           "10s",
	"CONSENSUS_NODE_TARGET":         "",
	"JSON_RPC_ADDRESS":              ":7546",
	"WS_CORS_ALLOW_ALL":             false,
	"METRICS_ADDRESS":               ":9545",
	"CACHE_MAX_COST":                int64(100 * 1024 * 1024),
	"GAS_LIMIT_CAP":                 uint64(15_000_000),
	"MIN_GAS_PRICE_WEIBAR":          "0x0",
	"TIER_CAP_TINYBAR":              "",
	"GLOBAL_BASIC_CAP_TINYBAR":      int64(0),
}

// Load reads every spec.md §6 environment variable through viper's
// AutomaticEnv binding. Values absent from the environment fall back to
// defaults rather than failing construction, matching
// server_app_options.go's "missing app option, use a sane default and log
// it" idiom.
func Load(logger log.Logger) *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	chainID, err := parseChainID(v.GetString("CHAIN_ID"))
	if err != nil {
		logger.Error("invalid CHAIN_ID, falling back to default", "value", v.GetString("CHAIN_ID"), "error", err)
		chainID, _ = parseChainID(cast.ToString(defaults["CHAIN_ID"]))
	}

	return &Config{
		ChainID:           chainID,
		HederaNetwork:     v.GetString("HEDERA_NETWORK"),
		OperatorID:        v.GetString("OPERATOR_ID_MAIN"),
		OperatorKey:       v.GetString("OPERATOR_KEY_MAIN"),
		OperatorKeyFormat: OperatorKeyFormat(v.GetString("OPERATOR_KEY_FORMAT")),

		ReadOnly:             v.GetBool("READ_ONLY"),
		DebugAPIEnabled:      v.GetBool("DEBUG_API_ENABLED"),
		OpcodeLoggerEnabled:  v.GetBool("OPCODELOGGER_ENABLED"),
		TxPoolAPIEnabled:     v.GetBool("TXPOOL_API_ENABLED"),
		EnableTxPool:         v.GetBool("ENABLE_TX_POOL"),
		UseAsyncTxProcessing: v.GetBool("USE_ASYNC_TX_PROCESSING"),
		EnableNonceOrdering:  v.GetBool("ENABLE_NONCE_ORDERING"),
		JumboTxEnabled:       v.GetBool("JUMBO_TX_ENABLED"),

		HapiClientTransactionReset: v.GetInt64("HAPI_CLIENT_TRANSACTION_RESET"),
		HapiClientDurationReset:    v.GetDuration("HAPI_CLIENT_DURATION_RESET"),
		HapiClientErrorReset:       parseErrorCodes(v.GetString("HAPI_CLIENT_ERROR_RESET")),

		FileAppendChunkSize: v.GetInt("FILE_APPEND_CHUNK_SIZE"),
		FileAppendMaxChunks: v.GetInt("FILE_APPEND_MAX_CHUNKS"),

		HbarRateLimitDuration:   v.GetDuration("HBAR_RATE_LIMIT_DURATION"),
		HbarSpendingPlansConfig: v.GetString("HBAR_SPENDING_PLANS_CONFIG"),

		MirrorNodeURL:     v.GetString("MIRROR_NODE_URL"),
		MirrorNodeTimeout: v.GetDuration("MIRROR_NODE_TIMEOUT"),

		ConsensusNodeTarget: v.GetString("CONSENSUS_NODE_TARGET"),

		JSONRPCAddr:  v.GetString("JSON_RPC_ADDRESS"),
		CorsAllowAll: v.GetBool("WS_CORS_ALLOW_ALL"),
		MetricsAddr:  v.GetString("METRICS_ADDRESS"),

		CacheMaxCost: v.GetInt64("CACHE_MAX_COST"),

		GasLimitCap:       cast.ToUint64(v.GetString("GAS_LIMIT_CAP")),
		MinGasPriceWeibar: v.GetString("MIN_GAS_PRICE_WEIBAR"),

		TierCapTinybar:     parseTierCaps(v.GetString("TIER_CAP_TINYBAR")),
		GlobalBasicCapTiny: v.GetInt64("GLOBAL_BASIC_CAP_TINYBAR"),
	}
}

// parseChainID accepts either a 0x-prefixed hex chain id (as used in
// spec.md §8 Scenario A's "chainId 0x12a") or a plain decimal string.
func parseChainID(raw string) (uint64, error) {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return hexutil.DecodeUint64(raw)
	}
	return cast.ToUint64E(raw)
}

// parseErrorCodes turns HAPI_CLIENT_ERROR_RESET's comma-separated error-code
// list into the set shape consensus.Thresholds.ErrorCodes expects (spec.md
// §4.2's "a set of error codes E"). An empty string yields an empty, not
// nil, set; Thresholds.disabled() only checks the set's length, so both
// read as "no codes configured".
func parseErrorCodes(raw string) map[string]bool {
	codes := make(map[string]bool)
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(code)
		if code != "" {
			codes[code] = true
		}
	}
	return codes
}

// parseTierCaps reads TIER_CAP_TINYBAR's "TIER=amount,TIER=amount" form
// into the map limiter.Config.TierCapTinybar expects (spec.md §4.4's
// per-tier budget cap).
func parseTierCaps(raw string) map[string]int64 {
	caps := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		amount, err := cast.ToInt64E(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		caps[strings.TrimSpace(parts[0])] = amount
	}
	return caps
}

// SpendingPlansSource resolves HBAR_SPENDING_PLANS_CONFIG to raw JSON
// bytes: the value is inline JSON when it starts with '[' or '{', and a
// filename to read otherwise (spec.md §6).
func SpendingPlansSource(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	return os.ReadFile(trimmed)
}
