// Command relay is the gateway process: it wires every collaborator in the
// dependency order spec.md §2 names, leaves first ("cache → spending-plan
// registry → HBAR limiter → lock registry → consensus-client supervisor →
// transaction service → RPC dispatch"), then serves JSON-RPC over HTTP/WS
// until an interrupt or terminate signal arrives, draining in-flight
// requests the way server/json_rpc.go's StartJSONRPC/errgroup pairing does.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/config"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/consensus"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/limiter"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/metrics"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpc"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcserver"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/senderlock"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/tracer"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/txservice"
)

func main() {
	logger := log.NewLogger(os.Stderr).With(log.ModuleKey, "relay")

	if err := run(logger); err != nil {
		logger.Error("relay exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger log.Logger) error {
	cfg := config.Load(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cache (spec.md §2 leaf 1).
	sharedCache, err := cache.New(logger, cfg.CacheMaxCost)
	if err != nil {
		return fmt.Errorf("constructing shared cache: %w", err)
	}

	// spending-plan registry (leaf 2), reconciled from the declarative
	// HBAR_SPENDING_PLANS_CONFIG source against the cache.
	planRegistry := limiter.NewRegistry(logger, sharedCache)
	plansRaw, err := config.SpendingPlansSource(cfg.HbarSpendingPlansConfig)
	if err != nil {
		return fmt.Errorf("reading HBAR_SPENDING_PLANS_CONFIG: %w", err)
	}
	plans, err := limiter.DecodePlanConfigs(plansRaw)
	if err != nil {
		return fmt.Errorf("parsing HBAR_SPENDING_PLANS_CONFIG: %w", err)
	}
	if err := planRegistry.Reconcile(plans); err != nil {
		return fmt.Errorf("reconciling spending plans: %w", err)
	}

	// HBAR limiter (leaf 3).
	tierCaps := make(map[limiter.Tier]int64, len(cfg.TierCapTinybar))
	for tier, amount := range cfg.TierCapTinybar {
		tierCaps[limiter.Tier(tier)] = amount
	}
	hbarLimiter := limiter.NewLimiter(logger, planRegistry, limiter.Config{
		Window:             cfg.HbarRateLimitDuration,
		TierCapTinybar:     tierCaps,
		GlobalBasicCapTiny: cfg.GlobalBasicCapTiny,
	})

	// per-sender lock registry (leaf 4).
	locks := senderlock.New(logger)

	// mirror-node REST client, shared by the tracer, fee accountant and
	// precheck/reconciliation paths.
	mirror := mirrornode.New(logger, cfg.MirrorNodeURL, cfg.MirrorNodeTimeout)

	// consensus-client supervisor (leaf 5).
	supervisor := consensus.NewSupervisor(logger, func(ctx context.Context) (consensus.SDKClient, error) {
		return consensus.NewGRPCClient(ctx, cfg.ConsensusNodeTarget)
	}, consensus.Thresholds{
		TransactionCount: cfg.HapiClientTransactionReset,
		ResetDuration:    cfg.HapiClientDurationReset,
		ErrorCodes:       cfg.HapiClientErrorReset,
	})
	uploader := consensus.NewUploader(logger, supervisor, cfg.FileAppendChunkSize, cfg.FileAppendMaxChunks, nil)
	fees := consensus.NewFeeAccountant(logger, mirror, supervisor, hbarLimiter, nil, true)

	// transaction service (leaf 6).
	pool := txservice.NewPool(logger)
	minGasPrice, err := hexutil.DecodeBig(cfg.MinGasPriceWeibar)
	if err != nil {
		logger.Error("invalid MIN_GAS_PRICE_WEIBAR, falling back to zero", "value", cfg.MinGasPriceWeibar, "error", err)
		minGasPrice = new(big.Int)
	}
	chainID := new(big.Int).SetUint64(cfg.ChainID)
	txSvc := txservice.NewService(logger, txservice.Config{
		ReadOnly:             cfg.ReadOnly,
		NonceOrderingEnabled: cfg.EnableNonceOrdering,
		AsyncProcessing:      cfg.UseAsyncTxProcessing,
		JumboTxEnabled:       cfg.JumboTxEnabled,
		ChunkSizeBytes:       cfg.FileAppendChunkSize,
		Precheck: txservice.PrecheckConfig{
			ChainID:           chainID,
			GasLimitCap:       cfg.GasLimitCap,
			MinGasPriceWeibar: minGasPrice,
		},
	}, mirror, pool, locks, hbarLimiter, supervisor, uploader, fees)

	trc := tracer.New(logger, mirror, sharedCache)

	// RPC dispatch (leaf 7): registry + namespace handlers, served over
	// HTTP/WS.
	registry := rpcserver.NewRegistry(logger, sharedCache)
	rpc.Register(registry, rpc.Dependencies{
		Logger:    logger,
		Config:    cfg,
		Cache:     sharedCache,
		Mirror:    mirror,
		Tracer:    trc,
		TxService: txSvc,
		Pool:      pool,
	})

	rpcSrv := rpcserver.New(logger, registry, cfg.JSONRPCAddr, cfg.CorsAllowAll)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rpcSrv.Run(gctx)
	})
	g.Go(func() error {
		return metrics.StartServer(gctx, logger, cfg.MetricsAddr)
	})

	logger.Info("relay started", "jsonRpcAddr", cfg.JSONRPCAddr, "metricsAddr", cfg.MetricsAddr, "chainId", cfg.ChainID)
	return g.Wait()
}
