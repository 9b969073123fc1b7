// Package metrics exposes the gateway's operational counters over
// go-ethereum's metrics registry and its Prometheus exporter, the same
// substrate the teacher's metrics/geth.go starts a server for. Every
// counter here is registered eagerly at package init so a caller never
// has to guard against a nil metric.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	gethprom "github.com/ethereum/go-ethereum/metrics/prometheus"

	"cosmossdk.io/log"
)

var (
	// TransactionsSubmitted counts successful send_raw_transaction calls
	// (spec.md §4.1).
	TransactionsSubmitted = gethmetrics.NewRegisteredCounter("relay/tx/submitted", nil)

	// TransactionsRejected counts send_raw_transaction calls that failed
	// precheck, the sender lock, or the budget gate.
	TransactionsRejected = gethmetrics.NewRegisteredCounter("relay/tx/rejected", nil)

	// HbarExpensesRecorded counts successful hbar_limiter.add_expense calls
	// (spec.md §4.2's fee accounting step).
	HbarExpensesRecorded = gethmetrics.NewRegisteredCounter("relay/hbar/expenses_recorded", nil)

	// BudgetLimitHits counts should_limit(...) returning true (spec.md
	// §4.4's budget limiter).
	BudgetLimitHits = gethmetrics.NewRegisteredCounter("relay/hbar/budget_limit_hits", nil)

	// TracesBuilt counts debug_traceTransaction/debug_traceBlockByNumber
	// invocations, tagged neither by tracer kind nor outcome — a per-kind
	// breakdown would need a label dimension go-ethereum's metrics package
	// doesn't have; see DESIGN.md.
	TracesBuilt = gethmetrics.NewRegisteredCounter("relay/tracer/traces_built", nil)

	// SubmissionLatency times the full send_raw_transaction pipeline from
	// precheck through consensus submission.
	SubmissionLatency = gethmetrics.NewRegisteredTimer("relay/tx/submission_latency", nil)

	// RPCRequestsServed counts every dispatched JSON-RPC method call,
	// across every namespace, regardless of outcome.
	RPCRequestsServed = gethmetrics.NewRegisteredCounter("relay/rpc/requests_served", nil)

	// RPCRequestErrors counts dispatched calls that returned a JSON-RPC
	// error object.
	RPCRequestErrors = gethmetrics.NewRegisteredCounter("relay/rpc/request_errors", nil)
)

// StartServer starts the Prometheus metrics endpoint, following the
// teacher's metrics/geth.go StartGethMetricServer verbatim: a single
// /metrics handler over gethmetrics.DefaultRegistry, shut down when ctx is
// canceled.
func StartServer(ctx context.Context, logger log.Logger, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", gethprom.Handler(gethmetrics.DefaultRegistry))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "address", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("stopping metrics server", "address", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "err", err)
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start metrics server", "err", err)
			return err
		}
		return nil
	}
}
