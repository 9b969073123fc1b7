package consensus

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/log"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"
)

// resetCounter tracks how many times the supervisor has rebuilt its client
// handle, exposed as a go-ethereum/metrics counter the way metrics/geth.go
// wires gauges/counters into the global geth metrics registry.
var resetCounter = gethmetrics.NewRegisteredCounter("consensus/client/resets", nil)

// Factory builds a fresh SDKClient handle, called by the Supervisor every
// time reinit fires.
type Factory func(ctx context.Context) (SDKClient, error)

// Thresholds configure the reinit policy of spec.md §4.2. Reinit is
// globally disabled when all three are zero (T0=0, D0=0, E=∅).
type Thresholds struct {
	TransactionCount int64
	ResetDuration    time.Duration
	ErrorCodes       map[string]bool
}

func (t Thresholds) disabled() bool {
	return t.TransactionCount == 0 && t.ResetDuration == 0 && len(t.ErrorCodes) == 0
}

// Supervisor owns the process-global consensus client handle, rebuilding
// it on a transaction-count, time, or error-code trigger (spec.md §4.2).
type Supervisor struct {
	logger     log.Logger
	factory    Factory
	thresholds Thresholds

	mu                    sync.Mutex
	client                SDKClient
	transactionCountLeft  int64
	resetDeadline         time.Time
	shouldReset           bool
}

// NewSupervisor constructs a Supervisor. The first GetClient call performs
// the initial construction (init-before-use by construction, per spec.md
// §9's "global client supervisor" note).
func NewSupervisor(logger log.Logger, factory Factory, thresholds Thresholds) *Supervisor {
	return &Supervisor{
		logger:     logger.With(log.ModuleKey, "consensusClientSupervisor"),
		factory:    factory,
		thresholds: thresholds,
		// shouldReset starts true so the very first GetClient call builds
		// the initial handle.
		shouldReset: true,
	}
}

// GetClient implements spec.md §4.2's get_client state machine.
func (s *Supervisor) GetClient(ctx context.Context) (SDKClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shouldReset {
		if err := s.rebuildLocked(ctx); err != nil {
			return nil, err
		}
	}

	if !s.thresholds.disabled() {
		s.transactionCountLeft--
		if s.transactionCountLeft <= 0 {
			s.shouldReset = true
		}
		if s.thresholds.ResetDuration > 0 && time.Now().After(s.resetDeadline) {
			s.shouldReset = true
		}
	}

	return s.client, nil
}

func (s *Supervisor) rebuildLocked(ctx context.Context) error {
	if s.client != nil {
		_ = s.client.Close()
	}
	client, err := s.factory(ctx)
	if err != nil {
		return err
	}
	s.client = client
	s.transactionCountLeft = s.thresholds.TransactionCount
	s.resetDeadline = time.Now().Add(s.thresholds.ResetDuration)
	s.shouldReset = false
	resetCounter.Inc(1)
	s.logger.Info("rebuilt consensus client handle",
		"transactionCount", s.thresholds.TransactionCount,
		"resetDuration", s.thresholds.ResetDuration)
	return nil
}

// ReportError implements spec.md §4.2's report_error: an error whose status
// code is in the configured trigger set latches should_reset.
func (s *Supervisor) ReportError(statusCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thresholds.disabled() {
		return
	}
	if s.thresholds.ErrorCodes[statusCode] {
		s.shouldReset = true
		s.logger.Info("consensus client marked for reinit by error code", "statusCode", statusCode)
	}
}

// ResetCount exposes the reset counter's current value for tests.
func ResetCount() int64 {
	return resetCounter.Count()
}
