package limiter

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/log"
)

// Mode identifies the kind of consensus operation being budget-checked
// (e.g. "eth_sendRawTransaction", "fileCreate"), used both for should_limit's
// tier-mode allowlist and for spending-history entries (spec.md §4.4).
type Mode string

// bucket tracks one plan's (or the global BASIC pool's) spend within the
// current reset window.
type bucket struct {
	mu            sync.Mutex
	amountSpent   int64
	resetDeadline time.Time
}

func (b *bucket) maybeReset(now time.Time, window time.Duration) {
	if now.After(b.resetDeadline) {
		b.amountSpent = 0
		b.resetDeadline = now.Add(window)
	}
}

// Limiter is the HBAR budget gate of spec.md §4.4, consulted via
// ShouldLimit before every consensus submission and updated via AddExpense
// once the submission's real cost is known.
type Limiter struct {
	logger   log.Logger
	registry *Registry

	window      time.Duration
	tierCapTiny map[Tier]int64
	globalCap   int64
	allowedMode map[Tier]map[Mode]bool

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Config configures a Limiter's caps and per-tier mode allowlist.
type Config struct {
	Window            time.Duration
	TierCapTinybar     map[Tier]int64
	GlobalBasicCapTiny int64
	// AllowedModesByTier restricts which submission Modes a tier may use;
	// a tier absent from this map is unrestricted.
	AllowedModesByTier map[Tier]map[Mode]bool
}

// NewLimiter constructs a Limiter bound to registry for plan/tier lookups.
func NewLimiter(logger log.Logger, registry *Registry, cfg Config) *Limiter {
	return &Limiter{
		logger:      logger.With(log.ModuleKey, "hbarLimiter"),
		registry:    registry,
		window:      cfg.Window,
		tierCapTiny: cfg.TierCapTinybar,
		globalCap:   cfg.GlobalBasicCapTiny,
		allowedMode: cfg.AllowedModesByTier,
		buckets:     make(map[string]*bucket),
	}
}

func (l *Limiter) bucketFor(planID string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[planID]
	if !ok {
		b = &bucket{resetDeadline: time.Now().Add(l.window)}
		l.buckets[planID] = b
	}
	return b
}

// ShouldLimit implements spec.md §4.4's should_limit: true when the
// caller's plan has exhausted its tier cap, the BASIC global pool is
// exhausted, or mode is disallowed for the caller's tier.
func (l *Limiter) ShouldLimit(ctx context.Context, mode Mode, callerName string, sender string) bool {
	lookup := l.registry.LookupByEVMAddress(sender)

	if allowed, ok := l.allowedMode[lookup.Tier]; ok {
		if !allowed[mode] {
			l.logger.Info("mode disallowed for tier", "mode", mode, "tier", lookup.Tier, "caller", callerName)
			return true
		}
	}

	cap, ok := l.tierCapTiny[lookup.Tier]
	if ok {
		b := l.bucketFor(lookup.PlanID)
		b.mu.Lock()
		b.maybeReset(time.Now(), l.window)
		exceeded := b.amountSpent >= cap
		b.mu.Unlock()
		if exceeded {
			return true
		}
	}

	if lookup.Tier == TierBasic {
		g := l.bucketFor(globalBasicPlan)
		g.mu.Lock()
		defer g.mu.Unlock()
		g.maybeReset(time.Now(), l.window)
		if g.amountSpent >= l.globalCap {
			return true
		}
	}

	return false
}

// AddExpense records a completed submission's cost against every applicable
// bucket (the caller's plan, and the global BASIC pool when relevant),
// per spec.md §4.4. It is only ever called after a ShouldLimit check passed
// (spec.md §8 invariant 4).
func (l *Limiter) AddExpense(ctx context.Context, amountTinybar int64, sender string, txConstructor string) {
	lookup := l.registry.LookupByEVMAddress(sender)

	b := l.bucketFor(lookup.PlanID)
	b.mu.Lock()
	b.maybeReset(time.Now(), l.window)
	b.amountSpent += amountTinybar
	b.mu.Unlock()

	// An unmatched caller's plan bucket already is the global BASIC bucket;
	// adding to it again would count the expense twice.
	if lookup.Tier == TierBasic && lookup.PlanID != globalBasicPlan {
		g := l.bucketFor(globalBasicPlan)
		g.mu.Lock()
		g.maybeReset(time.Now(), l.window)
		g.amountSpent += amountTinybar
		g.mu.Unlock()
	}

	l.registry.mu.Lock()
	if plan, ok := l.registry.plans[lookup.PlanID]; ok {
		plan.AmountSpent += amountTinybar
		plan.SpendingHistory = append(plan.SpendingHistory, HistoryEntry{
			Timestamp:     time.Now(),
			AmountTinybar: amountTinybar,
			TxConstructor: txConstructor,
		})
		l.registry.persistPlanLocked(plan)
	}
	l.registry.mu.Unlock()
}

// AmountSpent reports the current spend for a plan id, for tests.
func (l *Limiter) AmountSpent(planID string) int64 {
	b := l.bucketFor(planID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.amountSpent
}
