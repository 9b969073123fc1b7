// Package senderlock implements the per-sender serialization registry of
// spec.md §4.5/§5: at most one in-flight consensus submission per sender,
// LRU-capped at 1000 entries (entries are evicted by the LRU cap only; no
// time-based expiry runs), session tokens so a
// release can never be mistaken for releasing someone else's freshly
// reissued lock (spec.md §9's eviction-while-held note).
package senderlock

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

const (
	// Cap is the maximum number of sender-lock entries kept alive at once
	// (spec.md §4.5).
	Cap = 1000
	// TTL is the idle lifetime named in spec.md §4.5. The registry does not
	// read it: entries carry a lastActive time, but they are evicted only by
	// the LRU cap, never by age.
	TTL = 15 * time.Minute
	// AcquireTimeout bounds how long a caller waits for another submission
	// for the same sender to finish (spec.md §4.1 step 4, §5).
	AcquireTimeout = 300 * time.Second
)

// entry is one sender's lock state: spec.md §3 requires the active session
// set to have size <= 1, so it's modelled as a single optional token guarded
// by mu rather than a general set.
type entry struct {
	mu         sync.Mutex
	locked     bool
	token      string
	lastActive time.Time
}

// Registry is the sender -> lock-state map described in spec.md §4.5.
type Registry struct {
	logger log.Logger

	mu      sync.Mutex // guards cache mutation (insert/evict), per spec.md §5
	cache   *lru.Cache[string, *entry]
	evicted map[string]bool // tokens whose entry was evicted while held
}

// New constructs a Registry capped at Cap entries.
func New(logger log.Logger) *Registry {
	r := &Registry{
		logger:  logger.With(log.ModuleKey, "senderlock"),
		evicted: make(map[string]bool),
	}
	c, err := lru.NewWithEvict[string, *entry](Cap, r.onEvict)
	if err != nil {
		// Cap is a positive compile-time constant; NewWithEvict only errors
		// on size <= 0.
		panic(err)
	}
	r.cache = c
	return r
}

// onEvict runs under the lru internal lock, from the cache.Add call in
// getOrCreate, which already holds r.mu; it therefore records into
// r.evicted without taking r.mu again. Evicting an entry whose mutex is
// held releases the mutex and warns (spec.md §9). The evicted token is
// remembered so that the holder's late Release is a no-op; Acquire re-reads
// the entry from the cache on every retry, so a waiter then gets a fresh one.
func (r *Registry) onEvict(sender string, e *entry) {
	e.mu.Lock()
	wasLocked := e.locked
	token := e.token
	e.locked = false
	e.token = ""
	e.mu.Unlock()

	if wasLocked {
		r.logger.Error("evicting sender-lock entry while held, releasing", "sender", sender, "token", token)
		r.evicted[token] = true
	}
}

func (r *Registry) getOrCreate(sender string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.cache.Get(sender); ok {
		return e
	}
	e := &entry{lastActive: time.Now()}
	r.cache.Add(sender, e)
	return e
}

// Acquire blocks (up to AcquireTimeout) until sender's lock is free, then
// returns a session token identifying this holder (spec.md §4.1 step 4).
func (r *Registry) Acquire(ctx context.Context, sender string) (string, error) {
	deadline := time.Now().Add(AcquireTimeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		e := r.getOrCreate(sender)
		e.mu.Lock()
		if !e.locked {
			token := uuid.NewString()
			e.locked = true
			e.token = token
			e.lastActive = time.Now()
			e.mu.Unlock()
			return token, nil
		}
		e.mu.Unlock()

		if time.Now().After(deadline) {
			return "", errors.Wrapf(rpcerr.ErrTimeout, "acquiring sender lock for %s", sender)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release is idempotent: releasing with an unknown or stale token is a
// silent no-op (spec.md §4.5, §8 invariant 3), which also protects against
// the eviction-while-held race documented in spec.md §9 — a waiter that
// reacquired a freshly reissued lock under the same sender key is not
// disturbed by a late release carrying the old token.
func (r *Registry) Release(sender, token string) {
	r.mu.Lock()
	if r.evicted[token] {
		delete(r.evicted, token)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	e := r.getOrCreate(sender)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked && e.token == token {
		e.locked = false
		e.token = ""
	}
}

// ActiveSessionCount reports the number of active session tokens for sender
// (0 or 1), exercised by the invariant tests in spec.md §8.
func (r *Registry) ActiveSessionCount(sender string) int {
	r.mu.Lock()
	e, ok := r.cache.Get(sender)
	r.mu.Unlock()
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return 1
	}
	return 0
}

// Len reports the number of tracked sender entries, for LRU-cap assertions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}
