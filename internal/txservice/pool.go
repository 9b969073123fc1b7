package txservice

import (
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
)

// PoolState is a pool entry's place in the state machine of spec.md §4.1:
//
//	ADMITTED -> SUBMITTED -> (RECONCILED | LOST)
//	         -> REPLACED_BY_HIGHER_PRICE
type PoolState string

const (
	PoolAdmitted           PoolState = "ADMITTED"
	PoolSubmitted          PoolState = "SUBMITTED"
	PoolReconciled         PoolState = "RECONCILED"
	PoolLost               PoolState = "LOST"
	PoolReplacedByHigherFee PoolState = "REPLACED_BY_HIGHER_PRICE"
)

// PoolEntry is one pending-pool entry (spec.md §3): keyed by (sender,
// nonce), holding the envelope, submission time, and the session token of
// the sender-lock holder that admitted it.
type PoolEntry struct {
	Envelope    *Envelope
	SubmittedAt time.Time
	SessionToken string
	State       PoolState
}

func poolKey(sender string, nonce uint64) string {
	return fmt.Sprintf("%s:%d", sender, nonce)
}

// Pool is the pending-transaction pool of spec.md §3/§4.1: at most one
// entry per (sender, nonce); a higher-priced arrival replaces a lower-priced
// one, a lower-priced one is rejected as already-known.
type Pool struct {
	logger log.Logger

	mu      sync.Mutex
	entries map[string]*PoolEntry
}

// NewPool constructs an empty Pool.
func NewPool(logger log.Logger) *Pool {
	return &Pool{
		logger:  logger.With(log.ModuleKey, "txPool"),
		entries: make(map[string]*PoolEntry),
	}
}

// ErrAlreadyKnown is returned by Admit when an equal-or-lower-priced entry
// already occupies this (sender, nonce) slot.
var ErrAlreadyKnown = fmt.Errorf("already known")

// Admit implements spec.md §4.1 step 5 / §3's replacement invariant: insert
// a new entry, or replace an existing lower-priced one, or reject a
// duplicate with ErrAlreadyKnown.
func (p *Pool) Admit(env *Envelope, sessionToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey(env.Sender.Hex(), env.Nonce())
	if existing, ok := p.entries[key]; ok {
		if env.EffectiveGasPrice().Cmp(existing.Envelope.EffectiveGasPrice()) <= 0 {
			return ErrAlreadyKnown
		}
		existing.State = PoolReplacedByHigherFee
		p.logger.Info("replacing pool entry with higher-priced arrival", "key", key)
	}

	p.entries[key] = &PoolEntry{
		Envelope:     env,
		SubmittedAt:  time.Now(),
		SessionToken: sessionToken,
		State:        PoolAdmitted,
	}
	return nil
}

// MarkSubmitted transitions an entry to SUBMITTED once the consensus
// submission call has returned.
func (p *Pool) MarkSubmitted(sender string, nonce uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[poolKey(sender, nonce)]; ok {
		e.State = PoolSubmitted
	}
}

// Remove deletes the (sender, nonce) entry, implementing spec.md §4.1 step
// 11 (pool remove, always performed whether reconciliation succeeded or
// not).
func (p *Pool) Remove(sender string, nonce uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, poolKey(sender, nonce))
}

// Get returns the current entry for (sender, nonce), if any.
func (p *Pool) Get(sender string, nonce uint64) (*PoolEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[poolKey(sender, nonce)]
	return e, ok
}

// Len reports the number of pending entries, for invariant tests (spec.md
// §8 invariant 1).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// All returns a snapshot of every pending entry, for the txpool_content/
// txpool_inspect/txpool_status read surface.
func (p *Pool) All() []*PoolEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*PoolEntry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e)
	}
	return out
}

// BySender returns a snapshot of every pending entry for sender, for
// txpool_contentFrom.
func (p *Pool) BySender(sender string) []*PoolEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*PoolEntry, 0)
	for _, e := range p.entries {
		if e.Envelope.Sender.Hex() == sender {
			out = append(out, e)
		}
	}
	return out
}
