// Package cache implements the shared key/value substrate described in
// spec.md §4.6: get/set/delete/keys/clear over opaque string keys, with
// millisecond TTLs (-1 meaning no expiry). It backs both the memoization
// decorator (spec.md §4.7) and the HBAR spending-plan registry (spec.md §4.4).
//
// The teacher repo leans on dgraph-io/ristretto wherever it needs a
// high-throughput, TTL-aware cache rather than a hand-rolled map guarded by a
// mutex; we follow that idiom here.
package cache

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"

	"cosmossdk.io/log"
)

// NoExpiry is the TTL sentinel meaning "never expires" (spec.md §4.6).
const NoExpiry = -1

// Cache is the get/set/delete/keys/clear surface every collaborator in this
// gateway programs against. A caller name is threaded through every call for
// logging/debugging, matching the teacher's convention of scoping loggers
// with the calling module's name.
type Cache interface {
	Get(key string, caller string) (string, bool)
	Set(key string, value string, caller string, ttlMillis int64) error
	Delete(key string, caller string) error
	Keys(pattern string, caller string) ([]string, error)
	Clear(scope string) error
}

// ristrettoCache implements Cache over a ristretto.Cache, tracking the live
// key set separately because ristretto itself doesn't expose key
// enumeration — the registry needed by Keys()/Clear() is maintained
// alongside it, mutex-guarded like the teacher's mempool bookkeeping
// (mempool/mempool.go's mtx-guarded pool).
type ristrettoCache struct {
	logger log.Logger
	store  *ristretto.Cache

	mu   sync.RWMutex
	keys map[string]struct{}
}

// New constructs a Cache backed by ristretto with the given cost budget
// (MaxCost) and derives NumCounters as 10x maxCost, following ristretto's
// own sizing guidance (NumCounters ~10x MaxCost entries expected).
func New(logger log.Logger, maxCost int64) (Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct cache store")
	}
	return &ristrettoCache{
		logger: logger.With(log.ModuleKey, "cache"),
		store:  store,
		keys:   make(map[string]struct{}),
	}, nil
}

func (c *ristrettoCache) Get(key string, caller string) (string, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		c.logger.Error("cached value has unexpected type", "key", key, "caller", caller)
		return "", false
	}
	return s, true
}

func (c *ristrettoCache) Set(key string, value string, caller string, ttlMillis int64) error {
	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()

	var ok bool
	if ttlMillis == NoExpiry {
		ok = c.store.Set(key, value, 1)
	} else {
		ok = c.store.SetWithTTL(key, value, 1, time.Duration(ttlMillis)*time.Millisecond)
	}
	c.store.Wait()
	if !ok {
		return errors.Errorf("cache rejected write for key %q (caller=%s)", key, caller)
	}
	return nil
}

func (c *ristrettoCache) Delete(key string, caller string) error {
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
	c.store.Del(key)
	return nil
}

func (c *ristrettoCache) Keys(pattern string, caller string) ([]string, error) {
	re, err := regexp.Compile(globToRegexp(pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid key pattern %q", pattern)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	matches := make([]string, 0, len(c.keys))
	for k := range c.keys {
		if re.MatchString(k) {
			matches = append(matches, k)
		}
	}
	return matches, nil
}

func (c *ristrettoCache) Clear(scope string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if scope == "" {
		c.store.Clear()
		c.keys = make(map[string]struct{})
		return nil
	}
	re, err := regexp.Compile(globToRegexp(scope))
	if err != nil {
		return errors.Wrapf(err, "invalid clear scope %q", scope)
	}
	for k := range c.keys {
		if re.MatchString(k) {
			c.store.Del(k)
			delete(c.keys, k)
		}
	}
	return nil
}

// globToRegexp translates the collection-prefix glob patterns used by cache
// keys (e.g. "hbarSpendingPlan:*") into an anchored regexp.
func globToRegexp(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	return "^" + regexpReplaceStar(escaped) + "$"
}

func regexpReplaceStar(escaped string) string {
	out := make([]byte, 0, len(escaped))
	for i := 0; i < len(escaped); i++ {
		if escaped[i] == '\\' && i+1 < len(escaped) && escaped[i+1] == '*' {
			out = append(out, '.', '*')
			i++
			continue
		}
		out = append(out, escaped[i])
	}
	return string(out)
}

// Key builds the collection-prefixed cache key pattern documented in
// spec.md §6 ("{collection}:{identifier}[:{sub-key}]").
func Key(collection, identifier string, subKeys ...string) string {
	key := fmt.Sprintf("%s:%s", collection, identifier)
	for _, s := range subKeys {
		key += ":" + s
	}
	return key
}
