package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"

	"cosmossdk.io/log"
)

// SkipParam skips caching when the argument at Index equals Value literally,
// per spec.md §4.7 ("skip_params").
type SkipParam struct {
	Index int
	Value interface{}
}

// NamedField is one field/pattern pair checked by a SkipNamedParam rule.
type NamedField struct {
	Name         string
	ValuePattern *regexp.Regexp
}

// SkipNamedParam skips caching when the argument at Index is a
// map[string]interface{} whose field Name matches one of Fields' patterns,
// per spec.md §4.7 ("skip_named_params") — used for the "latest/pending/
// finalized" block-tag skip rule.
type SkipNamedParam struct {
	Index  int
	Fields []NamedField
}

// Policy is the per-method cache configuration a method registry entry
// carries (spec.md §4.7, §9's "method registry" replacement for decorators).
type Policy struct {
	TTLMillis       int64
	SkipParams      []SkipParam
	SkipNamedParams []SkipNamedParam
	// KeyLayout, when set, computes the cache-key suffix from the argument
	// list instead of the default JSON-fingerprint.
	KeyLayout func(args []interface{}) string
}

// ShouldSkip reports whether, given this call's arguments, the policy says
// not to cache the result.
func (p Policy) ShouldSkip(args []interface{}) bool {
	for _, sp := range p.SkipParams {
		if sp.Index < len(args) && fmt.Sprintf("%v", args[sp.Index]) == fmt.Sprintf("%v", sp.Value) {
			return true
		}
	}
	for _, snp := range p.SkipNamedParams {
		if snp.Index >= len(args) {
			continue
		}
		obj, ok := args[snp.Index].(map[string]interface{})
		if !ok {
			continue
		}
		for _, f := range snp.Fields {
			v, ok := obj[f.Name]
			if !ok {
				continue
			}
			if f.ValuePattern.MatchString(fmt.Sprintf("%v", v)) {
				return true
			}
		}
	}
	return false
}

// Memoizer wraps a method's handler so its result is cached by
// (method_name, arg_fingerprint) with the configured TTL, standing in for the
// source's @cache decorator (spec.md §4.7, §9).
type Memoizer struct {
	cache      Cache
	logger     log.Logger
	methodName string
	policy     Policy
}

// NewMemoizer builds a Memoizer for one RPC/internal method.
func NewMemoizer(c Cache, logger log.Logger, methodName string, policy Policy) *Memoizer {
	return &Memoizer{
		cache:      c,
		logger:     logger.With(log.ModuleKey, "memoize", "method", methodName),
		methodName: methodName,
		policy:     policy,
	}
}

// Handler is the shape of a memoizable call: a positional argument list in,
// a JSON-marshalable result or error out.
type Handler func(args []interface{}) (interface{}, error)

// Wrap returns a Handler that consults the cache before delegating to next,
// and populates the cache with next's result when the policy allows it.
func (m *Memoizer) Wrap(next Handler) Handler {
	return func(args []interface{}) (interface{}, error) {
		if m.policy.ShouldSkip(args) {
			return next(args)
		}

		key := m.key(args)
		if cached, ok := m.cache.Get(key, m.methodName); ok {
			var result interface{}
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return result, nil
			}
			m.logger.Error("failed to unmarshal cached value, recomputing", "key", key)
		}

		result, err := next(args)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			m.logger.Error("failed to marshal result for caching", "key", key, "error", err)
			return result, nil
		}
		if err := m.cache.Set(key, string(encoded), m.methodName, m.policy.TTLMillis); err != nil {
			m.logger.Error("failed to populate cache", "key", key, "error", err)
		}
		return result, nil
	}
}

func (m *Memoizer) key(args []interface{}) string {
	if m.policy.KeyLayout != nil {
		return Key(m.methodName, m.policy.KeyLayout(args))
	}
	return Key(m.methodName, fingerprint(args))
}

// fingerprint hashes the argument list into an opaque, fixed-length suffix —
// the default arg_fingerprint of spec.md §4.7.
func fingerprint(args []interface{}) string {
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", args))
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// BlockTagSkipRule is the standard "never cache latest/pending/finalized"
// named-param skip rule referenced in spec.md §4.7; it also skips
// "earliest".
func BlockTagSkipRule(argIndex int, fieldName string) SkipNamedParam {
	return SkipNamedParam{
		Index: argIndex,
		Fields: []NamedField{
			{Name: fieldName, ValuePattern: regexp.MustCompile(`^(latest|pending|finalized|earliest)$`)},
		},
	}
}
