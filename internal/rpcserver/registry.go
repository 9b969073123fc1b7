// Package rpcserver implements the method registry and namespace dispatch
// of spec.md §9's design note: "model these as a central method registry:
// each RPC method is registered with a {validator, layout, cache_policy,
// handler} record; the dispatcher runs the registry entry rather than
// reflecting on annotations." It replaces the teacher's ethrpc.NewServer()/
// RegisterName reflection dispatch (server/json_rpc.go) with an explicit
// table the way the design note asks for, while keeping the teacher's
// outer HTTP/WS transport shape (see server.go).
package rpcserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/metrics"
	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// Handler executes one already-validated RPC call and returns its result.
type Handler func(ctx context.Context, args []interface{}) (interface{}, error)

// Validator checks a call's argument layout and contents before Handler
// runs, the "validator"/"layout" half of spec.md §9's registry record.
type Validator func(args []interface{}) error

// Method is one {validator, layout, cache_policy, handler} registry record
// (spec.md §9). MinParams is the layout check every method gets for free;
// Validate is an optional, method-specific deeper check.
type Method struct {
	Name      string
	MinParams int
	Validate  Validator
	Cached    bool
	Policy    cache.Policy
	Handler   Handler
}

type preparedMethod struct {
	spec Method
}

// Registry is the namespace dispatcher: every eth_*/net_*/web3_*/debug_*/
// txpool_* method is registered once at startup and looked up by name on
// every inbound call, instead of the teacher's reflection-based
// RegisterName(namespace, service) idiom.
type Registry struct {
	logger log.Logger
	cache  cache.Cache

	mu      sync.RWMutex
	methods map[string]preparedMethod
}

// NewRegistry constructs an empty Registry. c backs every Cached method's
// memoization (spec.md §4.7); a nil c is only valid if no registered method
// sets Cached.
func NewRegistry(logger log.Logger, c cache.Cache) *Registry {
	return &Registry{
		logger:  logger.With(log.ModuleKey, "rpcRegistry"),
		cache:   c,
		methods: make(map[string]preparedMethod),
	}
}

// Register adds a method to the dispatch table. Registering the same name
// twice overwrites the previous record, matching the teacher's own
// RegisterName-replaces-on-conflict convention.
func (r *Registry) Register(m Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.Name] = preparedMethod{spec: m}
}

// RegisterAll registers every method in ms.
func (r *Registry) RegisterAll(ms []Method) {
	for _, m := range ms {
		r.Register(m)
	}
}

// Names returns every registered method name, for introspection (e.g. in
// tests).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}

// Dispatch looks up name, validates args against its layout/validator, and
// runs its handler (through its cache policy when Cached), per spec.md
// §9's "dispatcher runs the registry entry" design.
func (r *Registry) Dispatch(ctx context.Context, name string, args []interface{}) (interface{}, error) {
	r.mu.RLock()
	pm, ok := r.methods[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(rpcerr.ErrUnsupportedMethod, "method %q", name)
	}
	metrics.RPCRequestsServed.Inc(1)

	m := pm.spec
	if len(args) < m.MinParams {
		metrics.RPCRequestErrors.Inc(1)
		return nil, errors.Wrapf(rpcerr.ErrInvalidArguments, "%s requires at least %d parameter(s), got %d", name, m.MinParams, len(args))
	}
	if m.Validate != nil {
		if err := m.Validate(args); err != nil {
			metrics.RPCRequestErrors.Inc(1)
			return nil, err
		}
	}

	run := m.Handler
	if m.Cached {
		mz := cache.NewMemoizer(r.cache, r.logger, name, m.Policy)
		run = func(ctx context.Context, a []interface{}) (interface{}, error) {
			return mz.Wrap(func(a []interface{}) (interface{}, error) {
				return m.Handler(ctx, a)
			})(a)
		}
	}

	result, err := run(ctx, args)
	if err != nil {
		metrics.RPCRequestErrors.Inc(1)
		return nil, err
	}
	return result, nil
}

// String renders a Method for log lines.
func (m Method) String() string {
	return fmt.Sprintf("%s(minParams=%d,cached=%v)", m.Name, m.MinParams, m.Cached)
}
