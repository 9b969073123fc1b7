package limiter

import (
	"encoding/json"
	"sync"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/cache"
)

// cache collection prefixes, matching the "{collection}:{identifier}"
// pattern documented in spec.md §6's hbarSpendingPlan example.
const (
	collectionPlan     = "hbarSpendingPlan"
	collectionEVMPlan  = "evmPlan"
	collectionIPPlan   = "ipPlan"
)

// Registry is the spending-plan registry of spec.md §4.4: it reconciles a
// declarative config against the cache on start, and answers
// lookup_by_evm_address / lookup_by_ip for the limiter.
type Registry struct {
	logger log.Logger
	cache  cache.Cache

	mu        sync.RWMutex
	plans     map[string]*Plan
	evmToPlan map[string]string
	ipToPlan  map[string]string
}

// NewRegistry constructs an empty Registry; call Reconcile to populate it
// from config.
func NewRegistry(logger log.Logger, c cache.Cache) *Registry {
	return &Registry{
		logger:    logger.With(log.ModuleKey, "spendingPlanRegistry"),
		cache:     c,
		plans:     make(map[string]*Plan),
		evmToPlan: make(map[string]string),
		ipToPlan:  make(map[string]string),
	}
}

// Reconcile implements spec.md §4.4's three-step reconciliation:
//  1. delete cached EXTENDED/PRIVILEGED plans not present in config (and
//     their address associations);
//  2. create cached plans for new config ids;
//  3. for every config plan, delete obsolete associations and add missing
//     ones.
//
// Repeated calls with the same config converge to the same cache state
// (spec.md §8's idempotence property).
func (r *Registry) Reconcile(configs []PlanConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	configIDs := make(map[string]bool, len(configs))
	for _, c := range configs {
		configIDs[c.ID] = true
	}

	// Step 1: delete cached EXTENDED/PRIVILEGED plans no longer in config.
	for id, plan := range r.plans {
		if configIDs[id] {
			continue
		}
		if plan.Tier == TierExtended || plan.Tier == TierPrivileged {
			r.deletePlanLocked(id)
		}
	}

	// Step 2 + 3: create/update plans and their associations.
	for _, c := range configs {
		plan, ok := r.plans[c.ID]
		if !ok {
			plan = &Plan{ID: c.ID, Name: c.Name, Tier: c.Tier}
			r.plans[c.ID] = plan
			r.persistPlanLocked(plan)
		} else {
			plan.Name = c.Name
			plan.Tier = c.Tier
			r.persistPlanLocked(plan)
		}

		r.reconcileAssociationsLocked(c.ID, c.EVMAddresses, r.evmToPlan, collectionEVMPlan)
		r.reconcileAssociationsLocked(c.ID, c.IPAddresses, r.ipToPlan, collectionIPPlan)
	}

	return nil
}

// reconcileAssociationsLocked adds addr->planID associations named in
// addrs, and removes any existing association that now points to a
// different plan id than planID, per spec.md §4.4 step 3.
func (r *Registry) reconcileAssociationsLocked(planID string, addrs []string, table map[string]string, collection string) {
	desired := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		desired[a] = true
	}

	// Drop stale associations pointing at planID that are no longer desired.
	for addr, pid := range table {
		if pid == planID && !desired[addr] {
			delete(table, addr)
			_ = r.cache.Delete(cache.Key(collection, addr), "spendingPlanRegistry")
		}
	}

	for _, addr := range addrs {
		if existing, ok := table[addr]; ok && existing != planID {
			// Address now belongs to a different plan: replace.
			delete(table, addr)
		}
		table[addr] = planID
		_ = r.cache.Set(cache.Key(collection, addr), planID, "spendingPlanRegistry", cache.NoExpiry)
	}
}

func (r *Registry) deletePlanLocked(id string) {
	delete(r.plans, id)
	_ = r.cache.Delete(cache.Key(collectionPlan, id), "spendingPlanRegistry")
	for addr, pid := range r.evmToPlan {
		if pid == id {
			delete(r.evmToPlan, addr)
			_ = r.cache.Delete(cache.Key(collectionEVMPlan, addr), "spendingPlanRegistry")
		}
	}
	for addr, pid := range r.ipToPlan {
		if pid == id {
			delete(r.ipToPlan, addr)
			_ = r.cache.Delete(cache.Key(collectionIPPlan, addr), "spendingPlanRegistry")
		}
	}
}

func (r *Registry) persistPlanLocked(plan *Plan) {
	encoded, err := json.Marshal(plan)
	if err != nil {
		r.logger.Error("failed to marshal spending plan", "id", plan.ID, "error", err)
		return
	}
	if err := r.cache.Set(cache.Key(collectionPlan, plan.ID), string(encoded), "spendingPlanRegistry", cache.NoExpiry); err != nil {
		r.logger.Error("failed to persist spending plan", "id", plan.ID, "error", err)
	}
}

// LookupByEVMAddress resolves an EVM address to its plan, defaulting to an
// unnamed BASIC-tier lookup when unmatched (spec.md §4.4).
func (r *Registry) LookupByEVMAddress(addr string) Lookup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.evmToPlan[addr]; ok {
		if plan, ok := r.plans[id]; ok {
			return Lookup{PlanID: plan.ID, Tier: plan.Tier}
		}
	}
	return Lookup{PlanID: globalBasicPlan, Tier: TierBasic}
}

// LookupByIP resolves an IP address to its plan, defaulting to BASIC.
func (r *Registry) LookupByIP(ip string) Lookup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.ipToPlan[ip]; ok {
		if plan, ok := r.plans[id]; ok {
			return Lookup{PlanID: plan.ID, Tier: plan.Tier}
		}
	}
	return Lookup{PlanID: globalBasicPlan, Tier: TierBasic}
}

// PlanByID returns a snapshot of the named plan, for tests/diagnostics.
func (r *Registry) PlanByID(id string) (Plan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return Plan{}, false
	}
	return *p, true
}

// PlanCount reports how many plans are tracked, for reconciliation tests.
func (r *Registry) PlanCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plans)
}

// EVMAddressPlan exposes the raw association, for reconciliation tests.
func (r *Registry) EVMAddressPlan(addr string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.evmToPlan[addr]
	return id, ok
}
