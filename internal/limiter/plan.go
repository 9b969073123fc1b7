// Package limiter implements the HBAR spending-plan registry and budget
// limiter of spec.md §4.4: tiered spending plans keyed by EVM/IP address,
// reconciled from a declarative config against the shared cache, plus the
// should_limit/add_expense budget gate consulted on every consensus
// submission.
package limiter

import (
	"encoding/json"
	"time"
)

// Tier is a spending plan's rate-limit tier (spec.md §3).
type Tier string

const (
	TierBasic       Tier = "BASIC"
	TierExtended    Tier = "EXTENDED"
	TierPrivileged  Tier = "PRIVILEGED"
	globalBasicPlan      = "__basic_global__"
)

// TierBudget is the per-tier HBAR budget cap, in tinybar, over a reset
// window (spec.md §4.4).
type TierBudget struct {
	Tier     Tier
	CapTiny  int64
	Duration time.Duration
}

// HistoryEntry is one spending-plan ledger entry (spec.md §3).
type HistoryEntry struct {
	Timestamp      time.Time
	AmountTinybar  int64
	TxConstructor  string
}

// Plan is the runtime spending-plan record (spec.md §3).
type Plan struct {
	ID             string
	Name           string
	Tier           Tier
	AmountSpent    int64
	ResetDeadline  time.Time
	SpendingHistory []HistoryEntry
}

// PlanConfig is one entry of the declarative spending-plan configuration
// file/inline JSON (spec.md §4.4, §6 HBAR_SPENDING_PLANS_CONFIG).
type PlanConfig struct {
	ID            string   `json:"id" mapstructure:"id"`
	Name          string   `json:"name" mapstructure:"name"`
	Tier          Tier     `json:"tier" mapstructure:"tier"`
	EVMAddresses  []string `json:"evmAddresses" mapstructure:"evmAddresses"`
	IPAddresses   []string `json:"ipAddresses" mapstructure:"ipAddresses"`
}

// Lookup is the result of resolving a caller to a plan (spec.md §4.4).
type Lookup struct {
	PlanID string
	Tier   Tier
}

// DecodePlanConfigs unmarshals the raw bytes config.SpendingPlansSource
// resolves (inline JSON or file contents) into the slice Registry.Reconcile
// consumes. Empty input decodes to no plans, matching the "feature
// disabled" reading of an absent HBAR_SPENDING_PLANS_CONFIG.
func DecodePlanConfigs(raw []byte) ([]PlanConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var plans []PlanConfig
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}
