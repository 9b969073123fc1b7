package tracer

import (
	"context"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/mirrornode"
)

// allow is the small set-membership helper spec.md §4.3.5's "allowed entity
// types" parameter needs.
func allow(types []mirrornode.EntityType, t mirrornode.EntityType) bool {
	for _, a := range types {
		if a == t {
			return true
		}
	}
	return false
}

// ResolveAddress implements spec.md §4.3.5: given an address and the set of
// entity types the caller is willing to accept, query the mirror node and
// substitute the entity's declared EVM address when one is found; otherwise
// the input is returned unchanged. A nil/empty address resolves to itself.
//
// TOKEN entities are resolved through the same contracts/{id} lookup as
// CONTRACT: the mirror node models fungible/non-fungible token accounts as
// contract-shaped entities, so a separate token lookup adds no information
// this gateway doesn't already get from Contract.
func ResolveAddress(ctx context.Context, mirror *mirrornode.Client, address string, allowed []mirrornode.EntityType) string {
	if address == "" {
		return address
	}

	if allow(allowed, mirrornode.EntityContract) || allow(allowed, mirrornode.EntityToken) {
		if entity, err := mirror.Contract(ctx, address); err == nil && entity.EVMAddress != "" {
			return entity.EVMAddress
		}
	}

	if allow(allowed, mirrornode.EntityAccount) {
		if account, err := mirror.Account(ctx, address); err == nil && account.Exists && account.EVMAddress != "" {
			return account.EVMAddress
		}
	}

	return address
}
