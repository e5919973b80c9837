// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"github.com/ChainSafe/filament/lib/common"
)

// AncestryChain is an index of the headers supplied as justification proof
// material, used to decide whether one block is an ancestor of another by
// walking parent pointers. It is built once per justification and never
// mutated.
type AncestryChain struct {
	parents map[common.Hash]common.Hash
}

// NewAncestryChain builds the ancestry index from a bounded list of headers
func NewAncestryChain(headers []Header) AncestryChain {
	parents := make(map[common.Hash]common.Hash, len(headers))
	for i := range headers {
		parents[headers[i].Hash()] = headers[i].ParentHash
	}
	return AncestryChain{parents: parents}
}

// Route returns the hashes of the ancestry headers visited while walking from
// head back to base, excluding base itself. The second return is false if
// base is unreachable from head within the known headers: an unreachable
// hash is "not an ancestor", never an error.
func (c AncestryChain) Route(base, head common.Hash) ([]common.Hash, bool) {
	if base == head {
		return nil, true
	}

	var route []common.Hash
	current := head
	for {
		parent, ok := c.parents[current]
		if !ok {
			return nil, false
		}
		route = append(route, current)
		if parent == base {
			return route, true
		}
		current = parent
	}
}

// IsAncestor returns whether base is an ancestor of (or equal to) head
func (c AncestryChain) IsAncestor(base, head common.Hash) bool {
	_, ok := c.Route(base, head)
	return ok
}
