// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"testing"

	"github.com/ChainSafe/filament/lib/common"

	"github.com/stretchr/testify/require"
)

func TestAncestryChain(t *testing.T) {
	genesis := common.MustBlake2bHash([]byte("genesis"))
	chain := testChain(genesis, 1, 5)
	ancestry := NewAncestryChain(chain)

	head := chain[4].Hash()

	require.True(t, ancestry.IsAncestor(genesis, head))
	require.True(t, ancestry.IsAncestor(chain[1].Hash(), head))
	require.True(t, ancestry.IsAncestor(head, head), "a block is an ancestor of itself")

	route, ok := ancestry.Route(chain[1].Hash(), head)
	require.True(t, ok)
	require.Equal(t, []common.Hash{head, chain[3].Hash(), chain[2].Hash()}, route)

	// walking down never reaches a higher block
	require.False(t, ancestry.IsAncestor(head, chain[0].Hash()))
}

func TestAncestryChainFailsClosed(t *testing.T) {
	genesis := common.MustBlake2bHash([]byte("genesis"))
	chain := testChain(genesis, 1, 3)
	ancestry := NewAncestryChain(chain)

	unknown := common.MustBlake2bHash([]byte("unknown block"))

	// an unreachable hash is "not an ancestor", never an error
	require.False(t, ancestry.IsAncestor(unknown, chain[2].Hash()))
	require.False(t, ancestry.IsAncestor(chain[0].Hash(), unknown))

	// a fork not connected to the supplied headers is unreachable too
	fork := testChain(unknown, 1, 2)
	require.False(t, ancestry.IsAncestor(chain[0].Hash(), fork[1].Hash()))
}
