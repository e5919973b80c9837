// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"testing"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/crypto/ed25519"

	"github.com/stretchr/testify/require"
)

const testSetID uint64 = 7

func newTestVoters(t *testing.T, n int) ([]*ed25519.Keypair, *VoterSet) {
	t.Helper()

	keypairs := make([]*ed25519.Keypair, n)
	voters := make([]Voter, n)
	for i := 0; i < n; i++ {
		kp, err := ed25519.GenerateKeypair()
		require.NoError(t, err)
		keypairs[i] = kp
		voters[i] = Voter{Key: kp.Public().AsBytes(), Weight: 1}
	}

	vs, err := NewVoterSet(voters)
	require.NoError(t, err)
	return keypairs, vs
}

// testChain builds a chain of headers, each the child of the previous one,
// starting with a child of the given parent hash.
func testChain(parent common.Hash, startNumber uint32, length int) []Header {
	headers := make([]Header, 0, length)
	for i := 0; i < length; i++ {
		h := Header{
			ParentHash: parent,
			Number:     startNumber + uint32(i),
			StateRoot:  common.MustBlake2bHash([]byte{byte(startNumber), byte(i)}),
		}
		headers = append(headers, h)
		parent = h.Hash()
	}
	return headers
}

func signPrecommit(t *testing.T, kp *ed25519.Keypair, vote Vote, round, setID uint64) SignedPrecommit {
	t.Helper()

	signed, err := SignPrecommit(kp, vote, round, setID)
	require.NoError(t, err)
	return signed
}

// newTestJustification builds a justification for the head of a fresh chain,
// voted for directly by the first nVotes keypairs.
func newTestJustification(t *testing.T, keypairs []*ed25519.Keypair, nVotes int, round uint64) *Justification {
	t.Helper()

	chain := testChain(common.MustBlake2bHash([]byte("genesis")), 1, 1)
	target := Vote{Hash: chain[0].Hash(), Number: chain[0].Number}

	j := &Justification{
		Round: round,
		Commit: Commit{
			Hash:   target.Hash,
			Number: target.Number,
		},
		VotesAncestries: []Header{},
	}
	for i := 0; i < nVotes; i++ {
		j.Commit.Precommits = append(j.Commit.Precommits,
			signPrecommit(t, keypairs[i], target, round, testSetID))
	}
	return j
}
