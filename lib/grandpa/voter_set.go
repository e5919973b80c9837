// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"github.com/ChainSafe/filament/lib/crypto/ed25519"
)

// Voter is one authority and its voting weight
type Voter struct {
	Key    ed25519.PublicKeyBytes
	Weight uint64
}

// VoterSet identifies all voters that are permitted to vote in a round of
// the protocol and their associated weights. The set is tagged by the caller
// with a set id (authority set epoch); the set itself is immutable.
type VoterSet struct {
	voters      []Voter
	indices     map[ed25519.PublicKeyBytes]int
	totalWeight uint64
}

// NewVoterSet creates a voter set from a weight distribution.
//
// If the distribution contains multiple weights for the same voter, they
// are understood to be partial weights and are accumulated. Zero weights
// are dropped. Returns an error if the resulting set would be empty.
func NewVoterSet(voters []Voter) (*VoterSet, error) {
	vs := &VoterSet{
		indices: make(map[ed25519.PublicKeyBytes]int, len(voters)),
	}
	for _, v := range voters {
		if v.Weight == 0 {
			continue
		}
		if i, ok := vs.indices[v.Key]; ok {
			vs.voters[i].Weight += v.Weight
		} else {
			vs.indices[v.Key] = len(vs.voters)
			vs.voters = append(vs.voters, v)
		}
		vs.totalWeight += v.Weight
	}

	if len(vs.voters) == 0 {
		return nil, ErrEmptyVoterSet
	}
	return vs, nil
}

// WeightOf returns the weight of the voter with the given key, if any
func (vs *VoterSet) WeightOf(key ed25519.PublicKeyBytes) (uint64, bool) {
	i, ok := vs.indices[key]
	if !ok {
		return 0, false
	}
	return vs.voters[i].Weight, true
}

// Contains returns whether the set contains a voter with the given key
func (vs *VoterSet) Contains(key ed25519.PublicKeyBytes) bool {
	_, ok := vs.indices[key]
	return ok
}

// Len returns the size of the set
func (vs *VoterSet) Len() int {
	return len(vs.voters)
}

// TotalWeight returns the total weight of all voters
func (vs *VoterSet) TotalWeight() uint64 {
	return vs.totalWeight
}

// Threshold returns the vote weight required for supermajority w.r.t. this
// set of voters.
func (vs *VoterSet) Threshold() uint64 {
	return RequiredVotes(vs.totalWeight)
}

// RequiredVotes computes the supermajority threshold for the given total
// voting weight: the set tolerates up to (totalWeight-1)/3 byzantine or
// absent voters.
func RequiredVotes(totalWeight uint64) uint64 {
	if totalWeight == 0 {
		return 0
	}
	faulty := (totalWeight - 1) / 3
	return totalWeight - faulty
}
