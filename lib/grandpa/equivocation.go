// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"github.com/ChainSafe/filament/lib/crypto/ed25519"
)

// Equivocation records an authority double-voting within one round: two
// different signed precommit payloads from the same authority. Immutable
// once produced.
type Equivocation struct {
	Round    uint64
	Offender ed25519.PublicKeyBytes
	First    SignedPrecommit
	Second   SignedPrecommit
}

// EquivocationProof is an equivocation, tagged with the authority set it was
// committed under, ready for submission to a slashing mechanism.
type EquivocationProof struct {
	SetID        uint64
	Equivocation Equivocation
}

type seenVote struct {
	first       SignedPrecommit
	equivocated *SignedPrecommit
}

// EquivocationsCollector consumes one or more justifications for the same
// round and collects equivocation proofs for authorities that voted for two
// different targets. Its job is detection, not admission control: malformed
// or irrelevant votes are ignored, never fatal.
type EquivocationsCollector struct {
	round  uint64
	setID  uint64
	voters *VoterSet
	votes  map[ed25519.PublicKeyBytes]*seenVote
	order  []ed25519.PublicKeyBytes
}

// NewEquivocationsCollector creates a collector seeded with a base
// justification for the round under inspection.
func NewEquivocationsCollector(base *Justification, setID uint64, voters *VoterSet) *EquivocationsCollector {
	c := &EquivocationsCollector{
		round:  base.Round,
		setID:  setID,
		voters: voters,
		votes:  make(map[ed25519.PublicKeyBytes]*seenVote),
	}
	c.parse(base)
	return c
}

// ParseJustification walks another justification claimed to target the same
// round. A mismatched round is rejected with no state change.
func (c *EquivocationsCollector) ParseJustification(j *Justification) error {
	if j.Round != c.round {
		return ErrInvalidRound
	}
	c.parse(j)
	return nil
}

func (c *EquivocationsCollector) parse(j *Justification) {
	for _, pc := range j.Commit.Precommits {
		if !c.voters.Contains(pc.AuthorityID) {
			continue
		}

		payload, err := signedPrecommitPayload(pc.Vote, c.round, c.setID)
		if err != nil {
			continue
		}
		pk, err := ed25519.NewPublicKey(pc.AuthorityID[:])
		if err != nil {
			continue
		}
		if ok, err := pk.Verify(payload, pc.Signature[:]); err != nil || !ok {
			continue
		}

		seen, has := c.votes[pc.AuthorityID]
		if !has {
			c.votes[pc.AuthorityID] = &seenVote{first: pc}
			c.order = append(c.order, pc.AuthorityID)
			continue
		}
		if seen.first.Vote == pc.Vote || seen.equivocated != nil {
			// redundant: same payload again, or the offence is already recorded
			continue
		}
		second := pc
		seen.equivocated = &second
	}
}

// IntoEquivocationProofs drains the collector into the list of detected
// equivocation proofs. The collector is empty afterwards.
func (c *EquivocationsCollector) IntoEquivocationProofs() []EquivocationProof {
	var proofs []EquivocationProof
	for _, id := range c.order {
		seen := c.votes[id]
		if seen.equivocated == nil {
			continue
		}
		proofs = append(proofs, EquivocationProof{
			SetID: c.setID,
			Equivocation: Equivocation{
				Round:    c.round,
				Offender: id,
				First:    seen.first,
				Second:   *seen.equivocated,
			},
		})
	}
	c.votes = make(map[ed25519.PublicKeyBytes]*seenVote)
	c.order = nil
	return proofs
}
