// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"fmt"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/crypto/ed25519"

	log "github.com/ChainSafe/log15"
)

var logger = log.New("pkg", "grandpa")

// VerifyJustification verifies the justification under the strict policy:
// every precommit must be a valid, distinct, related vote and every supplied
// ancestry header must be used by some vote. This is the policy an on-chain
// verifier runs on submission.
func VerifyJustification(j *Justification, setID uint64, voters *VoterSet) error {
	_, err := verifyJustification(j, setID, voters, true)
	return err
}

// OptimizeJustification verifies the justification under the size-optimizing
// policy: invalid, duplicate, equivocatory and unrelated votes are skipped
// instead of rejected, and a smaller equivalent justification is returned
// with redundant precommits and unused ancestry headers dropped. Off-chain
// relayers run this before submission, since justification size is bounded
// by the target chain.
func OptimizeJustification(j *Justification, setID uint64, voters *VoterSet) (*Justification, error) {
	return verifyJustification(j, setID, voters, false)
}

func verifyJustification(j *Justification, setID uint64, voters *VoterSet, strict bool) (*Justification, error) {
	ancestry := NewAncestryChain(j.VotesAncestries)
	threshold := voters.Threshold()

	votes := make(map[ed25519.PublicKeyBytes]Vote, len(j.Commit.Precommits))
	usedHeaders := make(map[common.Hash]struct{}, len(j.VotesAncestries))
	usedPrecommits := make([]int, 0, len(j.Commit.Precommits))
	var weight uint64

	for i, pc := range j.Commit.Precommits {
		if !strict && weight >= threshold {
			// remaining precommits are redundant for the optimized proof
			break
		}

		payload, err := signedPrecommitPayload(pc.Vote, j.Round, setID)
		if err != nil {
			return nil, fmt.Errorf("cannot encode precommit payload: %w", err)
		}

		pk, err := ed25519.NewPublicKey(pc.AuthorityID[:])
		if err != nil {
			logger.Trace("skipping precommit with malformed authority id", "authority", pc.AuthorityID)
			continue
		}

		ok, err := pk.Verify(payload, pc.Signature[:])
		if err != nil || !ok {
			// an invalid signature is fatal for this vote only, never for
			// the whole justification
			logger.Trace("skipping precommit", "authority", pc.AuthorityID,
				"error", ErrInvalidSignature)
			continue
		}

		voterWeight, ok := voters.WeightOf(pc.AuthorityID)
		if !ok {
			logger.Trace("skipping precommit", "authority", pc.AuthorityID,
				"error", ErrVoterNotFound)
			continue
		}

		if prev, seen := votes[pc.AuthorityID]; seen {
			if prev == pc.Vote {
				// counted once, not an error
				continue
			}
			if strict {
				return nil, fmt.Errorf("%w: authority %s voted for %s and %s",
					ErrEquivocation, pc.AuthorityID, prev, pc.Vote)
			}
			continue
		}

		route, related := ancestry.Route(j.Commit.Hash, pc.Vote.Hash)
		if !related {
			if strict {
				return nil, fmt.Errorf("%w: authority %s voted for %s",
					ErrUnrelatedVote, pc.AuthorityID, pc.Vote)
			}
			continue
		}

		votes[pc.AuthorityID] = pc.Vote
		weight += voterWeight
		usedPrecommits = append(usedPrecommits, i)
		for _, h := range route {
			usedHeaders[h] = struct{}{}
		}
	}

	if weight < threshold {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrMinVotesNotMet, weight, threshold)
	}

	if strict {
		for i := range j.VotesAncestries {
			if _, ok := usedHeaders[j.VotesAncestries[i].Hash()]; !ok {
				return nil, ErrUnusedHeaders
			}
		}
		return nil, nil
	}

	optimized := &Justification{
		Round: j.Round,
		Commit: Commit{
			Hash:       j.Commit.Hash,
			Number:     j.Commit.Number,
			Precommits: make([]SignedPrecommit, 0, len(usedPrecommits)),
		},
	}
	for _, i := range usedPrecommits {
		optimized.Commit.Precommits = append(optimized.Commit.Precommits, j.Commit.Precommits[i])
	}
	for i := range j.VotesAncestries {
		if _, ok := usedHeaders[j.VotesAncestries[i].Hash()]; ok {
			optimized.VotesAncestries = append(optimized.VotesAncestries, j.VotesAncestries[i])
		}
	}
	return optimized, nil
}
