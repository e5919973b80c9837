// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/filament/lib/grandpa"
)

// finalityScanLimit bounds how many source headers one tick inspects when
// the target is far behind
const finalityScanLimit = 64

var errNoUsableProof = errors.New("no usable finality proof")

// finalityIteration submits the earliest finalized source header the target
// does not yet know about. Headers are scanned in ascending order so a
// header carrying an authority set change is always relayed before anything
// signed by the new set; the tip is only submitted directly when no earlier
// header has a usable justification.
func (e *Engine) finalityIteration(ctx context.Context) error {
	bestSource, err := e.source.BestFinalizedHeader(ctx)
	if err != nil {
		return fmt.Errorf("getting best finalized source header: %w", err)
	}
	e.metrics.BestSourceBlock.Set(float64(bestSource.Number))

	bestOnTarget, err := e.target.BestBridgedHeader(ctx)
	if err != nil {
		return fmt.Errorf("getting best bridged header: %w", err)
	}
	e.metrics.BestBridgedBlock.Set(float64(bestOnTarget.Number))

	if bestOnTarget.Number >= bestSource.Number {
		return nil
	}

	voters, setID, err := e.source.GrandpaAuthorities(ctx)
	if err != nil {
		return fmt.Errorf("getting grandpa authorities: %w", err)
	}

	begin := bestOnTarget.Number + 1
	scanEnd := bestSource.Number
	if scanEnd-begin+1 > finalityScanLimit {
		scanEnd = begin + finalityScanLimit - 1
	}
	for number := begin; number <= scanEnd; number++ {
		submitted, err := e.submitFinality(ctx, number, voters, setID)
		if err != nil {
			return err
		}
		if submitted {
			return nil
		}
	}

	// the source may retain justifications for recent blocks only
	if scanEnd < bestSource.Number {
		submitted, err := e.submitFinality(ctx, bestSource.Number, voters, setID)
		if err != nil {
			return err
		}
		if submitted {
			return nil
		}
	}
	return fmt.Errorf("%w for blocks %d..%d", errNoUsableProof, begin, bestSource.Number)
}

// submitFinality fetches and submits the finality proof for one source
// block. A missing or unverifiable justification is not fatal, the caller
// moves on to the next candidate. The justification is size-optimized
// before submission since the target bounds proof size for fee reasons.
func (e *Engine) submitFinality(ctx context.Context, number uint32, voters *grandpa.VoterSet, setID uint64) (bool, error) {
	header, justification, err := e.source.FinalityProof(ctx, number)
	if err != nil {
		logger.Trace("no finality proof", "block", number, "error", err)
		return false, nil
	}

	optimized, err := grandpa.OptimizeJustification(justification, setID, voters)
	if err != nil {
		logger.Trace("skipping unverifiable justification", "block", header.Number, "error", err)
		return false, nil
	}

	err = e.target.SubmitFinalityProof(ctx, header, optimized)
	if errors.Is(err, ErrAlreadySubmitted) {
		logger.Debug("finality proof already submitted", "block", header.Number)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("submitting finality proof for block %d: %w", header.Number, err)
	}

	e.metrics.SubmittedFinalityProofs.Inc()
	logger.Info("submitted finality proof", "block", header.Number, "hash", header.Hash())
	return true, nil
}
