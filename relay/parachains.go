// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/filament/lib/parachains"
)

// parachainsIteration submits head updates for every tracked parachain
// whose head on the target is behind the best finalized relay chain block.
// Updates finalized at the same relay block are batched into one
// submission.
func (e *Engine) parachainsIteration(ctx context.Context) error {
	var (
		atRelayBlock uint32
		heads        []parachains.ParaHead
	)
	for _, para := range e.cfg.Paras {
		head, finalizedAt, err := e.source.ParaHead(ctx, para)
		if err != nil {
			return fmt.Errorf("getting head of para %d: %w", para, err)
		}

		stored, err := e.target.BestParaHead(ctx, para)
		if err != nil {
			return fmt.Errorf("getting stored head of para %d: %w", para, err)
		}
		if stored != nil && finalizedAt.Number <= stored.AtRelayBlockNumber {
			continue
		}

		// all heads come from one finalized relay chain state
		if len(heads) > 0 && finalizedAt.Number != atRelayBlock {
			continue
		}
		atRelayBlock = finalizedAt.Number
		heads = append(heads, head)
	}

	if len(heads) == 0 {
		return nil
	}

	err := e.target.SubmitParaHeads(ctx, atRelayBlock, heads)
	if errors.Is(err, ErrAlreadySubmitted) {
		logger.Debug("parachain heads already submitted", "at_relay_block", atRelayBlock)
		return nil
	}
	if err != nil {
		return fmt.Errorf("submitting %d parachain heads: %w", len(heads), err)
	}

	e.metrics.SubmittedParaHeads.Add(float64(len(heads)))
	logger.Info("submitted parachain heads", "count", len(heads), "at_relay_block", atRelayBlock)
	return nil
}
