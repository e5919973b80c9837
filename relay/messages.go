// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/filament/lib/messages"
)

// deliveryIteration submits the next undelivered nonce range of the lane to
// the target chain
func (e *Engine) deliveryIteration(ctx context.Context, lane messages.LaneID) error {
	outbound, err := e.source.OutboundLaneData(ctx, lane)
	if err != nil {
		return fmt.Errorf("getting outbound lane %s data: %w", lane, err)
	}
	inbound, err := e.target.InboundLaneData(ctx, lane)
	if err != nil {
		return fmt.Errorf("getting inbound lane %s data: %w", lane, err)
	}
	e.metrics.LaneQueuedMessages.WithLabelValues(lane.String()).
		Set(float64(outbound.QueuedMessages()))

	lastDelivered := inbound.LastDeliveredNonce()
	if outbound.LatestGeneratedNonce <= lastDelivered {
		return nil
	}

	begin := lastDelivered + 1
	end := outbound.LatestGeneratedNonce
	if end-begin+1 > e.cfg.MaxMessagesInBatch {
		end = begin + e.cfg.MaxMessagesInBatch - 1
	}

	proof, err := e.source.ProveMessages(ctx, lane, begin, end)
	if err != nil {
		return fmt.Errorf("proving messages %d..%d on lane %s: %w", begin, end, lane, err)
	}

	err = e.target.SubmitMessagesProof(ctx, proof, uint32(end-begin+1))
	if errors.Is(err, ErrAlreadySubmitted) {
		logger.Debug("messages already delivered", "lane", lane, "begin", begin, "end", end)
		return nil
	}
	if err != nil {
		return fmt.Errorf("submitting messages %d..%d on lane %s: %w", begin, end, lane, err)
	}

	e.metrics.DeliveredMessages.WithLabelValues(lane.String()).Add(float64(end - begin + 1))
	logger.Info("delivered messages", "lane", lane, "begin", begin, "end", end)
	return nil
}

// confirmationIteration reports the target's delivery progress back to the
// source chain so relayers get rewarded and the outbound queue is pruned
func (e *Engine) confirmationIteration(ctx context.Context, lane messages.LaneID) error {
	inbound, err := e.target.InboundLaneData(ctx, lane)
	if err != nil {
		return fmt.Errorf("getting inbound lane %s data: %w", lane, err)
	}
	outbound, err := e.source.OutboundLaneData(ctx, lane)
	if err != nil {
		return fmt.Errorf("getting outbound lane %s data: %w", lane, err)
	}

	lastDelivered := inbound.LastDeliveredNonce()
	if lastDelivered <= outbound.LatestReceivedNonce {
		return nil
	}

	proof, provedData, err := e.target.ProveInboundLane(ctx, lane)
	if err != nil {
		return fmt.Errorf("proving inbound lane %s: %w", lane, err)
	}

	// the digest must describe the lane state the proof commits to, a
	// delivery landing after the pre-check would otherwise get the whole
	// confirmation rejected on chain
	relayersState := messages.UnrewardedRelayersStateOf(provedData)
	err = e.source.SubmitDeliveryProof(ctx, proof, relayersState)
	if errors.Is(err, ErrAlreadySubmitted) {
		logger.Debug("delivery already confirmed", "lane", lane,
			"nonce", relayersState.LastDeliveredNonce)
		return nil
	}
	if err != nil {
		return fmt.Errorf("submitting delivery confirmation on lane %s: %w", lane, err)
	}

	e.metrics.SubmittedConfirmations.WithLabelValues(lane.String()).Inc()
	logger.Info("confirmed message delivery", "lane", lane,
		"nonce", relayersState.LastDeliveredNonce)
	return nil
}
