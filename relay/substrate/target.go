// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/grandpa"
	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"
	"github.com/ChainSafe/filament/relay"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// Target adapts a Client to the engine's target chain role. The bridge
// pallets it talks to are named at construction so one adapter serves
// differently wired runtimes.
type Target struct {
	*Client
	grandpaPallet    string
	messagesPallet   string
	parachainsPallet string
}

var _ relay.Target = (*Target)(nil)

// NewTarget returns a target adapter over the given bridge pallets
func NewTarget(client *Client, grandpaPallet, messagesPallet, parachainsPallet string) *Target {
	return &Target{
		Client:           client,
		grandpaPallet:    grandpaPallet,
		messagesPallet:   messagesPallet,
		parachainsPallet: parachainsPallet,
	}
}

type storedHeaderID struct {
	Number uint32
	Hash   common.Hash
}

// BestBridgedHeader returns the best source chain header the target knows
func (t *Target) BestBridgedHeader(_ context.Context) (relay.HeaderID, error) {
	var stored storedHeaderID
	ok, err := t.GetStorage(t.grandpaPallet, "BestFinalized", nil, &stored)
	if err != nil {
		return relay.HeaderID{}, err
	}
	if !ok {
		return relay.HeaderID{}, nil
	}
	return relay.HeaderID{Number: stored.Number, Hash: stored.Hash}, nil
}

// SubmitFinalityProof submits a source chain finality proof
func (t *Target) SubmitFinalityProof(ctx context.Context, header grandpa.Header, justification *grandpa.Justification) error {
	err := t.SubmitExtrinsic(ctx, t.grandpaPallet+".submit_finality_proof", header, *justification)
	if errors.Is(err, ErrExtrinsicFailed) {
		// the pool filters proofs for already-known headers
		return relay.ErrAlreadySubmitted
	}
	return err
}

// InboundLaneData returns the inbound state of the given lane
func (t *Target) InboundLaneData(_ context.Context, lane messages.LaneID) (messages.InboundLaneData, error) {
	arg, err := codec.Encode(lane)
	if err != nil {
		return messages.InboundLaneData{}, fmt.Errorf("encoding lane id: %w", err)
	}
	var data messages.InboundLaneData
	ok, err := t.GetStorage(t.messagesPallet, "InboundLanes", arg, &data)
	if err != nil {
		return messages.InboundLaneData{}, err
	}
	if !ok {
		return messages.NewInboundLaneData(), nil
	}
	return data, nil
}

// ProveInboundLane builds a storage proof of the lane's inbound state as of
// the best finalized header. The lane state is read at the same block so
// the returned data matches what the proof commits to.
func (t *Target) ProveInboundLane(ctx context.Context, lane messages.LaneID) (messages.MessagesDeliveryProof, messages.InboundLaneData, error) {
	finalized, err := t.BestFinalizedHeader(ctx)
	if err != nil {
		return messages.MessagesDeliveryProof{}, messages.InboundLaneData{}, err
	}

	arg, err := codec.Encode(lane)
	if err != nil {
		return messages.MessagesDeliveryProof{}, messages.InboundLaneData{},
			fmt.Errorf("encoding lane id: %w", err)
	}
	key, err := types.CreateStorageKey(t.meta, t.messagesPallet, "InboundLanes", arg)
	if err != nil {
		return messages.MessagesDeliveryProof{}, messages.InboundLaneData{},
			fmt.Errorf("creating lane storage key: %w", err)
	}

	var data messages.InboundLaneData
	ok, err := t.GetStorageAt(t.messagesPallet, "InboundLanes", arg, finalized.Hash, &data)
	if err != nil {
		return messages.MessagesDeliveryProof{}, messages.InboundLaneData{}, err
	}
	if !ok {
		data = messages.NewInboundLaneData()
	}

	storageProof, err := t.readProofAt([]string{key.Hex()}, finalized.Hash)
	if err != nil {
		return messages.MessagesDeliveryProof{}, messages.InboundLaneData{}, err
	}
	return messages.MessagesDeliveryProof{
		BridgedHeaderHash: finalized.Hash,
		StorageProof:      storageProof,
		Lane:              lane,
	}, data, nil
}

// SubmitMessagesProof submits a message delivery transaction
func (t *Target) SubmitMessagesProof(ctx context.Context, proof messages.MessagesProof, messagesCount uint32) error {
	err := t.SubmitExtrinsic(ctx, t.messagesPallet+".receive_messages_proof", proof, messagesCount)
	if errors.Is(err, ErrExtrinsicFailed) {
		// the pool filters already-delivered nonce ranges
		return relay.ErrAlreadySubmitted
	}
	return err
}

// BestParaHead returns the target's stored best head of the given
// parachain, nil when the para is untracked
func (t *Target) BestParaHead(_ context.Context, para parachains.ParaID) (*parachains.BestParaHeadHash, error) {
	arg, err := codec.Encode(uint32(para))
	if err != nil {
		return nil, fmt.Errorf("encoding para id: %w", err)
	}
	var info parachains.ParaInfo
	ok, err := t.GetStorage(t.parachainsPallet, "ParasInfo", arg, &info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &info.BestHeadHash, nil
}

// SubmitParaHeads submits a parachain head update transaction
func (t *Target) SubmitParaHeads(ctx context.Context, atRelayBlock uint32, heads []parachains.ParaHead) error {
	err := t.SubmitExtrinsic(ctx, t.parachainsPallet+".submit_parachain_heads", atRelayBlock, heads)
	if errors.Is(err, ErrExtrinsicFailed) {
		// the pool filters obsolete single-para updates
		return relay.ErrAlreadySubmitted
	}
	return err
}
