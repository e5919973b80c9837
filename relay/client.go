// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package relay implements the off-chain control loop that moves finality
// proofs, parachain heads, messages and delivery confirmations between a
// source and a target chain.
package relay

import (
	"context"
	"errors"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/grandpa"
	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"
)

// ErrAlreadySubmitted is returned by submission methods when the chain
// reports the unit of work as already applied. The engine treats it as
// success: someone else did the work first.
var ErrAlreadySubmitted = errors.New("submission is already applied on chain")

// HeaderID identifies a header by number and hash
type HeaderID struct {
	Number uint32
	Hash   common.Hash
}

// RuntimeVersion is the part of a chain's runtime version the relay watches
type RuntimeVersion struct {
	SpecName           string
	SpecVersion        uint32
	TransactionVersion uint32
}

// ChainClient is the connection the relay holds to one chain. Each task
// owns its own client handle; implementations reconnect internally with
// backoff on transport failure.
type ChainClient interface {
	Name() string
	BestFinalizedHeader(ctx context.Context) (HeaderID, error)
	RuntimeVersion(ctx context.Context) (RuntimeVersion, error)
}

// FinalitySource serves finalized headers, justifications and the current
// authority set of the chain being bridged
type FinalitySource interface {
	ChainClient
	GrandpaAuthorities(ctx context.Context) (*grandpa.VoterSet, uint64, error)
	// FinalityProof returns the finalized header at the given number and a
	// justification for it
	FinalityProof(ctx context.Context, number uint32) (grandpa.Header, *grandpa.Justification, error)
}

// FinalityTarget accepts finality proofs of the bridged chain
type FinalityTarget interface {
	ChainClient
	BestBridgedHeader(ctx context.Context) (HeaderID, error)
	SubmitFinalityProof(ctx context.Context, header grandpa.Header, justification *grandpa.Justification) error
}

// MessagesSource is the sending side of a lane: it serves outbound lane
// state and message proofs, and accepts delivery confirmations
type MessagesSource interface {
	ChainClient
	OutboundLaneData(ctx context.Context, lane messages.LaneID) (messages.OutboundLaneData, error)
	ProveMessages(ctx context.Context, lane messages.LaneID, begin, end messages.MessageNonce) (messages.MessagesProof, error)
	SubmitDeliveryProof(ctx context.Context, proof messages.MessagesDeliveryProof, relayersState messages.UnrewardedRelayersState) error
}

// MessagesTarget is the receiving side of a lane: it serves inbound lane
// state and delivery proofs, and accepts message proofs
type MessagesTarget interface {
	ChainClient
	InboundLaneData(ctx context.Context, lane messages.LaneID) (messages.InboundLaneData, error)
	// ProveInboundLane returns a delivery proof as of a finalized target
	// header together with the lane state that exact proof commits to
	ProveInboundLane(ctx context.Context, lane messages.LaneID) (messages.MessagesDeliveryProof, messages.InboundLaneData, error)
	SubmitMessagesProof(ctx context.Context, proof messages.MessagesProof, messagesCount uint32) error
}

// ParachainsSource reads finalized parachain heads from the relay chain
type ParachainsSource interface {
	ChainClient
	// ParaHead returns the given parachain's head at the best finalized
	// relay chain block
	ParaHead(ctx context.Context, para parachains.ParaID) (parachains.ParaHead, HeaderID, error)
}

// ParachainsTarget accepts parachain head updates
type ParachainsTarget interface {
	ChainClient
	BestParaHead(ctx context.Context, para parachains.ParaID) (*parachains.BestParaHeadHash, error)
	SubmitParaHeads(ctx context.Context, atRelayBlock uint32, heads []parachains.ParaHead) error
}

// Source is everything the engine needs from the source chain
type Source interface {
	FinalitySource
	MessagesSource
	ParachainsSource
}

// Target is everything the engine needs from the target chain
type Target interface {
	FinalityTarget
	MessagesTarget
	ParachainsTarget
}
