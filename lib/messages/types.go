// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package messages implements the ordered message-lane protocol: nonce
// issuance and pruning on the outbound side, delivery and confirmation
// tracking on the inbound side, and relayer reward accounting.
package messages

import (
	"encoding/hex"

	"github.com/ChainSafe/filament/lib/common"
)

// LaneID identifies one logical channel between the bridged chains. It is
// stable for the lifetime of a bridge link.
type LaneID [4]byte

// String returns the hex representation of the lane id
func (l LaneID) String() string {
	return "0x" + hex.EncodeToString(l[:])
}

// MessageNonce is a per-lane message sequence number, strictly increasing
// and never reused
type MessageNonce uint64

// LaneState is the lifecycle state of a lane. Transitions are monotonic:
// an Opened lane may start Closing, a Closing lane may become Closed, and
// a Closed lane never reopens.
type LaneState uint8

const (
	// LaneOpened accepts new messages
	LaneOpened LaneState = iota
	// LaneClosing rejects new messages but still delivers and confirms
	// queued ones
	LaneClosing
	// LaneClosed is terminal
	LaneClosed
)

func (s LaneState) String() string {
	switch s {
	case LaneOpened:
		return "opened"
	case LaneClosing:
		return "closing"
	case LaneClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// canTransitionTo reports whether the lane state may move to next
func (s LaneState) canTransitionTo(next LaneState) bool {
	return next >= s
}

// OutboundLaneData is the persistent state of one outbound lane.
// Invariant: OldestUnprunedNonce-1 <= LatestReceivedNonce <=
// LatestGeneratedNonce, all monotonically non-decreasing.
type OutboundLaneData struct {
	State LaneState
	// OldestUnprunedNonce is the nonce of the oldest message payload still
	// kept in storage
	OldestUnprunedNonce MessageNonce
	// LatestReceivedNonce is the highest nonce the bridged chain has
	// confirmed delivery of
	LatestReceivedNonce MessageNonce
	// LatestGeneratedNonce is the highest nonce assigned by SendMessage
	LatestGeneratedNonce MessageNonce
}

// NewOutboundLaneData returns the state of a freshly opened outbound lane
func NewOutboundLaneData() OutboundLaneData {
	return OutboundLaneData{
		State:               LaneOpened,
		OldestUnprunedNonce: 1,
	}
}

// QueuedMessages returns the number of sent but not yet confirmed messages
func (d OutboundLaneData) QueuedMessages() MessageNonce {
	return d.LatestGeneratedNonce - d.LatestReceivedNonce
}

// RelayerID identifies a relayer account
type RelayerID string

// DeliveredMessages is an inclusive nonce range delivered by one relayer
type DeliveredMessages struct {
	Begin MessageNonce
	End   MessageNonce
}

// NewDeliveredMessages returns a range holding the single given nonce
func NewDeliveredMessages(nonce MessageNonce) DeliveredMessages {
	return DeliveredMessages{Begin: nonce, End: nonce}
}

// TotalMessages returns the number of nonces in the range
func (d DeliveredMessages) TotalMessages() MessageNonce {
	if d.End < d.Begin {
		return 0
	}
	return d.End - d.Begin + 1
}

// Contains reports whether the nonce falls within the range
func (d DeliveredMessages) Contains(nonce MessageNonce) bool {
	return d.Begin <= nonce && nonce <= d.End
}

// UnrewardedRelayer is one entry in the inbound lane's relayers queue: a
// relayer and the nonce range it delivered but has not yet been rewarded for
type UnrewardedRelayer struct {
	Relayer  RelayerID
	Messages DeliveredMessages
}

// InboundLaneData is the persistent state of one inbound lane.
// Invariant: Relayers ranges are non-empty, disjoint and ascending, and
// LastConfirmedNonce+1 is never above the front range's Begin.
type InboundLaneData struct {
	State    LaneState
	Relayers []UnrewardedRelayer
	// LastConfirmedNonce is the highest nonce the source chain knows we
	// have delivered, as of the last lane state update it sent us
	LastConfirmedNonce MessageNonce
}

// NewInboundLaneData returns the state of a freshly opened inbound lane
func NewInboundLaneData() InboundLaneData {
	return InboundLaneData{State: LaneOpened}
}

// LastDeliveredNonce returns the nonce of the last message delivered to
// this lane
func (d InboundLaneData) LastDeliveredNonce() MessageNonce {
	if len(d.Relayers) == 0 {
		return d.LastConfirmedNonce
	}
	return d.Relayers[len(d.Relayers)-1].Messages.End
}

// UnrewardedRelayersState is the relayer-supplied digest of the inbound lane
// state a delivery proof commits to. It is declared up front so transaction
// cost can be bounded before the proof is opened, then checked against the
// proved state.
type UnrewardedRelayersState struct {
	UnrewardedRelayerEntries MessageNonce
	MessagesInOldestEntry    MessageNonce
	TotalMessages            MessageNonce
	LastDeliveredNonce       MessageNonce
}

// UnrewardedRelayersStateOf digests the given inbound lane state
func UnrewardedRelayersStateOf(data InboundLaneData) UnrewardedRelayersState {
	state := UnrewardedRelayersState{
		UnrewardedRelayerEntries: MessageNonce(len(data.Relayers)),
		LastDeliveredNonce:       data.LastDeliveredNonce(),
	}
	if len(data.Relayers) > 0 {
		state.MessagesInOldestEntry = data.Relayers[0].Messages.TotalMessages()
	}
	for _, entry := range data.Relayers {
		state.TotalMessages += entry.Messages.TotalMessages()
	}
	return state
}

// IsValid reports whether the declared state matches the proved lane data
func (s UnrewardedRelayersState) IsValid(data InboundLaneData) bool {
	return s == UnrewardedRelayersStateOf(data)
}

// MessageKey uniquely identifies a message across all lanes
type MessageKey struct {
	Lane  LaneID
	Nonce MessageNonce
}

// Message is a keyed message payload in transit
type Message struct {
	Key     MessageKey
	Payload []byte
}

// SendMessageArtifacts is returned by a successful send: the assigned nonce
// and the resulting queue depth, for congestion-aware callers
type SendMessageArtifacts struct {
	Nonce            MessageNonce
	EnqueuedMessages MessageNonce
}

// MessagesProof proves a range of outbound messages of the bridged chain as
// of a finalized header. Consumed once per submission.
type MessagesProof struct {
	BridgedHeaderHash common.Hash
	StorageProof      [][]byte
	Lane              LaneID
	NoncesBegin       MessageNonce
	NoncesEnd         MessageNonce
}

// MessagesDeliveryProof proves the bridged chain's inbound lane state as of
// a finalized header
type MessagesDeliveryProof struct {
	BridgedHeaderHash common.Hash
	StorageProof      [][]byte
	Lane              LaneID
}

// ProvedLaneMessages is the decoded content of a verified messages proof:
// an optional outbound lane state update and the proved messages in nonce
// order
type ProvedLaneMessages struct {
	LaneState *OutboundLaneData
	Messages  []Message
}
