// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

// InboundLaneStorage is the persistent state of one inbound lane plus the
// bridged-chain limits the lane must respect
type InboundLaneStorage interface {
	ID() LaneID
	Data() InboundLaneData
	SetData(InboundLaneData)
	// MaxUnrewardedRelayerEntries bounds the relayers queue length so a
	// single delivery confirmation stays within the bridged chain's limits
	MaxUnrewardedRelayerEntries() MessageNonce
	// MaxUnconfirmedMessages bounds how many delivered messages may await
	// confirmation
	MaxUnconfirmedMessages() MessageNonce
}

// ReceptionResult is the per-message outcome of delivery
type ReceptionResult uint8

const (
	// ReceptionDispatched means the message was accepted and dispatched
	ReceptionDispatched ReceptionResult = iota
	// ReceptionInvalidNonce means the message is out of order or already
	// delivered
	ReceptionInvalidNonce
	// ReceptionTooManyUnrewardedRelayers means the relayers queue is full
	ReceptionTooManyUnrewardedRelayers
	// ReceptionTooManyUnconfirmedMessages means the unconfirmed window
	// is full
	ReceptionTooManyUnconfirmedMessages
)

func (r ReceptionResult) String() string {
	switch r {
	case ReceptionDispatched:
		return "dispatched"
	case ReceptionInvalidNonce:
		return "invalid nonce"
	case ReceptionTooManyUnrewardedRelayers:
		return "too many unrewarded relayers"
	case ReceptionTooManyUnconfirmedMessages:
		return "too many unconfirmed messages"
	default:
		return "unknown"
	}
}

// InboundLane is the target-chain side of a lane: it accepts messages in
// strict nonce order, dispatches them and tracks which relayer delivered
// which range.
type InboundLane struct {
	storage InboundLaneStorage
}

// NewInboundLane returns an inbound lane over the given storage
func NewInboundLane(storage InboundLaneStorage) *InboundLane {
	return &InboundLane{storage: storage}
}

// Data returns the current lane state
func (l *InboundLane) Data() InboundLaneData {
	return l.storage.Data()
}

// ReceiveStateUpdate applies the outbound lane state the source chain
// bundled with a messages proof: it confirms rewarded relayer entries and
// prunes them from the queue. Returns the new confirmed nonce, or nil when
// the update brings nothing new.
func (l *InboundLane) ReceiveStateUpdate(outboundData OutboundLaneData) *MessageNonce {
	data := l.storage.Data()
	confirmed := outboundData.LatestReceivedNonce

	// a confirmation above what we delivered proves a mismatched lane,
	// ignore it
	if confirmed > data.LastDeliveredNonce() {
		return nil
	}
	if confirmed <= data.LastConfirmedNonce {
		return nil
	}

	data.LastConfirmedNonce = confirmed

	retained := data.Relayers[:0]
	for _, entry := range data.Relayers {
		if entry.Messages.End > confirmed {
			retained = append(retained, entry)
		}
	}
	data.Relayers = retained

	// the front entry may be confirmed only partially
	if len(data.Relayers) > 0 && data.Relayers[0].Messages.Begin <= confirmed {
		data.Relayers[0].Messages.Begin = confirmed + 1
	}

	l.storage.SetData(data)
	return &confirmed
}

// ReceiveMessage delivers one message to the lane and dispatches it.
// Messages are accepted in strict nonce order only; a rejected message
// leaves the lane state untouched.
func (l *InboundLane) ReceiveMessage(dispatch MessageDispatch, relayer RelayerID, nonce MessageNonce, payload []byte) ReceptionResult {
	data := l.storage.Data()
	if nonce != data.LastDeliveredNonce()+1 {
		return ReceptionInvalidNonce
	}

	if nonce-data.LastConfirmedNonce > l.storage.MaxUnconfirmedMessages() {
		return ReceptionTooManyUnconfirmedMessages
	}

	// consecutive messages from one relayer extend its entry instead of
	// growing the queue
	last := len(data.Relayers) - 1
	if last >= 0 && data.Relayers[last].Relayer == relayer {
		data.Relayers[last].Messages.End = nonce
	} else {
		if MessageNonce(len(data.Relayers)) >= l.storage.MaxUnrewardedRelayerEntries() {
			return ReceptionTooManyUnrewardedRelayers
		}
		data.Relayers = append(data.Relayers, UnrewardedRelayer{
			Relayer:  relayer,
			Messages: NewDeliveredMessages(nonce),
		})
	}
	l.storage.SetData(data)

	// a dispatch failure is the consumer's problem, the message still
	// counts as delivered
	if err := dispatch.Dispatch(Message{
		Key:     MessageKey{Lane: l.storage.ID(), Nonce: nonce},
		Payload: payload,
	}); err != nil {
		logger.Debug("message dispatch failed", "lane", l.storage.ID(),
			"nonce", nonce, "error", err)
	}
	return ReceptionDispatched
}
