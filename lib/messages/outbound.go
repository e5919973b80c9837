// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

// OutboundLaneStorage is the persistent state of one outbound lane
type OutboundLaneStorage interface {
	ID() LaneID
	Data() OutboundLaneData
	SetData(OutboundLaneData)
	SaveMessage(nonce MessageNonce, payload []byte)
	RemoveMessage(nonce MessageNonce)
}

// OutboundLane is the source-chain side of a lane: it assigns nonces to
// outgoing messages, accepts delivery confirmations and prunes confirmed
// payloads.
type OutboundLane struct {
	storage OutboundLaneStorage
}

// NewOutboundLane returns an outbound lane over the given storage
func NewOutboundLane(storage OutboundLaneStorage) *OutboundLane {
	return &OutboundLane{storage: storage}
}

// Data returns the current lane state
func (l *OutboundLane) Data() OutboundLaneData {
	return l.storage.Data()
}

// SendMessage assigns the next nonce to the payload and enqueues it. The
// caller is responsible for lane state and payload size checks; no state is
// mutated on failure there, so a rejected send never consumes a nonce.
func (l *OutboundLane) SendMessage(payload []byte) SendMessageArtifacts {
	data := l.storage.Data()
	nonce := data.LatestGeneratedNonce + 1
	data.LatestGeneratedNonce = nonce
	l.storage.SetData(data)
	l.storage.SaveMessage(nonce, payload)

	return SendMessageArtifacts{
		Nonce:            nonce,
		EnqueuedMessages: data.QueuedMessages(),
	}
}

// ConfirmDelivery processes a proved delivery confirmation up to and
// including latestDelivered. Returns the newly confirmed range, or nil when
// the confirmation brings nothing new. maxAllowed bounds how many new nonces
// one confirmation may cover; relayers is the proved unrewarded relayers
// queue and must exactly cover the undelivered interval.
func (l *OutboundLane) ConfirmDelivery(
	maxAllowed MessageNonce,
	latestDelivered MessageNonce,
	relayers []UnrewardedRelayer,
) (*DeliveredMessages, error) {
	data := l.storage.Data()
	if latestDelivered <= data.LatestReceivedNonce {
		return nil, nil
	}
	if latestDelivered > data.LatestGeneratedNonce {
		return nil, ErrFutureMessages
	}
	if latestDelivered-data.LatestReceivedNonce > maxAllowed {
		return nil, ErrTooManyConfirmedMessages
	}
	if err := ensureRelayersAreCorrect(latestDelivered, relayers); err != nil {
		return nil, err
	}

	confirmed := &DeliveredMessages{
		Begin: data.LatestReceivedNonce + 1,
		End:   latestDelivered,
	}
	data.LatestReceivedNonce = latestDelivered
	l.storage.SetData(data)
	return confirmed, nil
}

// PruneMessages removes up to maxMessages confirmed message payloads from
// the front of the queue, bounding per-call cost. Returns the number pruned.
func (l *OutboundLane) PruneMessages(maxMessages MessageNonce) MessageNonce {
	data := l.storage.Data()
	var pruned MessageNonce
	for pruned < maxMessages && data.OldestUnprunedNonce <= data.LatestReceivedNonce {
		l.storage.RemoveMessage(data.OldestUnprunedNonce)
		data.OldestUnprunedNonce++
		pruned++
	}
	if pruned > 0 {
		l.storage.SetData(data)
	}
	return pruned
}

// ensureRelayersAreCorrect checks a proved relayers queue: every entry is
// non-empty, entries are contiguous and ascending, and none reaches past
// latestDelivered.
func ensureRelayersAreCorrect(latestDelivered MessageNonce, relayers []UnrewardedRelayer) error {
	if len(relayers) == 0 {
		return nil
	}
	expectedBegin := relayers[0].Messages.Begin
	for _, entry := range relayers {
		if entry.Messages.End < entry.Messages.Begin {
			return ErrEmptyRelayerEntry
		}
		if entry.Messages.Begin != expectedBegin {
			return ErrNonConsecutiveRelayerEntries
		}
		if entry.Messages.End > latestDelivered {
			return ErrFutureMessages
		}
		expectedBegin = entry.Messages.End + 1
	}
	return nil
}
