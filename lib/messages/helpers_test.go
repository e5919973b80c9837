// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"errors"

	"github.com/ChainSafe/filament/lib/common"
)

var (
	testLane = LaneID{0, 0, 0, 1}

	relayerA = RelayerID("relayer-a")
	relayerB = RelayerID("relayer-b")
)

func testConfig() Config {
	return Config{
		MaxMessagePayloadSize:         128,
		MaxUnrewardedRelayerEntries:   4,
		MaxUnconfirmedMessages:        16,
		MaxMessagesToPruneOncePerSend: 4,
	}
}

// collectingDispatch records dispatched messages
type collectingDispatch struct {
	active     bool
	dispatched []Message
}

func newCollectingDispatch() *collectingDispatch {
	return &collectingDispatch{active: true}
}

func (d *collectingDispatch) IsActive() bool { return d.active }

func (d *collectingDispatch) Dispatch(message Message) error {
	d.dispatched = append(d.dispatched, message)
	return nil
}

// fakeVerifier accepts any proof and returns preset decoded contents
type fakeVerifier struct {
	proved   ProvedLaneMessages
	laneData InboundLaneData
	err      error
}

func (v *fakeVerifier) VerifyMessagesProof(MessagesProof, uint32) (ProvedLaneMessages, error) {
	if v.err != nil {
		return ProvedLaneMessages{}, v.err
	}
	return v.proved, nil
}

func (v *fakeVerifier) VerifyMessagesDeliveryProof(MessagesDeliveryProof) (InboundLaneData, error) {
	if v.err != nil {
		return InboundLaneData{}, v.err
	}
	return v.laneData, nil
}

var errBadProof = errors.New("root mismatch")

func testMessagesProof() MessagesProof {
	return MessagesProof{
		BridgedHeaderHash: common.MustBlake2bHash([]byte("bridged header")),
		Lane:              testLane,
	}
}

func testDeliveryProof() MessagesDeliveryProof {
	return MessagesDeliveryProof{
		BridgedHeaderHash: common.MustBlake2bHash([]byte("bridged header")),
		Lane:              testLane,
	}
}

func provedMessages(begin, end MessageNonce) []Message {
	msgs := make([]Message, 0, end-begin+1)
	for nonce := begin; nonce <= end; nonce++ {
		msgs = append(msgs, Message{
			Key:     MessageKey{Lane: testLane, Nonce: nonce},
			Payload: []byte{byte(nonce)},
		})
	}
	return msgs
}

// recordingEvents captures emitted lane events for assertions
type recordingEvents struct {
	accepted  []MessageNonce
	received  []ReceivedMessages
	delivered []DeliveredMessages
}

func (r *recordingEvents) MessageAccepted(_ LaneID, nonce MessageNonce) {
	r.accepted = append(r.accepted, nonce)
}

func (r *recordingEvents) MessagesReceived(received ReceivedMessages) {
	r.received = append(r.received, received)
}

func (r *recordingEvents) MessagesDelivered(_ LaneID, delivered DeliveredMessages) {
	r.delivered = append(r.delivered, delivered)
}
