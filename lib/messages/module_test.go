// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T, verifier *fakeVerifier) (*Module, *MemoryStorage, *collectingDispatch, *RewardLedger) {
	t.Helper()
	storage := NewMemoryStorage(testConfig())
	dispatch := newCollectingDispatch()
	ledger := NewRewardLedger(10, 1)
	module := NewModule(testConfig(), storage, verifier, dispatch, ledger, NoopOnMessagesDelivered{})
	return module, storage, dispatch, ledger
}

func TestSendMessage(t *testing.T) {
	module, _, _, _ := newTestModule(t, &fakeVerifier{})

	artifacts, err := module.SendMessage(testLane, []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, MessageNonce(1), artifacts.Nonce)
	require.Equal(t, MessageNonce(1), artifacts.EnqueuedMessages)
}

func TestSendMessageRejectsOversizedPayload(t *testing.T) {
	module, _, _, _ := newTestModule(t, &fakeVerifier{})

	_, err := module.SendMessage(testLane, make([]byte, testConfig().MaxMessagePayloadSize+1))
	require.ErrorIs(t, err, ErrMessageTooLarge)

	// no nonce was consumed
	require.Equal(t, MessageNonce(0), module.OutboundLaneData(testLane).LatestGeneratedNonce)
}

func TestSendMessageRejectsNonOpenedLane(t *testing.T) {
	module, _, _, _ := newTestModule(t, &fakeVerifier{})

	require.NoError(t, module.SetOutboundLaneState(testLane, LaneClosing))
	_, err := module.SendMessage(testLane, []byte("payload"))
	require.ErrorIs(t, err, ErrLaneNotOpened)

	// lane lifecycle is monotonic
	require.NoError(t, module.SetOutboundLaneState(testLane, LaneClosed))
	require.ErrorIs(t, module.SetOutboundLaneState(testLane, LaneOpened), ErrLaneStateRegression)
}

func TestReceiveMessagesProof(t *testing.T) {
	verifier := &fakeVerifier{proved: ProvedLaneMessages{Messages: provedMessages(1, 3)}}
	module, _, dispatch, _ := newTestModule(t, verifier)

	received, err := module.ReceiveMessagesProof(relayerA, testMessagesProof(), 3)
	require.NoError(t, err)
	require.Equal(t, []ReceptionResult{
		ReceptionDispatched, ReceptionDispatched, ReceptionDispatched,
	}, received.Results)
	require.Len(t, dispatch.dispatched, 3)

	data := module.InboundLaneData(testLane)
	require.Equal(t, MessageNonce(3), data.LastDeliveredNonce())
	require.Equal(t, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 3}},
	}, data.Relayers)
}

func TestReceiveMessagesProofRejections(t *testing.T) {
	t.Run("invalid proof", func(t *testing.T) {
		module, _, _, _ := newTestModule(t, &fakeVerifier{err: errBadProof})
		_, err := module.ReceiveMessagesProof(relayerA, testMessagesProof(), 1)
		require.ErrorIs(t, err, ErrInvalidMessagesProof)
	})

	t.Run("too many messages", func(t *testing.T) {
		module, _, _, _ := newTestModule(t, &fakeVerifier{})
		_, err := module.ReceiveMessagesProof(relayerA, testMessagesProof(), 17)
		require.ErrorIs(t, err, ErrTooManyMessages)
	})

	t.Run("inactive dispatch", func(t *testing.T) {
		module, _, dispatch, _ := newTestModule(t, &fakeVerifier{})
		dispatch.active = false
		_, err := module.ReceiveMessagesProof(relayerA, testMessagesProof(), 1)
		require.ErrorIs(t, err, ErrDispatchInactive)
	})
}

// A delivery proof confirming nonces 3..=5 to a single relayer pays exactly
// one reward covering 3 nonces and empties the relayers queue.
func TestReceiveMessagesDeliveryProof(t *testing.T) {
	laneData := InboundLaneData{
		Relayers: []UnrewardedRelayer{
			{Relayer: relayerA, Messages: DeliveredMessages{Begin: 3, End: 5}},
		},
		LastConfirmedNonce: 2,
	}
	verifier := &fakeVerifier{laneData: laneData}
	module, _, _, ledger := newTestModule(t, verifier)

	for i := 0; i < 5; i++ {
		_, err := module.SendMessage(testLane, []byte("payload"))
		require.NoError(t, err)
	}
	outbound := module.storage.OutboundLane(testLane)
	data := outbound.Data()
	data.LatestReceivedNonce = 2
	outbound.SetData(data)

	confirmed, err := module.ReceiveMessagesDeliveryProof(relayerB, testDeliveryProof(), UnrewardedRelayersStateOf(laneData))
	require.NoError(t, err)
	require.Equal(t, &DeliveredMessages{Begin: 3, End: 5}, confirmed)

	require.Equal(t, MessageNonce(5), module.OutboundLaneData(testLane).LatestReceivedNonce)
	require.Equal(t, uint64(30), ledger.Reward(relayerA))
	require.Equal(t, uint64(1), ledger.Reward(relayerB))
}

func TestReceiveMessagesDeliveryProofRejectsBadRelayersState(t *testing.T) {
	laneData := InboundLaneData{
		Relayers: []UnrewardedRelayer{
			{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 2}},
		},
	}
	module, _, _, _ := newTestModule(t, &fakeVerifier{laneData: laneData})

	declared := UnrewardedRelayersStateOf(laneData)
	declared.TotalMessages = 1
	_, err := module.ReceiveMessagesDeliveryProof(relayerB, testDeliveryProof(), declared)
	require.ErrorIs(t, err, ErrInvalidRelayersState)
}

func TestNoopPaymentsIsValid(t *testing.T) {
	laneData := InboundLaneData{
		Relayers: []UnrewardedRelayer{
			{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 2}},
		},
	}
	storage := NewMemoryStorage(testConfig())
	module := NewModule(testConfig(), storage, &fakeVerifier{laneData: laneData},
		newCollectingDispatch(), NoopPayments{}, NoopOnMessagesDelivered{})

	for i := 0; i < 2; i++ {
		_, err := module.SendMessage(testLane, []byte("payload"))
		require.NoError(t, err)
	}

	confirmed, err := module.ReceiveMessagesDeliveryProof(relayerB, testDeliveryProof(), UnrewardedRelayersStateOf(laneData))
	require.NoError(t, err)
	require.Equal(t, &DeliveredMessages{Begin: 1, End: 2}, confirmed)
}

func TestMigrateToV1(t *testing.T) {
	storage := NewMemoryStorage(testConfig())
	storage.OutboundLane(testLane)
	storage.SetVersion(0)

	ran, err := MigrateToV1(storage)
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, LaneStorageVersion, storage.Version())
	require.Equal(t, LaneOpened, storage.OutboundLane(testLane).Data().State)

	// second run is a no-op
	ran, err = MigrateToV1(storage)
	require.NoError(t, err)
	require.False(t, ran)

	storage.SetVersion(7)
	_, err = MigrateToV1(storage)
	require.ErrorIs(t, err, ErrUnsupportedStorageVersion)
}

func TestEventSink(t *testing.T) {
	laneData := InboundLaneData{
		Relayers: []UnrewardedRelayer{
			{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 2}},
		},
	}
	verifier := &fakeVerifier{
		proved:   ProvedLaneMessages{Messages: provedMessages(1, 2)},
		laneData: laneData,
	}
	module, _, _, _ := newTestModule(t, verifier)
	events := &recordingEvents{}
	module.SetEventSink(events)

	for i := 0; i < 2; i++ {
		_, err := module.SendMessage(testLane, []byte("payload"))
		require.NoError(t, err)
	}
	require.Equal(t, []MessageNonce{1, 2}, events.accepted)

	_, err := module.ReceiveMessagesProof(relayerA, testMessagesProof(), 2)
	require.NoError(t, err)
	require.Len(t, events.received, 1)
	require.Equal(t, testLane, events.received[0].Lane)
	require.Equal(t,
		[]ReceptionResult{ReceptionDispatched, ReceptionDispatched},
		events.received[0].Results)

	_, err = module.ReceiveMessagesDeliveryProof(relayerB, testDeliveryProof(),
		UnrewardedRelayersStateOf(laneData))
	require.NoError(t, err)
	require.Equal(t, []DeliveredMessages{{Begin: 1, End: 2}}, events.delivered)
}
