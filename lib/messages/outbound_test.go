// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestOutboundLane(t *testing.T) (*OutboundLane, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage(testConfig())
	return NewOutboundLane(storage.OutboundLane(testLane)), storage
}

func TestSendMessageAssignsSequentialNonces(t *testing.T) {
	lane, _ := newTestOutboundLane(t)

	for i := MessageNonce(1); i <= 5; i++ {
		artifacts := lane.SendMessage([]byte("payload"))
		require.Equal(t, i, artifacts.Nonce)
		require.Equal(t, i, artifacts.EnqueuedMessages)
	}

	data := lane.Data()
	require.Equal(t, MessageNonce(5), data.LatestGeneratedNonce)
	require.Equal(t, MessageNonce(0), data.LatestReceivedNonce)
	require.Equal(t, MessageNonce(1), data.OldestUnprunedNonce)
}

func TestConfirmDelivery(t *testing.T) {
	lane, _ := newTestOutboundLane(t)
	for i := 0; i < 5; i++ {
		lane.SendMessage([]byte("payload"))
	}

	relayers := []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 3}},
	}
	confirmed, err := lane.ConfirmDelivery(16, 3, relayers)
	require.NoError(t, err)
	require.Equal(t, &DeliveredMessages{Begin: 1, End: 3}, confirmed)
	require.Equal(t, MessageNonce(3), lane.Data().LatestReceivedNonce)

	// re-confirming the same range brings nothing new
	confirmed, err = lane.ConfirmDelivery(16, 3, relayers)
	require.NoError(t, err)
	require.Nil(t, confirmed)
	require.Equal(t, MessageNonce(3), lane.Data().LatestReceivedNonce)
}

func TestConfirmDeliveryRejectsFutureNonces(t *testing.T) {
	lane, _ := newTestOutboundLane(t)
	lane.SendMessage([]byte("payload"))

	_, err := lane.ConfirmDelivery(16, 2, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 2}},
	})
	require.ErrorIs(t, err, ErrFutureMessages)
	require.Equal(t, MessageNonce(0), lane.Data().LatestReceivedNonce)
}

func TestConfirmDeliveryRejectsTooManyMessages(t *testing.T) {
	lane, _ := newTestOutboundLane(t)
	for i := 0; i < 5; i++ {
		lane.SendMessage([]byte("payload"))
	}

	_, err := lane.ConfirmDelivery(2, 5, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 5}},
	})
	require.ErrorIs(t, err, ErrTooManyConfirmedMessages)
}

func TestConfirmDeliveryRejectsBrokenRelayersVector(t *testing.T) {
	lane, _ := newTestOutboundLane(t)
	for i := 0; i < 6; i++ {
		lane.SendMessage([]byte("payload"))
	}

	// empty entry
	_, err := lane.ConfirmDelivery(16, 3, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 2, End: 1}},
	})
	require.ErrorIs(t, err, ErrEmptyRelayerEntry)

	// gap between entries
	_, err = lane.ConfirmDelivery(16, 5, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 2}},
		{Relayer: relayerB, Messages: DeliveredMessages{Begin: 4, End: 5}},
	})
	require.ErrorIs(t, err, ErrNonConsecutiveRelayerEntries)

	// entry reaching past the confirmed nonce
	_, err = lane.ConfirmDelivery(16, 3, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 4}},
	})
	require.ErrorIs(t, err, ErrFutureMessages)
}

func TestPruneMessages(t *testing.T) {
	lane, storage := newTestOutboundLane(t)
	for i := 0; i < 5; i++ {
		lane.SendMessage([]byte("payload"))
	}
	_, err := lane.ConfirmDelivery(16, 4, []UnrewardedRelayer{
		{Relayer: relayerA, Messages: DeliveredMessages{Begin: 1, End: 4}},
	})
	require.NoError(t, err)

	// pruning is bounded per call and stops at the confirmed nonce
	require.Equal(t, MessageNonce(2), lane.PruneMessages(2))
	require.Equal(t, MessageNonce(3), lane.Data().OldestUnprunedNonce)
	require.Equal(t, MessageNonce(2), lane.PruneMessages(10))
	require.Equal(t, MessageNonce(5), lane.Data().OldestUnprunedNonce)

	for nonce := MessageNonce(1); nonce <= 4; nonce++ {
		_, ok := storage.OutboundPayload(testLane, nonce)
		require.False(t, ok)
	}
	_, ok := storage.OutboundPayload(testLane, 5)
	require.True(t, ok)
}
