// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

// EventSink receives the lane protocol's observable events. The module
// emits them after the corresponding state change is applied.
type EventSink interface {
	// MessageAccepted is emitted when a sent message is assigned a nonce
	MessageAccepted(lane LaneID, nonce MessageNonce)
	// MessagesReceived is emitted once per accepted messages proof with the
	// per-message outcomes
	MessagesReceived(received ReceivedMessages)
	// MessagesDelivered is emitted when a delivery proof confirms a new
	// nonce range
	MessagesDelivered(lane LaneID, delivered DeliveredMessages)
}

// LogEvents emits lane events to the package logger
type LogEvents struct{}

// MessageAccepted logs the accepted message
func (LogEvents) MessageAccepted(lane LaneID, nonce MessageNonce) {
	logger.Info("message accepted", "lane", lane, "nonce", nonce)
}

// MessagesReceived logs the per-proof delivery outcome
func (LogEvents) MessagesReceived(received ReceivedMessages) {
	var dispatched int
	for _, result := range received.Results {
		if result == ReceptionDispatched {
			dispatched++
		}
	}
	logger.Info("messages received", "lane", received.Lane,
		"total", len(received.Results), "dispatched", dispatched)
}

// MessagesDelivered logs the confirmed nonce range
func (LogEvents) MessagesDelivered(lane LaneID, delivered DeliveredMessages) {
	logger.Info("messages delivered", "lane", lane,
		"begin", delivered.Begin, "end", delivered.End)
}
