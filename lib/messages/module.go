// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	log "github.com/ChainSafe/log15"
)

var logger = log.New("pkg", "messages")

// Config bounds the messages module's per-call resource use
type Config struct {
	// MaxMessagePayloadSize bounds a single outbound payload
	MaxMessagePayloadSize uint32
	// MaxUnrewardedRelayerEntries bounds the inbound relayers queue
	MaxUnrewardedRelayerEntries MessageNonce
	// MaxUnconfirmedMessages bounds the inbound unconfirmed window and the
	// number of messages one proof may carry
	MaxUnconfirmedMessages MessageNonce
	// MaxMessagesToPruneOncePerSend bounds pruning work piggybacked on a
	// send
	MaxMessagesToPruneOncePerSend MessageNonce
}

// ProofVerifier opens remote-state proofs against finalized bridged
// headers. The storage/trie engine behind it is an external collaborator.
type ProofVerifier interface {
	VerifyMessagesProof(proof MessagesProof, messagesCount uint32) (ProvedLaneMessages, error)
	VerifyMessagesDeliveryProof(proof MessagesDeliveryProof) (InboundLaneData, error)
}

// ReceivedMessages is the per-message outcome of one accepted messages
// proof, in delivery order
type ReceivedMessages struct {
	Lane    LaneID
	Results []ReceptionResult
}

// Module is the on-chain messages dispatch: it owns lane state and applies
// the three entry points of the lane protocol. It executes synchronously
// and single-threaded within the chain's state transition.
type Module struct {
	cfg         Config
	storage     ModuleStorage
	verifier    ProofVerifier
	dispatch    MessageDispatch
	payments    DeliveryConfirmationPayments
	onDelivered OnMessagesDelivered
	events      EventSink
}

// NewModule wires the messages module. payments and onDelivered may be the
// Noop implementations. Events go to the package logger.
func NewModule(
	cfg Config,
	storage ModuleStorage,
	verifier ProofVerifier,
	dispatch MessageDispatch,
	payments DeliveryConfirmationPayments,
	onDelivered OnMessagesDelivered,
) *Module {
	return &Module{
		cfg:         cfg,
		storage:     storage,
		verifier:    verifier,
		dispatch:    dispatch,
		payments:    payments,
		onDelivered: onDelivered,
		events:      LogEvents{},
	}
}

// SetEventSink redirects lane events to the given sink
func (m *Module) SetEventSink(events EventSink) {
	m.events = events
}

// SendMessage enqueues a message on the outbound lane. Fails before any
// state mutation if the lane is not Opened or the payload is oversized, so
// a rejected send never consumes a nonce.
func (m *Module) SendMessage(lane LaneID, payload []byte) (SendMessageArtifacts, error) {
	outbound := NewOutboundLane(m.storage.OutboundLane(lane))
	if state := outbound.Data().State; state != LaneOpened {
		return SendMessageArtifacts{}, ErrLaneNotOpened
	}
	if uint32(len(payload)) > m.cfg.MaxMessagePayloadSize {
		return SendMessageArtifacts{}, ErrMessageTooLarge
	}

	artifacts := outbound.SendMessage(payload)
	if m.cfg.MaxMessagesToPruneOncePerSend > 0 {
		outbound.PruneMessages(m.cfg.MaxMessagesToPruneOncePerSend)
	}

	m.events.MessageAccepted(lane, artifacts.Nonce)
	return artifacts, nil
}

// SetOutboundLaneState advances the outbound lane lifecycle. Transitions
// are monotonic; moving backwards is rejected.
func (m *Module) SetOutboundLaneState(lane LaneID, state LaneState) error {
	storage := m.storage.OutboundLane(lane)
	data := storage.Data()
	if !data.State.canTransitionTo(state) {
		return ErrLaneStateRegression
	}
	data.State = state
	storage.SetData(data)
	return nil
}

// ReceiveMessagesProof verifies a proof of bridged-chain outbound messages
// and delivers them to the inbound lane in order. Per-message rejections
// are recorded in the result, not fatal for the submission.
func (m *Module) ReceiveMessagesProof(relayer RelayerID, proof MessagesProof, messagesCount uint32) (*ReceivedMessages, error) {
	if MessageNonce(messagesCount) > m.cfg.MaxUnconfirmedMessages {
		return nil, ErrTooManyMessages
	}
	if !m.dispatch.IsActive() {
		return nil, ErrDispatchInactive
	}

	proved, err := m.verifier.VerifyMessagesProof(proof, messagesCount)
	if err != nil {
		logger.Trace("rejecting invalid messages proof", "lane", proof.Lane, "error", err)
		return nil, ErrInvalidMessagesProof
	}

	inboundStorage := m.storage.InboundLane(proof.Lane)
	if inboundStorage.Data().State == LaneClosed {
		return nil, ErrLaneClosed
	}
	inbound := NewInboundLane(inboundStorage)

	if proved.LaneState != nil {
		if confirmed := inbound.ReceiveStateUpdate(*proved.LaneState); confirmed != nil {
			logger.Trace("received lane state update", "lane", proof.Lane,
				"latest_confirmed_nonce", *confirmed)
		}
	}

	received := &ReceivedMessages{
		Lane:    proof.Lane,
		Results: make([]ReceptionResult, 0, len(proved.Messages)),
	}
	for _, message := range proved.Messages {
		result := inbound.ReceiveMessage(m.dispatch, relayer, message.Key.Nonce, message.Payload)
		received.Results = append(received.Results, result)
	}

	m.events.MessagesReceived(*received)
	return received, nil
}

// ReceiveMessagesDeliveryProof verifies a proof of the bridged chain's
// inbound lane state, confirms the newly delivered nonce range on the
// outbound lane and pays relayer rewards. Returns the confirmed range, nil
// when the proof brings nothing new.
func (m *Module) ReceiveMessagesDeliveryProof(
	confirmationRelayer RelayerID,
	proof MessagesDeliveryProof,
	relayersState UnrewardedRelayersState,
) (*DeliveredMessages, error) {
	laneData, err := m.verifier.VerifyMessagesDeliveryProof(proof)
	if err != nil {
		logger.Trace("rejecting invalid delivery proof", "lane", proof.Lane, "error", err)
		return nil, ErrInvalidDeliveryProof
	}
	if !relayersState.IsValid(laneData) {
		return nil, ErrInvalidRelayersState
	}

	outbound := NewOutboundLane(m.storage.OutboundLane(proof.Lane))
	confirmed, err := outbound.ConfirmDelivery(
		relayersState.TotalMessages,
		laneData.LastDeliveredNonce(),
		laneData.Relayers,
	)
	if err != nil {
		return nil, err
	}

	if confirmed != nil {
		rewarded := m.payments.PayReward(proof.Lane, laneData.Relayers, confirmationRelayer, *confirmed)
		logger.Trace("paid delivery rewards", "lane", proof.Lane, "rewarded_relayers", rewarded)
		m.events.MessagesDelivered(proof.Lane, *confirmed)
	}

	m.onDelivered.OnMessagesDelivered(proof.Lane, outbound.Data().QueuedMessages())
	return confirmed, nil
}

// OutboundLaneData returns the current state of the given outbound lane
func (m *Module) OutboundLaneData(lane LaneID) OutboundLaneData {
	return m.storage.OutboundLane(lane).Data()
}

// InboundLaneData returns the current state of the given inbound lane
func (m *Module) InboundLaneData(lane LaneID) InboundLaneData {
	return m.storage.InboundLane(lane).Data()
}
