// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import "errors"

var (
	// ErrLaneNotOpened is returned when sending on a lane that is not Opened
	ErrLaneNotOpened = errors.New("lane is not opened")
	// ErrLaneClosed is returned when receiving on a Closed lane
	ErrLaneClosed = errors.New("lane is closed")
	// ErrLaneStateRegression is returned on a backwards lane state transition
	ErrLaneStateRegression = errors.New("lane state cannot move backwards")
	// ErrMessageTooLarge is returned when a payload exceeds the configured
	// maximal size
	ErrMessageTooLarge = errors.New("message payload is too large")
	// ErrTooManyMessages is returned when a proof declares more messages
	// than a single submission may carry
	ErrTooManyMessages = errors.New("too many messages in the proof")
	// ErrDispatchInactive is returned when the message consumer refuses
	// new messages
	ErrDispatchInactive = errors.New("message dispatch is inactive")
	// ErrInvalidMessagesProof is returned when a messages proof fails
	// verification
	ErrInvalidMessagesProof = errors.New("invalid messages proof")
	// ErrInvalidDeliveryProof is returned when a delivery proof fails
	// verification
	ErrInvalidDeliveryProof = errors.New("invalid messages delivery proof")
	// ErrInvalidRelayersState is returned when the declared relayers state
	// does not match the proved lane data
	ErrInvalidRelayersState = errors.New("invalid unrewarded relayers state")

	// ErrFutureMessages is returned when a confirmation names nonces that
	// were never generated
	ErrFutureMessages = errors.New("failed to confirm future messages")
	// ErrTooManyConfirmedMessages is returned when a confirmation covers
	// more new nonces than the declared relayers state allows
	ErrTooManyConfirmedMessages = errors.New("confirming more messages than expected")
	// ErrEmptyRelayerEntry is returned when a proved relayers queue holds
	// an entry with an empty nonce range
	ErrEmptyRelayerEntry = errors.New("empty unrewarded relayer entry")
	// ErrNonConsecutiveRelayerEntries is returned when proved relayer
	// ranges are not contiguous and ascending
	ErrNonConsecutiveRelayerEntries = errors.New("non-consecutive unrewarded relayer entries")

	// ErrUnsupportedStorageVersion is returned when a migration does not
	// apply to the stored format version
	ErrUnsupportedStorageVersion = errors.New("unsupported lane storage version")
)
