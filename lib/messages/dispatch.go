// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

// MessageDispatch is the payload-consumer capability the inbound lane hands
// delivered messages to. The lane core is payload-agnostic; concrete formats
// are injected behind this interface.
type MessageDispatch interface {
	// IsActive reports whether the consumer currently accepts messages
	IsActive() bool
	// Dispatch consumes one delivered message
	Dispatch(message Message) error
}

// DeliveryConfirmationPayments settles relayer rewards when a delivery
// confirmation is accepted on the source chain. Returns the number of
// relayers actually rewarded.
type DeliveryConfirmationPayments interface {
	PayReward(lane LaneID, relayers []UnrewardedRelayer, confirmationRelayer RelayerID, confirmed DeliveredMessages) int
}

// OnMessagesDelivered is notified with the new queue depth after every
// accepted delivery confirmation, for congestion-aware fee routers
type OnMessagesDelivered interface {
	OnMessagesDelivered(lane LaneID, enqueuedMessages MessageNonce)
}

// RewardLedger accrues relayer rewards in memory: a fixed reward per
// delivered message plus a flat reward for the relayer submitting the
// confirmation. Rewards are claimed out of band.
type RewardLedger struct {
	messageReward      uint64
	confirmationReward uint64
	rewards            map[RelayerID]uint64
}

// NewRewardLedger returns a ledger paying messageReward per delivered
// message and confirmationReward per accepted confirmation
func NewRewardLedger(messageReward, confirmationReward uint64) *RewardLedger {
	return &RewardLedger{
		messageReward:      messageReward,
		confirmationReward: confirmationReward,
		rewards:            make(map[RelayerID]uint64),
	}
}

// PayReward rewards every relayer for the nonces it delivered within the
// confirmed range, proportionally to how many. Entries already confirmed by
// an earlier proof fall outside the range and are skipped, so a lagging
// duplicate proof pays nothing twice.
func (r *RewardLedger) PayReward(lane LaneID, relayers []UnrewardedRelayer, confirmationRelayer RelayerID, confirmed DeliveredMessages) int {
	var rewarded int
	for _, entry := range relayers {
		begin := entry.Messages.Begin
		if begin < confirmed.Begin {
			begin = confirmed.Begin
		}
		end := entry.Messages.End
		if end > confirmed.End {
			end = confirmed.End
		}
		if end < begin {
			continue
		}

		reward := uint64(end-begin+1) * r.messageReward
		if reward > 0 {
			r.rewards[entry.Relayer] += reward
		}
		rewarded++
		logger.Trace("registered delivery reward", "lane", lane,
			"relayer", entry.Relayer, "messages", uint64(end-begin+1))
	}

	if rewarded > 0 && r.confirmationReward > 0 {
		r.rewards[confirmationRelayer] += r.confirmationReward
	}
	return rewarded
}

// Reward returns the accrued reward of the given relayer
func (r *RewardLedger) Reward(relayer RelayerID) uint64 {
	return r.rewards[relayer]
}

// NoopPayments pays nobody. A valid configuration for bridges that settle
// relayer compensation off-chain.
type NoopPayments struct{}

// PayReward does nothing
func (NoopPayments) PayReward(LaneID, []UnrewardedRelayer, RelayerID, DeliveredMessages) int {
	return 0
}

// NoopOnMessagesDelivered ignores queue-depth notifications
type NoopOnMessagesDelivered struct{}

// OnMessagesDelivered does nothing
func (NoopOnMessagesDelivered) OnMessagesDelivered(LaneID, MessageNonce) {}
