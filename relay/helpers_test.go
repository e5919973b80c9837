// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/crypto/ed25519"
	"github.com/ChainSafe/filament/lib/grandpa"
	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"

	"github.com/stretchr/testify/require"
)

var (
	testLane = messages.LaneID{0, 0, 0, 1}
	testPara = parachains.ParaID(2000)
)

func testEngineConfig() Config {
	return Config{
		Lanes:              []messages.LaneID{testLane},
		Paras:              []parachains.ParaID{testPara},
		TickInterval:       10 * time.Millisecond,
		GuardInterval:      10 * time.Millisecond,
		MaxMessagesInBatch: 4,
	}
}

// fakeChain is a scripted in-memory chain serving both engine roles
type fakeChain struct {
	name string

	mu             sync.Mutex
	bestFinalized  HeaderID
	runtimeVersion RuntimeVersion

	// source side
	keys          []*ed25519.Keypair
	voters        *grandpa.VoterSet
	setID         uint64
	finalityProof func(number uint32) (grandpa.Header, *grandpa.Justification, error)
	outboundData  messages.OutboundLaneData
	paraHead      parachains.ParaHead

	// target side
	bestBridged   HeaderID
	inboundData   messages.InboundLaneData
	provedInbound *messages.InboundLaneData
	bestPara      *parachains.BestParaHeadHash

	submittedFinality      []grandpa.Header
	submittedMessages      []messages.MessagesProof
	submittedConfirmations []messages.UnrewardedRelayersState
	submittedParaHeads     [][]parachains.ParaHead
	submitErr              error
}

func (c *fakeChain) Name() string { return c.name }

func (c *fakeChain) BestFinalizedHeader(context.Context) (HeaderID, error) {
	return c.bestFinalized, nil
}

func (c *fakeChain) RuntimeVersion(context.Context) (RuntimeVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runtimeVersion, nil
}

func (c *fakeChain) setRuntimeVersion(version RuntimeVersion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runtimeVersion = version
}

func (c *fakeChain) GrandpaAuthorities(context.Context) (*grandpa.VoterSet, uint64, error) {
	return c.voters, c.setID, nil
}

func (c *fakeChain) FinalityProof(_ context.Context, number uint32) (grandpa.Header, *grandpa.Justification, error) {
	return c.finalityProof(number)
}

func (c *fakeChain) OutboundLaneData(context.Context, messages.LaneID) (messages.OutboundLaneData, error) {
	return c.outboundData, nil
}

func (c *fakeChain) ProveMessages(_ context.Context, lane messages.LaneID, begin, end messages.MessageNonce) (messages.MessagesProof, error) {
	return messages.MessagesProof{Lane: lane, NoncesBegin: begin, NoncesEnd: end}, nil
}

func (c *fakeChain) SubmitDeliveryProof(_ context.Context, _ messages.MessagesDeliveryProof, relayersState messages.UnrewardedRelayersState) error {
	if c.submitErr != nil {
		return c.submitErr
	}
	c.submittedConfirmations = append(c.submittedConfirmations, relayersState)
	return nil
}

func (c *fakeChain) ParaHead(context.Context, parachains.ParaID) (parachains.ParaHead, HeaderID, error) {
	return c.paraHead, c.bestFinalized, nil
}

func (c *fakeChain) BestBridgedHeader(context.Context) (HeaderID, error) {
	return c.bestBridged, nil
}

func (c *fakeChain) SubmitFinalityProof(_ context.Context, header grandpa.Header, _ *grandpa.Justification) error {
	if c.submitErr != nil {
		return c.submitErr
	}
	c.submittedFinality = append(c.submittedFinality, header)
	return nil
}

func (c *fakeChain) InboundLaneData(context.Context, messages.LaneID) (messages.InboundLaneData, error) {
	return c.inboundData, nil
}

// ProveInboundLane returns provedInbound when scripted, modelling a
// delivery that lands between the engine's state read and proof build
func (c *fakeChain) ProveInboundLane(_ context.Context, lane messages.LaneID) (messages.MessagesDeliveryProof, messages.InboundLaneData, error) {
	data := c.inboundData
	if c.provedInbound != nil {
		data = *c.provedInbound
	}
	return messages.MessagesDeliveryProof{Lane: lane}, data, nil
}

func (c *fakeChain) SubmitMessagesProof(_ context.Context, proof messages.MessagesProof, _ uint32) error {
	if c.submitErr != nil {
		return c.submitErr
	}
	c.submittedMessages = append(c.submittedMessages, proof)
	return nil
}

func (c *fakeChain) BestParaHead(context.Context, parachains.ParaID) (*parachains.BestParaHeadHash, error) {
	return c.bestPara, nil
}

func (c *fakeChain) SubmitParaHeads(_ context.Context, _ uint32, heads []parachains.ParaHead) error {
	if c.submitErr != nil {
		return c.submitErr
	}
	c.submittedParaHeads = append(c.submittedParaHeads, heads)
	return nil
}

// signedJustification signs a justification for the header with every given
// keypair
func signedJustification(t *testing.T, keypairs []*ed25519.Keypair, header grandpa.Header, round, setID uint64) *grandpa.Justification {
	t.Helper()

	vote := grandpa.Vote{Hash: header.Hash(), Number: header.Number}
	justification := &grandpa.Justification{
		Round: round,
		Commit: grandpa.Commit{
			Hash:   vote.Hash,
			Number: vote.Number,
		},
		VotesAncestries: []grandpa.Header{},
	}
	for _, kp := range keypairs {
		sig, err := grandpa.SignPrecommit(kp, vote, round, setID)
		require.NoError(t, err)
		justification.Commit.Precommits = append(justification.Commit.Precommits, sig)
	}
	return justification
}

// newTestChains returns a source at finalized block 3 with a real signed
// justification for it, and a target that knows block 1
func newTestChains(t *testing.T) (*fakeChain, *fakeChain) {
	t.Helper()

	keypairs := make([]*ed25519.Keypair, 3)
	voters := make([]grandpa.Voter, 3)
	for i := range keypairs {
		kp, err := ed25519.GenerateKeypair()
		require.NoError(t, err)
		keypairs[i] = kp
		voters[i] = grandpa.Voter{Key: kp.Public().AsBytes(), Weight: 1}
	}
	voterSet, err := grandpa.NewVoterSet(voters)
	require.NoError(t, err)

	const setID = 1
	header := grandpa.Header{
		ParentHash: common.MustBlake2bHash([]byte("parent")),
		Number:     3,
		StateRoot:  common.MustBlake2bHash([]byte("state")),
	}
	justification := signedJustification(t, keypairs, header, 1, setID)

	source := &fakeChain{
		name:           "source",
		bestFinalized:  HeaderID{Number: 3, Hash: header.Hash()},
		runtimeVersion: RuntimeVersion{SpecName: "source", SpecVersion: 1},
		keys:           keypairs,
		voters:         voterSet,
		setID:          setID,
		finalityProof: func(number uint32) (grandpa.Header, *grandpa.Justification, error) {
			if number != header.Number {
				return grandpa.Header{}, nil, fmt.Errorf("no justification for block %d", number)
			}
			return header, justification, nil
		},
	}
	target := &fakeChain{
		name:           "target",
		bestFinalized:  HeaderID{Number: 100},
		runtimeVersion: RuntimeVersion{SpecName: "target", SpecVersion: 1},
		bestBridged:    HeaderID{Number: 1},
	}
	return source, target
}

func newTestEngine(t *testing.T) (*Engine, *fakeChain, *fakeChain) {
	t.Helper()
	source, target := newTestChains(t)
	return NewEngine(testEngineConfig(), source, target, nil), source, target
}
