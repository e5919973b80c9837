// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/crypto/ed25519"
	"github.com/ChainSafe/filament/lib/grandpa"
	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"
	"github.com/ChainSafe/filament/relay"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// grandpaAuthoritiesKey is the well-known storage key of the current
// authority set
var grandpaAuthoritiesKey = []byte(":grandpa_authorities")

// ErrNoAuthorities is returned when the source chain exposes no grandpa
// authority set
var ErrNoAuthorities = errors.New("no grandpa authorities in storage")

type authority struct {
	Key    [32]byte
	Weight uint64
}

// versionedAuthorityList is the storage encoding of the authority set
type versionedAuthorityList struct {
	Version     uint8
	Authorities []authority
}

// finalityProof is the wire encoding of the grandpa_proveFinality response
type finalityProof struct {
	Block          [32]byte
	Justification  []byte
	UnknownHeaders [][]byte
}

// readProof is the state_getReadProof response
type readProof struct {
	At    string   `json:"at"`
	Proof []string `json:"proof"`
}

// Source adapts a Client to the engine's source chain role
type Source struct {
	*Client
	messagesPallet string
}

var _ relay.Source = (*Source)(nil)

// NewSource returns a source adapter reading lane state from the given
// messages pallet
func NewSource(client *Client, messagesPallet string) *Source {
	return &Source{Client: client, messagesPallet: messagesPallet}
}

// GrandpaAuthorities returns the chain's current voter set and set id
func (s *Source) GrandpaAuthorities(_ context.Context) (*grandpa.VoterSet, uint64, error) {
	raw, ok, err := s.GetStorageRaw(grandpaAuthoritiesKey)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNoAuthorities
	}

	var list versionedAuthorityList
	if err := codec.Decode(raw, &list); err != nil {
		return nil, 0, fmt.Errorf("decoding authority list: %w", err)
	}

	voters := make([]grandpa.Voter, len(list.Authorities))
	for i, auth := range list.Authorities {
		voters[i] = grandpa.Voter{
			Key:    ed25519.PublicKeyBytes(auth.Key),
			Weight: auth.Weight,
		}
	}
	voterSet, err := grandpa.NewVoterSet(voters)
	if err != nil {
		return nil, 0, err
	}

	var setID types.U64
	if _, err := s.GetStorage("Grandpa", "CurrentSetId", nil, &setID); err != nil {
		return nil, 0, err
	}
	return voterSet, uint64(setID), nil
}

// FinalityProof returns the finalized header at the given number and a
// justification proving it
func (s *Source) FinalityProof(_ context.Context, number uint32) (grandpa.Header, *grandpa.Justification, error) {
	var proofHex string
	if err := s.RPCCall(&proofHex, "grandpa_proveFinality", number); err != nil {
		return grandpa.Header{}, nil, fmt.Errorf("proving finality of block %d: %w", number, err)
	}
	raw, err := codec.HexDecodeString(proofHex)
	if err != nil {
		return grandpa.Header{}, nil, fmt.Errorf("decoding finality proof hex: %w", err)
	}

	var proof finalityProof
	if err := codec.Decode(raw, &proof); err != nil {
		return grandpa.Header{}, nil, fmt.Errorf("decoding finality proof: %w", err)
	}

	justification, err := grandpa.DecodeJustification(proof.Justification)
	if err != nil {
		return grandpa.Header{}, nil, err
	}

	header, err := s.Header(types.NewHash(proof.Block[:]))
	if err != nil {
		return grandpa.Header{}, nil, err
	}
	return grandpa.Header{
		ParentHash: common.NewHash(header.ParentHash[:]),
		Number:     uint32(header.Number),
		StateRoot:  common.NewHash(header.StateRoot[:]),
	}, justification, nil
}

// OutboundLaneData returns the outbound state of the given lane
func (s *Source) OutboundLaneData(_ context.Context, lane messages.LaneID) (messages.OutboundLaneData, error) {
	arg, err := codec.Encode(lane)
	if err != nil {
		return messages.OutboundLaneData{}, fmt.Errorf("encoding lane id: %w", err)
	}
	var data messages.OutboundLaneData
	ok, err := s.GetStorage(s.messagesPallet, "OutboundLanes", arg, &data)
	if err != nil {
		return messages.OutboundLaneData{}, err
	}
	if !ok {
		return messages.NewOutboundLaneData(), nil
	}
	return data, nil
}

// ProveMessages builds a storage proof for the given nonce range of the
// lane, as of the best finalized header
func (s *Source) ProveMessages(ctx context.Context, lane messages.LaneID, begin, end messages.MessageNonce) (messages.MessagesProof, error) {
	finalized, err := s.BestFinalizedHeader(ctx)
	if err != nil {
		return messages.MessagesProof{}, err
	}

	keys := make([]string, 0, end-begin+1)
	for nonce := begin; nonce <= end; nonce++ {
		arg, err := codec.Encode(messages.MessageKey{Lane: lane, Nonce: nonce})
		if err != nil {
			return messages.MessagesProof{}, fmt.Errorf("encoding message key: %w", err)
		}
		key, err := types.CreateStorageKey(s.meta, s.messagesPallet, "OutboundMessages", arg)
		if err != nil {
			return messages.MessagesProof{}, fmt.Errorf("creating message storage key: %w", err)
		}
		keys = append(keys, key.Hex())
	}

	storageProof, err := s.readProofAt(keys, finalized.Hash)
	if err != nil {
		return messages.MessagesProof{}, err
	}
	return messages.MessagesProof{
		BridgedHeaderHash: finalized.Hash,
		StorageProof:      storageProof,
		Lane:              lane,
		NoncesBegin:       begin,
		NoncesEnd:         end,
	}, nil
}

// SubmitDeliveryProof submits a delivery confirmation to the source chain
func (s *Source) SubmitDeliveryProof(ctx context.Context, proof messages.MessagesDeliveryProof, relayersState messages.UnrewardedRelayersState) error {
	err := s.SubmitExtrinsic(ctx, s.messagesPallet+".receive_messages_delivery_proof", proof, relayersState)
	if errors.Is(err, ErrExtrinsicFailed) {
		// the pool filters confirmations that bring nothing new
		return relay.ErrAlreadySubmitted
	}
	return err
}

// ParaHead returns the given parachain's head at the best finalized relay
// chain block
func (s *Source) ParaHead(ctx context.Context, para parachains.ParaID) (parachains.ParaHead, relay.HeaderID, error) {
	finalized, err := s.BestFinalizedHeader(ctx)
	if err != nil {
		return parachains.ParaHead{}, relay.HeaderID{}, err
	}

	arg, err := codec.Encode(uint32(para))
	if err != nil {
		return parachains.ParaHead{}, relay.HeaderID{}, fmt.Errorf("encoding para id: %w", err)
	}
	var head types.Bytes
	ok, err := s.GetStorage("Paras", "Heads", arg, &head)
	if err != nil {
		return parachains.ParaHead{}, relay.HeaderID{}, err
	}
	if !ok {
		return parachains.ParaHead{}, relay.HeaderID{}, fmt.Errorf("para %d has no head", para)
	}
	return parachains.ParaHead{ID: para, Head: head}, finalized, nil
}

// readProofAt collects a storage read proof for the given keys at the
// given block
func (c *Client) readProofAt(keys []string, at common.Hash) ([][]byte, error) {
	var proof readProof
	if err := c.RPCCall(&proof, "state_getReadProof", keys, at.String()); err != nil {
		return nil, fmt.Errorf("getting read proof: %w", err)
	}

	nodes := make([][]byte, len(proof.Proof))
	for i, node := range proof.Proof {
		decoded, err := codec.HexDecodeString(node)
		if err != nil {
			return nil, fmt.Errorf("decoding proof node: %w", err)
		}
		nodes[i] = decoded
	}
	return nodes, nil
}
