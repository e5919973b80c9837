// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import "golang.org/x/exp/maps"

// ModuleStorage is the on-chain state of the messages module: one outbound
// and one inbound lane per LaneID, plus the storage format version
type ModuleStorage interface {
	OutboundLane(lane LaneID) OutboundLaneStorage
	InboundLane(lane LaneID) InboundLaneStorage
	// Lanes returns every lane that has state, in unspecified order
	Lanes() []LaneID
	Version() uint32
	SetVersion(version uint32)
}

type memoryOutboundLane struct {
	id       LaneID
	data     OutboundLaneData
	payloads map[MessageNonce][]byte
}

func (l *memoryOutboundLane) ID() LaneID                 { return l.id }
func (l *memoryOutboundLane) Data() OutboundLaneData     { return l.data }
func (l *memoryOutboundLane) SetData(d OutboundLaneData) { l.data = d }

func (l *memoryOutboundLane) SaveMessage(nonce MessageNonce, payload []byte) {
	l.payloads[nonce] = payload
}

func (l *memoryOutboundLane) RemoveMessage(nonce MessageNonce) {
	delete(l.payloads, nonce)
}

type memoryInboundLane struct {
	id                 LaneID
	data               InboundLaneData
	maxRelayerEntries  MessageNonce
	maxUnconfirmedMsgs MessageNonce
}

func (l *memoryInboundLane) ID() LaneID                               { return l.id }
func (l *memoryInboundLane) Data() InboundLaneData                    { return l.data }
func (l *memoryInboundLane) SetData(d InboundLaneData)                { l.data = d }
func (l *memoryInboundLane) MaxUnrewardedRelayerEntries() MessageNonce { return l.maxRelayerEntries }
func (l *memoryInboundLane) MaxUnconfirmedMessages() MessageNonce      { return l.maxUnconfirmedMsgs }

// MemoryStorage is an in-memory ModuleStorage, used by the relay and in
// tests
type MemoryStorage struct {
	cfg      Config
	outbound map[LaneID]*memoryOutboundLane
	inbound  map[LaneID]*memoryInboundLane
	version  uint32
}

// NewMemoryStorage returns an empty in-memory ModuleStorage at the current
// storage format version
func NewMemoryStorage(cfg Config) *MemoryStorage {
	return &MemoryStorage{
		cfg:      cfg,
		outbound: make(map[LaneID]*memoryOutboundLane),
		inbound:  make(map[LaneID]*memoryInboundLane),
		version:  LaneStorageVersion,
	}
}

// OutboundLane returns the outbound lane storage, creating an Opened lane
// on first use
func (s *MemoryStorage) OutboundLane(lane LaneID) OutboundLaneStorage {
	l, ok := s.outbound[lane]
	if !ok {
		l = &memoryOutboundLane{
			id:       lane,
			data:     NewOutboundLaneData(),
			payloads: make(map[MessageNonce][]byte),
		}
		s.outbound[lane] = l
	}
	return l
}

// InboundLane returns the inbound lane storage, creating an Opened lane on
// first use
func (s *MemoryStorage) InboundLane(lane LaneID) InboundLaneStorage {
	l, ok := s.inbound[lane]
	if !ok {
		l = &memoryInboundLane{
			id:                 lane,
			data:               NewInboundLaneData(),
			maxRelayerEntries:  s.cfg.MaxUnrewardedRelayerEntries,
			maxUnconfirmedMsgs: s.cfg.MaxUnconfirmedMessages,
		}
		s.inbound[lane] = l
	}
	return l
}

// Lanes returns every lane with state
func (s *MemoryStorage) Lanes() []LaneID {
	lanes := maps.Keys(s.outbound)
	for lane := range s.inbound {
		if _, ok := s.outbound[lane]; !ok {
			lanes = append(lanes, lane)
		}
	}
	return lanes
}

// Version returns the stored format version
func (s *MemoryStorage) Version() uint32 {
	return s.version
}

// SetVersion stores the format version
func (s *MemoryStorage) SetVersion(version uint32) {
	s.version = version
}

// OutboundPayload returns the stored payload of an unpruned outbound
// message
func (s *MemoryStorage) OutboundPayload(lane LaneID, nonce MessageNonce) ([]byte, bool) {
	l, ok := s.outbound[lane]
	if !ok {
		return nil, false
	}
	payload, ok := l.payloads[nonce]
	return payload, ok
}
