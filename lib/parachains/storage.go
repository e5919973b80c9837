// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachains

import "github.com/ChainSafe/filament/lib/common"

type headKey struct {
	para ParaID
	hash common.Hash
}

type positionKey struct {
	para     ParaID
	position uint32
}

// MemoryStorage is an in-memory Storage, used by the relay and in tests
type MemoryStorage struct {
	infos     map[ParaID]ParaInfo
	heads     map[headKey][]byte
	positions map[positionKey]common.Hash
}

// NewMemoryStorage returns an empty in-memory Storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		infos:     make(map[ParaID]ParaInfo),
		heads:     make(map[headKey][]byte),
		positions: make(map[positionKey]common.Hash),
	}
}

// ParaInfo returns the tracking state of the given parachain
func (s *MemoryStorage) ParaInfo(para ParaID) (ParaInfo, bool) {
	info, ok := s.infos[para]
	return info, ok
}

// SetParaInfo stores the tracking state of the given parachain
func (s *MemoryStorage) SetParaInfo(para ParaID, info ParaInfo) {
	s.infos[para] = info
}

// Head returns the stored head data for the given parachain and head hash
func (s *MemoryStorage) Head(para ParaID, hash common.Hash) ([]byte, bool) {
	head, ok := s.heads[headKey{para, hash}]
	return head, ok
}

// SetHead stores the head data for the given parachain and head hash
func (s *MemoryStorage) SetHead(para ParaID, hash common.Hash, head []byte) {
	s.heads[headKey{para, hash}] = head
}

// DeleteHead removes the head data for the given parachain and head hash
func (s *MemoryStorage) DeleteHead(para ParaID, hash common.Hash) {
	delete(s.heads, headKey{para, hash})
}

// ImportedHash returns the imported head hash at the given ring position
func (s *MemoryStorage) ImportedHash(para ParaID, position uint32) (common.Hash, bool) {
	hash, ok := s.positions[positionKey{para, position}]
	return hash, ok
}

// SetImportedHash stores the imported head hash at the given ring position
func (s *MemoryStorage) SetImportedHash(para ParaID, position uint32, hash common.Hash) {
	s.positions[positionKey{para, position}] = hash
}
