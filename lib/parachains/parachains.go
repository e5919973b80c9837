// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package parachains tracks the best finalized heads of bridged parachains,
// keyed by the relay chain block they were finalized at, and provides the
// pool-level admission filter for head-update transactions.
package parachains

import (
	"errors"

	"github.com/ChainSafe/filament/lib/common"

	log "github.com/ChainSafe/log15"
)

var logger = log.New("pkg", "parachains")

var (
	// ErrObsoleteHead is returned when a head update cannot possibly improve
	// the stored state
	ErrObsoleteHead = errors.New("parachain head is obsolete")
	// ErrHeadTooLarge is returned when a head exceeds the maximal stored size
	ErrHeadTooLarge = errors.New("parachain head data is too large")
)

// ParaID is the bridged parachain identifier
type ParaID uint32

// BestParaHeadHash is the best known head of a parachain and the relay chain
// block number it was finalized at.
type BestParaHeadHash struct {
	AtRelayBlockNumber uint32
	HeadHash           common.Hash
}

// ParaInfo is the stored tracking state for one parachain. It is mutated
// exactly once per successfully validated head update and is monotonic in
// AtRelayBlockNumber.
type ParaInfo struct {
	BestHeadHash             BestParaHeadHash
	NextImportedHashPosition uint32
}

// ParaHead is one parachain head update: the para and its encoded head data
type ParaHead struct {
	ID   ParaID
	Head []byte
}

// Storage is the on-chain state this module reads and writes. Implementations
// must be deterministic; the interface is shared by the dispatch and the
// pool-level filter so both see one view.
type Storage interface {
	ParaInfo(para ParaID) (ParaInfo, bool)
	SetParaInfo(para ParaID, info ParaInfo)
	Head(para ParaID, hash common.Hash) ([]byte, bool)
	SetHead(para ParaID, hash common.Hash, head []byte)
	DeleteHead(para ParaID, hash common.Hash)
	ImportedHash(para ParaID, position uint32) (common.Hash, bool)
	SetImportedHash(para ParaID, position uint32, hash common.Hash)
}

// Tracker imports finalized parachain heads into storage, keeping a bounded
// ring of imported head hashes per parachain.
type Tracker struct {
	storage     Storage
	headsToKeep uint32
	maxHeadSize uint32
}

// NewTracker returns a new head tracker. headsToKeep bounds how many imported
// heads are retained per parachain and is clamped to at least 1, the ring
// arithmetic needs a non-empty ring; maxHeadSize bounds a single encoded head.
func NewTracker(storage Storage, headsToKeep, maxHeadSize uint32) *Tracker {
	if headsToKeep == 0 {
		headsToKeep = 1
	}
	return &Tracker{
		storage:     storage,
		headsToKeep: headsToKeep,
		maxHeadSize: maxHeadSize,
	}
}

// ImportHeads imports the given parachain heads, finalized at the given relay
// chain block. Obsolete and oversized heads are skipped, not fatal: the
// remaining updates in the batch still apply. Returns the number of imported
// heads.
func (t *Tracker) ImportHeads(atRelayBlock uint32, heads []ParaHead) int {
	var imported int
	for _, head := range heads {
		if err := t.importHead(atRelayBlock, head); err != nil {
			logger.Debug("skipping parachain head", "para", head.ID,
				"at_relay_block", atRelayBlock, "error", err)
			continue
		}
		imported++
	}
	return imported
}

func (t *Tracker) importHead(atRelayBlock uint32, head ParaHead) error {
	if uint32(len(head.Head)) > t.maxHeadSize {
		return ErrHeadTooLarge
	}

	headHash := common.MustBlake2bHash(head.Head)
	stored, known := t.storage.ParaInfo(head.ID)

	// heads must be imported in relay-block order, otherwise a racing
	// relayer could roll the best head back
	if known && atRelayBlock <= stored.BestHeadHash.AtRelayBlockNumber {
		return ErrObsoleteHead
	}

	position := uint32(0)
	if known {
		position = stored.NextImportedHashPosition
	}

	if pruned, ok := t.storage.ImportedHash(head.ID, position); ok {
		t.storage.DeleteHead(head.ID, pruned)
	}

	t.storage.SetImportedHash(head.ID, position, headHash)
	t.storage.SetHead(head.ID, headHash, head.Head)
	t.storage.SetParaInfo(head.ID, ParaInfo{
		BestHeadHash: BestParaHeadHash{
			AtRelayBlockNumber: atRelayBlock,
			HeadHash:           headHash,
		},
		NextImportedHashPosition: (position + 1) % t.headsToKeep,
	})

	logger.Trace("updated parachain head", "para", head.ID,
		"head", headHash, "at_relay_block", atRelayBlock)
	return nil
}

// BestHead returns the best imported head data of the given parachain
func (t *Tracker) BestHead(para ParaID) ([]byte, bool) {
	info, ok := t.storage.ParaInfo(para)
	if !ok {
		return nil, false
	}
	return t.storage.Head(para, info.BestHeadHash.HeadHash)
}
