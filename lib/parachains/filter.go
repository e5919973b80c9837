// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package parachains

import "github.com/ChainSafe/filament/lib/common"

// ParaIDAndHash identifies a single head inside a batch update
type ParaIDAndHash struct {
	ID   ParaID
	Hash common.Hash
}

// SubmitParachainHeadsInfo is the pool-visible shape of a head-update
// transaction: the relay block the heads were finalized at and the (para,
// head hash) pairs it carries.
type SubmitParachainHeadsInfo struct {
	AtRelayBlockNumber uint32
	Heads              []ParaIDAndHash
}

// CheckObsolete rejects single-parachain updates that cannot improve the
// stored best head. Batch updates are admitted unconditionally: a batch may
// improve some paras and not others, so per-head rejection is left to the
// dispatch itself.
func CheckObsolete(storage Storage, update SubmitParachainHeadsInfo) error {
	if len(update.Heads) != 1 {
		return nil
	}

	stored, ok := storage.ParaInfo(update.Heads[0].ID)
	if !ok {
		return nil
	}

	if update.AtRelayBlockNumber <= stored.BestHeadHash.AtRelayBlockNumber {
		return ErrObsoleteHead
	}
	return nil
}
