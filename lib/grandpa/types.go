// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"fmt"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/lib/crypto/ed25519"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

type subround byte

const (
	prevote subround = iota
	precommit
)

func (s subround) String() string {
	switch s {
	case prevote:
		return "prevote"
	case precommit:
		return "precommit"
	}
	return "unknown"
}

// Header is the bridged chain header material supplied alongside a
// justification. Only the fields needed to connect votes to the commit
// target are carried; the hash is derived, never stored.
type Header struct {
	ParentHash common.Hash
	Number     uint32
	StateRoot  common.Hash
}

// Hash returns the blake2b hash of the SCALE encoded header
func (h *Header) Hash() common.Hash {
	enc, err := codec.Encode(h)
	if err != nil {
		panic(fmt.Sprintf("cannot encode header: %s", err))
	}
	return common.MustBlake2bHash(enc)
}

// Vote represents a vote for a block with the given hash and number
type Vote struct {
	Hash   common.Hash
	Number uint32
}

// String returns the Vote as a string
func (v Vote) String() string {
	return fmt.Sprintf("hash=%s number=%d", v.Hash, v.Number)
}

// SignedPrecommit represents a signed precommit message for a finalised block
type SignedPrecommit struct {
	Vote        Vote
	Signature   ed25519.SignatureBytes
	AuthorityID ed25519.PublicKeyBytes
}

// Commit contains all the signed precommits for a given block
type Commit struct {
	Hash       common.Hash
	Number     uint32
	Precommits []SignedPrecommit
}

// Justification represents a finality justification for a block: the commit
// plus the ancestry headers that connect each precommit target to the
// commit target.
type Justification struct {
	Round           uint64
	Commit          Commit
	VotesAncestries []Header
}

// Encode returns the SCALE encoding of the justification
func (j *Justification) Encode() ([]byte, error) {
	return codec.Encode(j)
}

// DecodeJustification decodes a SCALE encoded justification. A decode
// failure is fatal for the submission carrying these bytes; no partial
// verification is ever attempted.
func DecodeJustification(data []byte) (*Justification, error) {
	j := new(Justification)
	if err := codec.Decode(data, j); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJustificationDecode, err)
	}
	return j, nil
}

// FullVote is the payload signed by an authority: the vote is domain
// separated by subround, round number and authority set id. The encoding
// must be bit-exact with what the bridged chain's voters sign.
type FullVote struct {
	Stage subround
	Vote  Vote
	Round uint64
	SetID uint64
}

// signedPrecommitPayload returns the SCALE encoded payload that the
// authority signed for the given precommit.
func signedPrecommitPayload(vote Vote, round, setID uint64) ([]byte, error) {
	return codec.Encode(FullVote{
		Stage: precommit,
		Vote:  vote,
		Round: round,
		SetID: setID,
	})
}

// SignPrecommit signs the given vote with the keypair, producing a precommit
// that verifies against the same round and set id
func SignPrecommit(kp *ed25519.Keypair, vote Vote, round, setID uint64) (SignedPrecommit, error) {
	payload, err := signedPrecommitPayload(vote, round, setID)
	if err != nil {
		return SignedPrecommit{}, err
	}
	sig, err := kp.Sign(payload)
	if err != nil {
		return SignedPrecommit{}, err
	}

	signed := SignedPrecommit{
		Vote:        vote,
		AuthorityID: kp.Public().AsBytes(),
	}
	copy(signed.Signature[:], sig)
	return signed, nil
}

const (
	// encodedPrecommitSize is the upper bound of a single encoded precommit:
	// target hash, target number, signature and authority id.
	encodedPrecommitSize = common.HashLength + 4 + ed25519.SignatureLength + ed25519.PublicKeyLength

	// averageHeaderSize is a pessimistic estimate of a single encoded
	// ancestry header.
	averageHeaderSize = 180

	// reasonableHeadersInAncestry bounds how many ancestry headers an honest
	// justification is expected to carry between votes and the commit target.
	reasonableHeadersInAncestry = 64
)

// MaxReasonableSize returns an upper-bound estimate of the encoded size of a
// justification carrying the given number of precommits. It is used to bound
// resources before decoding untrusted bytes, never to reject a valid
// justification that is actually required.
func MaxReasonableSize(requiredPrecommits uint32) uint32 {
	const justificationOverhead = 8 + common.HashLength + 4 + 5 + 5
	return justificationOverhead +
		requiredPrecommits*encodedPrecommitSize +
		reasonableHeadersInAncestry*averageHeaderSize
}
