// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashLength is the expected length of the common.Hash type
const HashLength = 32

// EmptyHash is the all-zero hash
var EmptyHash = Hash{}

var ErrInvalidHashLength = errors.New("invalid hash length")

// Hash is a blake2b-256 hash
type Hash [32]byte

// NewHash casts a byte slice to a Hash.
// If the input is longer than 32 bytes, it takes the first 32 bytes.
func NewHash(in []byte) (res Hash) {
	copy(res[:], in)
	return res
}

// ToBytes turns a hash into a byte slice
func (h Hash) ToBytes() []byte {
	b := [32]byte(h)
	return b[:]
}

// IsEmpty returns true if the hash is empty, false otherwise.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// String returns the hex string for the hash
func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// HexToHash turns a 0x prefixed hex string into a Hash
func HexToHash(in string) (Hash, error) {
	if !strings.HasPrefix(in, "0x") {
		return Hash{}, errors.New("could not byteify non 0x prefixed string")
	}
	out, err := hex.DecodeString(strings.TrimPrefix(in, "0x"))
	if err != nil {
		return Hash{}, err
	}
	if len(out) != HashLength {
		return Hash{}, ErrInvalidHashLength
	}
	var buf Hash
	copy(buf[:], out)
	return buf, nil
}

// MustHexToHash turns a 0x prefixed hex string into a Hash.
// It panics if the input is invalid.
func MustHexToHash(in string) Hash {
	h, err := HexToHash(in)
	if err != nil {
		panic(err)
	}
	return h
}

// Blake2bHash returns the 256-bit blake2b hash of the input data
func Blake2bHash(data []byte) (Hash, error) {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return Hash{}, err
	}
	if _, err := hasher.Write(data); err != nil {
		return Hash{}, err
	}
	return NewHash(hasher.Sum(nil)), nil
}

// MustBlake2bHash returns the 256-bit blake2b hash of the input data.
// It panics on hasher failure, which cannot happen for an unkeyed hasher.
func MustBlake2bHash(data []byte) Hash {
	h, err := Blake2bHash(data)
	if err != nil {
		panic(err)
	}
	return h
}
