// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package ed25519

import (
	ed25519 "crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// PublicKeyLength is the fixed Public Key Length
	PublicKeyLength = 32
	// SeedLength is the fixed Seed Length
	SeedLength = 32
	// PrivateKeyLength is the fixed Private Key Length
	PrivateKeyLength = 64
	// SignatureLength is the fixed Signature Length
	SignatureLength = 64
)

var ErrSignatureLength = errors.New("invalid signature length")

// Keypair is a ed25519 public-private keypair
type Keypair struct {
	public  *PublicKey
	private *PrivateKey
}

// PublicKey is the ed25519 Public Key
type PublicKey ed25519.PublicKey

// PrivateKey is the ed25519 Private Key
type PrivateKey ed25519.PrivateKey

// PublicKeyBytes is an encoded ed25519 public key
type PublicKeyBytes [PublicKeyLength]byte

// SignatureBytes is an ed25519 signature
type SignatureBytes [SignatureLength]byte

// String returns the PublicKeyBytes formatted as a hex string
func (b PublicKeyBytes) String() string {
	return fmt.Sprintf("0x%x", b[:])
}

// NewKeypair returns an ed25519 Keypair given an ed25519 private key
func NewKeypair(priv ed25519.PrivateKey) *Keypair {
	pubkey := PublicKey(priv.Public().(ed25519.PublicKey))
	privkey := PrivateKey(priv)
	return &Keypair{
		public:  &pubkey,
		private: &privkey,
	}
}

// NewKeypairFromSeed generates a keypair from a 32-byte seed
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != SeedLength {
		return nil, fmt.Errorf("cannot generate key from seed: seed is not %d bytes long", SeedLength)
	}
	return NewKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

// GenerateKeypair returns a new ed25519 keypair
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	pubkey := PublicKey(pub)
	privkey := PrivateKey(priv)
	return &Keypair{
		public:  &pubkey,
		private: &privkey,
	}, nil
}

// NewPublicKey returns an ed25519 public key that consists of the input bytes
func NewPublicKey(in []byte) (*PublicKey, error) {
	if len(in) != PublicKeyLength {
		return nil, fmt.Errorf("cannot create public key: input is not %d bytes", PublicKeyLength)
	}

	pub := PublicKey(ed25519.PublicKey(in))
	return &pub, nil
}

// Sign uses the keypair to sign the message using the ed25519 signature algorithm
func (kp *Keypair) Sign(msg []byte) ([]byte, error) {
	if kp.private == nil {
		return nil, errors.New("key is nil")
	}
	return ed25519.Sign(ed25519.PrivateKey(*kp.private), msg), nil
}

// Public returns the public key corresponding to this keypair
func (kp *Keypair) Public() *PublicKey {
	return kp.public
}

// Private returns the private key corresponding to this keypair
func (kp *Keypair) Private() *PrivateKey {
	return kp.private
}

// Verify checks that Verify(message, sig) was performed using public key k
func (k *PublicKey) Verify(msg, sig []byte) (bool, error) {
	if k == nil {
		return false, errors.New("nil public key")
	}
	if len(sig) != SignatureLength {
		return false, ErrSignatureLength
	}
	return ed25519.Verify(ed25519.PublicKey(*k), msg, sig), nil
}

// Encode returns the encoded bytes underlying the ed25519 PublicKey
func (k *PublicKey) Encode() []byte {
	return []byte(ed25519.PublicKey(*k))
}

// AsBytes returns the key as a PublicKeyBytes
func (k *PublicKey) AsBytes() PublicKeyBytes {
	var b PublicKeyBytes
	copy(b[:], k.Encode())
	return b
}

// Verify checks that the message was signed with the given public key
func Verify(pub *PublicKey, msg, sig []byte) (bool, error) {
	return pub.Verify(msg, sig)
}
