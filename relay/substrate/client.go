// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package substrate connects the relay engine to Substrate chains over RPC
package substrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChainSafe/filament/lib/common"
	"github.com/ChainSafe/filament/relay"

	log "github.com/ChainSafe/log15"
	"github.com/avast/retry-go/v4"
	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

var logger = log.New("pkg", "substrate")

const (
	connectAttempts = 5
	connectDelay    = time.Second

	// substrateNetworkID selects the generic substrate SS58 prefix for the
	// relayer's signing address
	substrateNetworkID = 42
)

// ErrExtrinsicFailed is returned when a submitted extrinsic is dropped or
// marked invalid before inclusion
var ErrExtrinsicFailed = errors.New("extrinsic was not included")

// Config connects and authenticates one chain client
type Config struct {
	// Name of the chain, used in logs and metrics
	Name string
	// Endpoint is the websocket RPC endpoint
	Endpoint string
	// Seed is the relayer's signing key, as a secret seed or mnemonic.
	// Empty for read-only clients.
	Seed string
}

// Client is a connection to one Substrate chain. It satisfies
// relay.ChainClient and carries the plumbing chain-specific adapters build
// on: storage reads, runtime calls and signed extrinsic submission.
type Client struct {
	name        string
	api         *gsrpc.SubstrateAPI
	meta        *types.Metadata
	genesisHash types.Hash
	keyring     signature.KeyringPair
	canSign     bool
}

// Connect dials the endpoint with bounded backoff and loads the chain
// metadata
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	var api *gsrpc.SubstrateAPI
	err := retry.Do(
		func() error {
			var err error
			api, err = gsrpc.NewSubstrateAPI(cfg.Endpoint)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s at %s: %w", cfg.Name, cfg.Endpoint, err)
	}

	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, fmt.Errorf("getting %s metadata: %w", cfg.Name, err)
	}
	genesisHash, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return nil, fmt.Errorf("getting %s genesis hash: %w", cfg.Name, err)
	}

	client := &Client{
		name:        cfg.Name,
		api:         api,
		meta:        meta,
		genesisHash: genesisHash,
	}
	if cfg.Seed != "" {
		keyring, err := signature.KeyringPairFromSecret(cfg.Seed, substrateNetworkID)
		if err != nil {
			return nil, fmt.Errorf("loading %s signing key: %w", cfg.Name, err)
		}
		client.keyring = keyring
		client.canSign = true
	}

	logger.Info("connected to chain", "chain", cfg.Name, "endpoint", cfg.Endpoint)
	return client, nil
}

// Name returns the configured chain name
func (c *Client) Name() string {
	return c.name
}

// BestFinalizedHeader returns the chain's best finalized header id
func (c *Client) BestFinalizedHeader(_ context.Context) (relay.HeaderID, error) {
	hash, err := c.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return relay.HeaderID{}, fmt.Errorf("getting finalized head: %w", err)
	}
	header, err := c.api.RPC.Chain.GetHeader(hash)
	if err != nil {
		return relay.HeaderID{}, fmt.Errorf("getting header %s: %w", hash.Hex(), err)
	}
	return relay.HeaderID{
		Number: uint32(header.Number),
		Hash:   common.NewHash(hash[:]),
	}, nil
}

// Header returns the header with the given hash
func (c *Client) Header(hash types.Hash) (*types.Header, error) {
	header, err := c.api.RPC.Chain.GetHeader(hash)
	if err != nil {
		return nil, fmt.Errorf("getting header %s: %w", hash.Hex(), err)
	}
	return header, nil
}

// RuntimeVersion returns the chain's current runtime version
func (c *Client) RuntimeVersion(_ context.Context) (relay.RuntimeVersion, error) {
	version, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return relay.RuntimeVersion{}, fmt.Errorf("getting runtime version: %w", err)
	}
	return relay.RuntimeVersion{
		SpecName:           string(version.SpecName),
		SpecVersion:        uint32(version.SpecVersion),
		TransactionVersion: uint32(version.TransactionVersion),
	}, nil
}

// GetStorage reads a storage value at the latest block into target. Returns
// false when the key has no value.
func (c *Client) GetStorage(prefix, method string, arg []byte, target interface{}) (bool, error) {
	var args [][]byte
	if arg != nil {
		args = append(args, arg)
	}
	key, err := types.CreateStorageKey(c.meta, prefix, method, args...)
	if err != nil {
		return false, fmt.Errorf("creating storage key %s.%s: %w", prefix, method, err)
	}
	ok, err := c.api.RPC.State.GetStorageLatest(key, target)
	if err != nil {
		return false, fmt.Errorf("reading storage %s.%s: %w", prefix, method, err)
	}
	return ok, nil
}

// GetStorageAt reads a storage value as of the given block into target.
// Returns false when the key has no value.
func (c *Client) GetStorageAt(prefix, method string, arg []byte, at common.Hash, target interface{}) (bool, error) {
	var args [][]byte
	if arg != nil {
		args = append(args, arg)
	}
	key, err := types.CreateStorageKey(c.meta, prefix, method, args...)
	if err != nil {
		return false, fmt.Errorf("creating storage key %s.%s: %w", prefix, method, err)
	}
	ok, err := c.api.RPC.State.GetStorage(key, target, types.NewHash(at.ToBytes()))
	if err != nil {
		return false, fmt.Errorf("reading storage %s.%s at %s: %w", prefix, method, at, err)
	}
	return ok, nil
}

// GetStorageRaw reads a raw storage value at a well-known key
func (c *Client) GetStorageRaw(key []byte) ([]byte, bool, error) {
	data, err := c.api.RPC.State.GetStorageRawLatest(types.NewStorageKey(key))
	if err != nil {
		return nil, false, fmt.Errorf("reading raw storage: %w", err)
	}
	if data == nil || len(*data) == 0 {
		return nil, false, nil
	}
	return *data, true, nil
}

// RPCCall performs a raw RPC call into result
func (c *Client) RPCCall(result interface{}, method string, args ...interface{}) error {
	return c.api.Client.Call(result, method, args...)
}

// accountNonce returns the relayer account's next nonce
func (c *Client) accountNonce() (uint32, error) {
	key, err := types.CreateStorageKey(c.meta, "System", "Account", c.keyring.PublicKey)
	if err != nil {
		return 0, fmt.Errorf("creating account storage key: %w", err)
	}
	var info types.AccountInfo
	ok, err := c.api.RPC.State.GetStorageLatest(key, &info)
	if err != nil {
		return 0, fmt.Errorf("reading account info: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return uint32(info.Nonce), nil
}

// SubmitExtrinsic signs the call, submits it and waits for block inclusion
// or context cancellation. An in-progress submission is never cancelled
// mid-flight; it completes or times out and the caller retries the same
// idempotent unit of work.
func (c *Client) SubmitExtrinsic(ctx context.Context, callName string, callArgs ...interface{}) error {
	if !c.canSign {
		return fmt.Errorf("chain %s has no signing key configured", c.name)
	}

	call, err := types.NewCall(c.meta, callName, callArgs...)
	if err != nil {
		return fmt.Errorf("creating call %s: %w", callName, err)
	}

	version, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return fmt.Errorf("getting runtime version: %w", err)
	}
	nonce, err := c.accountNonce()
	if err != nil {
		return err
	}

	ext := types.NewExtrinsic(call)
	err = ext.Sign(c.keyring, types.SignatureOptions{
		BlockHash:          c.genesisHash,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        c.genesisHash,
		Nonce:              types.NewUCompactFromUInt(uint64(nonce)),
		SpecVersion:        version.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: version.TransactionVersion,
	})
	if err != nil {
		return fmt.Errorf("signing %s: %w", callName, err)
	}

	sub, err := c.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return fmt.Errorf("submitting %s: %w", callName, err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("watching %s: %w", callName, err)
		case status := <-sub.Chan():
			switch {
			case status.IsInBlock:
				logger.Debug("extrinsic included", "chain", c.name, "call", callName)
				return nil
			case status.IsDropped, status.IsInvalid, status.IsUsurped:
				return fmt.Errorf("%w: call %s", ErrExtrinsicFailed, callName)
			}
		}
	}
}
