// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(`
tick-interval = "2s"
lanes = ["0x00000001"]
paras = [2000]

[source]
name = "rococo"
endpoint = "ws://localhost:9944"

[target]
name = "wococo"
endpoint = "ws://localhost:9945"
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "rococo", cfg.Source.Name)
	require.Equal(t, "ws://localhost:9945", cfg.Target.Endpoint)
	require.Equal(t, 2*time.Second, cfg.TickInterval)
	// defaults survive partial configs
	require.Equal(t, time.Minute, cfg.GuardInterval)
	require.Equal(t, "BridgeGrandpa", cfg.Pallets.Grandpa)

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)
	require.Equal(t, []messages.LaneID{{0, 0, 0, 1}}, engineCfg.Lanes)
	require.Equal(t, []parachains.ParaID{2000}, engineCfg.Paras)
	require.Equal(t, messages.MessageNonce(128), engineCfg.MaxMessagesInBatch)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestParseLaneID(t *testing.T) {
	lane, err := ParseLaneID("0xdeadbeef")
	require.NoError(t, err)
	require.Equal(t, messages.LaneID{0xde, 0xad, 0xbe, 0xef}, lane)

	_, err = ParseLaneID("0x0001")
	require.Error(t, err)
	_, err = ParseLaneID("not-hex")
	require.Error(t, err)
}
