// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package config loads the relay process configuration
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"
	"github.com/ChainSafe/filament/relay"

	"github.com/spf13/viper"
)

// ChainConfig connects and authenticates one chain
type ChainConfig struct {
	Name     string `mapstructure:"name"`
	Endpoint string `mapstructure:"endpoint"`
	Seed     string `mapstructure:"seed"`
}

// PalletsConfig names the bridge pallets on the target chain
type PalletsConfig struct {
	Grandpa    string `mapstructure:"grandpa"`
	Messages   string `mapstructure:"messages"`
	Parachains string `mapstructure:"parachains"`
}

// Config is the full relay process configuration
type Config struct {
	Source ChainConfig `mapstructure:"source"`
	Target ChainConfig `mapstructure:"target"`

	// Lanes to relay, as 0x-prefixed 4-byte hex ids
	Lanes []string `mapstructure:"lanes"`
	// Paras to relay heads for
	Paras []uint32 `mapstructure:"paras"`

	TickInterval       time.Duration `mapstructure:"tick-interval"`
	GuardInterval      time.Duration `mapstructure:"guard-interval"`
	MaxMessagesInBatch uint64        `mapstructure:"max-messages-in-batch"`

	MetricsAddress string        `mapstructure:"metrics-address"`
	Pallets        PalletsConfig `mapstructure:"pallets"`
}

// Default returns the configuration defaults
func Default() *Config {
	return &Config{
		TickInterval:       6 * time.Second,
		GuardInterval:      time.Minute,
		MaxMessagesInBatch: 128,
		MetricsAddress:     ":9616",
		Pallets: PalletsConfig{
			Grandpa:    "BridgeGrandpa",
			Messages:   "BridgeMessages",
			Parachains: "BridgeParachains",
		},
	}
}

// Load reads the configuration file at path over the defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// EngineConfig converts the loaded configuration into the relay engine's own
func (c *Config) EngineConfig() (relay.Config, error) {
	lanes := make([]messages.LaneID, len(c.Lanes))
	for i, s := range c.Lanes {
		lane, err := ParseLaneID(s)
		if err != nil {
			return relay.Config{}, err
		}
		lanes[i] = lane
	}

	paras := make([]parachains.ParaID, len(c.Paras))
	for i, p := range c.Paras {
		paras[i] = parachains.ParaID(p)
	}

	return relay.Config{
		Lanes:              lanes,
		Paras:              paras,
		TickInterval:       c.TickInterval,
		GuardInterval:      c.GuardInterval,
		MaxMessagesInBatch: messages.MessageNonce(c.MaxMessagesInBatch),
	}, nil
}

// ParseLaneID parses a 0x-prefixed 4-byte hex lane id
func ParseLaneID(s string) (messages.LaneID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return messages.LaneID{}, fmt.Errorf("invalid lane id %q: %w", s, err)
	}
	if len(raw) != len(messages.LaneID{}) {
		return messages.LaneID{}, fmt.Errorf("invalid lane id %q: expected %d bytes, got %d",
			s, len(messages.LaneID{}), len(raw))
	}
	var lane messages.LaneID
	copy(lane[:], raw)
	return lane, nil
}
