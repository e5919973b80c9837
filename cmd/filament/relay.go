// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChainSafe/filament/config"
	"github.com/ChainSafe/filament/relay"
	"github.com/ChainSafe/filament/relay/substrate"

	log "github.com/ChainSafe/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var logger = log.New("pkg", "cmd")

func init() {
	relayCmd.Flags().String("config", "config.toml", "path to the relay config file")
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "run the relay between the configured chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		return execRelay(cmd)
	},
}

func execRelay(cmd *cobra.Command) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config: %s", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sourceClient, err := substrate.Connect(ctx, substrate.Config{
		Name:     cfg.Source.Name,
		Endpoint: cfg.Source.Endpoint,
		Seed:     cfg.Source.Seed,
	})
	if err != nil {
		return err
	}
	targetClient, err := substrate.Connect(ctx, substrate.Config{
		Name:     cfg.Target.Name,
		Endpoint: cfg.Target.Endpoint,
		Seed:     cfg.Target.Seed,
	})
	if err != nil {
		return err
	}

	source := substrate.NewSource(sourceClient, cfg.Pallets.Messages)
	target := substrate.NewTarget(targetClient,
		cfg.Pallets.Grandpa, cfg.Pallets.Messages, cfg.Pallets.Parachains)

	registry := prometheus.NewRegistry()
	metrics := relay.NewMetrics(registry)
	metricsServer := startMetricsServer(cfg.MetricsAddress, registry)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to stop metrics server", "error", err)
		}
	}()

	engine := relay.NewEngine(engineCfg, source, target, metrics)
	logger.Info("starting relay", "source", cfg.Source.Name, "target", cfg.Target.Name,
		"lanes", len(engineCfg.Lanes), "paras", len(engineCfg.Paras))
	return engine.Run(ctx)
}

func startMetricsServer(address string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return server
}
