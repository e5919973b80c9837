// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"context"
	"errors"
	"time"

	"github.com/ChainSafe/filament/lib/messages"
	"github.com/ChainSafe/filament/lib/parachains"

	log "github.com/ChainSafe/log15"
	"golang.org/x/sync/errgroup"
)

var logger = log.New("pkg", "relay")

// Config is the engine configuration, fixed for the engine's lifetime
type Config struct {
	// Lanes to relay messages and confirmations for
	Lanes []messages.LaneID
	// Paras to relay heads for
	Paras []parachains.ParaID
	// TickInterval is the poll interval of every relay task
	TickInterval time.Duration
	// GuardInterval is the poll interval of the runtime version guard
	GuardInterval time.Duration
	// MaxMessagesInBatch bounds one delivery transaction
	MaxMessagesInBatch messages.MessageNonce
}

// Engine runs one long-lived task per relay direction: finality, parachain
// heads, message delivery and delivery confirmation, plus a guard watching
// the target runtime version. Tasks share nothing but read-only
// configuration; each polls, decides the next unit of work, submits it and
// waits for the next tick. Work units are idempotent, so re-submitting
// after a crash or a race with another relayer is a safe no-op.
type Engine struct {
	cfg     Config
	source  Source
	target  Target
	metrics *Metrics
}

// NewEngine returns an engine relaying from source to target. metrics may
// be nil.
func NewEngine(cfg Config, source Source, target Target, metrics *Metrics) *Engine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{
		cfg:     cfg,
		source:  source,
		target:  target,
		metrics: metrics,
	}
}

// Run drives all relay tasks until the context is cancelled or the guard
// aborts. A guard failure cancels every task and is returned; individual
// task iteration failures are logged and retried on the next tick.
func (e *Engine) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return e.runGuard(ctx)
	})
	group.Go(func() error {
		return e.runLoop(ctx, "finality", e.finalityIteration)
	})
	if len(e.cfg.Paras) > 0 {
		group.Go(func() error {
			return e.runLoop(ctx, "parachains", e.parachainsIteration)
		})
	}
	for _, lane := range e.cfg.Lanes {
		lane := lane
		group.Go(func() error {
			return e.runLoop(ctx, "delivery", func(ctx context.Context) error {
				return e.deliveryIteration(ctx, lane)
			})
		})
		group.Go(func() error {
			return e.runLoop(ctx, "confirmation", func(ctx context.Context) error {
				return e.confirmationIteration(ctx, lane)
			})
		})
	}

	return group.Wait()
}

// runLoop runs one relay task: an iteration per tick, until cancellation.
// Iteration errors do not stop the loop; the failed unit of work is
// retried on a later tick.
func (e *Engine) runLoop(ctx context.Context, name string, iteration func(context.Context) error) error {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		if err := iteration(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			e.metrics.IterationErrors.WithLabelValues(name).Inc()
			logger.Warn("relay iteration failed", "task", name, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
