// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSpecVersionChanged aborts the engine when the target runtime changes
// mid-flight. Continuing could mean signing an encoding the target no
// longer understands, so safety wins over availability here.
var ErrSpecVersionChanged = errors.New("target runtime version changed")

// runGuard captures the target runtime version at startup and re-checks it
// periodically. A mismatch is the engine's one deliberately fatal path.
func (e *Engine) runGuard(ctx context.Context) error {
	initial, err := e.target.RuntimeVersion(ctx)
	if err != nil {
		return fmt.Errorf("getting initial target runtime version: %w", err)
	}
	logger.Info("watching target runtime version", "chain", e.target.Name(),
		"spec_name", initial.SpecName, "spec_version", initial.SpecVersion)

	ticker := time.NewTicker(e.cfg.GuardInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		current, err := e.target.RuntimeVersion(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			// transient RPC failures are retried on the next tick
			logger.Warn("failed to check target runtime version", "error", err)
			continue
		}

		if current != initial {
			return fmt.Errorf("%w: started with %s/%d, now %s/%d",
				ErrSpecVersionChanged,
				initial.SpecName, initial.SpecVersion,
				current.SpecName, current.SpecVersion)
		}
	}
}
