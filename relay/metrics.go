// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's Prometheus collectors
type Metrics struct {
	BestSourceBlock         prometheus.Gauge
	BestBridgedBlock        prometheus.Gauge
	SubmittedFinalityProofs prometheus.Counter
	SubmittedParaHeads      prometheus.Counter
	DeliveredMessages       *prometheus.CounterVec
	SubmittedConfirmations  *prometheus.CounterVec
	LaneQueuedMessages      *prometheus.GaugeVec
	IterationErrors         *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them with the
// given registerer. A nil registerer leaves them unregistered, which tests
// use.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		BestSourceBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filament",
			Name:      "best_source_block",
			Help:      "Best finalized source chain block number",
		}),
		BestBridgedBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filament",
			Name:      "best_bridged_block",
			Help:      "Best source chain block number known to the target chain",
		}),
		SubmittedFinalityProofs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filament",
			Name:      "submitted_finality_proofs_total",
			Help:      "Number of finality proofs submitted to the target chain",
		}),
		SubmittedParaHeads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filament",
			Name:      "submitted_parachain_heads_total",
			Help:      "Number of parachain head updates submitted to the target chain",
		}),
		DeliveredMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filament",
			Name:      "delivered_messages_total",
			Help:      "Number of messages delivered to the target chain",
		}, []string{"lane"}),
		SubmittedConfirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filament",
			Name:      "submitted_confirmations_total",
			Help:      "Number of delivery confirmations submitted to the source chain",
		}, []string{"lane"}),
		LaneQueuedMessages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "filament",
			Name:      "lane_queued_messages",
			Help:      "Number of sent but unconfirmed messages per lane",
		}, []string{"lane"}),
		IterationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filament",
			Name:      "iteration_errors_total",
			Help:      "Number of failed relay task iterations",
		}, []string{"task"}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.BestSourceBlock,
			m.BestBridgedBlock,
			m.SubmittedFinalityProofs,
			m.SubmittedParaHeads,
			m.DeliveredMessages,
			m.SubmittedConfirmations,
			m.LaneQueuedMessages,
			m.IterationErrors,
		)
	}
	return m
}
