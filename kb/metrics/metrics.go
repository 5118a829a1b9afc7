// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package metrics exposes the tableau engine's per-run counters
// (expansions, branches, backtracks, merges, clashes) as Prometheus
// collectors. The kb facade is the only caller; tableau.Stats itself
// has no Prometheus dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-air/sroiq/tableau"
)

// Metrics holds the collectors registered for one process. Multiple
// KB instances sharing a Metrics report into the same counters,
// distinguished by the kb_id label.
type Metrics struct {
	expansions *prometheus.CounterVec
	branches   *prometheus.CounterVec
	backtracks *prometheus.CounterVec
	merges     *prometheus.CounterVec
	clashes    *prometheus.CounterVec
	consistency *prometheus.CounterVec
}

// New creates collectors and registers them with reg. If reg is nil,
// prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		expansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sroiq",
			Subsystem: "tableau",
			Name:      "expansions_total",
			Help:      "Total tableau rule expansions applied.",
		}, []string{"kb_id"}),
		branches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sroiq",
			Subsystem: "tableau",
			Name:      "branches_total",
			Help:      "Total non-deterministic branch points opened.",
		}, []string{"kb_id"}),
		backtracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sroiq",
			Subsystem: "tableau",
			Name:      "backtracks_total",
			Help:      "Total dependency-directed backtracks taken.",
		}, []string{"kb_id"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sroiq",
			Subsystem: "tableau",
			Name:      "merges_total",
			Help:      "Total completion-graph node merges performed.",
		}, []string{"kb_id"}),
		clashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sroiq",
			Subsystem: "tableau",
			Name:      "clashes_total",
			Help:      "Total clashes detected across all runs.",
		}, []string{"kb_id"}),
		consistency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sroiq",
			Subsystem: "kb",
			Name:      "consistency_checks_total",
			Help:      "Total isConsistent() calls, by outcome.",
		}, []string{"kb_id", "outcome"}),
	}
	for _, c := range []**prometheus.CounterVec{&m.expansions, &m.branches, &m.backtracks, &m.merges, &m.clashes, &m.consistency} {
		if err := reg.Register(*c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				// a second KB in the same process shares the existing collector.
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					*c = existing
				}
				continue
			}
		}
	}
	return m
}

// ObserveRun adds one tableau run's stats to the kbID-labeled
// counters.
func (m *Metrics) ObserveRun(kbID string, s tableau.Stats) {
	if m == nil {
		return
	}
	m.expansions.WithLabelValues(kbID).Add(float64(s.Expansions))
	m.branches.WithLabelValues(kbID).Add(float64(s.Branches))
	m.backtracks.WithLabelValues(kbID).Add(float64(s.Backtracks))
	m.merges.WithLabelValues(kbID).Add(float64(s.Merges))
	m.clashes.WithLabelValues(kbID).Add(float64(s.Clashes))
}

// ObserveConsistency records one isConsistent() outcome.
func (m *Metrics) ObserveConsistency(kbID, outcome string) {
	if m == nil {
		return
	}
	m.consistency.WithLabelValues(kbID, outcome).Inc()
}
