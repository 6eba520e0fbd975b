// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// programsTotal counts programs by terminal conversion status.
	programsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transmute_programs_total",
		Help: "Total programs processed by terminal status",
	}, []string{"status"})

	// attemptsTotal counts conversion attempts by furthest stage reached.
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transmute_conversion_attempts_total",
		Help: "Total conversion attempts by furthest stage reached",
	}, []string{"stage"})

	// programDuration tracks per-program conversion wall time.
	programDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transmute_program_duration_seconds",
		Help:    "Per-program conversion duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// testPassRate tracks the fraction of tests passing on the accepted attempt.
	testPassRate = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transmute_test_pass_rate",
		Help:    "Fraction of tests passing on a program's accepted attempt",
		Buckets: []float64{0, 0.25, 0.5, 0.75, 0.9, 1.0},
	})

	// cyclesTotal counts runs whose dependency graph contains a cycle (such
	// runs convert in SCC-condensed order).
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transmute_dependency_cycles_total",
		Help: "Total runs whose dependency graph contains at least one cycle",
	})
)
