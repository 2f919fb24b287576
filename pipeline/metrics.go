// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pipeline

import (
	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per stage counters of a run. Runs are short lived so the
// metrics are written to a file for the node exporter textfile collector
// instead of being served.
type Metrics struct {
	registry *prometheus.Registry

	records     *prometheus.CounterVec
	entities    *prometheus.CounterVec
	duration    *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockdata",
			Name:      "records_total",
			Help:      "Records reconciled by stage and action.",
		}, []string{"stage", "action"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockdata",
			Name:      "entities_total",
			Help:      "Companies and benchmarks visited by stage and result.",
		}, []string{"stage", "result"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stockdata",
			Name:      "stage_duration_seconds",
			Help:      "Duration of the last run of a stage.",
		}, []string{"stage"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stockdata",
			Name:      "stage_last_success_timestamp_seconds",
			Help:      "Unix time the stage last finished without error.",
		}, []string{"stage"}),
	}

	metrics.registry.MustRegister(metrics.records, metrics.entities, metrics.duration, metrics.lastSuccess)

	return metrics
}

// Observe adds the counts of a finished stage
func (metrics *Metrics) Observe(summary data.RunSummary, succeeded bool) {
	stage := string(summary.Stage)

	metrics.records.WithLabelValues(stage, "insert").Add(float64(summary.Inserted))
	metrics.records.WithLabelValues(stage, "update").Add(float64(summary.Updated))
	metrics.records.WithLabelValues(stage, "skip").Add(float64(summary.Skipped))
	metrics.records.WithLabelValues(stage, "reject").Add(float64(summary.Rejected))

	metrics.entities.WithLabelValues(stage, "ok").Add(float64(summary.Entities - summary.Failed))
	metrics.entities.WithLabelValues(stage, "failed").Add(float64(summary.Failed))

	metrics.duration.WithLabelValues(stage).Set(summary.EndTime.Sub(summary.StartTime).Seconds())

	if succeeded {
		metrics.lastSuccess.WithLabelValues(stage).Set(float64(summary.EndTime.Unix()))
	}
}

func (metrics *Metrics) Gatherer() prometheus.Gatherer {
	return metrics.registry
}

// WriteTextfile writes the metrics in the text exposition format to fn
func (metrics *Metrics) WriteTextfile(fn string) error {
	return prometheus.WriteToTextfile(fn, metrics.registry)
}
