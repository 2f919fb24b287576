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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/identity"
	"github.com/Donggyu-Kim1/stock-data/library"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownStage = errors.New("unknown stage")
)

const DefaultLookbackYears = 5

// Recorder receives the canonical prices fetched during a run
type Recorder interface {
	Record(ctx context.Context, owner data.Owner, symbol string, prices []data.DailyPrice) error
}

type Options struct {
	Policies reconcile.Policies

	// LookbackYears is the length of the price window ending today
	LookbackYears int

	// RefreshCompanies reconciles companies that are already stored
	RefreshCompanies bool

	// StatementYears is the number of most recent annual statements kept
	StatementYears int

	ListsDir  string
	ListSpecs []identity.ListSpec
}

// Pipeline runs the import stages against a library. Entities are processed
// one at a time and each entity's records are committed in their own batch.
type Pipeline struct {
	library    *library.Library
	providers  map[data.Country]provider.Provider
	reconciler *reconcile.Reconciler
	opts       Options

	recorder Recorder
	metrics  *Metrics

	// now is replaced in tests
	now func() time.Time
}

func New(myLibrary *library.Library, providers map[data.Country]provider.Provider, opts Options) *Pipeline {
	if opts.LookbackYears <= 0 {
		opts.LookbackYears = DefaultLookbackYears
	}

	opts.Policies = opts.Policies.WithDefaults()

	if opts.ListSpecs == nil {
		opts.ListSpecs = identity.DefaultListSpecs
	}

	return &Pipeline{
		library:    myLibrary,
		providers:  providers,
		reconciler: reconcile.New(opts.Policies),
		opts:       opts,
		metrics:    NewMetrics(),
		now:        time.Now,
	}
}

// WithRecorder sends every fetched price series to recorder
func (pipeline *Pipeline) WithRecorder(recorder Recorder) *Pipeline {
	pipeline.recorder = recorder
	return pipeline
}

func (pipeline *Pipeline) Metrics() *Metrics {
	return pipeline.metrics
}

// ParseStages converts stage names to stages; no names selects every stage
func ParseStages(names []string) ([]data.Stage, error) {
	if len(names) == 0 {
		return data.Stages, nil
	}

	stages := make([]data.Stage, 0, len(names))
	for _, name := range names {
		stage := data.Stage(name)
		found := false
		for _, known := range data.Stages {
			if known == stage {
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
		}

		stages = append(stages, stage)
	}

	return stages, nil
}

// Run executes stages in order. A failing stage is logged and the run moves
// on; only unavailable membership lists stop the run.
func (pipeline *Pipeline) Run(ctx context.Context, stages []data.Stage) ([]data.RunSummary, error) {
	summaries := make([]data.RunSummary, 0, len(stages))

	for _, stage := range stages {
		summary, err := pipeline.RunStage(ctx, stage)
		summaries = append(summaries, summary)

		if err != nil {
			if errors.Is(err, identity.ErrListsUnavailable) {
				return summaries, err
			}

			zerolog.Ctx(ctx).Error().Err(err).Str("Stage", string(stage)).Msg("stage failed")
		}
	}

	return summaries, nil
}

// RunStage executes a single stage and returns its summary
func (pipeline *Pipeline) RunStage(ctx context.Context, stage data.Stage) (data.RunSummary, error) {
	summary := data.RunSummary{
		ID:        uuid.New(),
		Stage:     stage,
		StartTime: pipeline.now(),
	}

	logger := zerolog.Ctx(ctx).With().Str("Stage", string(stage)).Str("RunID", summary.ID.String()).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("starting stage")

	var err error
	switch stage {
	case data.BenchmarkStage:
		err = pipeline.seedBenchmarks(ctx, &summary)
	case data.CompanyStage:
		err = pipeline.importCompanies(ctx, &summary)
	case data.BenchmarkPriceStage:
		err = pipeline.importBenchmarkPrices(ctx, &summary)
	case data.StockPriceStage:
		err = pipeline.importStockPrices(ctx, &summary)
	case data.FinancialStage:
		err = pipeline.importFinancials(ctx, &summary)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	summary.EndTime = pipeline.now()
	pipeline.metrics.Observe(summary, err == nil)

	logger.Info().EmbedObject(summary).Msg("finished stage")

	return summary, err
}

// SeedBenchmarks stores the fixed set of benchmark indices in one batch
func (pipeline *Pipeline) SeedBenchmarks(ctx context.Context) (data.RunSummary, error) {
	return pipeline.RunStage(ctx, data.BenchmarkStage)
}

func (pipeline *Pipeline) ImportCompanies(ctx context.Context) (data.RunSummary, error) {
	return pipeline.RunStage(ctx, data.CompanyStage)
}

func (pipeline *Pipeline) ImportBenchmarkPrices(ctx context.Context) (data.RunSummary, error) {
	return pipeline.RunStage(ctx, data.BenchmarkPriceStage)
}

func (pipeline *Pipeline) ImportStockPrices(ctx context.Context) (data.RunSummary, error) {
	return pipeline.RunStage(ctx, data.StockPriceStage)
}

func (pipeline *Pipeline) ImportFinancials(ctx context.Context) (data.RunSummary, error) {
	return pipeline.RunStage(ctx, data.FinancialStage)
}

// window returns the first and last day of the price lookback window
func (pipeline *Pipeline) window() (time.Time, time.Time) {
	now := pipeline.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(-pipeline.opts.LookbackYears, 0, 0), end
}

func addTally(summary *data.RunSummary, tally reconcile.Tally) {
	summary.Inserted += tally.Inserted
	summary.Updated += tally.Updated
	summary.Skipped += tally.Skipped
	summary.Rejected += tally.Rejected
}

// entityContext returns a context whose logger is tagged with symbol
func entityContext(ctx context.Context, symbol string) (context.Context, *zerolog.Logger) {
	logger := zerolog.Ctx(ctx).With().Str("Symbol", symbol).Logger()
	return logger.WithContext(ctx), &logger
}
