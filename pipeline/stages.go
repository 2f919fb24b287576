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
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/identity"
	"github.com/Donggyu-Kim1/stock-data/library"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/rs/zerolog"
)

var markets = []data.Country{data.US, data.KR}

func (pipeline *Pipeline) seedBenchmarks(ctx context.Context, summary *data.RunSummary) error {
	benchmarks := data.DefaultBenchmarks()
	summary.Entities = len(benchmarks)

	var tally reconcile.Tally
	err := reconcile.InBatch(ctx, pipeline.library, func(batch reconcile.Batch) error {
		for _, bench := range benchmarks {
			outcome, err := pipeline.reconciler.Benchmark(ctx, batch, bench)
			if err != nil {
				return err
			}

			tally.Add(outcome)
		}

		return nil
	})

	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("could not seed benchmarks; batch rolled back")
		summary.Failed = len(benchmarks)
		return nil
	}

	addTally(summary, tally)
	return nil
}

func (pipeline *Pipeline) importCompanies(ctx context.Context, summary *data.RunSummary) error {
	resolver, err := identity.Load(pipeline.opts.ListsDir, pipeline.opts.ListSpecs)
	if err != nil {
		return err
	}

	lookup, err := library.LoadLookup(ctx, pipeline.library)
	if err != nil {
		return err
	}

	for _, market := range markets {
		src := pipeline.providers[market]

		for _, symbol := range resolver.Universe(market) {
			summary.Entities++

			entityCtx, logger := entityContext(ctx, symbol)

			if _, ok := lookup.Company(symbol); ok && !pipeline.opts.RefreshCompanies {
				summary.Skipped++
				continue
			}

			profile := resolver.Profile(symbol, market)
			if src != nil {
				fetched, err := src.Profile(entityCtx, symbol)
				switch {
				case err == nil:
					if fetched.Name != "" {
						profile.Name = fetched.Name
					}
					if fetched.Sector.Valid {
						profile.Sector = fetched.Sector
					}
				case errors.Is(err, provider.ErrNoData):
					logger.Debug().Err(err).Msg("no provider profile, using membership list details")
				default:
					logger.Warn().Err(err).Msg("could not fetch company profile; skipping company")
					summary.Failed++
					continue
				}
			}

			var outcome reconcile.Outcome
			err := reconcile.InBatch(entityCtx, pipeline.library, func(batch reconcile.Batch) (err error) {
				outcome, err = pipeline.reconciler.Company(entityCtx, batch, profile)
				return err
			})

			if err != nil {
				logger.Error().Err(err).Msg("could not save company; batch rolled back")
				summary.Failed++
				continue
			}

			if outcome.Action == reconcile.Reject {
				logger.Warn().Str("Reason", outcome.Reason).Msg("company rejected")
			}

			var tally reconcile.Tally
			tally.Add(outcome)
			addTally(summary, tally)
		}
	}

	return nil
}

func (pipeline *Pipeline) importBenchmarkPrices(ctx context.Context, summary *data.RunSummary) error {
	benchmarks, err := pipeline.library.Benchmarks(ctx)
	if err != nil {
		return err
	}

	start, end := pipeline.window()

	for _, bench := range benchmarks {
		summary.Entities++

		entityCtx, logger := entityContext(ctx, bench.Symbol)

		src, ok := pipeline.providers[bench.Country]
		if !ok {
			logger.Warn().Str("Country", string(bench.Country)).Msg("no provider configured for market")
			continue
		}

		pipeline.importPrices(entityCtx, summary, src, bench.Country, data.BenchmarkOwner, bench.ID, bench.FetchSymbol(), start, end)
	}

	return nil
}

func (pipeline *Pipeline) importStockPrices(ctx context.Context, summary *data.RunSummary) error {
	start, end := pipeline.window()

	for _, market := range markets {
		companies, err := pipeline.library.Companies(ctx, market)
		if err != nil {
			return err
		}

		src, ok := pipeline.providers[market]
		if !ok {
			if len(companies) > 0 {
				zerolog.Ctx(ctx).Warn().Str("Country", string(market)).Int("NumCompanies", len(companies)).Msg("no provider configured for market")
			}
			continue
		}

		for _, company := range companies {
			summary.Entities++

			entityCtx, _ := entityContext(ctx, company.Symbol)
			pipeline.importPrices(entityCtx, summary, src, market, data.CompanyOwner, company.ID, company.Symbol, start, end)
		}
	}

	return nil
}

// importPrices fetches, normalizes and reconciles the prices of one owner in
// a single batch
func (pipeline *Pipeline) importPrices(ctx context.Context, summary *data.RunSummary, src provider.PriceSource, country data.Country, owner data.Owner, ownerID int64, symbol string, start, end time.Time) {
	logger := zerolog.Ctx(ctx)

	rows, err := src.Prices(ctx, symbol, start, end)
	if err != nil {
		if errors.Is(err, provider.ErrNoData) {
			logger.Info().Err(err).Msg("no prices returned")
			return
		}

		logger.Warn().Err(err).Msg("could not fetch prices; skipping")
		summary.Failed++
		return
	}

	prices, errs := normalize.Prices(country, rows)
	for _, err := range errs {
		logger.Warn().Err(err).Msg("discarding malformed price row")
	}

	for idx := range prices {
		prices[idx].Owner = owner
		prices[idx].OwnerID = ownerID
	}

	if pipeline.recorder != nil && len(prices) > 0 {
		if err := pipeline.recorder.Record(ctx, owner, symbol, prices); err != nil {
			logger.Error().Err(err).Msg("could not archive prices")
		}
	}

	var tally reconcile.Tally
	err = reconcile.InBatch(ctx, pipeline.library, func(batch reconcile.Batch) (err error) {
		tally, err = pipeline.reconciler.Prices(ctx, batch, prices)
		return err
	})

	if err != nil {
		logger.Error().Err(err).Msg("could not save prices; batch rolled back")
		summary.Failed++
		return
	}

	logger.Debug().EmbedObject(tally).Msg("reconciled prices")
	addTally(summary, tally)
}

func (pipeline *Pipeline) importFinancials(ctx context.Context, summary *data.RunSummary) error {
	for _, market := range markets {
		companies, err := pipeline.library.Companies(ctx, market)
		if err != nil {
			return err
		}

		src, ok := pipeline.providers[market]
		if !ok {
			continue
		}

		for _, company := range companies {
			summary.Entities++

			entityCtx, logger := entityContext(ctx, company.Symbol)

			tables, opts, err := src.Statements(entityCtx, company.Symbol)
			if err != nil {
				if errors.Is(err, provider.ErrNoData) {
					logger.Info().Err(err).Msg("no statements returned")
					continue
				}

				logger.Warn().Err(err).Msg("could not fetch statements; skipping")
				summary.Failed++
				continue
			}

			opts.Years = pipeline.opts.StatementYears

			statements, errs := normalize.Statements(market, tables, opts)
			for _, err := range errs {
				logger.Warn().Err(err).Msg("discarding statement period")
			}

			for idx := range statements {
				statements[idx].CompanyID = company.ID
			}

			var tally reconcile.Tally
			err = reconcile.InBatch(entityCtx, pipeline.library, func(batch reconcile.Batch) (err error) {
				tally, err = pipeline.reconciler.Statements(entityCtx, batch, statements)
				return err
			})

			if err != nil {
				logger.Error().Err(err).Msg("could not save statements; batch rolled back")
				summary.Failed++
				continue
			}

			addTally(summary, tally)
		}
	}

	return nil
}
