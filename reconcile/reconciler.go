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
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/rs/zerolog"
)

// Outcome reports what happened to one record
type Outcome struct {
	Action Action
	Key    string
	Reason string
}

func (outcome Outcome) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Action", string(outcome.Action)).Str("Key", outcome.Key)
	if outcome.Reason != "" {
		e.Str("Reason", outcome.Reason)
	}
}

// Tally counts outcomes by action
type Tally struct {
	Inserted int
	Updated  int
	Skipped  int
	Rejected int
}

func (tally *Tally) Add(outcome Outcome) {
	switch outcome.Action {
	case Insert:
		tally.Inserted++
	case Update:
		tally.Updated++
	case Skip:
		tally.Skipped++
	case Reject:
		tally.Rejected++
	}
}

func (tally *Tally) Merge(other Tally) {
	tally.Inserted += other.Inserted
	tally.Updated += other.Updated
	tally.Skipped += other.Skipped
	tally.Rejected += other.Rejected
}

// Writes is the number of rows the tallied outcomes inserted or updated
func (tally Tally) Writes() int {
	return tally.Inserted + tally.Updated
}

func (tally Tally) MarshalZerologObject(e *zerolog.Event) {
	e.Int("Inserted", tally.Inserted).
		Int("Updated", tally.Updated).
		Int("Skipped", tally.Skipped).
		Int("Rejected", tally.Rejected)
}

// Reconciler decides insert, update, skip or reject for incoming canonical
// records and stages the writes through a Batch. It holds no state besides
// its policies and is safe to reuse across batches.
type Reconciler struct {
	Policies Policies
}

// New returns a reconciler; entity types without a policy use the default
func New(policies Policies) *Reconciler {
	return &Reconciler{Policies: policies.WithDefaults()}
}

func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func persistenceError(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, key, err)
}

func logOutcome(ctx context.Context, outcome Outcome) {
	zerolog.Ctx(ctx).Debug().EmbedObject(outcome).Msg("reconciled record")
}

// Benchmark reconciles a benchmark index keyed by its index symbol
func (reconciler *Reconciler) Benchmark(ctx context.Context, batch Batch, bench data.BenchmarkIndex) (Outcome, error) {
	outcome := Outcome{Key: bench.Symbol}

	stored, err := batch.FindBenchmark(ctx, bench.Symbol)
	exists, err := found(err)
	if err != nil {
		return outcome, persistenceError("find benchmark", outcome.Key, err)
	}

	outcome.Action = Decide(reconciler.Policies.Benchmark, exists, bench.Changed(stored))

	switch outcome.Action {
	case Insert:
		err = batch.InsertBenchmark(ctx, &bench)
	case Update:
		bench.ID = stored.ID
		err = batch.UpdateBenchmark(ctx, bench)
	}

	if err != nil {
		return outcome, persistenceError(string(outcome.Action)+" benchmark", outcome.Key, err)
	}

	logOutcome(ctx, outcome)
	return outcome, nil
}

// Company reconciles an incoming company keyed by its symbol. A company
// whose benchmark is unknown or not stored is rejected and nothing is
// staged for it.
func (reconciler *Reconciler) Company(ctx context.Context, batch Batch, profile data.CompanyProfile) (Outcome, error) {
	outcome := Outcome{Key: profile.Symbol}

	if profile.Benchmark == "" {
		outcome.Action = Reject
		outcome.Reason = "symbol does not belong to any membership list"
		logOutcome(ctx, outcome)
		return outcome, nil
	}

	bench, err := batch.FindBenchmark(ctx, profile.Benchmark)
	exists, err := found(err)
	if err != nil {
		return outcome, persistenceError("find benchmark", profile.Benchmark, err)
	}

	if !exists {
		outcome.Action = Reject
		outcome.Reason = fmt.Sprintf("benchmark %s is not stored", profile.Benchmark)
		logOutcome(ctx, outcome)
		return outcome, nil
	}

	company := data.Company{
		Symbol:      profile.Symbol,
		Name:        profile.Name,
		Country:     profile.Country,
		Sector:      profile.Sector,
		BenchmarkID: bench.ID,
	}

	stored, err := batch.FindCompany(ctx, profile.Symbol)
	exists, err = found(err)
	if err != nil {
		return outcome, persistenceError("find company", outcome.Key, err)
	}

	outcome.Action = Decide(reconciler.Policies.Company, exists, company.Changed(stored))

	switch outcome.Action {
	case Insert:
		err = batch.InsertCompany(ctx, &company)
	case Update:
		company.ID = stored.ID
		err = batch.UpdateCompany(ctx, company)
	}

	if err != nil {
		return outcome, persistenceError(string(outcome.Action)+" company", outcome.Key, err)
	}

	logOutcome(ctx, outcome)
	return outcome, nil
}

// Price reconciles one daily price keyed by its owner and date. Prices
// without an owner id are rejected.
func (reconciler *Reconciler) Price(ctx context.Context, batch Batch, price data.DailyPrice) (Outcome, error) {
	key := price.Key()
	outcome := Outcome{Key: key.String()}

	if price.OwnerID == 0 {
		outcome.Action = Reject
		outcome.Reason = fmt.Sprintf("price has no %s", price.Owner)
		logOutcome(ctx, outcome)
		return outcome, nil
	}

	policy := reconciler.Policies.StockPrice
	if price.Owner == data.BenchmarkOwner {
		policy = reconciler.Policies.BenchmarkPrice
	}

	stored, err := batch.FindPrice(ctx, key)
	exists, err := found(err)
	if err != nil {
		return outcome, persistenceError("find price", outcome.Key, err)
	}

	outcome.Action = Decide(policy, exists, price.QuoteChanged(stored))

	switch outcome.Action {
	case Insert:
		err = batch.InsertPrice(ctx, price)
	case Update:
		err = batch.UpdatePrice(ctx, price)
	}

	if err != nil {
		return outcome, persistenceError(string(outcome.Action)+" price", outcome.Key, err)
	}

	logOutcome(ctx, outcome)
	return outcome, nil
}

// Statement reconciles one annual statement keyed by company and report date
func (reconciler *Reconciler) Statement(ctx context.Context, batch Batch, stmt data.FinancialStatement) (Outcome, error) {
	key := stmt.Key()
	outcome := Outcome{Key: key.String()}

	if stmt.CompanyID == 0 {
		outcome.Action = Reject
		outcome.Reason = "statement has no company"
		logOutcome(ctx, outcome)
		return outcome, nil
	}

	stored, err := batch.FindStatement(ctx, key)
	exists, err := found(err)
	if err != nil {
		return outcome, persistenceError("find statement", outcome.Key, err)
	}

	outcome.Action = Decide(reconciler.Policies.Financial, exists, stmt.Changed(stored))

	switch outcome.Action {
	case Insert:
		err = batch.InsertStatement(ctx, stmt)
	case Update:
		err = batch.UpdateStatement(ctx, stmt)
	}

	if err != nil {
		return outcome, persistenceError(string(outcome.Action)+" statement", outcome.Key, err)
	}

	logOutcome(ctx, outcome)
	return outcome, nil
}

// Prices reconciles every price in order and stops at the first persistence
// failure
func (reconciler *Reconciler) Prices(ctx context.Context, batch Batch, prices []data.DailyPrice) (Tally, error) {
	var tally Tally
	for _, price := range prices {
		outcome, err := reconciler.Price(ctx, batch, price)
		if err != nil {
			return tally, err
		}

		tally.Add(outcome)
	}

	return tally, nil
}

// Statements reconciles every statement in order and stops at the first
// persistence failure
func (reconciler *Reconciler) Statements(ctx context.Context, batch Batch, stmts []data.FinancialStatement) (Tally, error) {
	var tally Tally
	for _, stmt := range stmts {
		outcome, err := reconciler.Statement(ctx, batch, stmt)
		if err != nil {
			return tally, err
		}

		tally.Add(outcome)
	}

	return tally, nil
}
