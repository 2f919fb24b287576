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

var (
	// ErrNotFound is returned by a Batch find when no row has the natural key
	ErrNotFound = errors.New("record not found")

	// ErrBatchClosed is returned when a batch has already been committed or rolled back
	ErrBatchClosed = errors.New("batch already closed")

	ErrPersistence      = errors.New("persistence failure")
	ErrMissingReference = errors.New("missing required reference")
)

// Store opens batches against a relational backend
type Store interface {
	Begin(ctx context.Context) (Batch, error)
}

// Batch is a unit of work: every write staged through it becomes visible to
// later finds of the same batch and is persisted together on Commit.
// Inserts of benchmarks and companies set the surrogate id of the record.
type Batch interface {
	FindBenchmark(ctx context.Context, symbol string) (data.BenchmarkIndex, error)
	InsertBenchmark(ctx context.Context, bench *data.BenchmarkIndex) error
	UpdateBenchmark(ctx context.Context, bench data.BenchmarkIndex) error

	FindCompany(ctx context.Context, symbol string) (data.Company, error)
	InsertCompany(ctx context.Context, company *data.Company) error
	UpdateCompany(ctx context.Context, company data.Company) error

	FindPrice(ctx context.Context, key data.PriceKey) (data.DailyPrice, error)
	InsertPrice(ctx context.Context, price data.DailyPrice) error
	UpdatePrice(ctx context.Context, price data.DailyPrice) error

	FindStatement(ctx context.Context, key data.StatementKey) (data.FinancialStatement, error)
	InsertStatement(ctx context.Context, stmt data.FinancialStatement) error
	UpdateStatement(ctx context.Context, stmt data.FinancialStatement) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// InBatch runs fn inside a new batch and commits it when fn succeeds. The
// batch is rolled back on every other exit path, including a panic in fn.
func InBatch(ctx context.Context, store Store, fn func(Batch) error) error {
	batch, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %w", ErrPersistence, err)
	}

	defer func() {
		if err := batch.Rollback(ctx); err != nil {
			if !errors.Is(err, ErrBatchClosed) {
				zerolog.Ctx(ctx).Error().Err(err).Msg("could not rollback batch")
			}
		}
	}()

	if err := fn(batch); err != nil {
		return err
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit batch: %w", ErrPersistence, err)
	}

	return nil
}
