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
package reconcile_test

import (
	"context"
	"errors"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
)

var errInjected = errors.New("injected failure")

type memState struct {
	benchmarks map[string]data.BenchmarkIndex
	companies  map[string]data.Company
	prices     map[data.PriceKey]data.DailyPrice
	statements map[data.StatementKey]data.FinancialStatement
	nextID     int64
}

func newMemState() memState {
	return memState{
		benchmarks: make(map[string]data.BenchmarkIndex),
		companies:  make(map[string]data.Company),
		prices:     make(map[data.PriceKey]data.DailyPrice),
		statements: make(map[data.StatementKey]data.FinancialStatement),
	}
}

func (state memState) clone() memState {
	out := newMemState()
	out.nextID = state.nextID
	for k, v := range state.benchmarks {
		out.benchmarks[k] = v
	}
	for k, v := range state.companies {
		out.companies[k] = v
	}
	for k, v := range state.prices {
		out.prices[k] = v
	}
	for k, v := range state.statements {
		out.statements[k] = v
	}
	return out
}

// memStore is an in-memory Store that counts the writes it is asked to make
type memStore struct {
	state     memState
	writes    int
	commits   int
	rollbacks int

	// failOn makes the named write fail
	failOn string
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (store *memStore) Begin(ctx context.Context) (reconcile.Batch, error) {
	return &memBatch{store: store, staged: store.state.clone()}, nil
}

type memBatch struct {
	store  *memStore
	staged memState
	closed bool
}

func (batch *memBatch) write(op string) error {
	if batch.store.failOn == op {
		return errInjected
	}
	batch.store.writes++
	return nil
}

func (batch *memBatch) FindBenchmark(ctx context.Context, symbol string) (data.BenchmarkIndex, error) {
	if bench, ok := batch.staged.benchmarks[symbol]; ok {
		return bench, nil
	}
	return data.BenchmarkIndex{}, reconcile.ErrNotFound
}

func (batch *memBatch) InsertBenchmark(ctx context.Context, bench *data.BenchmarkIndex) error {
	if err := batch.write("insert benchmark"); err != nil {
		return err
	}
	batch.staged.nextID++
	bench.ID = batch.staged.nextID
	batch.staged.benchmarks[bench.Symbol] = *bench
	return nil
}

func (batch *memBatch) UpdateBenchmark(ctx context.Context, bench data.BenchmarkIndex) error {
	if err := batch.write("update benchmark"); err != nil {
		return err
	}
	batch.staged.benchmarks[bench.Symbol] = bench
	return nil
}

func (batch *memBatch) FindCompany(ctx context.Context, symbol string) (data.Company, error) {
	if company, ok := batch.staged.companies[symbol]; ok {
		return company, nil
	}
	return data.Company{}, reconcile.ErrNotFound
}

func (batch *memBatch) InsertCompany(ctx context.Context, company *data.Company) error {
	if err := batch.write("insert company"); err != nil {
		return err
	}
	batch.staged.nextID++
	company.ID = batch.staged.nextID
	batch.staged.companies[company.Symbol] = *company
	return nil
}

func (batch *memBatch) UpdateCompany(ctx context.Context, company data.Company) error {
	if err := batch.write("update company"); err != nil {
		return err
	}
	batch.staged.companies[company.Symbol] = company
	return nil
}

func (batch *memBatch) FindPrice(ctx context.Context, key data.PriceKey) (data.DailyPrice, error) {
	if price, ok := batch.staged.prices[key]; ok {
		return price, nil
	}
	return data.DailyPrice{}, reconcile.ErrNotFound
}

func (batch *memBatch) InsertPrice(ctx context.Context, price data.DailyPrice) error {
	if err := batch.write("insert price"); err != nil {
		return err
	}
	batch.staged.prices[price.Key()] = price
	return nil
}

func (batch *memBatch) UpdatePrice(ctx context.Context, price data.DailyPrice) error {
	if err := batch.write("update price"); err != nil {
		return err
	}
	batch.staged.prices[price.Key()] = price
	return nil
}

func (batch *memBatch) FindStatement(ctx context.Context, key data.StatementKey) (data.FinancialStatement, error) {
	if stmt, ok := batch.staged.statements[key]; ok {
		return stmt, nil
	}
	return data.FinancialStatement{}, reconcile.ErrNotFound
}

func (batch *memBatch) InsertStatement(ctx context.Context, stmt data.FinancialStatement) error {
	if err := batch.write("insert statement"); err != nil {
		return err
	}
	batch.staged.statements[stmt.Key()] = stmt
	return nil
}

func (batch *memBatch) UpdateStatement(ctx context.Context, stmt data.FinancialStatement) error {
	if err := batch.write("update statement"); err != nil {
		return err
	}
	batch.staged.statements[stmt.Key()] = stmt
	return nil
}

func (batch *memBatch) Commit(ctx context.Context) error {
	if batch.closed {
		return reconcile.ErrBatchClosed
	}
	batch.closed = true
	batch.store.state = batch.staged
	batch.store.commits++
	return nil
}

func (batch *memBatch) Rollback(ctx context.Context) error {
	if batch.closed {
		return reconcile.ErrBatchClosed
	}
	batch.closed = true
	batch.store.rollbacks++
	return nil
}
