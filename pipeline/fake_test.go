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
package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/Donggyu-Kim1/stock-data/provider"
)

// fakeProvider serves canned rows; symbols without data answer ErrNoData
type fakeProvider struct {
	prices     map[string][]normalize.Row
	profiles   map[string]provider.Profile
	statements map[string][]normalize.StatementTable
	errs       map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		prices:     make(map[string][]normalize.Row),
		profiles:   make(map[string]provider.Profile),
		statements: make(map[string][]normalize.StatementTable),
		errs:       make(map[string]error),
	}
}

func (fake *fakeProvider) Prices(_ context.Context, symbol string, _, _ time.Time) ([]normalize.Row, error) {
	if err, ok := fake.errs[symbol]; ok {
		return nil, err
	}

	rows, ok := fake.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrNoData, symbol)
	}

	return rows, nil
}

func (fake *fakeProvider) Profile(_ context.Context, symbol string) (provider.Profile, error) {
	if err, ok := fake.errs[symbol]; ok {
		return provider.Profile{}, err
	}

	profile, ok := fake.profiles[symbol]
	if !ok {
		return provider.Profile{}, fmt.Errorf("%w: %s", provider.ErrNoData, symbol)
	}

	return profile, nil
}

func (fake *fakeProvider) Statements(_ context.Context, symbol string) ([]normalize.StatementTable, normalize.StatementOptions, error) {
	if err, ok := fake.errs[symbol]; ok {
		return nil, normalize.StatementOptions{}, err
	}

	tables, ok := fake.statements[symbol]
	if !ok {
		return nil, normalize.StatementOptions{}, fmt.Errorf("%w: %s", provider.ErrNoData, symbol)
	}

	return tables, normalize.StatementOptions{}, nil
}

// memRecorder keeps the number of prices recorded per symbol
type memRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (recorder *memRecorder) Record(_ context.Context, _ data.Owner, symbol string, prices []data.DailyPrice) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()

	if recorder.counts == nil {
		recorder.counts = make(map[string]int)
	}

	recorder.counts[symbol] += len(prices)
	return nil
}
