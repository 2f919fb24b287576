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
package library

import (
	"context"
	"fmt"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/guregu/null/v6"
)

// Benchmarks returns every stored benchmark ordered by id
func (myLibrary *Library) Benchmarks(ctx context.Context) ([]*data.BenchmarkIndex, error) {
	var benchmarks []*data.BenchmarkIndex
	err := myLibrary.querier().selectAll(ctx, &benchmarks, `SELECT id, index_name, index_symbol, country, description, provider_code
FROM benchmark_indices ORDER BY id`)
	return benchmarks, err
}

// Companies returns the stored companies of country ordered by symbol
func (myLibrary *Library) Companies(ctx context.Context, country data.Country) ([]*data.Company, error) {
	var companies []*data.Company
	err := myLibrary.querier().selectAll(ctx, &companies, `SELECT id, symbol, name, country, sector, benchmark_id
FROM companies WHERE country = ? ORDER BY symbol`, string(country))
	return companies, err
}

// Count returns the number of rows in tbl
func (myLibrary *Library) Count(ctx context.Context, tbl string) (int64, error) {
	var count struct {
		Count int64 `db:"count"`
	}

	err := myLibrary.querier().get(ctx, &count, fmt.Sprintf("SELECT count(*) AS count FROM %s", tbl))
	return count.Count, err
}

// LatestPriceDate returns the most recent date with a price for owner
func (myLibrary *Library) LatestPriceDate(ctx context.Context, owner data.Owner) (null.String, error) {
	var latest struct {
		Date null.String `db:"latest"`
	}

	err := myLibrary.querier().get(ctx, &latest, fmt.Sprintf("SELECT CAST(max(date) AS TEXT) AS latest FROM %s", data.PriceTable(owner)))
	return latest.Date, err
}
