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

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog/log"
)

// Lookup maps symbols to stored surrogate ids. It is filled once at the
// start of a run and only read afterwards.
type Lookup struct {
	benchmarks *haxmap.Map[string, int64]
	companies  *haxmap.Map[string, int64]
}

func NewLookup() *Lookup {
	return &Lookup{
		benchmarks: haxmap.New[string, int64](),
		companies:  haxmap.New[string, int64](),
	}
}

// LoadLookup reads the ids of every stored benchmark and company
func LoadLookup(ctx context.Context, myLibrary *Library) (*Lookup, error) {
	lookup := NewLookup()

	benchmarks, err := myLibrary.Benchmarks(ctx)
	if err != nil {
		return nil, err
	}

	for _, bench := range benchmarks {
		lookup.benchmarks.Set(bench.Symbol, bench.ID)
	}

	for _, country := range []data.Country{data.US, data.KR} {
		companies, err := myLibrary.Companies(ctx, country)
		if err != nil {
			return nil, err
		}

		for _, company := range companies {
			lookup.companies.Set(company.Symbol, company.ID)
		}
	}

	log.Debug().Uint64("NumBenchmarks", uint64(lookup.benchmarks.Len())).Uint64("NumCompanies", uint64(lookup.companies.Len())).Msg("loaded id lookup")

	return lookup, nil
}

func (lookup *Lookup) Benchmark(symbol string) (int64, bool) {
	return lookup.benchmarks.Get(symbol)
}

func (lookup *Lookup) Company(symbol string) (int64, bool) {
	return lookup.companies.Get(symbol)
}
