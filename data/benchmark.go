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
package data

import (
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
)

// Canonical benchmark keys. Every market index is identified by its
// exchange-style index symbol; provider specific codes live in ProviderCode.
const (
	SP500Symbol    = "^GSPC"
	NasdaqSymbol   = "^IXIC"
	DowJonesSymbol = "^DJI"
	NYSESymbol     = "^NYA"
	KOSPISymbol    = "^KS11"
	KOSDAQSymbol   = "^KQ11"
	KOSPIProvider  = "1001"
	KOSDAQProvider = "2001"
)

type BenchmarkIndex struct {
	ID           int64       `db:"id" json:"id"`
	Name         string      `db:"index_name" json:"index_name"`
	Symbol       string      `db:"index_symbol" json:"index_symbol"`
	Country      Country     `db:"country" json:"country"`
	Description  null.String `db:"description" json:"description"`
	ProviderCode null.String `db:"provider_code" json:"provider_code"`
}

// FetchSymbol returns the identifier a price provider expects for this index
func (bench BenchmarkIndex) FetchSymbol() string {
	if bench.ProviderCode.Valid && bench.ProviderCode.String != "" {
		return bench.ProviderCode.String
	}

	return bench.Symbol
}

// Changed reports whether any mutable descriptive field differs from other
func (bench BenchmarkIndex) Changed(other BenchmarkIndex) bool {
	return bench.Name != other.Name ||
		bench.Country != other.Country ||
		bench.Description != other.Description ||
		bench.ProviderCode != other.ProviderCode
}

func (bench BenchmarkIndex) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", bench.Symbol).Str("Name", bench.Name).Str("Country", string(bench.Country))
	if bench.ID != 0 {
		e.Int64("ID", bench.ID)
	}
}

// DefaultBenchmarks is the fixed set of indices every library tracks
func DefaultBenchmarks() []BenchmarkIndex {
	return []BenchmarkIndex{
		{
			Name:        "S&P 500",
			Symbol:      SP500Symbol,
			Country:     US,
			Description: null.StringFrom("Standard & Poor's 500 Index"),
		},
		{
			Name:        "NASDAQ",
			Symbol:      NasdaqSymbol,
			Country:     US,
			Description: null.StringFrom("NASDAQ Composite Index"),
		},
		{
			Name:        "DOW JONES",
			Symbol:      DowJonesSymbol,
			Country:     US,
			Description: null.StringFrom("Dow Jones Industrial Average"),
		},
		{
			Name:        "NYSE",
			Symbol:      NYSESymbol,
			Country:     US,
			Description: null.StringFrom("NYSE Composite Index"),
		},
		{
			Name:         "KOSPI",
			Symbol:       KOSPISymbol,
			Country:      KR,
			Description:  null.StringFrom("Korea Composite Stock Price Index"),
			ProviderCode: null.StringFrom(KOSPIProvider),
		},
		{
			Name:         "KOSDAQ",
			Symbol:       KOSDAQSymbol,
			Country:      KR,
			Description:  null.StringFrom("Korea Securities Dealers Automated Quotation"),
			ProviderCode: null.StringFrom(KOSDAQProvider),
		},
	}
}
