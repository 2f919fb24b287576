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

// Company is a stored listed company. BenchmarkID is required: a company
// whose benchmark cannot be resolved never becomes a Company value.
type Company struct {
	ID          int64       `db:"id" json:"id"`
	Symbol      string      `db:"symbol" json:"symbol"`
	Name        string      `db:"name" json:"name"`
	Country     Country     `db:"country" json:"country"`
	Sector      null.String `db:"sector" json:"sector"`
	BenchmarkID int64       `db:"benchmark_id" json:"benchmark_id"`
}

// Changed reports whether any mutable descriptive field differs from other
func (company Company) Changed(other Company) bool {
	return company.Name != other.Name ||
		company.Country != other.Country ||
		company.Sector != other.Sector ||
		company.BenchmarkID != other.BenchmarkID
}

func (company Company) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", company.Symbol).
		Str("Name", company.Name).
		Str("Country", string(company.Country)).
		Int64("BenchmarkID", company.BenchmarkID)
	if company.Sector.Valid {
		e.Str("Sector", company.Sector.String)
	}
}

// CompanyProfile is an incoming company description before its benchmark
// has been resolved to a stored id. Benchmark holds the canonical benchmark
// symbol and is empty when no membership list claimed the company.
type CompanyProfile struct {
	Symbol    string
	Name      string
	Country   Country
	Sector    null.String
	Benchmark string
}

func (profile CompanyProfile) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", profile.Symbol).
		Str("Name", profile.Name).
		Str("Country", string(profile.Country)).
		Str("Benchmark", profile.Benchmark)
}
