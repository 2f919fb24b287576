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

const (
	BenchmarkTable      = "benchmark_indices"
	BenchmarkPriceTable = "benchmark_prices"
	CompanyTable        = "companies"
	StockPriceTable     = "stock_prices"
	FinancialTable      = "financial_statements"
	RatioTable          = "financial_ratios"
	ValuationTable      = "valuation_metrics"
)

// Table describes one table of the library schema
type Table struct {
	Name        string
	Description string

	// Placeholder tables are created by the schema but never written by an import
	Placeholder bool
}

var Tables = []*Table{
	{Name: BenchmarkTable, Description: "Market benchmark indices"},
	{Name: BenchmarkPriceTable, Description: "Daily benchmark prices"},
	{Name: CompanyTable, Description: "Listed companies and their benchmark"},
	{Name: StockPriceTable, Description: "Daily stock prices"},
	{Name: FinancialTable, Description: "Annual financial statements"},
	{Name: RatioTable, Description: "Financial ratios", Placeholder: true},
	{Name: ValuationTable, Description: "Valuation metrics", Placeholder: true},
}

// PriceTable returns the table daily prices for owner are stored in
func PriceTable(owner Owner) string {
	if owner == BenchmarkOwner {
		return BenchmarkPriceTable
	}

	return StockPriceTable
}

// PriceOwnerColumn returns the foreign key column of the price table for owner
func PriceOwnerColumn(owner Owner) string {
	if owner == BenchmarkOwner {
		return "benchmark_id"
	}

	return "company_id"
}
