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
	"github.com/Donggyu-Kim1/stock-data/reconcile"
)

// batch implements reconcile.Batch on top of one database transaction
type batch struct {
	q        querier
	commit   func(context.Context) error
	rollback func(context.Context) error
}

var _ reconcile.Batch = (*batch)(nil)

func (b *batch) Commit(ctx context.Context) error {
	return b.commit(ctx)
}

func (b *batch) Rollback(ctx context.Context) error {
	return b.rollback(ctx)
}

// Benchmarks

func (b *batch) FindBenchmark(ctx context.Context, symbol string) (data.BenchmarkIndex, error) {
	var bench data.BenchmarkIndex
	err := b.q.get(ctx, &bench, `SELECT id, index_name, index_symbol, country, description, provider_code
FROM benchmark_indices WHERE index_symbol = ?`, symbol)
	return bench, err
}

func (b *batch) InsertBenchmark(ctx context.Context, bench *data.BenchmarkIndex) error {
	id, err := b.q.insertID(ctx, `INSERT INTO benchmark_indices (
	index_name,
	index_symbol,
	country,
	description,
	provider_code
) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		bench.Name, bench.Symbol, string(bench.Country), bench.Description, bench.ProviderCode)
	if err != nil {
		return err
	}

	bench.ID = id
	return nil
}

func (b *batch) UpdateBenchmark(ctx context.Context, bench data.BenchmarkIndex) error {
	return b.q.exec(ctx, `UPDATE benchmark_indices SET
	index_name = ?,
	country = ?,
	description = ?,
	provider_code = ?
WHERE index_symbol = ?`,
		bench.Name, string(bench.Country), bench.Description, bench.ProviderCode, bench.Symbol)
}

// Companies

func (b *batch) FindCompany(ctx context.Context, symbol string) (data.Company, error) {
	var company data.Company
	err := b.q.get(ctx, &company, `SELECT id, symbol, name, country, sector, benchmark_id
FROM companies WHERE symbol = ?`, symbol)
	return company, err
}

func (b *batch) InsertCompany(ctx context.Context, company *data.Company) error {
	id, err := b.q.insertID(ctx, `INSERT INTO companies (
	symbol,
	name,
	country,
	sector,
	benchmark_id
) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		company.Symbol, company.Name, string(company.Country), company.Sector, company.BenchmarkID)
	if err != nil {
		return err
	}

	company.ID = id
	return nil
}

func (b *batch) UpdateCompany(ctx context.Context, company data.Company) error {
	return b.q.exec(ctx, `UPDATE companies SET
	name = ?,
	country = ?,
	sector = ?,
	benchmark_id = ?
WHERE symbol = ?`,
		company.Name, string(company.Country), company.Sector, company.BenchmarkID, company.Symbol)
}

// Daily prices

func (b *batch) FindPrice(ctx context.Context, key data.PriceKey) (data.DailyPrice, error) {
	var price data.DailyPrice
	sql := fmt.Sprintf(`SELECT open_price, high_price, low_price, close_price, adjusted_close_price, volume
FROM %s WHERE %s = ? AND date = ?`, data.PriceTable(key.Owner), data.PriceOwnerColumn(key.Owner))

	if err := b.q.get(ctx, &price, sql, key.OwnerID, day(key.Date)); err != nil {
		return data.DailyPrice{}, err
	}

	price.Owner = key.Owner
	price.OwnerID = key.OwnerID
	price.Date = key.Date

	return price, nil
}

func (b *batch) InsertPrice(ctx context.Context, price data.DailyPrice) error {
	sql := fmt.Sprintf(`INSERT INTO %s (
	%s,
	date,
	open_price,
	high_price,
	low_price,
	close_price,
	adjusted_close_price,
	volume
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, data.PriceTable(price.Owner), data.PriceOwnerColumn(price.Owner))

	return b.q.exec(ctx, sql, price.OwnerID, day(price.Date),
		nullNumeric(price.Open), nullNumeric(price.High), nullNumeric(price.Low),
		numeric(price.Close), numeric(price.AdjustedClose), price.Volume)
}

func (b *batch) UpdatePrice(ctx context.Context, price data.DailyPrice) error {
	sql := fmt.Sprintf(`UPDATE %s SET
	open_price = ?,
	high_price = ?,
	low_price = ?,
	close_price = ?,
	adjusted_close_price = ?,
	volume = ?
WHERE %s = ? AND date = ?`, data.PriceTable(price.Owner), data.PriceOwnerColumn(price.Owner))

	return b.q.exec(ctx, sql,
		nullNumeric(price.Open), nullNumeric(price.High), nullNumeric(price.Low),
		numeric(price.Close), numeric(price.AdjustedClose), price.Volume,
		price.OwnerID, day(price.Date))
}

// Financial statements

const statementColumns = `revenue,
	operating_income,
	net_income,
	total_assets,
	total_liabilities,
	current_assets,
	current_liabilities,
	total_debt,
	interest_expense,
	total_equity,
	retained_earnings,
	cash_equivalents,
	operating_cash_flow,
	dividend_payout_ratio,
	ebitda`

func statementValues(stmt data.FinancialStatement) []any {
	return []any{
		stmt.Revenue,
		stmt.OperatingIncome,
		stmt.NetIncome,
		stmt.TotalAssets,
		stmt.TotalLiabilities,
		stmt.CurrentAssets,
		stmt.CurrentLiabilities,
		stmt.TotalDebt,
		stmt.InterestExpense,
		stmt.TotalEquity,
		stmt.RetainedEarnings,
		stmt.CashEquivalents,
		stmt.OperatingCashFlow,
		nullNumeric(stmt.DividendPayoutRatio),
		stmt.EBITDA,
	}
}

func (b *batch) FindStatement(ctx context.Context, key data.StatementKey) (data.FinancialStatement, error) {
	var stmt data.FinancialStatement
	sql := fmt.Sprintf(`SELECT %s FROM financial_statements WHERE company_id = ? AND report_date = ?`, statementColumns)

	if err := b.q.get(ctx, &stmt, sql, key.CompanyID, day(key.ReportDate)); err != nil {
		return data.FinancialStatement{}, err
	}

	stmt.CompanyID = key.CompanyID
	stmt.ReportDate = key.ReportDate

	return stmt, nil
}

func (b *batch) InsertStatement(ctx context.Context, stmt data.FinancialStatement) error {
	sql := fmt.Sprintf(`INSERT INTO financial_statements (
	company_id,
	report_date,
	%s
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, statementColumns)

	args := append([]any{stmt.CompanyID, day(stmt.ReportDate)}, statementValues(stmt)...)
	return b.q.exec(ctx, sql, args...)
}

func (b *batch) UpdateStatement(ctx context.Context, stmt data.FinancialStatement) error {
	sql := `UPDATE financial_statements SET
	revenue = ?,
	operating_income = ?,
	net_income = ?,
	total_assets = ?,
	total_liabilities = ?,
	current_assets = ?,
	current_liabilities = ?,
	total_debt = ?,
	interest_expense = ?,
	total_equity = ?,
	retained_earnings = ?,
	cash_equivalents = ?,
	operating_cash_flow = ?,
	dividend_payout_ratio = ?,
	ebitda = ?
WHERE company_id = ? AND report_date = ?`

	args := append(statementValues(stmt), stmt.CompanyID, day(stmt.ReportDate))
	return b.q.exec(ctx, sql, args...)
}
