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
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StatementKey is the natural key of an annual financial statement
type StatementKey struct {
	CompanyID  int64
	ReportDate time.Time
}

func (key StatementKey) String() string {
	return fmt.Sprintf("%d/%s", key.CompanyID, key.ReportDate.Format(DateLayout))
}

// FinancialStatement holds the annual figures of one company for one
// reporting period. Every figure is optional; an absent figure is stored as
// NULL and never as zero.
type FinancialStatement struct {
	CompanyID  int64     `db:"-"`
	ReportDate time.Time `db:"-"`

	Revenue             null.Int            `db:"revenue"`
	OperatingIncome     null.Int            `db:"operating_income"`
	NetIncome           null.Int            `db:"net_income"`
	TotalAssets         null.Int            `db:"total_assets"`
	TotalLiabilities    null.Int            `db:"total_liabilities"`
	CurrentAssets       null.Int            `db:"current_assets"`
	CurrentLiabilities  null.Int            `db:"current_liabilities"`
	TotalDebt           null.Int            `db:"total_debt"`
	InterestExpense     null.Int            `db:"interest_expense"`
	TotalEquity         null.Int            `db:"total_equity"`
	RetainedEarnings    null.Int            `db:"retained_earnings"`
	CashEquivalents     null.Int            `db:"cash_equivalents"`
	OperatingCashFlow   null.Int            `db:"operating_cash_flow"`
	DividendPayoutRatio decimal.NullDecimal `db:"dividend_payout_ratio"`
	EBITDA              null.Int            `db:"ebitda"`
}

func (stmt FinancialStatement) Key() StatementKey {
	return StatementKey{
		CompanyID:  stmt.CompanyID,
		ReportDate: stmt.ReportDate,
	}
}

// Changed reports whether any figure differs from the stored statement
func (stmt FinancialStatement) Changed(stored FinancialStatement) bool {
	if stmt.DividendPayoutRatio.Valid != stored.DividendPayoutRatio.Valid {
		return true
	}

	if stmt.DividendPayoutRatio.Valid && !stmt.DividendPayoutRatio.Decimal.Equal(stored.DividendPayoutRatio.Decimal) {
		return true
	}

	return stmt.Revenue != stored.Revenue ||
		stmt.OperatingIncome != stored.OperatingIncome ||
		stmt.NetIncome != stored.NetIncome ||
		stmt.TotalAssets != stored.TotalAssets ||
		stmt.TotalLiabilities != stored.TotalLiabilities ||
		stmt.CurrentAssets != stored.CurrentAssets ||
		stmt.CurrentLiabilities != stored.CurrentLiabilities ||
		stmt.TotalDebt != stored.TotalDebt ||
		stmt.InterestExpense != stored.InterestExpense ||
		stmt.TotalEquity != stored.TotalEquity ||
		stmt.RetainedEarnings != stored.RetainedEarnings ||
		stmt.CashEquivalents != stored.CashEquivalents ||
		stmt.OperatingCashFlow != stored.OperatingCashFlow ||
		stmt.EBITDA != stored.EBITDA
}

// Empty is true when the statement carries no figure at all
func (stmt FinancialStatement) Empty() bool {
	return !(stmt.Revenue.Valid || stmt.OperatingIncome.Valid || stmt.NetIncome.Valid ||
		stmt.TotalAssets.Valid || stmt.TotalLiabilities.Valid || stmt.CurrentAssets.Valid ||
		stmt.CurrentLiabilities.Valid || stmt.TotalDebt.Valid || stmt.InterestExpense.Valid ||
		stmt.TotalEquity.Valid || stmt.RetainedEarnings.Valid || stmt.CashEquivalents.Valid ||
		stmt.OperatingCashFlow.Valid || stmt.DividendPayoutRatio.Valid || stmt.EBITDA.Valid)
}

func (stmt FinancialStatement) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("CompanyID", stmt.CompanyID).Str("ReportDate", stmt.ReportDate.Format(DateLayout))
	if stmt.Revenue.Valid {
		e.Int64("Revenue", stmt.Revenue.Int64)
	}
	if stmt.NetIncome.Valid {
		e.Int64("NetIncome", stmt.NetIncome.Int64)
	}
}

// EBITDA adds depreciation and amortization to operating income. The result
// is absent unless both operands are present.
func EBITDA(operatingIncome, depreciation null.Int) null.Int {
	if !operatingIncome.Valid || !depreciation.Valid {
		return null.Int{}
	}

	return null.IntFrom(operatingIncome.Int64 + depreciation.Int64)
}

// Equity returns total assets less total liabilities when both are present
func Equity(totalAssets, totalLiabilities null.Int) null.Int {
	if !totalAssets.Valid || !totalLiabilities.Valid {
		return null.Int{}
	}

	return null.IntFrom(totalAssets.Int64 - totalLiabilities.Int64)
}

// PayoutRatio returns dividends as a percentage of net income rounded to two
// decimal places. It is absent when either input is missing or net income is
// not positive.
func PayoutRatio(dividends, netIncome null.Int) decimal.NullDecimal {
	if !dividends.Valid || !netIncome.Valid || netIncome.Int64 <= 0 {
		return decimal.NullDecimal{}
	}

	ratio := decimal.NewFromInt(dividends.Int64).
		Div(decimal.NewFromInt(netIncome.Int64)).
		Mul(decimal.NewFromInt(100)).
		Round(2)

	return decimal.NewNullDecimal(ratio)
}
