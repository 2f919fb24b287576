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
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// DefaultStatementYears is the number of most recent annual periods kept
const DefaultStatementYears = 5

// StatementTable is a wide financial statement export: one column per
// reporting period and one row per line item.
type StatementTable struct {
	Name    string
	Periods []string
	Rows    []StatementRow
}

type StatementRow struct {
	Label  string
	Values []string
}

// StatementOptions carries figures that are reported outside of the
// statement tables
type StatementOptions struct {
	// PayoutRatio is a provider reported payout ratio as a fraction (0.25 is 25%)
	PayoutRatio decimal.NullDecimal

	// Dividends paid keyed by fiscal year
	Dividends map[int]null.Int

	// Years limits the result to the most recent periods; zero means DefaultStatementYears
	Years int
}

type lineItem int

const (
	revenue lineItem = iota
	operatingIncome
	netIncome
	totalAssets
	totalLiabilities
	currentAssets
	currentLiabilities
	totalDebt
	interestExpense
	totalEquity
	retainedEarnings
	cashEquivalents
	operatingCashFlow
	depreciation
	dividendsPaid
)

// statementLabels maps a line item label, lower cased with white space
// removed, onto a canonical line item
var statementLabels = map[data.Country]map[string]lineItem{
	data.KR: {
		"매출액":       revenue,
		"수익(매출액)":   revenue,
		"영업이익":      operatingIncome,
		"영업이익(손실)":  operatingIncome,
		"당기순이익":     netIncome,
		"당기순이익(손실)": netIncome,
		"자산총계":      totalAssets,
		"부채총계":      totalLiabilities,
		"유동자산":      currentAssets,
		"유동부채":      currentLiabilities,
		"총차입금":      totalDebt,
		"이자비용":      interestExpense,
		"자본총계":      totalEquity,
		"이익잉여금":     retainedEarnings,
		"현금및현금성자산":  cashEquivalents,
		"영업활동현금흐름":  operatingCashFlow,
		"감가상각비":     depreciation,
		"배당금지급":     dividendsPaid,
	},
	data.US: {
		"totalrevenue":                        revenue,
		"operatingincome":                     operatingIncome,
		"netincome":                           netIncome,
		"totalassets":                         totalAssets,
		"totalliabilitiesnetminorityinterest": totalLiabilities,
		"currentassets":                       currentAssets,
		"currentliabilities":                  currentLiabilities,
		"totaldebt":                           totalDebt,
		"interestexpense":                     interestExpense,
		"stockholdersequity":                  totalEquity,
		"retainedearnings":                    retainedEarnings,
		"cashandcashequivalents":              cashEquivalents,
		"operatingcashflow":                   operatingCashFlow,
		"depreciationandamortization":         depreciation,
		"cashdividendspaid":                   dividendsPaid,
	},
}

var (
	periodRange  = regexp.MustCompile(`^(\d{8})-(\d{8})$`)
	periodSingle = regexp.MustCompile(`^\d{8}$`)
	periodISO    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ReportDate validates a period label and returns the date the period
// reports on. A range such as "20230101-20231231" reports on its end date.
func ReportDate(period string) (time.Time, error) {
	period = strings.TrimSpace(period)

	if match := periodRange.FindStringSubmatch(period); match != nil {
		return Date(match[2])
	}

	if periodSingle.MatchString(period) || periodISO.MatchString(period) {
		return Date(period)
	}

	return time.Time{}, fmt.Errorf("%w: invalid period %q", ErrMalformedRecord, period)
}

func labelKey(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), ""))
}

// Statements un-pivots wide statement tables into one canonical statement per
// report date. Tables are merged on report date; the first present figure
// for a line item wins. Period columns with a malformed label are discarded
// and returned as errors, as are periods without any recognized figure. The
// result is ordered from the most recent period and its company id is unset.
func Statements(country data.Country, tables []StatementTable, opts StatementOptions) ([]data.FinancialStatement, []error) {
	labels, ok := statementLabels[country]
	if !ok {
		return nil, []error{fmt.Errorf("%w: %q", data.ErrUnknownCountry, country)}
	}

	var errs []error
	figures := make(map[time.Time]map[lineItem]null.Int)

	for _, table := range tables {
		for idx, period := range table.Periods {
			reportDate, err := ReportDate(period)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", table.Name, err))
				continue
			}

			items, ok := figures[reportDate]
			if !ok {
				items = make(map[lineItem]null.Int)
				figures[reportDate] = items
			}

			for _, row := range table.Rows {
				item, ok := labels[labelKey(row.Label)]
				if !ok || idx >= len(row.Values) {
					continue
				}

				if existing, ok := items[item]; ok && existing.Valid {
					continue
				}

				items[item] = Int(row.Values[idx])
			}
		}
	}

	statements := make([]data.FinancialStatement, 0, len(figures))
	for reportDate, items := range figures {
		if !anyFigure(items) {
			errs = append(errs, fmt.Errorf("%w: no figures for period %s", ErrMalformedRecord, reportDate.Format(data.DateLayout)))
			continue
		}

		statements = append(statements, statement(reportDate, items, opts))
	}

	sort.Slice(statements, func(i, j int) bool {
		return statements[i].ReportDate.After(statements[j].ReportDate)
	})

	years := opts.Years
	if years <= 0 {
		years = DefaultStatementYears
	}

	if len(statements) > years {
		statements = statements[:years]
	}

	return statements, errs
}

func statement(reportDate time.Time, items map[lineItem]null.Int, opts StatementOptions) data.FinancialStatement {
	stmt := data.FinancialStatement{
		ReportDate:         reportDate,
		Revenue:            items[revenue],
		OperatingIncome:    items[operatingIncome],
		NetIncome:          items[netIncome],
		TotalAssets:        items[totalAssets],
		TotalLiabilities:   items[totalLiabilities],
		CurrentAssets:      items[currentAssets],
		CurrentLiabilities: items[currentLiabilities],
		TotalDebt:          items[totalDebt],
		InterestExpense:    items[interestExpense],
		TotalEquity:        items[totalEquity],
		RetainedEarnings:   items[retainedEarnings],
		CashEquivalents:    items[cashEquivalents],
		OperatingCashFlow:  items[operatingCashFlow],
	}

	if !stmt.TotalEquity.Valid {
		stmt.TotalEquity = data.Equity(stmt.TotalAssets, stmt.TotalLiabilities)
	}

	stmt.EBITDA = data.EBITDA(stmt.OperatingIncome, items[depreciation])

	switch {
	case opts.PayoutRatio.Valid:
		stmt.DividendPayoutRatio = decimal.NewNullDecimal(opts.PayoutRatio.Decimal.Mul(decimal.NewFromInt(100)).Round(2))
	case opts.Dividends != nil && opts.Dividends[reportDate.Year()].Valid:
		stmt.DividendPayoutRatio = data.PayoutRatio(opts.Dividends[reportDate.Year()], stmt.NetIncome)
	case items[dividendsPaid].Valid:
		paid := items[dividendsPaid]
		if paid.Int64 < 0 {
			paid = null.IntFrom(-paid.Int64)
		}
		stmt.DividendPayoutRatio = data.PayoutRatio(paid, stmt.NetIncome)
	}

	return stmt
}

func anyFigure(items map[lineItem]null.Int) bool {
	for _, val := range items {
		if val.Valid {
			return true
		}
	}

	return false
}
