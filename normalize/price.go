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
	"sort"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/shopspring/decimal"
)

type priceColumns struct {
	Date          []string
	Open          []string
	High          []string
	Low           []string
	Close         []string
	AdjustedClose []string
	Volume        []string
}

var priceColumnsByCountry = map[data.Country]priceColumns{
	data.KR: {
		Date:          []string{"날짜", "일자", "Date"},
		Open:          []string{"시가", "Open"},
		High:          []string{"고가", "High"},
		Low:           []string{"저가", "Low"},
		Close:         []string{"종가", "Close"},
		AdjustedClose: []string{"수정종가", "수정 종가"},
		Volume:        []string{"거래량", "Volume"},
	},
	data.US: {
		Date:          []string{"Date", "Datetime"},
		Open:          []string{"Open"},
		High:          []string{"High"},
		Low:           []string{"Low"},
		Close:         []string{"Close"},
		AdjustedClose: []string{"Adj Close", "AdjClose", "Adjusted Close", "adjusted_close"},
		Volume:        []string{"Volume"},
	},
}

// Price maps one provider OHLCV row onto a canonical daily price. The date
// and close are required. When the provider has no adjusted close the
// adjusted close is the close. Prices are rounded to data.PriceScale places
// and the owner of the returned price is unset.
func Price(country data.Country, row Row) (data.DailyPrice, error) {
	columns, ok := priceColumnsByCountry[country]
	if !ok {
		return data.DailyPrice{}, fmt.Errorf("%w: %q", data.ErrUnknownCountry, country)
	}

	dateStr, ok := row.Get(columns.Date...)
	if !ok {
		return data.DailyPrice{}, fmt.Errorf("%w: no date column", ErrMalformedRecord)
	}

	date, err := Date(dateStr)
	if err != nil {
		return data.DailyPrice{}, err
	}

	closePrice := column(row, columns.Close)
	if !closePrice.Valid {
		return data.DailyPrice{}, fmt.Errorf("%w: no close on %s", ErrMalformedRecord, date.Format(data.DateLayout))
	}

	price := data.DailyPrice{
		Date:          date,
		Open:          column(row, columns.Open),
		High:          column(row, columns.High),
		Low:           column(row, columns.Low),
		Close:         closePrice.Decimal,
		AdjustedClose: closePrice.Decimal,
	}

	if adjusted := column(row, columns.AdjustedClose); adjusted.Valid {
		price.AdjustedClose = adjusted.Decimal
	}

	volumeStr, _ := row.Get(columns.Volume...)
	price.Volume = Int(volumeStr)

	return price, nil
}

// Prices normalizes a sequence of rows. Rows that cannot be normalized are
// returned as errors and left out; when a date repeats the later row wins.
// The result is sorted by date.
func Prices(country data.Country, rows []Row) ([]data.DailyPrice, []error) {
	var errs []error
	byDate := make(map[string]data.DailyPrice, len(rows))

	for _, row := range rows {
		price, err := Price(country, row)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		byDate[price.Date.Format(data.DateLayout)] = price
	}

	prices := make([]data.DailyPrice, 0, len(byDate))
	for _, price := range byDate {
		prices = append(prices, price)
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date)
	})

	return prices, errs
}

// column reads a price column rounded to data.PriceScale places
func column(row Row, names []string) decimal.NullDecimal {
	val, ok := row.Get(names...)
	if !ok {
		return decimal.NullDecimal{}
	}

	price := Value(val)
	if price.Valid {
		price.Decimal = price.Decimal.Round(data.PriceScale)
	}

	return price
}
