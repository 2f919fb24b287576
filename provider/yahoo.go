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
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/weirdtangent/yhfinance"
	"golang.org/x/time/rate"
)

const (
	YahooURL              = "https://query1.finance.yahoo.com"
	defaultYahooRateLimit = 120
	userAgent             = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// yahooStatementTypes are the annual fundamentals time series requested for
// each company. The key of each series is its type prefixed with "annual".
var yahooStatementTypes = []string{
	"TotalRevenue",
	"OperatingIncome",
	"NetIncome",
	"TotalAssets",
	"TotalLiabilitiesNetMinorityInterest",
	"CurrentAssets",
	"CurrentLiabilities",
	"TotalDebt",
	"InterestExpense",
	"StockholdersEquity",
	"RetainedEarnings",
	"CashAndCashEquivalents",
	"OperatingCashFlow",
	"DepreciationAndAmortization",
	"CashDividendsPaid",
}

// Yahoo reads US prices and statements from the Yahoo Finance web API
type Yahoo struct {
	client  *resty.Client
	limiter *rate.Limiter

	apiKey  string
	apiHost string
}

func NewYahoo(conf Config) *Yahoo {
	baseURL := conf.BaseURL
	if baseURL == "" {
		baseURL = YahooURL
	}

	rateLimit := conf.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultYahooRateLimit
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(30 * time.Second)
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &Yahoo{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
		apiKey:  conf.APIKey,
		apiHost: conf.APIHost,
	}
}

// get requests path for symbol and returns the parsed body
func (yahoo *Yahoo) get(ctx context.Context, path string, symbol string, params map[string]string) (gjson.Result, error) {
	if err := yahoo.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}

	resp, err := yahoo.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	case resp.StatusCode() >= 300:
		return gjson.Result{}, fmt.Errorf("%w: status code %d", ErrUnavailable, resp.StatusCode())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid json response", ErrUnavailable)
	}

	return gjson.ParseBytes(body), nil
}

// chart returns the first chart result for symbol
func (yahoo *Yahoo) chart(ctx context.Context, symbol string, params map[string]string) (gjson.Result, error) {
	params["interval"] = "1d"
	params["includeAdjustedClose"] = "true"

	body, err := yahoo.get(ctx, "/v8/finance/chart/{symbol}", symbol, params)
	if err != nil {
		return gjson.Result{}, err
	}

	if chartErr := body.Get("chart.error"); chartErr.Exists() && chartErr.Type != gjson.Null {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrNoData, chartErr.Get("description").String())
	}

	result := body.Get("chart.result.0")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	return result, nil
}

func (yahoo *Yahoo) Prices(ctx context.Context, symbol string, start, end time.Time) ([]normalize.Row, error) {
	result, err := yahoo.chart(ctx, symbol, map[string]string{
		"period1": strconv.FormatInt(start.Unix(), 10),
		"period2": strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10),
		"events":  "div,split",
	})
	if err != nil {
		return nil, err
	}

	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s", ErrNoData, symbol)
	}

	// timestamps are at the market open; shifting by the exchange offset
	// keeps the trading day intact
	offset := result.Get("meta.gmtoffset").Int()

	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()
	adjCloses := result.Get("indicators.adjclose.0.adjclose").Array()

	rows := make([]normalize.Row, 0, len(timestamps))
	for idx, ts := range timestamps {
		tradeDate := time.Unix(ts.Int()+offset, 0).UTC()
		rows = append(rows, normalize.Row{
			"Date":      tradeDate.Format(data.DateLayout),
			"Open":      at(opens, idx),
			"High":      at(highs, idx),
			"Low":       at(lows, idx),
			"Close":     at(closes, idx),
			"Adj Close": at(adjCloses, idx),
			"Volume":    at(volumes, idx),
		})
	}

	zerolog.Ctx(ctx).Debug().Str("Symbol", symbol).Int("NumRows", len(rows)).Msg("downloaded yahoo chart")

	return rows, nil
}

// Profile reads the company name from the chart metadata. When a RapidAPI
// key is configured the sector is read from the hosted summary.
func (yahoo *Yahoo) Profile(ctx context.Context, symbol string) (Profile, error) {
	if yahoo.apiKey != "" {
		return yahoo.summaryProfile(ctx, symbol)
	}

	result, err := yahoo.chart(ctx, symbol, map[string]string{
		"range": "5d",
	})
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		Name: result.Get("meta.longName").String(),
	}

	if profile.Name == "" {
		profile.Name = result.Get("meta.shortName").String()
	}

	if profile.Name == "" {
		return Profile{}, fmt.Errorf("%w: no profile for %s", ErrNoData, symbol)
	}

	return profile, nil
}

func (yahoo *Yahoo) summaryProfile(ctx context.Context, symbol string) (Profile, error) {
	if err := yahoo.limiter.Wait(ctx); err != nil {
		return Profile{}, err
	}

	logger := zerolog.Ctx(ctx).With().Str("Symbol", symbol).Logger()
	response, err := yhfinance.GetYHFinanceStockSummary(&logger, yahoo.apiKey, yahoo.apiHost, symbol)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var summary yhfinance.YHStockSummaryResponse
	if err := json.Unmarshal([]byte(response), &summary); err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	profile := Profile{
		Name: summary.QuoteType.LongName,
	}

	if profile.Name == "" {
		profile.Name = summary.QuoteType.ShortName
	}

	if profile.Name == "" {
		return Profile{}, fmt.Errorf("%w: no profile for %s", ErrNoData, symbol)
	}

	if sector := strings.TrimSpace(summary.SummaryProfile.Sector); sector != "" {
		profile.Sector = null.StringFrom(sector)
	}

	return profile, nil
}

// Statements downloads the annual fundamentals time series of symbol and
// returns them as one wide table with a column per fiscal year end
func (yahoo *Yahoo) Statements(ctx context.Context, symbol string) ([]normalize.StatementTable, normalize.StatementOptions, error) {
	types := make([]string, len(yahooStatementTypes))
	for idx, name := range yahooStatementTypes {
		types[idx] = "annual" + name
	}

	body, err := yahoo.get(ctx, "/ws/fundamentals-timeseries/v1/finance/timeseries/{symbol}", symbol, map[string]string{
		"type":    strings.Join(types, ","),
		"merge":   "false",
		"period1": "493590046",
		"period2": strconv.FormatInt(time.Now().Unix(), 10),
	})
	if err != nil {
		return nil, normalize.StatementOptions{}, err
	}

	type series struct {
		label  string
		values map[string]string
	}

	var allSeries []series
	periods := make(map[string]bool)

	for _, item := range body.Get("timeseries.result").Array() {
		key := item.Get("meta.type.0").String()
		if key == "" {
			continue
		}

		ser := series{
			label:  strings.TrimPrefix(key, "annual"),
			values: make(map[string]string),
		}

		for _, point := range item.Get(key).Array() {
			if point.Type == gjson.Null {
				continue
			}

			asOf := point.Get("asOfDate").String()
			if asOf == "" {
				continue
			}

			ser.values[asOf] = point.Get("reportedValue.raw").String()
			periods[asOf] = true
		}

		allSeries = append(allSeries, ser)
	}

	if len(periods) == 0 {
		return nil, normalize.StatementOptions{}, fmt.Errorf("%w: no statements for %s", ErrNoData, symbol)
	}

	table := normalize.StatementTable{
		Name:    "fundamentals",
		Periods: make([]string, 0, len(periods)),
	}

	for period := range periods {
		table.Periods = append(table.Periods, period)
	}

	sort.Strings(table.Periods)

	for _, ser := range allSeries {
		row := normalize.StatementRow{
			Label:  ser.label,
			Values: make([]string, len(table.Periods)),
		}

		for idx, period := range table.Periods {
			row.Values[idx] = ser.values[period]
		}

		table.Rows = append(table.Rows, row)
	}

	return []normalize.StatementTable{table}, normalize.StatementOptions{}, nil
}

// at returns the text of arr[idx] or an empty string when it is missing
func at(arr []gjson.Result, idx int) string {
	if idx >= len(arr) || arr[idx].Type == gjson.Null {
		return ""
	}

	return arr[idx].String()
}
