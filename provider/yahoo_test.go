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
package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const chartResponse = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "longName": "Apple Inc.", "shortName": "Apple", "gmtoffset": -18000},
      "timestamp": [1704205800, 1704292200],
      "indicators": {
        "quote": [{
          "open": [187.15, 184.22],
          "high": [188.44, 185.88],
          "low": [183.89, 183.43],
          "close": [185.639999389648, null],
          "volume": [82488700, 58414500]
        }],
        "adjclose": [{"adjclose": [184.938, 183.56]}]
      }
    }],
    "error": null
  }
}`

const timeseriesResponse = `{
  "timeseries": {
    "result": [
      {
        "meta": {"symbol": ["AAPL"], "type": ["annualTotalRevenue"]},
        "annualTotalRevenue": [
          {"asOfDate": "2022-09-30", "periodType": "12M", "reportedValue": {"raw": 394328000000, "fmt": "394.33B"}},
          {"asOfDate": "2023-09-30", "periodType": "12M", "reportedValue": {"raw": 383285000000, "fmt": "383.29B"}}
        ]
      },
      {
        "meta": {"symbol": ["AAPL"], "type": ["annualNetIncome"]},
        "annualNetIncome": [
          null,
          {"asOfDate": "2023-09-30", "periodType": "12M", "reportedValue": {"raw": 96995000000, "fmt": "97.00B"}}
        ]
      },
      {
        "meta": {"symbol": ["AAPL"], "type": ["annualCashDividendsPaid"]},
        "annualCashDividendsPaid": [
          {"asOfDate": "2023-09-30", "periodType": "12M", "reportedValue": {"raw": -15025000000, "fmt": "-15.03B"}}
        ]
      }
    ],
    "error": null
  }
}`

var _ = Describe("Yahoo", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		yahoo    *provider.Yahoo
		handlers map[string]http.HandlerFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		handlers = map[string]http.HandlerFunc{}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if handler, ok := handlers[r.URL.Path]; ok {
				handler(w, r)
				return
			}

			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		}))

		yahoo = provider.NewYahoo(provider.Config{BaseURL: server.URL, RateLimit: 60000})
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Prices", func() {
		It("returns one row per trading day in the exchange's calendar", func() {
			handlers["/v8/finance/chart/AAPL"] = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("interval")).To(Equal("1d"))
				_, _ = w.Write([]byte(chartResponse))
			}

			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			rows, err := yahoo.Prices(ctx, "AAPL", start, start.AddDate(0, 0, 7))
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0]["Date"]).To(Equal("2024-01-02"))
			Expect(rows[0]["Close"]).To(Equal("185.639999389648"))
			Expect(rows[0]["Adj Close"]).To(Equal("184.938"))
			Expect(rows[0]["Volume"]).To(Equal("82488700"))
			Expect(rows[1]["Date"]).To(Equal("2024-01-03"))
			Expect(rows[1]["Close"]).To(BeEmpty())

			prices, errs := normalize.Prices(data.US, rows)
			Expect(prices).To(HaveLen(1))
			Expect(errs).To(HaveLen(1))
			Expect(prices[0].Close.Equal(decimal.RequireFromString("185.64"))).To(BeTrue())
			Expect(prices[0].AdjustedClose.Equal(decimal.RequireFromString("184.94"))).To(BeTrue())
		})

		It("escapes index symbols", func() {
			handlers["/v8/finance/chart/^GSPC"] = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(chartResponse))
			}

			_, err := yahoo.Prices(ctx, data.SP500Symbol, time.Now().AddDate(0, 0, -7), time.Now())
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports unknown symbols as no data", func() {
			_, err := yahoo.Prices(ctx, "ZZZZ", time.Now().AddDate(0, 0, -7), time.Now())
			Expect(err).To(MatchError(provider.ErrNoData))
		})

		It("reports server failures as unavailable", func() {
			handlers["/v8/finance/chart/AAPL"] = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}

			_, err := yahoo.Prices(ctx, "AAPL", time.Now().AddDate(0, 0, -7), time.Now())
			Expect(err).To(MatchError(provider.ErrUnavailable))
		})
	})

	Describe("Profile", func() {
		It("reads the long name from the chart metadata", func() {
			handlers["/v8/finance/chart/AAPL"] = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("range")).To(Equal("5d"))
				_, _ = w.Write([]byte(chartResponse))
			}

			profile, err := yahoo.Profile(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Name).To(Equal("Apple Inc."))
			Expect(profile.Sector.Valid).To(BeFalse())
		})
	})

	Describe("Statements", func() {
		It("builds one wide table with a column per fiscal year", func() {
			handlers["/ws/fundamentals-timeseries/v1/finance/timeseries/AAPL"] = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("type")).To(ContainSubstring("annualTotalRevenue,annualOperatingIncome"))
				_, _ = w.Write([]byte(timeseriesResponse))
			}

			tables, opts, err := yahoo.Statements(ctx, "AAPL")
			Expect(err).NotTo(HaveOccurred())
			Expect(tables).To(HaveLen(1))
			Expect(tables[0].Periods).To(Equal([]string{"2022-09-30", "2023-09-30"}))
			Expect(tables[0].Rows).To(HaveLen(3))
			Expect(tables[0].Rows[0].Label).To(Equal("TotalRevenue"))
			Expect(tables[0].Rows[1].Values).To(Equal([]string{"", "96995000000"}))

			statements, errs := normalize.Statements(data.US, tables, opts)
			Expect(errs).To(BeEmpty())
			Expect(statements).To(HaveLen(2))
			Expect(statements[0].ReportDate).To(Equal(time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC)))
			Expect(statements[0].Revenue.Int64).To(Equal(int64(383285000000)))
			Expect(statements[0].DividendPayoutRatio.Decimal.Equal(decimal.RequireFromString("15.49"))).To(BeTrue())
			Expect(statements[1].NetIncome.Valid).To(BeFalse())
		})

		It("reports an empty time series as no data", func() {
			handlers["/ws/fundamentals-timeseries/v1/finance/timeseries/AAPL"] = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"timeseries":{"result":[{"meta":{"type":["annualTotalRevenue"]}}],"error":null}}`))
			}

			_, _, err := yahoo.Statements(ctx, "AAPL")
			Expect(err).To(MatchError(provider.ErrNoData))
		})
	})
})

var _ = Describe("Registry", func() {
	It("builds registered providers by name", func() {
		src, err := provider.New("exportdir", provider.Config{Dir: GinkgoT().TempDir()})
		Expect(err).NotTo(HaveOccurred())
		Expect(src).To(BeAssignableToTypeOf(&provider.ExportDir{}))

		Expect(provider.Names()).To(Equal([]string{"exportdir", "yahoo"}))
	})

	It("rejects unknown providers", func() {
		_, err := provider.New("bloomberg", provider.Config{})
		Expect(err).To(MatchError(provider.ErrProviderNotFound))
	})
})
