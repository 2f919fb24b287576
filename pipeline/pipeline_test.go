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
package pipeline_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/identity"
	"github.com/Donggyu-Kim1/stock-data/library"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/Donggyu-Kim1/stock-data/pipeline"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/guregu/null/v6"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeList(dir, name, content string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)).To(Succeed())
}

func usRow(date, closePrice string) normalize.Row {
	return normalize.Row{"Date": date, "Open": "100", "High": "102", "Low": "99", "Close": closePrice, "Adj Close": closePrice, "Volume": "1000"}
}

func krRow(date, closePrice string) normalize.Row {
	return normalize.Row{"날짜": date, "시가": "78000", "고가": "79800", "저가": "77000", "종가": closePrice, "거래량": "17142847"}
}

func summaryOf(summaries []data.RunSummary, stage data.Stage) data.RunSummary {
	for _, summary := range summaries {
		if summary.Stage == stage {
			return summary
		}
	}

	Fail("no summary for stage " + string(stage))
	return data.RunSummary{}
}

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		myLibrary *library.Library
		listsDir  string
		us        *fakeProvider
		kr        *fakeProvider
		recorder  *memRecorder
		runner    *pipeline.Pipeline
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		myLibrary, err = library.New(ctx, "sqlite://:memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(myLibrary.Migrate()).To(Succeed())

		listsDir = GinkgoT().TempDir()
		writeList(listsDir, "sp500_tickers.csv", "Symbol,Security,GICS Sector\nAAPL,Apple Inc.,Information Technology\nMSFT,Microsoft,Information Technology\nBRK.B,Berkshire Hathaway,Financials\n")
		writeList(listsDir, "nasdaq_tickers.csv", "Symbol,Security Name\nAAPL,Apple Inc. - Common Stock\nNVDA,NVIDIA Corporation - Common Stock\n")
		writeList(listsDir, "kospi_tickers.csv", "Symbol,Name,Sector\n005930,삼성전자,전기전자\n")

		us = newFakeProvider()
		us.profiles["AAPL"] = provider.Profile{Name: "Apple Inc."}
		us.errs["NVDA"] = provider.ErrUnavailable
		us.prices[data.SP500Symbol] = []normalize.Row{usRow("2024-01-02", "4742.83"), usRow("2024-01-03", "4704.81")}
		us.prices["AAPL"] = []normalize.Row{usRow("2024-01-02", "185.64"), usRow("2024-01-03", "184.25"), usRow("not a date", "1")}
		us.statements["AAPL"] = []normalize.StatementTable{{
			Name:    "fundamentals",
			Periods: []string{"2023-09-30"},
			Rows: []normalize.StatementRow{
				{Label: "TotalRevenue", Values: []string{"383285000000"}},
				{Label: "NetIncome", Values: []string{"96995000000"}},
			},
		}}

		kr = newFakeProvider()
		kr.prices[data.KOSPIProvider] = []normalize.Row{krRow("2024-01-02", "2669.81")}
		kr.prices["005930"] = []normalize.Row{krRow("2024-01-02", "79600"), krRow("2024-01-03", "77000")}
		kr.statements["005930"] = []normalize.StatementTable{{
			Name:    "income",
			Periods: []string{"20230101-20231231", "bad period"},
			Rows: []normalize.StatementRow{
				{Label: "매출액", Values: []string{"258,935,494", "1"}},
				{Label: "영업이익", Values: []string{"6,566,976", "1"}},
				{Label: "감가상각비", Values: []string{"39,366,540", "1"}},
			},
		}}

		recorder = &memRecorder{}

		runner = pipeline.New(myLibrary, map[data.Country]provider.Provider{
			data.US: us,
			data.KR: kr,
		}, pipeline.Options{
			Policies: reconcile.DefaultPolicies(),
			ListsDir: listsDir,
		}).WithRecorder(recorder)
	})

	AfterEach(func() {
		myLibrary.Close()
	})

	It("imports every stage and reports each one", func() {
		summaries, err := runner.Run(ctx, data.Stages)
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(len(data.Stages)))

		benchmarks := summaryOf(summaries, data.BenchmarkStage)
		Expect(benchmarks.Inserted).To(Equal(6))
		Expect(benchmarks.ID.String()).NotTo(BeEmpty())

		companies := summaryOf(summaries, data.CompanyStage)
		Expect(companies.Entities).To(Equal(4))
		Expect(companies.Inserted).To(Equal(3))
		Expect(companies.Failed).To(Equal(1))

		benchmarkPrices := summaryOf(summaries, data.BenchmarkPriceStage)
		Expect(benchmarkPrices.Entities).To(Equal(6))
		Expect(benchmarkPrices.Inserted).To(Equal(3))

		stockPrices := summaryOf(summaries, data.StockPriceStage)
		Expect(stockPrices.Entities).To(Equal(3))
		Expect(stockPrices.Inserted).To(Equal(4))
		Expect(stockPrices.Failed).To(BeZero())

		financials := summaryOf(summaries, data.FinancialStage)
		Expect(financials.Inserted).To(Equal(2))

		Expect(recorder.counts).To(HaveKeyWithValue("AAPL", 2))
		Expect(recorder.counts).To(HaveKeyWithValue(data.KOSPIProvider, 1))

		stored, err := myLibrary.Companies(ctx, data.US)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HaveLen(2))
		Expect(stored[0].Symbol).To(Equal("AAPL"))
		Expect(stored[0].Name).To(Equal("Apple Inc."))
		Expect(stored[0].Sector).To(Equal(null.StringFrom("Information Technology")))
		Expect(stored[1].Name).To(Equal("Microsoft"))

		korean, err := myLibrary.Companies(ctx, data.KR)
		Expect(err).NotTo(HaveOccurred())
		Expect(korean).To(HaveLen(1))
		Expect(korean[0].Name).To(Equal("삼성전자"))
	})

	It("writes nothing when the same data is imported again", func() {
		_, err := runner.Run(ctx, data.Stages)
		Expect(err).NotTo(HaveOccurred())

		summaries, err := runner.Run(ctx, data.Stages)
		Expect(err).NotTo(HaveOccurred())

		Expect(summaryOf(summaries, data.BenchmarkStage).Updated).To(Equal(6))

		companies := summaryOf(summaries, data.CompanyStage)
		Expect(companies.Inserted + companies.Updated).To(BeZero())
		Expect(companies.Skipped).To(Equal(3))

		for _, stage := range []data.Stage{data.BenchmarkPriceStage, data.StockPriceStage, data.FinancialStage} {
			summary := summaryOf(summaries, stage)
			Expect(summary.Inserted+summary.Updated).To(BeZero(), string(stage))
		}

		count, err := myLibrary.Count(ctx, data.StockPriceTable)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(4)))
	})

	It("updates a price whose close moved", func() {
		_, err := runner.Run(ctx, data.Stages)
		Expect(err).NotTo(HaveOccurred())

		us.prices["AAPL"][1] = usRow("2024-01-03", "184.30")

		summary, err := runner.ImportStockPrices(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Updated).To(Equal(1))
		Expect(summary.Inserted).To(BeZero())
		Expect(summary.Skipped).To(Equal(3))
	})

	It("keeps the stored statement when the provider restates it", func() {
		_, err := runner.Run(ctx, data.Stages)
		Expect(err).NotTo(HaveOccurred())

		us.statements["AAPL"][0].Rows[0].Values[0] = "1"

		summary, err := runner.ImportFinancials(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Inserted + summary.Updated).To(BeZero())
		Expect(summary.Skipped).To(Equal(2))
	})

	It("refreshes stored companies when asked to", func() {
		_, err := runner.SeedBenchmarks(ctx)
		Expect(err).NotTo(HaveOccurred())
		_, err = runner.ImportCompanies(ctx)
		Expect(err).NotTo(HaveOccurred())

		refresher := pipeline.New(myLibrary, map[data.Country]provider.Provider{data.US: us}, pipeline.Options{
			Policies:         reconcile.DefaultPolicies(),
			ListsDir:         listsDir,
			RefreshCompanies: true,
		})

		summary, err := refresher.ImportCompanies(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Updated).To(Equal(3))
	})

	It("stops when the membership lists cannot be read", func() {
		Expect(os.Remove(filepath.Join(listsDir, "sp500_tickers.csv"))).To(Succeed())
		Expect(os.Mkdir(filepath.Join(listsDir, "sp500_tickers.csv"), 0755)).To(Succeed())

		summaries, err := runner.Run(ctx, data.Stages)
		Expect(err).To(MatchError(identity.ErrListsUnavailable))
		Expect(summaries).To(HaveLen(2))
	})

	It("exports run metrics", func() {
		_, err := runner.Run(ctx, data.Stages)
		Expect(err).NotTo(HaveOccurred())

		fn := filepath.Join(GinkgoT().TempDir(), "stockdata.prom")
		Expect(runner.Metrics().WriteTextfile(fn)).To(Succeed())

		content, err := os.ReadFile(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring(`stockdata_records_total{action="insert",stage="benchmarks"} 6`))
		Expect(string(content)).To(ContainSubstring(`stockdata_entities_total{result="failed",stage="companies"} 1`))
	})

	It("rejects unknown stage names", func() {
		_, err := pipeline.ParseStages([]string{"prices"})
		Expect(err).To(MatchError(pipeline.ErrUnknownStage))

		stages, err := pipeline.ParseStages(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(stages).To(Equal(data.Stages))
	})
})
