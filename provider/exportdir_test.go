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
	"os"
	"path/filepath"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/guregu/null/v6"
	"golang.org/x/text/encoding/korean"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeExport(dir, name, content string) {
	fn := filepath.Join(dir, name)
	Expect(os.MkdirAll(filepath.Dir(fn), 0755)).To(Succeed())
	Expect(os.WriteFile(fn, []byte(content), 0644)).To(Succeed())
}

var _ = Describe("ExportDir", func() {
	var (
		ctx    context.Context
		dir    string
		export *provider.ExportDir
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		export = provider.NewExportDir(dir)
	})

	Describe("Prices", func() {
		BeforeEach(func() {
			writeExport(dir, "prices/005930.csv", "\xef\xbb\xbf날짜,시가,고가,저가,종가,거래량\n"+
				"2023-12-28,78000,78500,77500,78500,17797536\n"+
				"2024-01-02,78200,79800,78200,79600,17142847\n"+
				"2024-01-03,78500,78800,77000,77000,21753644\n")
		})

		It("keeps the rows inside the window", func() {
			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			rows, err := export.Prices(ctx, "005930", start, start.AddDate(0, 0, 2))
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			prices, errs := normalize.Prices(data.KR, rows)
			Expect(errs).To(BeEmpty())
			Expect(prices[0].Close.IntPart()).To(Equal(int64(79600)))
			Expect(prices[0].AdjustedClose.IntPart()).To(Equal(int64(79600)))
		})

		It("reports a missing export as no data", func() {
			_, err := export.Prices(ctx, "000660", time.Time{}, time.Now())
			Expect(err).To(MatchError(provider.ErrNoData))
		})

		It("reports an empty window as no data", func() {
			start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err := export.Prices(ctx, "005930", start, start.AddDate(0, 1, 0))
			Expect(err).To(MatchError(provider.ErrNoData))
		})
	})

	Describe("Profile", func() {
		It("decodes EUC-KR exports", func() {
			content, err := korean.EUCKR.NewEncoder().String("종목코드,종목명,업종명\n005930,삼성전자,전기전자\n035720,카카오,\n")
			Expect(err).NotTo(HaveOccurred())
			writeExport(dir, "profiles.csv", content)

			profile, err := export.Profile(ctx, "005930")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Name).To(Equal("삼성전자"))
			Expect(profile.Sector).To(Equal(null.StringFrom("전기전자")))

			profile, err = export.Profile(ctx, "035720")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Sector.Valid).To(BeFalse())

			_, err = export.Profile(ctx, "000660")
			Expect(err).To(MatchError(provider.ErrNoData))
		})
	})

	Describe("Statements", func() {
		BeforeEach(func() {
			writeExport(dir, "statements/005930/1_income.csv", "항목,20220101-20221231,20230101-20231231\n"+
				"매출액,\"302,231,360\",\"258,935,494\"\n"+
				"영업이익,\"43,376,630\",\"6,566,976\"\n"+
				"당기순이익,\"55,654,077\",\"15,487,100\"\n")
			writeExport(dir, "statements/005930/2_balance.csv", "항목,20221231,20231231\n"+
				"자산총계,\"448,424,507\",\"455,905,980\"\n"+
				"부채총계,\"93,674,903\",\"92,228,115\"\n"+
				"\n")
			writeExport(dir, "dividends/005930.csv", "연도,배당금\n2023,\"9,809,438\"\n")
		})

		It("reads every table of the company and its dividends", func() {
			tables, opts, err := export.Statements(ctx, "005930")
			Expect(err).NotTo(HaveOccurred())
			Expect(tables).To(HaveLen(2))
			Expect(tables[0].Name).To(Equal("1_income"))
			Expect(tables[0].Periods).To(Equal([]string{"20220101-20221231", "20230101-20231231"}))
			Expect(tables[1].Rows).To(HaveLen(2))
			Expect(opts.Dividends).To(HaveKeyWithValue(2023, null.IntFrom(9809438)))

			statements, errs := normalize.Statements(data.KR, tables, opts)
			Expect(errs).To(BeEmpty())
			Expect(statements).To(HaveLen(2))
			Expect(statements[0].Revenue).To(Equal(null.IntFrom(258935494)))
			Expect(statements[0].TotalEquity).To(Equal(null.IntFrom(363677865)))
			Expect(statements[0].DividendPayoutRatio.Valid).To(BeTrue())
			Expect(statements[1].DividendPayoutRatio.Valid).To(BeFalse())
		})

		It("reads statements without a dividends export", func() {
			Expect(os.Remove(filepath.Join(dir, "dividends", "005930.csv"))).To(Succeed())

			tables, opts, err := export.Statements(ctx, "005930")
			Expect(err).NotTo(HaveOccurred())
			Expect(tables).To(HaveLen(2))
			Expect(opts.Dividends).To(BeNil())
		})

		It("reads the label column of a DART export", func() {
			writeExport(dir, "statements/000660/income.csv", "index,concept_id,label_ko,label_en,class0,class1,class2,20230101-20231231,20220101-20221231\n"+
				"0,ifrs-full_Revenue,수익(매출액),Revenue,연결,손익계산서,,\"32,765,719\",\"44,621,568\"\n"+
				"1,dart_OperatingIncomeLoss,영업이익(손실),Operating income,연결,손익계산서,,\"-7,730,313\",\"6,809,418\"\n"+
				"2,ifrs-full_ProfitLoss,당기순이익(손실),Profit,연결,손익계산서,,\"-9,137,551\",\"2,229,593\"\n")

			tables, opts, err := export.Statements(ctx, "000660")
			Expect(err).NotTo(HaveOccurred())
			Expect(tables).To(HaveLen(1))
			Expect(tables[0].Periods).To(Equal([]string{"20230101-20231231", "20220101-20221231"}))
			Expect(tables[0].Rows[0].Label).To(Equal("수익(매출액)"))
			Expect(tables[0].Rows[0].Values).To(Equal([]string{"32,765,719", "44,621,568"}))

			statements, errs := normalize.Statements(data.KR, tables, opts)
			Expect(errs).To(BeEmpty())
			Expect(statements).To(HaveLen(2))
			Expect(statements[0].ReportDate).To(Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
			Expect(statements[0].Revenue).To(Equal(null.IntFrom(32765719)))
			Expect(statements[0].OperatingIncome).To(Equal(null.IntFrom(-7730313)))
			Expect(statements[1].NetIncome).To(Equal(null.IntFrom(2229593)))
		})

		It("reports a company without statements as no data", func() {
			_, _, err := export.Statements(ctx, "000660")
			Expect(err).To(MatchError(provider.ErrNoData))
		})
	})
})
