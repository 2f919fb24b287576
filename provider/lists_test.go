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

	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/guregu/null/v6"
	"golang.org/x/text/encoding/korean"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const nasdaqListed = `Symbol|Security Name|Market Category|Test Issue|Financial Status|Round Lot Size|ETF|NextShares
AAPL|Apple Inc. - Common Stock|Q|N|N|100|N|N
ZXZZT|NASDAQ TEST STOCK|Q|Y|N|100|N|N
MSFT|Microsoft Corporation - Common Stock|Q|N|N|100|N|N
File Creation Time: 0102202417:01|||||||
`

const otherListed = `ACT Symbol|Security Name|Exchange|CQS Symbol|ETF|Round Lot Size|Test Issue|NASDAQ Symbol
BRK.B|Berkshire Hathaway Inc. Class B|N|BRK.B|N|100|N|BRK.B
JPM|JPMorgan Chase & Co. Common Stock|N|JPM|N|100|N|JPM
File Creation Time: 0102202417:01|||||||
`

const constituents = `Symbol,Security,GICS Sector,GICS Sub-Industry
AAPL,Apple Inc.,Information Technology,Technology Hardware
MMM,3M,Industrials,Industrial Conglomerates
`

var _ = Describe("ListSources", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		sources map[string]provider.ListSource
		otp     string
	)

	BeforeEach(func() {
		ctx = context.Background()
		otp = "OTP-123"

		krxListing, err := korean.EUCKR.NewEncoder().String("종목코드,종목명,시장구분,업종명\n005930,삼성전자,KOSPI,전기전자\n000660,SK하이닉스,KOSPI,전기전자\n")
		Expect(err).NotTo(HaveOccurred())

		mux := http.NewServeMux()
		mux.HandleFunc("/nasdaqlisted.txt", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(nasdaqListed))
		})
		mux.HandleFunc("/otherlisted.txt", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(otherListed))
		})
		mux.HandleFunc("/constituents.csv", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(constituents))
		})
		mux.HandleFunc("/comm/fileDn/GenerateOTP/generate.cmd", func(w http.ResponseWriter, r *http.Request) {
			if r.FormValue("mktId") != "STK" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(otp))
		})
		mux.HandleFunc("/comm/fileDn/download_csv/download.cmd", func(w http.ResponseWriter, r *http.Request) {
			if r.FormValue("code") != otp {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(krxListing))
		})

		server = httptest.NewServer(mux)
		sources = provider.ListSources(provider.ListURLs{
			Constituents: server.URL,
			NasdaqTrader: server.URL,
			KRX:          server.URL,
		})
	})

	AfterEach(func() {
		server.Close()
	})

	It("has a source for every default list", func() {
		Expect(sources).To(HaveKey("S&P 500"))
		Expect(sources).To(HaveKey("NASDAQ"))
		Expect(sources).To(HaveKey("NYSE"))
		Expect(sources).To(HaveKey("KOSPI"))
		Expect(sources).To(HaveKey("KOSDAQ"))
	})

	It("reads the s&p 500 constituents with their sector", func() {
		entries, err := sources["S&P 500"].Members(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Symbol).To(Equal("AAPL"))
		Expect(entries[0].Sector).To(Equal(null.StringFrom("Information Technology")))
	})

	It("skips test issues and the trailer of the nasdaq directory", func() {
		entries, err := sources["NASDAQ"].Members(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Symbol).To(Equal("MSFT"))
		Expect(entries[1].Name).To(Equal("Microsoft Corporation - Common Stock"))
	})

	It("reads the act symbol of other listed securities", func() {
		entries, err := sources["NYSE"].Members(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Symbol).To(Equal("BRK.B"))
		Expect(entries[1].Symbol).To(Equal("JPM"))
	})

	It("trades the one time password for the krx listing", func() {
		entries, err := sources["KOSPI"].Members(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Symbol).To(Equal("000660"))
		Expect(entries[1].Name).To(Equal("SK하이닉스"))
		Expect(entries[1].Sector).To(Equal(null.StringFrom("전기전자")))
	})

	It("reports a failed download as unavailable", func() {
		_, err := sources["KOSDAQ"].Members(ctx)
		Expect(err).To(MatchError(provider.ErrUnavailable))
	})
})
