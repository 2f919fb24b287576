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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/Donggyu-Kim1/stock-data/identity"
	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
)

const (
	ConstituentsURL = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/main/data"
	NasdaqTraderURL = "https://www.nasdaqtrader.com/dynamic/SymDir"
	KRXURL          = "http://data.krx.co.kr"
)

// ListSource downloads the current members of a membership list
type ListSource interface {
	Members(ctx context.Context) ([]identity.Entry, error)
}

// ListURLs overrides the endpoints list sources download from
type ListURLs struct {
	Constituents string
	NasdaqTrader string
	KRX          string
}

// ListSources returns a source for every default membership list keyed by
// list name
func ListSources(urls ListURLs) map[string]ListSource {
	if urls.Constituents == "" {
		urls.Constituents = ConstituentsURL
	}

	if urls.NasdaqTrader == "" {
		urls.NasdaqTrader = NasdaqTraderURL
	}

	if urls.KRX == "" {
		urls.KRX = KRXURL
	}

	return map[string]ListSource{
		"S&P 500": &Constituents{client: listClient(urls.Constituents)},
		"NASDAQ":  &NasdaqTrader{client: listClient(urls.NasdaqTrader), file: "nasdaqlisted.txt"},
		"NYSE":    &NasdaqTrader{client: listClient(urls.NasdaqTrader), file: "otherlisted.txt"},
		"KOSPI":   &KRX{client: listClient(urls.KRX), market: "STK"},
		"KOSDAQ":  &KRX{client: listClient(urls.KRX), market: "KSQ"},
	}
}

func listClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(60 * time.Second)
}

func download(req *resty.Request, method, url string) ([]byte, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: status code %d", ErrUnavailable, resp.StatusCode())
	}

	return resp.Body(), nil
}

// Constituents reads the S&P 500 members with their GICS sector
type Constituents struct {
	client *resty.Client
}

type constituent struct {
	Symbol string `csv:"Symbol"`
	Name   string `csv:"Security"`
	Sector string `csv:"GICS Sector"`
}

func (src *Constituents) Members(ctx context.Context) ([]identity.Entry, error) {
	body, err := download(src.client.R().SetContext(ctx), resty.MethodGet, "/constituents.csv")
	if err != nil {
		return nil, err
	}

	var rows []*constituent
	if err := gocsv.UnmarshalBytes(body, &rows); err != nil {
		return nil, err
	}

	entries := make([]identity.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entry(row.Symbol, row.Name, row.Sector))
	}

	zerolog.Ctx(ctx).Debug().Int("NumSymbols", len(entries)).Msg("downloaded s&p 500 constituents")

	return entries, nil
}

// NasdaqTrader reads one of the pipe delimited symbol directory files
type NasdaqTrader struct {
	client *resty.Client
	file   string
}

type nasdaqListing struct {
	Symbol    string `csv:"Symbol"`
	ACTSymbol string `csv:"ACT Symbol"`
	Name      string `csv:"Security Name"`
	TestIssue string `csv:"Test Issue"`
}

func (src *NasdaqTrader) Members(ctx context.Context) ([]identity.Entry, error) {
	body, err := download(src.client.R().SetContext(ctx), resty.MethodGet, "/"+src.file)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []*nasdaqListing
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, err
	}

	entries := make([]identity.Entry, 0, len(rows))
	for _, row := range rows {
		symbol := row.ACTSymbol
		if symbol == "" {
			symbol = row.Symbol
		}

		// the directory ends with a "File Creation Time" trailer
		if symbol == "" || strings.HasPrefix(symbol, "File Creation Time") || row.TestIssue == "Y" {
			continue
		}

		entries = append(entries, entry(symbol, row.Name, ""))
	}

	zerolog.Ctx(ctx).Debug().Str("File", src.file).Int("NumSymbols", len(entries)).Msg("downloaded nasdaq trader symbol directory")

	return entries, nil
}

// KRX reads the listed companies of a Korean market with their industry
// from the exchange's data portal. The download is a two step exchange: a
// one time password is generated for the query and then traded for the
// EUC-KR encoded csv file.
type KRX struct {
	client *resty.Client
	market string
}

func (src *KRX) Members(ctx context.Context) ([]identity.Entry, error) {
	otp, err := download(src.client.R().
		SetContext(ctx).
		SetHeader("Referer", KRXURL+"/contents/MDC/MDI/mdiLoader").
		SetFormData(map[string]string{
			"locale":      "ko_KR",
			"mktId":       src.market,
			"trdDd":       time.Now().Format("20060102"),
			"money":       "1",
			"csvxls_isNo": "false",
			"name":        "fileDown",
			"url":         "dbms/MDC/STAT/standard/MDCSTAT03901",
		}), resty.MethodPost, "/comm/fileDn/GenerateOTP/generate.cmd")
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(string(otp))
	if code == "" {
		return nil, fmt.Errorf("%w: empty one time password", ErrUnavailable)
	}

	body, err := download(src.client.R().
		SetContext(ctx).
		SetHeader("Referer", KRXURL+"/contents/MDC/MDI/mdiLoader").
		SetFormData(map[string]string{"code": code}), resty.MethodPost, "/comm/fileDn/download_csv/download.cmd")
	if err != nil {
		return nil, err
	}

	content, err := toUTF8(body)
	if err != nil {
		return nil, err
	}

	records, err := gocsv.CSVToMaps(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	entries := make([]identity.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, entry(record["종목코드"], record["종목명"], record["업종명"]))
	}

	zerolog.Ctx(ctx).Debug().Str("Market", src.market).Int("NumSymbols", len(entries)).Msg("downloaded krx listing")

	return entries, nil
}

func entry(symbol, name, sector string) identity.Entry {
	ent := identity.Entry{
		Symbol: strings.TrimSpace(symbol),
		Name:   strings.TrimSpace(name),
	}

	if sector = strings.TrimSpace(sector); sector != "" {
		ent.Sector = null.StringFrom(sector)
	}

	return ent
}
