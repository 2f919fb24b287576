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
package identity

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/gocarina/gocsv"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
)

var (
	ErrListsUnavailable = errors.New("membership lists unavailable")
)

var tickerAlphabet = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

// ValidSymbol reports whether symbol only uses characters of the ticker
// alphabet. Provider specific suffixes such as "BRK.B" or "PSA$H" fail.
func ValidSymbol(symbol string) bool {
	return tickerAlphabet.MatchString(symbol)
}

// Entry is one member of a membership list
type Entry struct {
	Symbol string
	Name   string
	Sector null.String
}

// listRow is the on-disk layout of a membership list
type listRow struct {
	Symbol string `csv:"Symbol"`
	Name   string `csv:"Name"`
	Sector string `csv:"Sector"`
}

// MembershipList is a named set of symbols that belong to a benchmark
type MembershipList struct {
	Name      string
	Market    data.Country
	Benchmark string
	Entries   map[string]Entry
}

func (list *MembershipList) Contains(symbol string) bool {
	_, ok := list.Entries[symbol]
	return ok
}

// ListSpec describes where a membership list is read from
type ListSpec struct {
	Name      string
	Market    data.Country
	Benchmark string
	FileName  string
}

// DefaultListSpecs are the membership lists in benchmark priority order:
// primary US index first, then the US exchanges, then the Korean markets.
var DefaultListSpecs = []ListSpec{
	{Name: "S&P 500", Market: data.US, Benchmark: data.SP500Symbol, FileName: "sp500_tickers.csv"},
	{Name: "NASDAQ", Market: data.US, Benchmark: data.NasdaqSymbol, FileName: "nasdaq_tickers.csv"},
	{Name: "NYSE", Market: data.US, Benchmark: data.NYSESymbol, FileName: "nyse_tickers.csv"},
	{Name: "KOSPI", Market: data.KR, Benchmark: data.KOSPISymbol, FileName: "kospi_tickers.csv"},
	{Name: "KOSDAQ", Market: data.KR, Benchmark: data.KOSDAQSymbol, FileName: "kosdaq_tickers.csv"},
}

var (
	symbolColumns = []string{"ACT Symbol", "Symbol", "Ticker", "종목코드"}
	nameColumns   = []string{"Name", "Security Name", "Security", "Company Name", "종목명"}
	sectorColumns = []string{"Sector", "GICS Sector", "업종명"}
)

// LoadList reads the membership list described by spec from dir. A missing
// file yields an empty list. Symbols outside the ticker alphabet are logged
// and skipped.
func LoadList(dir string, spec ListSpec) (*MembershipList, error) {
	list := &MembershipList{
		Name:      spec.Name,
		Market:    spec.Market,
		Benchmark: spec.Benchmark,
		Entries:   make(map[string]Entry),
	}

	fn := filepath.Join(dir, spec.FileName)
	fh, err := os.Open(fn)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("FileName", fn).Str("List", spec.Name).Msg("membership list not found, using an empty list")
			return list, nil
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrListsUnavailable, fn, err)
	}
	defer fh.Close()

	if err := list.read(fh); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListsUnavailable, fn, err)
	}

	log.Debug().Str("List", spec.Name).Int("NumSymbols", len(list.Entries)).Msg("loaded membership list")

	return list, nil
}

func (list *MembershipList) read(reader io.Reader) error {
	rows, err := gocsv.CSVToMaps(reader)
	if err != nil {
		return err
	}

	for _, row := range rows {
		symbol := strings.TrimSpace(firstColumn(row, symbolColumns))
		if symbol == "" {
			continue
		}

		if !ValidSymbol(symbol) {
			log.Info().Str("Symbol", symbol).Str("List", list.Name).Msg("skipping symbol outside the ticker alphabet")
			continue
		}

		entry := Entry{
			Symbol: symbol,
			Name:   strings.TrimSpace(firstColumn(row, nameColumns)),
		}

		if sector := strings.TrimSpace(firstColumn(row, sectorColumns)); sector != "" {
			entry.Sector = null.StringFrom(sector)
		}

		list.Entries[symbol] = entry
	}

	return nil
}

func firstColumn(row map[string]string, names []string) string {
	for _, name := range names {
		if val, ok := row[name]; ok {
			return val
		}
	}

	return ""
}

// SaveList writes entries as a membership list file that LoadList can read
func SaveList(fn string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return err
	}

	fh, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer fh.Close()

	rows := make([]*listRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, &listRow{
			Symbol: entry.Symbol,
			Name:   entry.Name,
			Sector: entry.Sector.ValueOrZero(),
		})
	}

	return gocsv.MarshalFile(&rows, fh)
}
