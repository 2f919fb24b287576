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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/gocarina/gocsv"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/korean"
)

// ExportDir reads Korean market exports from a directory laid out as:
//
//	prices/<code>.csv          daily OHLCV with Korean column headers
//	statements/<code>/*.csv    wide DART statements, one table per file
//	dividends/<code>.csv       dividends paid per fiscal year
//	profiles.csv               company name and sector per code
type ExportDir struct {
	dir string
}

func NewExportDir(dir string) *ExportDir {
	return &ExportDir{dir: dir}
}

var (
	exportDateColumns   = []string{"날짜", "일자", "Date"}
	exportCodeColumns   = []string{"종목코드", "Symbol", "Code"}
	exportNameColumns   = []string{"종목명", "Name"}
	exportSectorColumns = []string{"업종명", "Sector"}
	exportYearColumns   = []string{"연도", "사업연도", "Year"}
	exportDivColumns    = []string{"배당금", "배당금총액", "Dividends"}
)

func (export *ExportDir) Prices(ctx context.Context, symbol string, start, end time.Time) ([]normalize.Row, error) {
	records, err := export.readMaps(filepath.Join("prices", symbol+".csv"))
	if err != nil {
		return nil, err
	}

	rows := make([]normalize.Row, 0, len(records))
	for _, record := range records {
		row := normalize.Row(record)

		// rows with an unreadable date are passed through so the normalizer
		// can report them
		if dateStr, ok := row.Get(exportDateColumns...); ok {
			if dt, err := normalize.Date(dateStr); err == nil && (dt.Before(start) || dt.After(end)) {
				continue
			}
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s in window", ErrNoData, symbol)
	}

	zerolog.Ctx(ctx).Debug().Str("Symbol", symbol).Int("NumRows", len(rows)).Msg("read exported prices")

	return rows, nil
}

func (export *ExportDir) Profile(_ context.Context, symbol string) (Profile, error) {
	records, err := export.readMaps("profiles.csv")
	if err != nil {
		return Profile{}, err
	}

	for _, record := range records {
		row := normalize.Row(record)
		if code, _ := row.Get(exportCodeColumns...); strings.TrimSpace(code) != symbol {
			continue
		}

		name, _ := row.Get(exportNameColumns...)
		profile := Profile{Name: strings.TrimSpace(name)}

		if sector, _ := row.Get(exportSectorColumns...); strings.TrimSpace(sector) != "" {
			profile.Sector = null.StringFrom(strings.TrimSpace(sector))
		}

		return profile, nil
	}

	return Profile{}, fmt.Errorf("%w: no profile for %s", ErrNoData, symbol)
}

func (export *ExportDir) Statements(ctx context.Context, symbol string) ([]normalize.StatementTable, normalize.StatementOptions, error) {
	files, err := filepath.Glob(filepath.Join(export.dir, "statements", symbol, "*.csv"))
	if err != nil {
		return nil, normalize.StatementOptions{}, err
	}

	if len(files) == 0 {
		return nil, normalize.StatementOptions{}, fmt.Errorf("%w: no statements for %s", ErrNoData, symbol)
	}

	sort.Strings(files)

	tables := make([]normalize.StatementTable, 0, len(files))
	for _, fn := range files {
		table, err := readStatementTable(fn)
		if err != nil {
			return nil, normalize.StatementOptions{}, err
		}

		tables = append(tables, table)
	}

	opts := normalize.StatementOptions{}

	dividends, err := export.dividends(symbol)
	switch {
	case err == nil:
		opts.Dividends = dividends
	case errors.Is(err, ErrNoData):
		zerolog.Ctx(ctx).Debug().Str("Symbol", symbol).Msg("no exported dividends")
	default:
		return nil, normalize.StatementOptions{}, err
	}

	return tables, opts, nil
}

// dividends reads dividends paid keyed by fiscal year
func (export *ExportDir) dividends(symbol string) (map[int]null.Int, error) {
	records, err := export.readMaps(filepath.Join("dividends", symbol+".csv"))
	if err != nil {
		return nil, err
	}

	dividends := make(map[int]null.Int, len(records))
	for _, record := range records {
		row := normalize.Row(record)

		yearStr, _ := row.Get(exportYearColumns...)
		year, err := strconv.Atoi(strings.TrimSpace(yearStr))
		if err != nil {
			continue
		}

		divStr, _ := row.Get(exportDivColumns...)
		if div := normalize.Int(divStr); div.Valid {
			dividends[year] = div
		}
	}

	return dividends, nil
}

// readMaps reads a csv export with a header row. A missing file is ErrNoData.
func (export *ExportDir) readMaps(name string) ([]map[string]string, error) {
	content, err := readExport(filepath.Join(export.dir, name))
	if err != nil {
		return nil, err
	}

	return gocsv.CSVToMaps(bytes.NewReader(content))
}

// statementIDColumns are the descriptive columns of a DART export that sit
// between the row index and the period columns
var statementIDColumns = map[string]bool{
	"":           true,
	"index":      true,
	"concept_id": true,
	"label_ko":   true,
	"label_en":   true,
}

func statementIDColumn(header string) bool {
	header = strings.ToLower(strings.TrimSpace(header))
	return statementIDColumns[header] || strings.HasPrefix(header, "class")
}

// readStatementTable reads a wide statement: one row per line item and one
// column per period. The line item label is read from the label_ko column of
// a DART export, or from the first column when there is none. Descriptive
// columns (index, concept_id, label_en, class*) are not periods.
func readStatementTable(fn string) (normalize.StatementTable, error) {
	content, err := readExport(fn)
	if err != nil {
		return normalize.StatementTable{}, err
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return normalize.StatementTable{}, fmt.Errorf("%s: %w", fn, err)
	}

	table := normalize.StatementTable{
		Name: strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)),
	}

	if len(records) == 0 {
		return table, nil
	}

	header := records[0]

	labelCol := 0
	for idx, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "label_ko") {
			labelCol = idx
			break
		}
	}

	periodCols := make([]int, 0, len(header))
	for idx, name := range header {
		if idx == labelCol || statementIDColumn(name) {
			continue
		}

		periodCols = append(periodCols, idx)
		table.Periods = append(table.Periods, strings.TrimSpace(name))
	}

	for _, record := range records[1:] {
		if labelCol >= len(record) || strings.TrimSpace(record[labelCol]) == "" {
			continue
		}

		values := make([]string, len(periodCols))
		for idx, col := range periodCols {
			if col < len(record) {
				values[idx] = record[col]
			}
		}

		table.Rows = append(table.Rows, normalize.StatementRow{
			Label:  record[labelCol],
			Values: values,
		})
	}

	return table, nil
}

// readExport reads an exported file as UTF-8. Exports saved by Korean
// spreadsheet tools are EUC-KR encoded and are converted.
func readExport(fn string) ([]byte, error) {
	content, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoData, filepath.Base(fn))
		}

		return nil, err
	}

	return toUTF8(content)
}

// toUTF8 strips a byte order mark and decodes EUC-KR content
func toUTF8(content []byte) ([]byte, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return content, nil
	}

	return korean.EUCKR.NewDecoder().Bytes(content)
}
