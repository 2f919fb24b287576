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
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

var (
	ErrEmpty = errors.New("archive has no records")
)

// PriceRecord is the parquet layout of one archived daily price
type PriceRecord struct {
	Owner         string   `json:"owner" parquet:"name=owner, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Symbol        string   `json:"symbol" parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	DateStr       string   `json:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Open          *float64 `json:"open" parquet:"name=open, type=DOUBLE, repetitiontype=OPTIONAL"`
	High          *float64 `json:"high" parquet:"name=high, type=DOUBLE, repetitiontype=OPTIONAL"`
	Low           *float64 `json:"low" parquet:"name=low, type=DOUBLE, repetitiontype=OPTIONAL"`
	Close         float64  `json:"close" parquet:"name=close, type=DOUBLE"`
	AdjustedClose float64  `json:"adjusted_close" parquet:"name=adjusted_close, type=DOUBLE"`
	Volume        *int64   `json:"volume" parquet:"name=volume, type=INT64, repetitiontype=OPTIONAL"`
}

// Manifest is written next to every archive and describes its contents
type Manifest struct {
	Name       string    `json:"name"`
	FileName   string    `json:"file_name"`
	CreatedAt  time.Time `json:"created_at"`
	NumRecords int       `json:"num_records"`
	Symbols    []string  `json:"symbols"`
	FirstDate  string    `json:"first_date"`
	LastDate   string    `json:"last_date"`
}

// Writer collects the prices fetched during a run and writes them to a
// parquet file when closed. It is safe for concurrent use.
type Writer struct {
	dir  string
	name string

	mu      sync.Mutex
	records []*PriceRecord
	symbols map[string]bool
}

// NewWriter returns a writer that saves into dir; name identifies the run
// and is turned into the file name
func NewWriter(dir, name string) *Writer {
	return &Writer{
		dir:     dir,
		name:    name,
		symbols: make(map[string]bool),
	}
}

// Record adds prices of symbol to the archive
func (archive *Writer) Record(_ context.Context, owner data.Owner, symbol string, prices []data.DailyPrice) error {
	archive.mu.Lock()
	defer archive.mu.Unlock()

	for _, price := range prices {
		archive.records = append(archive.records, toRecord(owner, symbol, price))
	}

	archive.symbols[symbol] = true

	return nil
}

func (archive *Writer) Len() int {
	archive.mu.Lock()
	defer archive.mu.Unlock()

	return len(archive.records)
}

// Close writes the parquet file and its manifest and returns the path of the
// parquet file
func (archive *Writer) Close(ctx context.Context) (string, error) {
	archive.mu.Lock()
	defer archive.mu.Unlock()

	logger := zerolog.Ctx(ctx)

	if len(archive.records) == 0 {
		return "", ErrEmpty
	}

	if err := os.MkdirAll(archive.dir, 0755); err != nil {
		return "", err
	}

	sort.SliceStable(archive.records, func(i, j int) bool {
		if archive.records[i].Symbol != archive.records[j].Symbol {
			return archive.records[i].Symbol < archive.records[j].Symbol
		}

		return archive.records[i].DateStr < archive.records[j].DateStr
	})

	baseName := slug.Make(archive.name)
	parquetFn := filepath.Join(archive.dir, baseName+".parquet")

	logger.Info().Str("FileName", parquetFn).Int("NumRecords", len(archive.records)).Msg("writing price archive to parquet")

	if err := saveToParquet(ctx, archive.records, parquetFn); err != nil {
		return "", err
	}

	if err := archive.writeManifest(filepath.Join(archive.dir, baseName+".json"), filepath.Base(parquetFn)); err != nil {
		return "", err
	}

	return parquetFn, nil
}

func (archive *Writer) writeManifest(fn, parquetName string) error {
	manifest := Manifest{
		Name:       archive.name,
		FileName:   parquetName,
		CreatedAt:  time.Now().UTC(),
		NumRecords: len(archive.records),
		Symbols:    make([]string, 0, len(archive.symbols)),
		FirstDate:  archive.records[0].DateStr,
		LastDate:   archive.records[0].DateStr,
	}

	for symbol := range archive.symbols {
		manifest.Symbols = append(manifest.Symbols, symbol)
	}

	sort.Strings(manifest.Symbols)

	for _, record := range archive.records {
		if record.DateStr < manifest.FirstDate {
			manifest.FirstDate = record.DateStr
		}

		if record.DateStr > manifest.LastDate {
			manifest.LastDate = record.DateStr
		}
	}

	content, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(fn, content, 0644)
}

func saveToParquet(ctx context.Context, records []*PriceRecord, fn string) error {
	logger := zerolog.Ctx(ctx)

	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		logger.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(PriceRecord), 4)
	if err != nil {
		logger.Error().Err(err).Msg("parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, record := range records {
		if err = pw.Write(record); err != nil {
			logger.Error().Err(err).Str("Symbol", record.Symbol).Str("Date", record.DateStr).Msg("parquet write failed for record")
			return fmt.Errorf("write %s %s: %w", record.Symbol, record.DateStr, err)
		}
	}

	if err = pw.WriteStop(); err != nil {
		logger.Error().Err(err).Msg("parquet write failed")
		return err
	}

	logger.Info().Int("NumRecords", len(records)).Msg("parquet write finished")
	return nil
}

func toRecord(owner data.Owner, symbol string, price data.DailyPrice) *PriceRecord {
	record := &PriceRecord{
		Owner:         string(owner),
		Symbol:        symbol,
		DateStr:       price.Date.Format(data.DateLayout),
		Close:         price.Close.InexactFloat64(),
		AdjustedClose: price.AdjustedClose.InexactFloat64(),
	}

	if price.Open.Valid {
		open := price.Open.Decimal.InexactFloat64()
		record.Open = &open
	}

	if price.High.Valid {
		high := price.High.Decimal.InexactFloat64()
		record.High = &high
	}

	if price.Low.Valid {
		low := price.Low.Decimal.InexactFloat64()
		record.Low = &low
	}

	if price.Volume.Valid {
		volume := price.Volume.Int64
		record.Volume = &volume
	}

	return record
}
