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
package data

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places prices are stored with
const PriceScale = 2

// Owner says which table a daily price belongs to
type Owner string

const (
	CompanyOwner   Owner = "company"
	BenchmarkOwner Owner = "benchmark"
)

// PriceKey is the natural key of a daily price: one row per owner per day
type PriceKey struct {
	Owner   Owner
	OwnerID int64
	Date    time.Time
}

func (key PriceKey) String() string {
	return fmt.Sprintf("%s/%d/%s", key.Owner, key.OwnerID, key.Date.Format(DateLayout))
}

// DailyPrice is one trading day of OHLCV data. Close and AdjustedClose are
// always present; the remaining fields may be absent.
type DailyPrice struct {
	Owner   Owner     `db:"-"`
	OwnerID int64     `db:"-"`
	Date    time.Time `db:"-"`

	Open          decimal.NullDecimal `db:"open_price"`
	High          decimal.NullDecimal `db:"high_price"`
	Low           decimal.NullDecimal `db:"low_price"`
	Close         decimal.Decimal     `db:"close_price"`
	AdjustedClose decimal.Decimal     `db:"adjusted_close_price"`
	Volume        null.Int            `db:"volume"`
}

func (price DailyPrice) Key() PriceKey {
	return PriceKey{
		Owner:   price.Owner,
		OwnerID: price.OwnerID,
		Date:    price.Date,
	}
}

// QuoteChanged compares the fields that decide whether a stored price is
// stale: the close and the traded volume.
func (price DailyPrice) QuoteChanged(stored DailyPrice) bool {
	return !price.Close.Equal(stored.Close) || price.Volume != stored.Volume
}

func (price DailyPrice) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Owner", string(price.Owner)).
		Int64("OwnerID", price.OwnerID).
		Str("Date", price.Date.Format(DateLayout)).
		Str("Close", price.Close.String())
	if price.Volume.Valid {
		e.Int64("Volume", price.Volume.Int64)
	}
}
