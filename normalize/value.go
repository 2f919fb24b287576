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
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
)

// Row is a single provider row keyed by the provider's column label
type Row map[string]string

// Get returns the value of the first column whose label matches one of
// names, ignoring case and surrounding whitespace
func (row Row) Get(names ...string) (string, bool) {
	for _, name := range names {
		for label, val := range row {
			if strings.EqualFold(strings.TrimSpace(label), name) {
				return val, true
			}
		}
	}

	return "", false
}

// missing sentinels providers use for a value they do not have
var missing = map[string]bool{
	"":     true,
	"-":    true,
	"--":   true,
	"nan":  true,
	"nat":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"inf":  true,
	"-inf": true,
}

// Value parses a numeric cell. Missing sentinels and unparsable text are
// returned as an absent value. Thousands separators are ignored and an
// accounting style "(123)" is read as a negative number.
func Value(text string) decimal.NullDecimal {
	text = strings.TrimSpace(text)
	if missing[strings.ToLower(text)] {
		return decimal.NullDecimal{}
	}

	text = strings.ReplaceAll(text, ",", "")

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}

	val, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}
	}

	if negative {
		val = val.Neg()
	}

	return decimal.NewNullDecimal(val)
}

// Int parses a numeric cell and rounds it to a whole number
func Int(text string) null.Int {
	val := Value(text)
	if !val.Valid {
		return null.Int{}
	}

	return null.IntFrom(val.Decimal.Round(0).IntPart())
}

var dateLayouts = []string{
	data.DateLayout,
	"20060102",
	"2006/01/02",
	"2006.01.02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Date parses a calendar date in any of the layouts providers emit. The
// result is midnight UTC of that day.
func Date(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, text); err == nil {
			return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrMalformedRecord, text)
}
