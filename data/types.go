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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownCountry = errors.New("unknown country code")
)

// Country identifies the market a company or benchmark trades in
type Country string

const (
	US Country = "US"
	KR Country = "KR"
)

// ParseCountry returns the country for a case-insensitive code
func ParseCountry(code string) (Country, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "US", "USA":
		return US, nil
	case "KR", "KOR", "KOREA":
		return KR, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCountry, code)
	}
}

const DateLayout = "2006-01-02"

// Stage names one step of an import run
type Stage string

const (
	BenchmarkStage      Stage = "benchmarks"
	CompanyStage        Stage = "companies"
	BenchmarkPriceStage Stage = "benchmark-prices"
	StockPriceStage     Stage = "stock-prices"
	FinancialStage      Stage = "financials"
)

// Stages lists every stage in the order a full run executes them
var Stages = []Stage{BenchmarkStage, CompanyStage, BenchmarkPriceStage, StockPriceStage, FinancialStage}

// RunSummary records the result of running one stage
type RunSummary struct {
	ID        uuid.UUID
	Stage     Stage
	StartTime time.Time
	EndTime   time.Time

	// Entities is the number of upstream entities (companies or benchmarks) visited
	Entities int
	// Failed counts entities whose batch was rolled back or whose fetch failed
	Failed int

	Inserted int
	Updated  int
	Skipped  int
	Rejected int
}

func (summary RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.ID.String()).
		Str("Stage", string(summary.Stage)).
		Dur("Elapsed", summary.EndTime.Sub(summary.StartTime)).
		Int("Entities", summary.Entities).
		Int("Failed", summary.Failed).
		Int("Inserted", summary.Inserted).
		Int("Updated", summary.Updated).
		Int("Skipped", summary.Skipped).
		Int("Rejected", summary.Rejected)
}
