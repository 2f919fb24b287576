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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	name := myLibrary.Name
	if name == "" {
		name = "Stock Data Library"
	}

	builder.WriteString(fmt.Sprintf("# %s\n", name))
	builder.WriteString("## Details\n\n")

	if myLibrary.Owner != "" {
		builder.WriteString(fmt.Sprintf("Owner: %s\n\n", myLibrary.Owner))
	}

	// Database connection string
	builder.WriteString(fmt.Sprintf("Database: %s (%s)\n\n", redact(myLibrary.DBUrl), myLibrary.Dialect))

	// Last price dates
	for _, owner := range []data.Owner{data.BenchmarkOwner, data.CompanyOwner} {
		latest, err := myLibrary.LatestPriceDate(ctx, owner)
		if err != nil {
			return "", err
		}

		label := fmt.Sprintf("Last %s price", owner)
		if !latest.Valid {
			builder.WriteString(fmt.Sprintf("%s: Never\n\n", label))
			continue
		}

		lastDate, err := time.Parse(data.DateLayout, latest.String[:min(len(latest.String), len(data.DateLayout))])
		if err != nil {
			return "", err
		}

		builder.WriteString(fmt.Sprintf("%s: %s (%s)\n\n", label, timeago.English.Format(lastDate), lastDate.Format("01/02/2006")))
	}

	// Tables
	builder.WriteString("## Tables\n\n")

	for _, tbl := range data.Tables {
		count, err := myLibrary.Count(ctx, tbl.Name)
		if err != nil {
			return "", err
		}

		note := ""
		if tbl.Placeholder {
			note = " (not populated by imports)"
		}

		builder.WriteString(p.Sprintf("  * %s: %d rows%s\n", tbl.Description, count, note))
	}

	// Benchmarks
	builder.WriteString("\n## Benchmarks\n\n")

	benchmarks, err := myLibrary.Benchmarks(ctx)
	if err != nil {
		return "", err
	}

	for _, bench := range benchmarks {
		builder.WriteString(fmt.Sprintf("  * %s `%s` [%s]\n", bench.Name, bench.Symbol, bench.Country))
	}

	return builder.String(), nil
}
