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
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/normalize"
	"github.com/guregu/null/v6"
)

var (
	// ErrNoData is a valid empty answer: the provider has nothing for the symbol
	ErrNoData = errors.New("provider has no data")

	// ErrUnavailable means the provider could not be reached or failed
	ErrUnavailable = errors.New("provider unavailable")

	ErrProviderNotFound = errors.New("provider not found")
)

// Profile is the descriptive data a provider reports for a company
type Profile struct {
	Name   string
	Sector null.String
}

type PriceSource interface {
	// Prices returns the provider's daily OHLCV rows for symbol between
	// start and end, both inclusive
	Prices(ctx context.Context, symbol string, start, end time.Time) ([]normalize.Row, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, symbol string) (Profile, error)
}

type StatementSource interface {
	// Statements returns the annual statement tables reported for symbol
	Statements(ctx context.Context, symbol string) ([]normalize.StatementTable, normalize.StatementOptions, error)
}

// Provider supplies every kind of record the pipeline imports for one market
type Provider interface {
	PriceSource
	ProfileSource
	StatementSource
}

// Config holds the settings a provider is built with
type Config struct {
	// BaseURL overrides the provider's endpoint
	BaseURL string

	// RateLimit is the maximum number of requests per minute
	RateLimit int

	// Dir is the directory exports are read from
	Dir string

	// APIKey and APIHost select a RapidAPI hosted summary service for profiles
	APIKey  string
	APIHost string
}

// Registration describes a provider that can be selected in the configuration
type Registration struct {
	Name              string
	Description       string
	Country           data.Country
	ConfigDescription map[string]string
	New               func(Config) Provider
}

var Map = map[string]*Registration{
	"yahoo": {
		Name:        "yahoo",
		Country:     data.US,
		Description: `Daily prices and annual financial statements for US listed equities and indices from the Yahoo Finance chart and fundamentals time series endpoints.`,
		ConfigDescription: map[string]string{
			"yahoo.rate_limit":    "What is the maximum number of requests per minute?",
			"yahoo.rapidapi_key":  "Enter a RapidAPI key to read company sectors (optional):",
			"yahoo.rapidapi_host": "Which RapidAPI host serves the Yahoo summary?",
		},
		New: func(conf Config) Provider {
			return NewYahoo(conf)
		},
	},
	"exportdir": {
		Name:        "exportdir",
		Country:     data.KR,
		Description: `Reads Korean market exports from a local directory: daily OHLCV files with Korean column headers, wide DART financial statements, and dividends.`,
		ConfigDescription: map[string]string{
			"export.dir": "Which directory holds the exported files?",
		},
		New: func(conf Config) Provider {
			return NewExportDir(conf.Dir)
		},
	},
}

// New builds the provider registered under name
func New(name string, conf Config) (Provider, error) {
	reg, ok := Map[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}

	return reg.New(conf), nil
}

// Names returns the registered provider names in sorted order
func Names() []string {
	names := make([]string, 0, len(Map))
	for name := range Map {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
