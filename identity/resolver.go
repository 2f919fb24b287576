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
	"sort"

	"github.com/Donggyu-Kim1/stock-data/data"
)

// Rule assigns Benchmark to every symbol Match accepts
type Rule struct {
	Name      string
	Market    data.Country
	Benchmark string
	Match     func(symbol string) bool
}

// Resolver classifies symbols by evaluating its rules in order; the first
// matching rule decides the benchmark. Rules and lists are read-only once
// the resolver is built.
type Resolver struct {
	rules []Rule
	lists []*MembershipList
}

// NewResolver builds a resolver with one membership rule per list. The order
// of lists is the priority order.
func NewResolver(lists ...*MembershipList) *Resolver {
	resolver := &Resolver{
		rules: make([]Rule, 0, len(lists)),
		lists: lists,
	}

	for _, list := range lists {
		resolver.rules = append(resolver.rules, Rule{
			Name:      list.Name,
			Market:    list.Market,
			Benchmark: list.Benchmark,
			Match:     list.Contains,
		})
	}

	return resolver
}

// Load reads every list in specs from dir and returns a resolver with the
// lists in the order given
func Load(dir string, specs []ListSpec) (*Resolver, error) {
	lists := make([]*MembershipList, 0, len(specs))
	for _, spec := range specs {
		list, err := LoadList(dir, spec)
		if err != nil {
			return nil, err
		}

		lists = append(lists, list)
	}

	return NewResolver(lists...), nil
}

func (resolver *Resolver) Rules() []Rule {
	return resolver.rules
}

// Resolve returns the benchmark symbol of the first rule that matches symbol.
// Symbols outside the ticker alphabet never resolve.
func (resolver *Resolver) Resolve(symbol string) (string, bool) {
	if !ValidSymbol(symbol) {
		return "", false
	}

	for _, rule := range resolver.rules {
		if rule.Match(symbol) {
			return rule.Benchmark, true
		}
	}

	return "", false
}

// Entry merges what the lists know about symbol. The name and sector come
// from the highest priority list that has a value for them.
func (resolver *Resolver) Entry(symbol string) (Entry, bool) {
	merged := Entry{Symbol: symbol}
	found := false

	for _, list := range resolver.lists {
		entry, ok := list.Entries[symbol]
		if !ok {
			continue
		}

		found = true
		if merged.Name == "" {
			merged.Name = entry.Name
		}
		if !merged.Sector.Valid && entry.Sector.Valid {
			merged.Sector = entry.Sector
		}
	}

	return merged, found
}

// Profile describes symbol as an incoming company. Benchmark is empty when
// no rule matches.
func (resolver *Resolver) Profile(symbol string, market data.Country) data.CompanyProfile {
	entry, _ := resolver.Entry(symbol)
	benchmark, _ := resolver.Resolve(symbol)

	name := entry.Name
	if name == "" {
		name = symbol
	}

	return data.CompanyProfile{
		Symbol:    symbol,
		Name:      name,
		Country:   market,
		Sector:    entry.Sector,
		Benchmark: benchmark,
	}
}

// Universe returns the sorted symbols of every list of market
func (resolver *Resolver) Universe(market data.Country) []string {
	seen := make(map[string]bool)
	for _, list := range resolver.lists {
		if list.Market != market {
			continue
		}

		for symbol := range list.Entries {
			seen[symbol] = true
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)
	return symbols
}
