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
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrUnknownPolicy = errors.New("unknown reconciliation policy")
)

// Policy decides what happens to an incoming record whose natural key is
// already stored
type Policy string

const (
	// InsertOnly never overwrites a stored row
	InsertOnly Policy = "insert-only"
	// FieldDiff overwrites a stored row only when designated fields differ
	FieldDiff Policy = "field-diff"
	// AlwaysRefresh overwrites a stored row unconditionally
	AlwaysRefresh Policy = "always-refresh"
)

func ParsePolicy(name string) (Policy, error) {
	switch policy := Policy(strings.ToLower(strings.TrimSpace(name))); policy {
	case InsertOnly, FieldDiff, AlwaysRefresh:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Policies holds the policy of every entity type
type Policies struct {
	Benchmark      Policy
	Company        Policy
	BenchmarkPrice Policy
	StockPrice     Policy
	Financial      Policy
}

// DefaultPolicies refreshes descriptive rows, updates prices when the close
// or volume moved and never overwrites a stored financial statement
func DefaultPolicies() Policies {
	return Policies{
		Benchmark:      AlwaysRefresh,
		Company:        AlwaysRefresh,
		BenchmarkPrice: FieldDiff,
		StockPrice:     FieldDiff,
		Financial:      InsertOnly,
	}
}

// PoliciesFromMap overrides the defaults with the entries of cfg. Recognized
// keys are benchmark, company, benchmark_price, stock_price and financial.
func PoliciesFromMap(cfg map[string]string) (Policies, error) {
	policies := DefaultPolicies()
	targets := map[string]*Policy{
		"benchmark":       &policies.Benchmark,
		"company":         &policies.Company,
		"benchmark_price": &policies.BenchmarkPrice,
		"stock_price":     &policies.StockPrice,
		"financial":       &policies.Financial,
	}

	for key, val := range cfg {
		target, ok := targets[strings.ToLower(key)]
		if !ok {
			return Policies{}, fmt.Errorf("%w: no entity type %q", ErrUnknownPolicy, key)
		}

		policy, err := ParsePolicy(val)
		if err != nil {
			return Policies{}, err
		}

		*target = policy
	}

	return policies, nil
}

// WithDefaults returns policies with every unset entity type taken from
// DefaultPolicies
func (policies Policies) WithDefaults() Policies {
	defaults := DefaultPolicies()
	for _, pair := range []struct{ target, fallback *Policy }{
		{&policies.Benchmark, &defaults.Benchmark},
		{&policies.Company, &defaults.Company},
		{&policies.BenchmarkPrice, &defaults.BenchmarkPrice},
		{&policies.StockPrice, &defaults.StockPrice},
		{&policies.Financial, &defaults.Financial},
	} {
		if *pair.target == "" {
			*pair.target = *pair.fallback
		}
	}

	return policies
}

func (policies Policies) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Benchmark", string(policies.Benchmark)).
		Str("Company", string(policies.Company)).
		Str("BenchmarkPrice", string(policies.BenchmarkPrice)).
		Str("StockPrice", string(policies.StockPrice)).
		Str("Financial", string(policies.Financial))
}

// Action is the outcome of reconciling one record
type Action string

const (
	Insert Action = "insert"
	Update Action = "update"
	Skip   Action = "skip"
	Reject Action = "reject"
)

// Decide is the reconciliation state machine for a record whose required
// references are resolved. A new key is inserted; a stored key is updated or
// skipped according to policy and whether the designated fields changed.
func Decide(policy Policy, exists, changed bool) Action {
	if !exists {
		return Insert
	}

	switch policy {
	case AlwaysRefresh:
		return Update
	case FieldDiff:
		if changed {
			return Update
		}
		return Skip
	default:
		return Skip
	}
}
