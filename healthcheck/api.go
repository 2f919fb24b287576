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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Donggyu-Kim1/stock-data/pkginfo"
	"github.com/go-resty/resty/v2"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Signal is the state of a run reported to a check
type Signal string

const (
	Start   Signal = "start"
	Success Signal = ""
	Fail    Signal = "fail"
)

// Check reports the state of runs to a healthchecks.io ping url
type Check struct {
	PingURL string
	client  *resty.Client
}

func New(pingURL string) *Check {
	return &Check{
		PingURL: strings.TrimSuffix(pingURL, "/"),
		client:  resty.New().SetTimeout(10 * time.Second).SetRetryCount(2).SetHeader("User-Agent", pkginfo.UserAgent()),
	}
}

// Enabled reports whether a ping url is configured
func (check *Check) Enabled() bool {
	return check != nil && check.PingURL != ""
}

// Ping sends signal for the run identified by runID. The body is shown in the
// check's event log.
func (check *Check) Ping(ctx context.Context, signal Signal, runID string, body string) error {
	if !check.Enabled() {
		return nil
	}

	url := check.PingURL
	if signal != Success {
		url = fmt.Sprintf("%s/%s", url, signal)
	}

	resp, err := check.client.R().
		SetContext(ctx).
		SetQueryParam("rid", runID).
		SetBody(body).
		Post(url)
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
