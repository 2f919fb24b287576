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
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/rs/zerolog/log"
)

const Name = "stockdata"

var (
	BuildDate  string
	CommitHash string
	Version    string
)

// Info describes the running binary
type Info struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Deps      []string `json:"deps,omitempty"`
}

func version() string {
	if Version == "" {
		return "dev"
	}

	return Version
}

// Current returns the build info; deps are only collected when withDeps is set
func Current(withDeps bool) Info {
	info := Info{
		Name:      Name,
		Version:   version(),
		Commit:    CommitHash,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if withDeps {
		info.Deps = GetDependencyList()
	}

	return info
}

// BuildVersionString returns a version info string suitable for printing on the command line
func BuildVersionString() string {
	info := Current(false)

	return fmt.Sprintf(`%s %s %s

Build Date: %s
Commit: %s
Built with: %s`, info.Name, info.Version, info.Platform, info.BuildDate, info.Commit, info.GoVersion)
}

// UserAgent identifies stockdata to the services it reports to
func UserAgent() string {
	return fmt.Sprintf("%s/%s (+https://github.com/Donggyu-Kim1/stock-data)", Name, version())
}

// GetDependencyList returns an array of all dependencies linked in with this program
// each string is of the form `package="version"`
func GetDependencyList() []string {
	var deps []string

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return deps
	}

	for _, dep := range buildInfo.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}

	sort.Strings(deps)

	return deps
}
