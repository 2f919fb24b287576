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
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Donggyu-Kim1/stock-data/identity"
	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xeonx/timeago"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage the membership lists that decide which companies are imported",
	Long: `Membership lists are CSV files in lists.dir with a symbol, name, and
sector column. A company's benchmark is the benchmark of the first list that
contains it, in this order:

    S&P 500, NASDAQ, NYSE, KOSPI, KOSDAQ`,
}

var listsRefreshCmd = &cobra.Command{
	Use:   "refresh [list...]",
	Short: "Download the current members of each list",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		dir := viper.GetString("lists.dir")

		sources := provider.ListSources(provider.ListURLs{
			Constituents: viper.GetString("lists.urls.constituents"),
			NasdaqTrader: viper.GetString("lists.urls.nasdaqtrader"),
			KRX:          viper.GetString("lists.urls.krx"),
		})

		selected := make(map[string]bool, len(args))
		for _, name := range args {
			selected[strings.ToUpper(name)] = true
		}

		failed := 0
		for _, spec := range identity.DefaultListSpecs {
			if len(selected) > 0 && !selected[strings.ToUpper(spec.Name)] {
				continue
			}

			logger := log.With().Str("List", spec.Name).Logger()

			src, ok := sources[spec.Name]
			if !ok {
				logger.Warn().Msg("no source for list")
				continue
			}

			entries, err := src.Members(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("could not download list members")
				failed++
				continue
			}

			fn := filepath.Join(dir, spec.FileName)
			if err := identity.SaveList(fn, entries); err != nil {
				logger.Error().Err(err).Str("FileName", fn).Msg("could not save list")
				failed++
				continue
			}

			logger.Info().Int("NumMembers", len(entries)).Str("FileName", fn).Msg("saved list")
		}

		if failed > 0 {
			os.Exit(1)
		}
	},
}

var listsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the number of members of each list",
	Run: func(cmd *cobra.Command, args []string) {
		dir := viper.GetString("lists.dir")

		builder := strings.Builder{}
		builder.WriteString("# Membership Lists\n\n")
		builder.WriteString("| List | Market | Benchmark | Members | Updated |\n")
		builder.WriteString("|---|---|---|---|---|\n")

		for _, spec := range identity.DefaultListSpecs {
			list, err := identity.LoadList(dir, spec)
			if err != nil {
				log.Fatal().Err(err).Str("List", spec.Name).Msg("could not read list")
			}

			updated := "never"
			if info, err := os.Stat(filepath.Join(dir, spec.FileName)); err == nil {
				updated = timeago.English.Format(info.ModTime())
			}

			builder.WriteString(fmt.Sprintf("| %s | %s | `%s` | %d | %s |\n", spec.Name, spec.Market, spec.Benchmark, len(list.Entries), updated))
		}

		fmt.Print(render(builder.String()))
	},
}

func init() {
	rootCmd.AddCommand(listsCmd)
	listsCmd.AddCommand(listsRefreshCmd)
	listsCmd.AddCommand(listsShowCmd)
}
