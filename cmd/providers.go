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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Donggyu-Kim1/stock-data/provider"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers <name>",
	Short: "List all providers available or get details about a specific provider",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		builder := strings.Builder{}

		if len(args) > 0 {
			reg, ok := provider.Map[args[0]]
			if !ok {
				fmt.Printf("Provider '%s' doesn't exist.\n", args[0])
				fmt.Println("Run `stockdata providers` for a complete list of available providers")
				os.Exit(1)
			}

			builder.WriteString(fmt.Sprintf("# %s (%s)\n", reg.Name, reg.Country))
			builder.WriteString(reg.Description)
			builder.WriteString("\n\n## Configuration\n")

			keys := make([]string, 0, len(reg.ConfigDescription))
			for key := range reg.ConfigDescription {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				builder.WriteString(fmt.Sprintf("- `%s`: %s\n", key, reg.ConfigDescription[key]))
			}
		} else {
			builder.WriteString("# Available Providers\n")
			for _, name := range provider.Names() {
				reg := provider.Map[name]
				inUse := ""
				if viper.GetString("providers."+strings.ToLower(string(reg.Country))) == name {
					inUse = " *in use*"
				}

				builder.WriteString(fmt.Sprintf("\n## %s (%s)%s\n", reg.Name, reg.Country, inUse))
				builder.WriteString(reg.Description)
				builder.WriteString("\n")
			}
		}

		fmt.Print(render(builder.String()))
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
