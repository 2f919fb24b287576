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
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockdata",
	Short: "stockdata keeps a database of US and Korean equity data up to date",
	Long: `stockdata is a command line utility for building and maintaining a
database of market benchmarks, listed companies, daily prices, and annual
financial statements for US and Korean equities.

Each run pulls records from the configured providers, converts them into a
single canonical shape, and reconciles them against what is already stored:

	* rows that are new are inserted
	* rows that changed are updated according to the configured policy
	* rows that are identical are skipped

Running the same import twice writes nothing the second time.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			log.Warn().Err(err).Str("Level", viper.GetString("log.level")).Msg("unknown log level, using info")
			level = zerolog.InfoLevel
		}

		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.DefaultContextLogger = &log.Logger

	viper.SetDefault("log.level", "info")
	viper.SetDefault("lists.dir", "lists")
	viper.SetDefault("providers.us", "yahoo")
	viper.SetDefault("providers.kr", "exportdir")
	viper.SetDefault("export.dir", "exports")
	viper.SetDefault("yahoo.rate_limit", 60)
	viper.SetDefault("yahoo.rapidapi_host", "yh-finance.p.rapidapi.com")
	viper.SetDefault("run.lookback_years", 5)
	viper.SetDefault("run.statement_years", 0)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stockdata.toml)")

	rootCmd.PersistentFlags().String("db-url", "", "database connection string (postgres://... or sqlite://...)")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}

	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a missing .env file is normal
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded environment from .env")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".stockdata" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".stockdata")
	}

	viper.SetEnvPrefix("stockdata")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
