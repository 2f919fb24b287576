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
	"os"
	"path/filepath"

	"github.com/Donggyu-Kim1/stock-data/library"
	"github.com/Donggyu-Kim1/stock-data/pipeline"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type configFile struct {
	DB    *library.Library `toml:"db"`
	Lists struct {
		Dir string `toml:"dir"`
	} `toml:"lists"`
	Providers map[string]string `toml:"providers"`
}

func validateDBUrl(dbURL string) error {
	dialect, dsn, err := library.DialectOf(dbURL)
	if err != nil {
		return err
	}

	if dialect == library.Postgres {
		_, err = pgx.ParseConfig(dsn)
	}

	return err
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration, setup schema, and seed benchmarks",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := &library.Library{
			DBUrl: viper.GetString("db.url"),
		}

		groups := []*huh.Group{
			// Gather details about the library and who owns it
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&myLibrary.Name),

				huh.NewInput().
					Title("Who owns the library?").
					Value(&myLibrary.Owner),
			),
		}

		if myLibrary.DBUrl == "" {
			groups = append(groups, huh.NewGroup(
				huh.NewInput().
					Title("Provide the database URL (postgres://[user[:password]@][netloc][:port][/dbname] or sqlite://path/to/file.db)").
					Value(&myLibrary.DBUrl).
					Validate(validateDBUrl),
			))
		} else if err := validateDBUrl(myLibrary.DBUrl); err != nil {
			log.Fatal().Err(err).Msg("invalid database url")
		}

		err := huh.NewForm(groups...).Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		log.Info().Msg("creating database tables")

		if err := myLibrary.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")
		log.Info().Msg("Saving library name and owner to database")

		if err := myLibrary.SaveDB(ctx); err != nil {
			log.Fatal().Err(err).Msg("error saving library settings to database")
		}

		policies, err := reconcile.PoliciesFromMap(viper.GetStringMapString("reconcile.policy"))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid reconcile policy")
		}

		summary, err := pipeline.New(myLibrary, nil, pipeline.Options{Policies: policies}).SeedBenchmarks(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not seed benchmarks")
		}

		log.Info().Object("Summary", summary).Msg("benchmarks seeded")

		// save database settings to config file
		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}

			configFN = filepath.Join(home, ".stockdata.toml")
		}

		conf := configFile{
			DB: myLibrary,
			Providers: map[string]string{
				"us": viper.GetString("providers.us"),
				"kr": viper.GetString("providers.kr"),
			},
		}
		conf.Lists.Dir = viper.GetString("lists.dir")

		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(conf)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your data library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
