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
package db

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*
var migrationFS embed.FS

// Migrate runs the postgres migrations against databaseURL, which must use
// the pgx5:// scheme
func Migrate(databaseURL string) error {
	migrationDir, err := iofs.New(migrationFS, "migrations/postgres")
	if err != nil {
		return err
	}

	migration, err := migrate.NewWithSourceInstance("iofs", migrationDir, databaseURL)
	if err != nil {
		return err
	}
	defer migration.Close()

	return up(migration)
}

// MigrateSQLite runs the sqlite migrations on an open database. The database
// stays open afterwards.
func MigrateSQLite(sqliteDB *sql.DB) error {
	migrationDir, err := iofs.New(migrationFS, "migrations/sqlite")
	if err != nil {
		return err
	}

	driver, err := sqlite.WithInstance(sqliteDB, &sqlite.Config{})
	if err != nil {
		return err
	}

	migration, err := migrate.NewWithInstance("iofs", migrationDir, "sqlite", driver)
	if err != nil {
		return err
	}

	return up(migration)
}

func up(migration *migrate.Migrate) error {
	err := migration.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug().Msg("database schema is up to date")
		return nil
	}

	if err == nil {
		version, dirty, verr := migration.Version()
		if verr == nil {
			log.Info().Uint("Version", version).Bool("Dirty", dirty).Msg("migrated database schema")
		}
	}

	return err
}
