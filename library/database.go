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
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Donggyu-Kim1/stock-data/db"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	ErrUnsupportedDatabase = errors.New("unsupported database url")
	ErrNotConnected        = errors.New("library is not connected")
)

// Dialect is the SQL flavor of the library database
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectOf returns the dialect dbURL connects to and the data source name
// the matching driver expects
func DialectOf(dbURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return Postgres, dbURL, nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		return SQLite, strings.TrimPrefix(dbURL, "sqlite://"), nil
	case strings.HasPrefix(dbURL, "file:"):
		return SQLite, dbURL, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDatabase, dbURL)
	}
}

// Library is a handle to the database the import pipeline writes into. It
// implements reconcile.Store.
type Library struct {
	DBUrl string `toml:"url"`
	Name  string `toml:"-"`
	Owner string `toml:"-"`

	Dialect Dialect `toml:"-"`

	Pool *pgxpool.Pool `toml:"-"`
	DB   *sqlx.DB      `toml:"-"`
}

var _ reconcile.Store = (*Library)(nil)

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil || myLibrary.DB != nil {
		return nil
	}

	dialect, dsn, err := DialectOf(myLibrary.DBUrl)
	if err != nil {
		return err
	}

	myLibrary.Dialect = dialect

	switch dialect {
	case Postgres:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		myLibrary.Pool = pool
	case SQLite:
		sqliteDB, err := sqlx.Open("sqlite", dsn)
		if err != nil {
			return err
		}

		// sqlite serializes writers; a single connection also keeps an
		// in-memory database alive for the lifetime of the handle
		sqliteDB.SetMaxOpenConns(1)

		if _, err := sqliteDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			sqliteDB.Close()
			return err
		}

		myLibrary.DB = sqliteDB
	}

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
		myLibrary.Pool = nil
	}

	if myLibrary.DB != nil {
		if err := myLibrary.DB.Close(); err != nil {
			log.Error().Err(err).Msg("could not close sqlite database")
		}
		myLibrary.DB = nil
	}
}

// Migrate brings the library schema up to date
func (myLibrary *Library) Migrate() error {
	switch myLibrary.Dialect {
	case Postgres:
		return db.Migrate(strings.Replace(strings.Replace(myLibrary.DBUrl, "postgresql://", "pgx5://", 1), "postgres://", "pgx5://", 1))
	case SQLite:
		return db.MigrateSQLite(myLibrary.DB.DB)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDatabase, myLibrary.DBUrl)
	}
}

// New connects to the library at dbURL
func New(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary := &Library{DBUrl: dbURL}
	if err := myLibrary.Connect(ctx); err != nil {
		return nil, err
	}

	return myLibrary, nil
}

// NewFromDB connects to the library at dbURL and loads its name and owner
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary, err := New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	var info struct {
		Name  string `db:"name"`
		Owner string `db:"owner"`
	}

	q := myLibrary.querier()
	if err := q.get(ctx, &info, "SELECT name, owner FROM library LIMIT 1"); err != nil {
		if !errors.Is(err, reconcile.ErrNotFound) {
			myLibrary.Close()
			return nil, err
		}

		log.Warn().Str("DBUrl", redact(dbURL)).Msg("library has no name, run init to set one")
	}

	myLibrary.Name = info.Name
	myLibrary.Owner = info.Owner

	return myLibrary, nil
}

// SaveDB creates a new record in the library table for this library
func (myLibrary *Library) SaveDB(ctx context.Context) error {
	q := myLibrary.querier()
	return q.exec(ctx, "INSERT INTO library (name, owner) VALUES (?, ?)", myLibrary.Name, myLibrary.Owner)
}

// redact hides the password of a database url
func redact(dbURL string) string {
	schemeEnd := strings.Index(dbURL, "://")
	at := strings.LastIndex(dbURL, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return dbURL
	}

	userinfo := dbURL[schemeEnd+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dbURL[:schemeEnd+3] + userinfo[:colon] + ":xxxxx" + dbURL[at:]
	}

	return dbURL
}
