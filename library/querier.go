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
	"database/sql"
	"errors"
	"time"

	"github.com/Donggyu-Kim1/stock-data/data"
	"github.com/Donggyu-Kim1/stock-data/reconcile"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// querier runs queries written with ? placeholders against either backend.
// A query matching no row returns reconcile.ErrNotFound.
type querier interface {
	get(ctx context.Context, dest any, query string, args ...any) error
	selectAll(ctx context.Context, dest any, query string, args ...any) error
	exec(ctx context.Context, query string, args ...any) error
	insertID(ctx context.Context, query string, args ...any) (int64, error)
}

// pgConn is satisfied by both *pgxpool.Pool and pgx.Tx
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgQuerier struct {
	conn pgConn
}

func (q pgQuerier) get(ctx context.Context, dest any, query string, args ...any) error {
	err := pgxscan.Get(ctx, q.conn, dest, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if pgxscan.NotFound(err) {
		return reconcile.ErrNotFound
	}

	return err
}

func (q pgQuerier) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return pgxscan.Select(ctx, q.conn, dest, sqlx.Rebind(sqlx.DOLLAR, query), args...)
}

func (q pgQuerier) exec(ctx context.Context, query string, args ...any) error {
	_, err := q.conn.Exec(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	return err
}

func (q pgQuerier) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := q.conn.QueryRow(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...).Scan(&id)
	return id, err
}

// sqlxConn is satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxConn interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

type sqliteQuerier struct {
	conn sqlxConn
}

func (q sqliteQuerier) get(ctx context.Context, dest any, query string, args ...any) error {
	err := q.conn.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return reconcile.ErrNotFound
	}

	return err
}

func (q sqliteQuerier) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return q.conn.SelectContext(ctx, dest, query, args...)
}

func (q sqliteQuerier) exec(ctx context.Context, query string, args ...any) error {
	_, err := q.conn.ExecContext(ctx, query, args...)
	return err
}

func (q sqliteQuerier) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := q.conn.QueryRowxContext(ctx, query, args...).Scan(&id)
	return id, err
}

func (myLibrary *Library) querier() querier {
	if myLibrary.Pool != nil {
		return pgQuerier{conn: myLibrary.Pool}
	}

	return sqliteQuerier{conn: myLibrary.DB}
}

// Begin opens a batch backed by a database transaction
func (myLibrary *Library) Begin(ctx context.Context) (reconcile.Batch, error) {
	switch {
	case myLibrary.Pool != nil:
		tx, err := myLibrary.Pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		return &batch{
			q: pgQuerier{conn: tx},
			commit: func(ctx context.Context) error {
				return closedErr(tx.Commit(ctx))
			},
			rollback: func(ctx context.Context) error {
				return closedErr(tx.Rollback(ctx))
			},
		}, nil

	case myLibrary.DB != nil:
		tx, err := myLibrary.DB.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}

		return &batch{
			q: sqliteQuerier{conn: tx},
			commit: func(context.Context) error {
				return closedErr(tx.Commit())
			},
			rollback: func(context.Context) error {
				return closedErr(tx.Rollback())
			},
		}, nil

	default:
		return nil, ErrNotConnected
	}
}

// closedErr maps the driver's transaction-closed error to reconcile.ErrBatchClosed
func closedErr(err error) error {
	if errors.Is(err, pgx.ErrTxClosed) || errors.Is(err, sql.ErrTxDone) {
		return reconcile.ErrBatchClosed
	}

	return err
}

func day(dt time.Time) string {
	return dt.Format(data.DateLayout)
}

func numeric(val decimal.Decimal) string {
	return val.String()
}

func nullNumeric(val decimal.NullDecimal) any {
	if !val.Valid {
		return nil
	}

	return val.Decimal.String()
}
