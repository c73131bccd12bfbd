// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattermost/mattermost-server/v5/mlog"
)

type SQLStore struct {
	dbx   *sqlx.DB
	issue IssueStore

	schemaMu    sync.Mutex
	schemaReady int32
}

// NewSQLStore opens a MySQL store for dsn and brings its schema up to date.
// A database that cannot be reached is logged; the schema is then migrated
// by the first operation that finds the database up.
func NewSQLStore(dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlStore := &SQLStore{
		dbx: sqlx.NewDb(db, "mysql"),
	}
	sqlStore.issue = NewSQLIssueStore(sqlStore)

	mlog.Info("pinging db", mlog.String("database", cfg.DBName))
	if err := sqlStore.ensureSchema(context.Background()); err != nil {
		mlog.Error("could not prepare db, will retry on the next operation", mlog.Err(err))
	}

	return sqlStore, nil
}

// ensureSchema runs the migrations once the database answers. It succeeds
// at most once; failed attempts are retried by the next caller.
func (ss *SQLStore) ensureSchema(ctx context.Context) error {
	if atomic.LoadInt32(&ss.schemaReady) == 1 {
		return nil
	}

	ss.schemaMu.Lock()
	defer ss.schemaMu.Unlock()
	if atomic.LoadInt32(&ss.schemaReady) == 1 {
		return nil
	}

	if err := ss.dbx.PingContext(ctx); err != nil {
		return fmt.Errorf("could not ping db: %w", err)
	}
	if err := RunMigrations(ss.dbx.DB, 0); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}

	atomic.StoreInt32(&ss.schemaReady, 1)
	mlog.Info("db schema is up to date")
	return nil
}

func (ss *SQLStore) Issue() IssueStore {
	return ss.issue
}

// Ping reports the store healthy only once the schema is in place.
func (ss *SQLStore) Ping(ctx context.Context) error {
	if err := ss.ensureSchema(ctx); err != nil {
		return err
	}
	if err := ss.dbx.PingContext(ctx); err != nil {
		return fmt.Errorf("could not ping db: %w", err)
	}
	return nil
}

func (ss *SQLStore) Close(_ context.Context) error {
	mlog.Info("closing db")
	return ss.dbx.Close()
}

func (ss *SQLStore) finalizeTx(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		mlog.Debug("failed to rollback transaction", mlog.Err(err))
	}
}
