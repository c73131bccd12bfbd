// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"flag"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/mattermost/mattermost-server/v5/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-issuetracker/server"
	"github.com/mattermost/mattermost-issuetracker/store"
)

const mysqlScheme = "mysql://"

var migrateVersion int

func init() {
	flag.IntVar(&migrateVersion, "migration_version", 0, "Specify the target version to migrate to. Zero migrates all the way up.")
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		mlog.Warn("unable to load .env file", mlog.Err(err))
	}

	config, err := server.GetConfig()
	if err != nil {
		mlog.Error("unable to load server config", mlog.Err(err))
		os.Exit(1)
	}
	if err = server.SetupLogging(config); err != nil {
		mlog.Error("unable to configure logging", mlog.Err(err))
		os.Exit(1)
	}

	if err = runMigrations(config.DBURI, migrateVersion); err != nil {
		mlog.Error("Failed to run migrations", mlog.Err(err))
		os.Exit(1)
	}
	mlog.Info("Migrations applied", mlog.Int("version", migrateVersion))
}

// runMigrations only applies to the relational backend, the document
// backend has no schema.
func runMigrations(uri string, version int) error {
	if version < 0 {
		return errors.Errorf("invalid migration version: %d", version)
	}
	if !strings.HasPrefix(uri, mysqlScheme) {
		return errors.New("migrations need a mysql:// DB_URI")
	}

	cfg, err := mysql.ParseDSN(strings.TrimPrefix(uri, mysqlScheme))
	if err != nil {
		return errors.Wrap(err, "invalid mysql data source")
	}

	db, err := sqlx.Connect("mysql", cfg.FormatDSN())
	if err != nil {
		return errors.Wrap(err, "failed to connect to the database")
	}
	defer db.Close()

	return store.RunMigrations(db.DB, version)
}
