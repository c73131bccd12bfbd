// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mattermost/mattermost-issuetracker/store/migrations"
)

// RunMigrations migrates db to version, or all the way up when version is not
// positive.
func RunMigrations(db *sql.DB, version int) error {
	// Create database driver
	dbDriver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	// Create source driver
	srcDriver, err := iofs.New(migrations.Assets, ".")
	if err != nil {
		return fmt.Errorf("failed to create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "mysql", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create db instance: %w", err)
	}

	if version > 0 {
		err = m.Migrate(uint(version))
	} else {
		err = m.Up()
	}
	// A missing file means the database is ahead of this binary, which happens
	// after rolling back code without running down migrations.
	if err != nil && !errors.Is(err, migrate.ErrNoChange) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to run migration: %w", err)
	}
	return nil
}
