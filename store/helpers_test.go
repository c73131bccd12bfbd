// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultMysqlDSN         = "issuetracker:issuetracker@tcp(localhost:3306)/issuetracker_test?charset=utf8mb4,utf8&readTimeout=30s&writeTimeout=30s"
	defaultMysqlRootUser    = "root"
	defaultMysqlRootUserPWD = "root"
	defaultMysqlUser        = "issuetracker"
	defaultMysqlUserPWD     = "issuetracker"
	defaultMongoURI         = "mongodb://localhost:27017"
)

// getTestSQLStore creates a temporary database, migrated to the latest
// version. The test is skipped when no MySQL server is reachable.
func getTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	dbName := newTestDBName()
	createTempDB(t, dbName, getEnv("MYSQL_USER", defaultMysqlUser))
	t.Log("created temporary database")

	ss, err := NewSQLStore(testSQLDSN(t, dbName))
	if err != nil {
		t.Fatal(err)
	}
	closeOnCleanup(t, ss)

	return ss
}

func newTestDBName() string {
	return "issuetracker_test_" + primitive.NewObjectID().Hex()
}

// testSQLDSN points the test user at dbName, which may not exist yet.
func testSQLDSN(t *testing.T, dbName string) string {
	cfg, err := mysql.ParseDSN(defaultMysqlDSN)
	if err != nil {
		t.Fatal(err)
	}

	cfg.User = getEnv("MYSQL_USER", defaultMysqlUser)
	cfg.Passwd = getEnv("MYSQL_PASSWORD", defaultMysqlUserPWD)
	cfg.DBName = dbName
	return cfg.FormatDSN()
}

func closeOnCleanup(t *testing.T, ss *SQLStore) {
	t.Cleanup(func() {
		if err := ss.Close(context.Background()); err != nil {
			t.Fatal(err)
		}
		t.Log("destroyed temporary database")
	})
}

func createTempDB(t *testing.T, dbName, dbUser string) {
	rootUser := getEnv("MYSQL_ROOT_USER", defaultMysqlRootUser)
	rootPwd := getEnv("MYSQL_ROOT_PASSWORD", defaultMysqlRootUserPWD)
	cfg, err := mysql.ParseDSN(defaultMysqlDSN)
	if err != nil {
		t.Fatal(err)
	}

	cfg.User = rootUser
	cfg.Passwd = rootPwd
	cfg.DBName = "mysql"

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("mysql is not reachable: %v", err)
	}

	t.Cleanup(func() {
		if _, err2 := db.Exec(fmt.Sprintf("DROP DATABASE %s", dbName)); err2 != nil {
			panic(fmt.Sprintf("failed to drop temporary database: %s", err2))
		}
		db.Close()
	})

	if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Fatal(err)
	}

	if _, err = db.Exec(fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO '%s'", dbName, dbUser)); err != nil {
		t.Fatal(err)
	}
}

// getTestMongoStore returns a store on a throwaway database. The test is
// skipped when no MongoDB server is reachable.
func getTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbName := newTestDBName()
	ms, err := NewMongoStore(ctx, getEnv("MONGO_URI", defaultMongoURI), dbName)
	if err != nil {
		t.Fatal(err)
	}
	// The uri may name its own database, the test one must win.
	ms.database = ms.client.Database(dbName)

	if err = ms.Ping(ctx); err != nil {
		_ = ms.Close(context.Background())
		t.Skipf("mongodb is not reachable: %v", err)
	}

	t.Cleanup(func() {
		if err := ms.database.Drop(context.Background()); err != nil {
			t.Error(err)
		}
		if err := ms.Close(context.Background()); err != nil {
			t.Error(err)
		}
	})

	return ms
}

func getEnv(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}
