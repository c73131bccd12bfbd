// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"fmt"

	"github.com/mattermost/mattermost-server/v5/mlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	defaultMongoDatabase = "issuetracker"
	issuesCollection     = "issues"
)

type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	issue    IssueStore
}

// NewMongoStore builds a client for uri. The driver connects in the
// background, reconnecting on its own when the server comes back.
func NewMongoStore(ctx context.Context, uri, databaseName string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb uri: %w", err)
	}
	if cs.Database != "" {
		databaseName = cs.Database
	}
	if databaseName == "" {
		databaseName = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongodb client: %w", err)
	}

	ms := &MongoStore{
		client:   client,
		database: client.Database(databaseName),
	}
	ms.issue = NewMongoIssueStore(ms)

	mlog.Info("mongodb client created", mlog.String("database", databaseName))
	return ms, nil
}

func (ms *MongoStore) Issue() IssueStore {
	return ms.issue
}

func (ms *MongoStore) Ping(ctx context.Context) error {
	if err := ms.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("could not ping mongodb: %w", err)
	}
	return nil
}

func (ms *MongoStore) Close(ctx context.Context) error {
	mlog.Info("closing mongodb client")
	return ms.client.Disconnect(ctx)
}

func (ms *MongoStore) collection(name string) *mongo.Collection {
	return ms.database.Collection(name)
}
