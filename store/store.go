// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattermost/mattermost-issuetracker/model"
)

// ErrNotFound is returned when the requested issue does not exist. It is a
// normal outcome, every other error coming out of a store is a failure of the
// database itself.
var ErrNotFound = errors.New("issue not found")

const (
	mongoScheme    = "mongodb://"
	mongoSRVScheme = "mongodb+srv://"
	mysqlScheme    = "mysql://"
)

type Store interface {
	Issue() IssueStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type IssueStore interface {
	Create(ctx context.Context, issue *model.Issue) (*model.Issue, error)
	Get(ctx context.Context, id string) (*model.Issue, error)
	List(ctx context.Context) ([]*model.Issue, error)
	Update(ctx context.Context, id string, issue *model.Issue) (*model.Issue, error)
	Delete(ctx context.Context, id string) (*model.Issue, error)
}

// Settings carries what is needed to open a store.
type Settings struct {
	URI string
	// DatabaseName is used by the document backend when the URI names no database.
	DatabaseName string
}

// New opens the backend named by the scheme of settings.URI. Connections are
// established lazily by the drivers, so an unreachable database is reported
// by Ping rather than here.
func New(ctx context.Context, settings Settings) (Store, error) {
	uri := strings.TrimSpace(settings.URI)
	switch {
	case uri == "":
		return nil, errors.New("no database uri configured")
	case strings.HasPrefix(uri, mongoScheme), strings.HasPrefix(uri, mongoSRVScheme):
		return NewMongoStore(ctx, uri, settings.DatabaseName)
	case strings.HasPrefix(uri, mysqlScheme):
		return NewSQLStore(strings.TrimPrefix(uri, mysqlScheme))
	default:
		return nil, fmt.Errorf("unsupported database uri scheme: %q", redactURI(uri))
	}
}

// redactURI keeps only the scheme so that credentials never reach the logs.
func redactURI(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[:i+3] + "..."
	}
	return "..."
}
