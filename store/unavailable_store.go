// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"

	"github.com/mattermost/mattermost-issuetracker/model"
	"github.com/pkg/errors"
)

// UnavailableStore stands in for a backend that could not be opened at
// startup. The process keeps serving and every operation fails with the
// original cause.
type UnavailableStore struct {
	cause error
}

func NewUnavailableStore(cause error) *UnavailableStore {
	if cause == nil {
		cause = errors.New("no database connection")
	}
	return &UnavailableStore{cause: cause}
}

func (s *UnavailableStore) Issue() IssueStore {
	return s
}

func (s *UnavailableStore) Ping(_ context.Context) error {
	return s.err()
}

func (s *UnavailableStore) Close(_ context.Context) error {
	return nil
}

func (s *UnavailableStore) Create(_ context.Context, _ *model.Issue) (*model.Issue, error) {
	return nil, s.err()
}

func (s *UnavailableStore) Get(_ context.Context, _ string) (*model.Issue, error) {
	return nil, s.err()
}

func (s *UnavailableStore) List(_ context.Context) ([]*model.Issue, error) {
	return nil, s.err()
}

func (s *UnavailableStore) Update(_ context.Context, _ string, _ *model.Issue) (*model.Issue, error) {
	return nil, s.err()
}

func (s *UnavailableStore) Delete(_ context.Context, _ string) (*model.Issue, error) {
	return nil, s.err()
}

func (s *UnavailableStore) err() error {
	return errors.Wrap(s.cause, "store is unavailable")
}
