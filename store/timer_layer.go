// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/mattermost/mattermost-issuetracker/model"
)

// Metrics receives the timing of every store call.
type Metrics interface {
	// ObserveStoreMethodDuration stores the elapsed seconds of a store method
	// along with whether it succeeded.
	ObserveStoreMethodDuration(method, success string, elapsed float64)
}

// TimerLayer wraps a Store and reports how long each call took. A not found
// outcome counts as a success since the database answered.
type TimerLayer struct {
	Store
	metrics Metrics
	issue   *TimerLayerIssueStore
}

func NewTimerLayer(childStore Store, metrics Metrics) *TimerLayer {
	tl := &TimerLayer{
		Store:   childStore,
		metrics: metrics,
	}
	tl.issue = &TimerLayerIssueStore{IssueStore: childStore.Issue(), root: tl}
	return tl
}

func (s *TimerLayer) Issue() IssueStore {
	return s.issue
}

func (s *TimerLayer) observe(method string, start time.Time, err error) {
	success := "false"
	if err == nil || errors.Is(err, ErrNotFound) {
		success = "true"
	}
	elapsed := float64(time.Since(start)) / float64(time.Second)
	s.metrics.ObserveStoreMethodDuration(method, success, elapsed)
}

type TimerLayerIssueStore struct {
	IssueStore
	root *TimerLayer
}

func (s *TimerLayerIssueStore) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	start := time.Now()
	result, err := s.IssueStore.Create(ctx, issue)
	s.root.observe("IssueStore.Create", start, err)
	return result, err
}

func (s *TimerLayerIssueStore) Get(ctx context.Context, id string) (*model.Issue, error) {
	start := time.Now()
	result, err := s.IssueStore.Get(ctx, id)
	s.root.observe("IssueStore.Get", start, err)
	return result, err
}

func (s *TimerLayerIssueStore) List(ctx context.Context) ([]*model.Issue, error) {
	start := time.Now()
	result, err := s.IssueStore.List(ctx)
	s.root.observe("IssueStore.List", start, err)
	return result, err
}

func (s *TimerLayerIssueStore) Update(ctx context.Context, id string, issue *model.Issue) (*model.Issue, error) {
	start := time.Now()
	result, err := s.IssueStore.Update(ctx, id, issue)
	s.root.observe("IssueStore.Update", start, err)
	return result, err
}

func (s *TimerLayerIssueStore) Delete(ctx context.Context, id string) (*model.Issue, error) {
	start := time.Now()
	result, err := s.IssueStore.Delete(ctx, id)
	s.root.observe("IssueStore.Delete", start, err)
	return result, err
}
