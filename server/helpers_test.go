// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mattermost/mattermost-issuetracker/model"
	"github.com/mattermost/mattermost-issuetracker/store"
)

func testConfig() *Config {
	return &Config{
		ListenAddress:      ":0",
		CORSAllowedOrigins: []string{"*"},
		LogSettings: LogSettings{
			EnableConsole: true,
			ConsoleLevel:  "error",
		},
	}
}

type metricCall struct {
	handler    string
	method     string
	statusCode string
}

type fakeMetrics struct {
	mu          sync.Mutex
	requests    []metricCall
	rateLimited []string
}

func (f *fakeMetrics) ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, metricCall{handler: handler, method: method, statusCode: statusCode})
}

func (f *fakeMetrics) IncreaseRateLimitedRequest(handler string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimited = append(f.rateLimited, handler)
}

func (f *fakeMetrics) ObserveStoreMethodDuration(method, success string, elapsed float64) {}

func (f *fakeMetrics) lastRequest() metricCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return metricCall{}
	}
	return f.requests[len(f.requests)-1]
}

// memoryStore keeps issues in a map and behaves like the real backends as far
// as the API can tell.
type memoryStore struct {
	mu     sync.Mutex
	order  []string
	issues map[string]*model.Issue
}

func newMemoryStore() *memoryStore {
	return &memoryStore{issues: map[string]*model.Issue{}}
}

func (ms *memoryStore) Issue() store.IssueStore       { return ms }
func (ms *memoryStore) Ping(_ context.Context) error  { return nil }
func (ms *memoryStore) Close(_ context.Context) error { return nil }

func (ms *memoryStore) Create(_ context.Context, issue *model.Issue) (*model.Issue, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	stored := &model.Issue{ID: primitive.NewObjectID().Hex(), Title: issue.Title, Description: issue.Description}
	ms.issues[stored.ID] = stored
	ms.order = append(ms.order, stored.ID)
	return copyIssue(stored), nil
}

func (ms *memoryStore) Get(_ context.Context, id string) (*model.Issue, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	issue, ok := ms.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyIssue(issue), nil
}

func (ms *memoryStore) List(_ context.Context) ([]*model.Issue, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var issues []*model.Issue
	for _, id := range ms.order {
		if issue, ok := ms.issues[id]; ok {
			issues = append(issues, copyIssue(issue))
		}
	}
	return issues, nil
}

func (ms *memoryStore) Update(_ context.Context, id string, issue *model.Issue) (*model.Issue, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.issues[id]; !ok {
		return nil, store.ErrNotFound
	}
	stored := &model.Issue{ID: id, Title: issue.Title, Description: issue.Description}
	ms.issues[id] = stored
	return copyIssue(stored), nil
}

func (ms *memoryStore) Delete(_ context.Context, id string) (*model.Issue, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	issue, ok := ms.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(ms.issues, id)
	return issue, nil
}

func copyIssue(issue *model.Issue) *model.Issue {
	c := *issue
	return &c
}

// doRequest sends body (when not empty) to url and returns the status code
// and the raw response body.
func doRequest(t *testing.T, method, url, body string) (int, []byte, http.Header) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b, resp.Header
}

func decodeIssue(t *testing.T, b []byte) *model.Issue {
	t.Helper()
	issue, err := model.IssueFromJSON(bytes.NewReader(b))
	require.NoError(t, err)
	return issue
}

func decodeError(t *testing.T, b []byte) string {
	t.Helper()
	var er model.ErrorResponse
	require.NoError(t, json.Unmarshal(b, &er))
	return er.Error
}

func decodeIssueList(t *testing.T, b []byte) []*model.Issue {
	t.Helper()
	var issues []*model.Issue
	require.NoError(t, json.Unmarshal(b, &issues))
	return issues
}
