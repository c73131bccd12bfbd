// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-issuetracker/model"
	"github.com/mattermost/mattermost-issuetracker/store"
	stmock "github.com/mattermost/mattermost-issuetracker/store/mocks"
)

func TestIssueAPI(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	isStoreMock := stmock.NewMockIssueStore(ctrl)
	ss := stmock.NewMockStore(ctrl)
	ss.EXPECT().
		Issue().
		Return(isStoreMock).
		AnyTimes()

	fm := &fakeMetrics{}
	s := New(testConfig(), ss, fm)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := "5f1d7c3b9a1e4b2c8d0e6f7a"
	issue := &model.Issue{
		ID:          id,
		Title:       model.NewString("Bug A"),
		Description: model.NewString("Crashes on load"),
	}
	dbErr := errors.New("server selection timeout")

	t.Run("Should list issues", func(t *testing.T) {
		isStoreMock.EXPECT().List(gomock.Any()).Return([]*model.Issue{issue}, nil).Times(1)

		code, body, header := doRequest(t, http.MethodGet, ts.URL+"/api/issues", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "application/json", header.Get("Content-Type"))
		assert.JSONEq(t, `[{"_id":"5f1d7c3b9a1e4b2c8d0e6f7a","title":"Bug A","description":"Crashes on load"}]`, string(body))
		assert.Equal(t, metricCall{"listIssues", http.MethodGet, "200"}, fm.lastRequest())
	})

	t.Run("Should list no issues as an empty array", func(t *testing.T) {
		isStoreMock.EXPECT().List(gomock.Any()).Return(nil, nil).Times(1)

		code, body, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues", "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[]`, string(body))
	})

	t.Run("Should fail to list issues", func(t *testing.T) {
		isStoreMock.EXPECT().List(gomock.Any()).Return(nil, dbErr).Times(1)

		code, body, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues", "")
		require.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, msgListIssuesFailed, decodeError(t, body))
		assert.NotContains(t, string(body), dbErr.Error())
	})

	t.Run("Should get an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Get(gomock.Any(), id).Return(issue, nil).Times(1)

		code, body, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues/"+id, "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, issue, decodeIssue(t, body))
	})

	t.Run("Should not find an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Get(gomock.Any(), "not-an-id").Return(nil, store.ErrNotFound).Times(1)

		code, body, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues/not-an-id", "")
		require.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, msgIssueNotFound, decodeError(t, body))
	})

	t.Run("Should fail to get an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Get(gomock.Any(), id).Return(nil, dbErr).Times(1)

		code, body, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues/"+id, "")
		require.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, msgGetIssueFailed, decodeError(t, body))
	})

	t.Run("Should create an issue ignoring the given id", func(t *testing.T) {
		isStoreMock.EXPECT().
			Create(gomock.Any(), &model.Issue{Title: issue.Title, Description: issue.Description}).
			Return(issue, nil).
			Times(1)

		code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues",
			`{"_id":"ffffffffffffffffffffffff","title":"Bug A","description":"Crashes on load"}`)
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, issue, decodeIssue(t, body))
		assert.Equal(t, metricCall{"createIssue", http.MethodPost, "201"}, fm.lastRequest())
	})

	t.Run("Should create an issue from an empty body", func(t *testing.T) {
		isStoreMock.EXPECT().Create(gomock.Any(), &model.Issue{}).Return(&model.Issue{ID: id}, nil).Times(1)

		code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", "")
		require.Equal(t, http.StatusCreated, code)
		assert.JSONEq(t, `{"_id":"5f1d7c3b9a1e4b2c8d0e6f7a"}`, string(body))
	})

	t.Run("Should reject a malformed body on create", func(t *testing.T) {
		code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":`)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, msgInvalidRequestPayload, decodeError(t, body))
	})

	t.Run("Should reject data after the body on create", func(t *testing.T) {
		for _, payload := range []string{`{"title":"a"} trailing`, `{"title":"a"}{"title":"b"}`} {
			code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", payload)
			require.Equal(t, http.StatusBadRequest, code, payload)
			assert.Equal(t, msgInvalidRequestPayload, decodeError(t, body))
		}
	})

	t.Run("Should reject an oversized body on create", func(t *testing.T) {
		payload := `{"title":"` + strings.Repeat("a", maxIssueBodySize) + `"}`
		code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", payload)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, msgInvalidRequestPayload, decodeError(t, body))
	})

	t.Run("Should accept a body just under the limit", func(t *testing.T) {
		title := strings.Repeat("a", maxIssueBodySize-len(`{"title":""}`))
		created := &model.Issue{ID: id, Title: model.NewString(title)}
		isStoreMock.EXPECT().Create(gomock.Any(), &model.Issue{Title: model.NewString(title)}).Return(created, nil).Times(1)

		code, _, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":"`+title+`"}`)
		require.Equal(t, http.StatusCreated, code)
	})

	t.Run("Should fail to create an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dbErr).Times(1)

		code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":"Bug A"}`)
		require.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, msgCreateIssueFailed, decodeError(t, body))
	})

	t.Run("Should update an issue", func(t *testing.T) {
		updated := &model.Issue{ID: id, Title: model.NewString("Bug B")}
		isStoreMock.EXPECT().
			Update(gomock.Any(), id, &model.Issue{Title: model.NewString("Bug B")}).
			Return(updated, nil).
			Times(1)

		code, body, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+id, `{"title":"Bug B"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, updated, decodeIssue(t, body))
	})

	t.Run("Should not find the issue to update", func(t *testing.T) {
		isStoreMock.EXPECT().Update(gomock.Any(), id, gomock.Any()).Return(nil, store.ErrNotFound).Times(1)

		code, body, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+id, `{"title":"Bug B"}`)
		require.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, msgIssueNotFound, decodeError(t, body))
	})

	t.Run("Should reject a malformed body on update", func(t *testing.T) {
		code, body, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+id, `{"title":["Bug B"]}`)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, msgInvalidRequestPayload, decodeError(t, body))
	})

	t.Run("Should reject data after the body on update", func(t *testing.T) {
		code, body, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+id, `{"title":"Bug B"}{"title":"Bug C"}`)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, msgInvalidRequestPayload, decodeError(t, body))
	})

	t.Run("Should reject an oversized body on update", func(t *testing.T) {
		payload := `{"description":"` + strings.Repeat("b", maxIssueBodySize) + `"}`
		code, body, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+id, payload)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, msgInvalidRequestPayload, decodeError(t, body))
	})

	t.Run("Should fail to update an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Update(gomock.Any(), id, gomock.Any()).Return(nil, dbErr).Times(1)

		code, body, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+id, `{"title":"Bug B"}`)
		require.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, msgUpdateIssueFailed, decodeError(t, body))
	})

	t.Run("Should delete an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Delete(gomock.Any(), id).Return(issue, nil).Times(1)

		code, body, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/issues/"+id, "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, issue, decodeIssue(t, body))
	})

	t.Run("Should not find the issue to delete", func(t *testing.T) {
		isStoreMock.EXPECT().Delete(gomock.Any(), id).Return(nil, store.ErrNotFound).Times(1)

		code, body, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/issues/"+id, "")
		require.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, msgIssueNotFound, decodeError(t, body))
	})

	t.Run("Should fail to delete an issue", func(t *testing.T) {
		isStoreMock.EXPECT().Delete(gomock.Any(), id).Return(nil, dbErr).Times(1)

		code, body, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/issues/"+id, "")
		require.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, msgDeleteIssueFailed, decodeError(t, body))
	})

	t.Run("Should report the store being unavailable", func(t *testing.T) {
		unavailable := New(testConfig(), store.NewUnavailableStore(errors.New("no database uri configured")), nil)
		uts := httptest.NewServer(unavailable.Handler())
		defer uts.Close()

		code, body, _ := doRequest(t, http.MethodGet, uts.URL+"/api/issues/"+id, "")
		require.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, msgGetIssueFailed, decodeError(t, body))
	})
}

func TestIssueLifecycle(t *testing.T) {
	s := New(testConfig(), newMemoryStore(), nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	t.Run("Should get what was created", func(t *testing.T) {
		code, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":"Bug A","description":"Crashes on load"}`)
		require.Equal(t, http.StatusCreated, code)
		created := decodeIssue(t, body)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "Bug A", created.GetTitle())
		assert.Equal(t, "Crashes on load", created.GetDescription())

		code, getBody, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues/"+created.ID, "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, string(body), string(getBody))
	})

	t.Run("Should overwrite both fields without merging", func(t *testing.T) {
		_, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":"Bug A","description":"Crashes on load"}`)
		created := decodeIssue(t, body)

		code, _, _ := doRequest(t, http.MethodPut, ts.URL+"/api/issues/"+created.ID, `{"description":"Only on Mondays"}`)
		require.Equal(t, http.StatusOK, code)

		_, body, _ = doRequest(t, http.MethodGet, ts.URL+"/api/issues/"+created.ID, "")
		got := decodeIssue(t, body)
		assert.Equal(t, created.ID, got.ID)
		assert.Nil(t, got.Title)
		assert.Equal(t, "Only on Mondays", got.GetDescription())
	})

	t.Run("Should return the deleted issue and then not find it", func(t *testing.T) {
		_, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":"Bug C"}`)
		created := decodeIssue(t, body)

		code, body, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/issues/"+created.ID, "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, created, decodeIssue(t, body))

		code, _, _ = doRequest(t, http.MethodGet, ts.URL+"/api/issues/"+created.ID, "")
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Should list created minus deleted issues", func(t *testing.T) {
		_, body, _ := doRequest(t, http.MethodGet, ts.URL+"/api/issues", "")
		before := len(decodeIssueList(t, body))

		var ids []string
		for i := 0; i < 5; i++ {
			_, body, _ := doRequest(t, http.MethodPost, ts.URL+"/api/issues", `{"title":"bulk"}`)
			ids = append(ids, decodeIssue(t, body).ID)
		}
		for _, id := range ids[:2] {
			code, _, _ := doRequest(t, http.MethodDelete, ts.URL+"/api/issues/"+id, "")
			require.Equal(t, http.StatusOK, code)
		}

		_, body, _ = doRequest(t, http.MethodGet, ts.URL+"/api/issues", "")
		assert.Len(t, decodeIssueList(t, body), before+3)
	})
}
