// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v5/mlog"

	"github.com/mattermost/mattermost-issuetracker/model"
	"github.com/mattermost/mattermost-issuetracker/store"
)

const (
	msgIssueNotFound     = "Incidencia no encontrada"
	msgListIssuesFailed  = "Error al obtener las incidencias"
	msgGetIssueFailed    = "Error al obtener la incidencia"
	msgCreateIssueFailed = "Error al crear la incidencia"
	msgUpdateIssueFailed = "Error al actualizar la incidencia"
	msgDeleteIssueFailed = "Error al eliminar la incidencia"

	// maxIssueBodySize bounds POST and PUT bodies; larger ones are rejected
	// as invalid.
	maxIssueBodySize = 100 << 10
)

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := s.Store.Issue().List(r.Context())
	if err != nil {
		mlog.Error("could not list issues", mlog.Err(err), mlog.String("request_id", requestIDFromContext(r.Context())))
		writeError(w, http.StatusInternalServerError, msgListIssuesFailed)
		return
	}
	if issues == nil {
		issues = []*model.Issue{}
	}

	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	issue, err := s.Store.Issue().Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, id, "could not get issue", msgGetIssueFailed)
		return
	}

	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	patch, err := model.IssuePatchFromJSON(http.MaxBytesReader(w, r.Body, maxIssueBodySize))
	if err != nil {
		mlog.Debug("could not parse issue", mlog.Err(err))
		writeError(w, http.StatusBadRequest, msgInvalidRequestPayload)
		return
	}

	issue, err := s.Store.Issue().Create(r.Context(), patch.ToIssue())
	if err != nil {
		mlog.Error("could not create issue", mlog.Err(err), mlog.String("request_id", requestIDFromContext(r.Context())))
		writeError(w, http.StatusInternalServerError, msgCreateIssueFailed)
		return
	}

	mlog.Info("issue created", mlog.String("issue_id", issue.ID))
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	patch, err := model.IssuePatchFromJSON(http.MaxBytesReader(w, r.Body, maxIssueBodySize))
	if err != nil {
		mlog.Debug("could not parse issue", mlog.Err(err))
		writeError(w, http.StatusBadRequest, msgInvalidRequestPayload)
		return
	}

	issue, err := s.Store.Issue().Update(r.Context(), id, patch.ToIssue())
	if err != nil {
		s.writeStoreError(w, r, err, id, "could not update issue", msgUpdateIssueFailed)
		return
	}

	mlog.Info("issue updated", mlog.String("issue_id", issue.ID))
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) deleteIssue(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	issue, err := s.Store.Issue().Delete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, id, "could not delete issue", msgDeleteIssueFailed)
		return
	}

	mlog.Info("issue deleted", mlog.String("issue_id", issue.ID))
	writeJSON(w, http.StatusOK, issue)
}

// writeStoreError maps a failed single issue lookup: a missing issue is a
// 404, anything else is logged and reported with the action's message.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, id, logMsg, userMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgIssueNotFound)
		return
	}

	mlog.Error(logMsg,
		mlog.Err(err),
		mlog.String("issue_id", id),
		mlog.String("request_id", requestIDFromContext(r.Context())))
	writeError(w, http.StatusInternalServerError, userMsg)
}
