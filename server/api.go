// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v5/mlog"

	"github.com/mattermost/mattermost-issuetracker/model"
)

const (
	headerRequestID          = "X-Request-Id"
	headerCORSRequestMethod  = "Access-Control-Request-Method"
	maxRequestIDLength       = 64
	msgRouteNotFound         = "Ruta no encontrada"
	msgTooManyRequests       = "Demasiadas solicitudes"
	msgInternalServerError   = "Error interno del servidor"
	msgInvalidRequestPayload = "Cuerpo de la solicitud inválido"
)

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) initializeRouter() {
	s.Router = mux.NewRouter()

	s.Router.Handle("/api/issues", s.apiHandler("listIssues", s.listIssues)).Methods(http.MethodGet)
	s.Router.Handle("/api/issues", s.apiHandler("createIssue", s.createIssue)).Methods(http.MethodPost)
	s.Router.Handle("/api/issues/{id}", s.apiHandler("getIssue", s.getIssue)).Methods(http.MethodGet)
	s.Router.Handle("/api/issues/{id}", s.apiHandler("updateIssue", s.updateIssue)).Methods(http.MethodPut)
	s.Router.Handle("/api/issues/{id}", s.apiHandler("deleteIssue", s.deleteIssue)).Methods(http.MethodDelete)

	// A known path with an unknown method is just another unknown route.
	notFound := s.apiHandler("routeNotFound", s.routeNotFound)
	s.Router.NotFoundHandler = notFound
	s.Router.MethodNotAllowedHandler = notFound
}

// Handler returns the router behind the CORS layer. Only real preflight
// requests are answered by the CORS layer, any other OPTIONS request goes
// to the router like every other method.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.Config.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", headerRequestID}),
		handlers.ExposedHeaders([]string{headerRequestID}),
	)(s.Router)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = trimTrailingSlash(r)
		if r.Method == http.MethodOptions && r.Header.Get(headerCORSRequestMethod) == "" {
			s.Router.ServeHTTP(w, r)
			return
		}
		cors.ServeHTTP(w, r)
	})
}

// trimTrailingSlash routes "/api/issues/" like "/api/issues". The root path
// is left alone.
func trimTrailingSlash(r *http.Request) *http.Request {
	if len(r.URL.Path) <= 1 || !strings.HasSuffix(r.URL.Path, "/") {
		return r
	}

	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	r2.URL = &u
	return r2
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.statusCode = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// apiHandler wraps every route: request id, rate limiting, panic recovery,
// access log and request duration metrics.
func (s *Server) apiHandler(name string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(headerRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}
		w.Header().Set(headerRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				mlog.Error("panic while handling request",
					mlog.String("handler", name),
					mlog.String("request_id", requestID),
					mlog.Any("panic", rec))
				if !sr.wroteHeader {
					writeError(sr, http.StatusInternalServerError, msgInternalServerError)
				}
			}

			elapsed := float64(time.Since(start)) / float64(time.Second)
			statusCode := strconv.Itoa(sr.statusCode)
			if s.Metrics != nil {
				s.Metrics.ObserveHTTPRequestDuration(name, r.Method, statusCode, elapsed)
			}
			mlog.Debug("handled request",
				mlog.String("handler", name),
				mlog.String("method", r.Method),
				mlog.String("path", r.URL.Path),
				mlog.Int("status_code", sr.statusCode),
				mlog.Any("elapsed", elapsed),
				mlog.String("request_id", requestID))
		}()

		if s.limiter != nil && !s.limiter.Allow() {
			if s.Metrics != nil {
				s.Metrics.IncreaseRateLimitedRequest(name)
			}
			writeError(sr, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}

		fn(sr, r)
	})
}

func (s *Server) routeNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		mlog.Error("could not marshal response", mlog.Err(err))
		statusCode = http.StatusInternalServerError
		b = []byte((&model.ErrorResponse{Error: msgInternalServerError}).ToJSON())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(b); err != nil {
		mlog.Warn("could not write response", mlog.Err(err))
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, &model.ErrorResponse{Error: message})
}
