// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v5/mlog"
)

const (
	serverReadTimeout     = 30 * time.Second
	serverWriteTimeout    = 30 * time.Second
	serverShutdownTimeout = 30 * time.Second
)

// Server is the side listener for operators: metrics, health and, when
// enabled, the runtime profiles. It never shares a port with the API.
type Server struct {
	server *http.Server

	port     string
	handlers []Handler
}

// Handler is an endpoint of the metrics server. Prefix handlers also serve
// every path below Path.
type Handler struct {
	Handler     http.Handler
	Path        string
	Description string
	Prefix      bool
}

type indexEntry struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

func NewServer(port string, enablePprof bool, handlers ...Handler) *Server {
	if enablePprof {
		handlers = append(handlers, pprofHandlers()...)
	}
	return &Server{port: port, handlers: handlers}
}

// Start listens in the background on the configured port.
func (m *Server) Start() {
	m.server = &http.Server{
		Addr:         net.JoinHostPort("", m.port),
		Handler:      m.router(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		mlog.Info("Metrics server started", mlog.String("port", m.port), mlog.Int("handlers", len(m.handlers)))
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mlog.Error("Error trying to start the metrics server", mlog.Err(err))
		}
	}()
}

// Stop is a no-op on a server that was never started.
func (m *Server) Stop() {
	if m == nil || m.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(ctx); err != nil {
		mlog.Error("Error shutting down the metrics server", mlog.Err(err))
		return
	}
	mlog.Info("Metrics server stopped")
}

func (m *Server) router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", m.handleIndex).Methods(http.MethodGet)
	for _, handler := range m.handlers {
		mlog.Debug("Adding metrics handler", mlog.String("path", handler.Path))
		if handler.Prefix {
			router.PathPrefix(handler.Path).Handler(handler.Handler)
			continue
		}
		router.Handle(handler.Path, handler.Handler)
	}
	return router
}

// handleIndex lists the endpoints of the server.
func (m *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := make([]indexEntry, 0, len(m.handlers))
	for _, handler := range m.handlers {
		index = append(index, indexEntry{Path: handler.Path, Description: handler.Description})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(index); err != nil {
		mlog.Error("Error rendering metrics index", mlog.Err(err))
	}
}

// pprofHandlers exposes the runtime profiles. pprof.Index serves the named
// profiles (heap, goroutine, block...) under its prefix.
func pprofHandlers() []Handler {
	return []Handler{
		{Path: "/debug/pprof/cmdline", Description: "Profiling Command Line", Handler: http.HandlerFunc(pprof.Cmdline)},
		{Path: "/debug/pprof/profile", Description: "Profiling CPU", Handler: http.HandlerFunc(pprof.Profile)},
		{Path: "/debug/pprof/symbol", Description: "Profiling Symbols", Handler: http.HandlerFunc(pprof.Symbol)},
		{Path: "/debug/pprof/trace", Description: "Profiling Trace", Handler: http.HandlerFunc(pprof.Trace)},
		{Path: "/debug/pprof/", Description: "Profiling Root", Handler: http.HandlerFunc(pprof.Index), Prefix: true},
	}
}
