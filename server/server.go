// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v5/mlog"
	"golang.org/x/time/rate"

	"github.com/mattermost/mattermost-issuetracker/metrics"
	"github.com/mattermost/mattermost-issuetracker/store"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 30 * time.Second
)

// Server serves the issue API. It owns neither the store nor the metrics
// provider, both are built by the caller and handed in.
type Server struct {
	Config  *Config
	Store   store.Store
	Metrics metrics.Provider
	Router  *mux.Router

	limiter *rate.Limiter
	server  *http.Server
}

func New(config *Config, ss store.Store, metricsProvider metrics.Provider) *Server {
	s := &Server{
		Config:  config,
		Store:   ss,
		Metrics: metricsProvider,
	}
	if config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)
	}
	s.initializeRouter()
	return s
}

// Start listens in the background. A failure to listen is logged, the
// process keeps running until it is told to stop.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:              s.Config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		mlog.Info("Listening on", mlog.String("address", s.Config.ListenAddress))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mlog.Error("server_error", mlog.Err(err))
		}
	}()
}

// Stop waits for in flight requests to finish.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
