// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattermost/mattermost-server/v5/mlog"

	"github.com/mattermost/mattermost-issuetracker/metrics"
	"github.com/mattermost/mattermost-issuetracker/server"
	"github.com/mattermost/mattermost-issuetracker/store"
	"github.com/mattermost/mattermost-issuetracker/version"
)

const storeTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		mlog.Warn("unable to load .env file", mlog.Err(err))
	}

	config, err := server.GetConfig()
	if err != nil {
		mlog.Error("unable to load server config", mlog.Err(err))
		os.Exit(1)
	}
	if err = server.SetupLogging(config); err != nil {
		mlog.Error("unable to configure logging", mlog.Err(err))
		os.Exit(1)
	}

	info := version.Full()
	mlog.Info("Loaded config", mlog.String("version", info.String()))

	// Metrics system
	metricsProvider := metrics.NewPrometheusProvider()

	ss := openStore(config)
	ss = store.NewTimerLayer(ss, metricsProvider)

	var metricsServer *metrics.Server
	if config.MetricsServerPort != "" {
		metricsServer = metrics.NewServer(config.MetricsServerPort, config.EnablePprof,
			metricsProvider.Handler(),
			metrics.HealthHandler(ss),
			metrics.InfoHandler("/version", "Build Information", info),
		)
		metricsServer.Start()
	}

	s := server.New(config, ss, metricsProvider)

	mlog.Info("Starting Issue Tracker Server", mlog.String("address", config.ListenAddress))
	s.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	mlog.Info("Stopping Issue Tracker Server")
	exitCode := 0
	if err = s.Stop(); err != nil {
		mlog.Error("error while shutting down server", mlog.Err(err))
		exitCode = 1
	}
	metricsServer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	if err = ss.Close(ctx); err != nil {
		mlog.Error("error while closing the store", mlog.Err(err))
	}
	cancel()

	mlog.Info("Stopped Issue Tracker Server")
	os.Exit(exitCode)
}

// openStore never fails: without a usable backend the API keeps serving and
// answers every issue request with an internal error.
func openStore(config *server.Config) store.Store {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	ss, err := store.New(ctx, store.Settings{URI: config.DBURI, DatabaseName: config.DBName})
	if err != nil {
		mlog.Error("unable to open the database, serving without a store", mlog.Err(err))
		return store.NewUnavailableStore(err)
	}

	if err = ss.Ping(ctx); err != nil {
		mlog.Error("database is not reachable yet", mlog.Err(err))
		return ss
	}
	mlog.Info("Connected to the database")
	return ss
}
