// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mattermost/mattermost-server/v5/mlog"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is anything able to tell whether its backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthStatus struct {
	Status string `json:"status"`
}

// HealthHandler reports 200 while the pinger answers and 503 otherwise.
func HealthHandler(pinger Pinger) Handler {
	return Handler{
		Path:        "/healthz",
		Description: "Database Health",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			status := healthStatus{Status: "OK"}
			code := http.StatusOK
			if err := pinger.Ping(ctx); err != nil {
				mlog.Warn("health check failed", mlog.Err(err))
				status.Status = "UNHEALTHY"
				code = http.StatusServiceUnavailable
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			if err := json.NewEncoder(w).Encode(status); err != nil {
				mlog.Error("Error rendering health status", mlog.Err(err))
			}
		}),
	}
}

// InfoHandler serves v as a static JSON document.
func InfoHandler(path, description string, v interface{}) Handler {
	return Handler{
		Path:        path,
		Description: description,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(v); err != nil {
				mlog.Error("Error rendering info", mlog.Err(err), mlog.String("path", path))
			}
		}),
	}
}
