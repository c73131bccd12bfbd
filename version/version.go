// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

// Package version reports the build the issue tracker binaries come from.
package version

import (
	"fmt"
	"time"
)

const dev = "v0.1.0-dev"

// Provisioned by ldflags:
//   -X github.com/mattermost/mattermost-issuetracker/version.version=...
var (
	version    string
	commitHash string
	buildDate  string
)

type Info struct {
	Version string `json:"version"`
	Hash    string `json:"hash"`
	Date    string `json:"date"`
}

func init() {
	if version == "" {
		version = dev
	}
	if commitHash == "" {
		commitHash = "unknown"
	}
	if buildDate == "" {
		buildDate = time.Now().UTC().Format(time.RFC3339)
	}
}

// Full returns the version, commit hash and build date of the running binary.
func Full() *Info {
	return &Info{
		Version: version,
		Hash:    commitHash,
		Date:    buildDate,
	}
}

func (i *Info) String() string {
	return fmt.Sprintf("%s (%s, built %s)", i.Version, i.Hash, i.Date)
}
