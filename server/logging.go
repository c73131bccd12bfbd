// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"path/filepath"

	"github.com/mattermost/mattermost-server/v5/mlog"
	"github.com/pkg/errors"
)

const logFilename = "issuetracker.log"

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func GetLogFileLocation(fileLocation string) string {
	if fileLocation == "" {
		fileLocation = "logs"
	}

	return filepath.Join(fileLocation, logFilename)
}

// SetupLogging installs the global logger described by config.LogSettings and
// sends the standard library logger through it.
func SetupLogging(config *Config) error {
	if !isValidLogLevel(config.LogSettings.ConsoleLevel) {
		return errors.Errorf("invalid log level %q", config.LogSettings.ConsoleLevel)
	}

	loggingConfig := &mlog.LoggerConfiguration{
		EnableConsole: config.LogSettings.EnableConsole,
		ConsoleJson:   config.LogSettings.ConsoleJSON,
		ConsoleLevel:  config.LogSettings.ConsoleLevel,
		EnableFile:    config.LogSettings.EnableFile,
		FileJson:      config.LogSettings.FileJSON,
		FileLevel:     config.LogSettings.FileLevel,
		FileLocation:  GetLogFileLocation(config.LogSettings.FileLocation),
	}

	logger := mlog.NewLogger(loggingConfig)
	mlog.RedirectStdLog(logger)
	mlog.InitGlobalLogger(logger)
	return nil
}
