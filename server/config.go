// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	defaultPort              = "3000"
	defaultMetricsServerPort = "9090"
	defaultDatabaseName      = "issuetracker"
	defaultRateLimitBurst    = 10
	defaultLogLevel          = "info"
)

type LogSettings struct {
	EnableConsole bool
	ConsoleJSON   bool
	ConsoleLevel  string
	EnableFile    bool
	FileJSON      bool
	FileLevel     string
	FileLocation  string
}

type Config struct {
	ListenAddress string

	DBURI  string
	DBName string

	MetricsServerPort string
	EnablePprof       bool

	CORSAllowedOrigins []string

	// RateLimit is the number of requests per second accepted across the
	// API. Zero disables the limiter.
	RateLimit      float64
	RateLimitBurst int

	LogSettings LogSettings
}

// GetConfig reads the configuration from the environment. Variables
// missing from the environment take their defaults, malformed ones are an
// error.
func GetConfig() (*Config, error) {
	config := &Config{
		ListenAddress:      ":" + getEnv("PORT", defaultPort),
		DBURI:              os.Getenv("DB_URI"),
		DBName:             getEnv("DB_NAME", defaultDatabaseName),
		MetricsServerPort:  getEnv("METRICS_PORT", defaultMetricsServerPort),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitBurst:     defaultRateLimitBurst,
		LogSettings: LogSettings{
			EnableConsole: true,
			ConsoleJSON:   true,
			ConsoleLevel:  strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
			FileJSON:      true,
		},
	}

	var err error
	if config.EnablePprof, err = getEnvBool("ENABLE_PPROF", false); err != nil {
		return nil, err
	}
	if config.LogSettings.ConsoleJSON, err = getEnvBool("LOG_JSON", true); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv("RATE_LIMIT"); ok && v != "" {
		if config.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid RATE_LIMIT %q", v)
		}
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_BURST"); ok && v != "" {
		if config.RateLimitBurst, err = strconv.Atoi(v); err != nil {
			return nil, errors.Wrapf(err, "invalid RATE_LIMIT_BURST %q", v)
		}
	}
	if fileLocation := os.Getenv("LOG_FILE"); fileLocation != "" {
		config.LogSettings.EnableFile = true
		config.LogSettings.FileLevel = config.LogSettings.ConsoleLevel
		config.LogSettings.FileLocation = fileLocation
	}

	if err := config.IsValid(); err != nil {
		return nil, err
	}
	return config, nil
}

// IsValid checks the values that would otherwise fail much later. A missing
// DB_URI is not one of them: the server starts anyway and reports the store
// as unavailable.
func (config *Config) IsValid() error {
	if _, err := strconv.ParseUint(strings.TrimPrefix(config.ListenAddress, ":"), 10, 16); err != nil {
		return errors.Errorf("invalid PORT %q", strings.TrimPrefix(config.ListenAddress, ":"))
	}
	if config.MetricsServerPort != "" {
		if _, err := strconv.ParseUint(config.MetricsServerPort, 10, 16); err != nil {
			return errors.Errorf("invalid METRICS_PORT %q", config.MetricsServerPort)
		}
	}
	if config.RateLimit < 0 {
		return errors.New("RATE_LIMIT must not be negative")
	}
	if config.RateLimit > 0 && config.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive when RATE_LIMIT is set")
	}
	if !isValidLogLevel(config.LogSettings.ConsoleLevel) {
		return errors.Errorf("invalid LOG_LEVEL %q", config.LogSettings.ConsoleLevel)
	}
	return nil
}

func getEnv(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(name string, defaultValue bool) (bool, error) {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s %q", name, value)
	}
	return b, nil
}

func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
