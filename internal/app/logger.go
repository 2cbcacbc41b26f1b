package app

import (
	"strings"

	"github.com/campusfix/campusfix/pkg/logger"
)

// ConfigureLogging initialises the global logger from the server section, defaulting to info/json.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, cfg.LogFormat)
}
