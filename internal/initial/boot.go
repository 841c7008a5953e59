// Package initial builds the process-wide clients. Each client skips
// itself when its backend is unconfigured so the service can run
// storage-free with the in-memory stores.
package initial

import (
	"StudyLink/internal/config"
	"StudyLink/pkg/zlog"
)

// This file sorts first in the package so the logger is configured
// before any other init here writes a line.
func init() {
	zlog.Init(config.GetConfig().LogConfig.LogPath)
}
