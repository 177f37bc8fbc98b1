// Package handlers implements the bridge's admin REST API endpoint
// handlers: process health, runtime statistics, and the running channel
// list (spec.md's admin surface, expanded in SPEC_FULL.md §C8).
package handlers

import (
	"log/slog"
	"time"

	"github.com/corvidsystems/bridge/internal/channel"
)

// Handler contains the dependencies every admin API handler needs.
type Handler struct {
	manager   *channel.Manager
	logger    *slog.Logger
	startTime time.Time
}

// New creates a Handler bound to the given channel manager.
func New(manager *channel.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		logger:    logger,
		startTime: time.Now(),
	}
}
