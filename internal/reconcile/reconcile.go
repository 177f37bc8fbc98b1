// Package reconcile implements the supervisor loop that keeps the running
// channel set converged with the SQLite store's desired set (spec.md §7).
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/corvidsystems/bridge/internal/channel"
	"github.com/corvidsystems/bridge/internal/config"
	"github.com/corvidsystems/bridge/internal/store"
)

// Interval is the fixed tick period between reconciliation passes.
const Interval = time.Second

// Loop owns the periodic diff-and-apply cycle between the store's desired
// channel set and the manager's running set.
type Loop struct {
	store   *store.Store
	manager *channel.Manager
	logger  *slog.Logger
}

// New constructs a reconciliation Loop.
func New(st *store.Store, mgr *channel.Manager, logger *slog.Logger) *Loop {
	return &Loop{store: st, manager: mgr, logger: logger}
}

// Run ticks every Interval until ctx is cancelled, applying one
// reconciliation pass per tick. It also runs one pass immediately on
// entry, so a process that starts with channels already in the store
// doesn't wait a full interval to bring them up.
func (l *Loop) Run(ctx context.Context) {
	l.tick(ctx)

	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	desired, err := l.store.LoadChannels()
	if err != nil {
		if l.logger != nil {
			l.logger.Error("reconcile: failed to load channels from store", "err", err)
		}
		return
	}
	l.Apply(ctx, desired)
}

// Apply computes the diff between desired and the manager's current
// running set and applies it: add what's missing, remove what's no longer
// desired, and replace (remove+add) anything whose configuration changed
// under an unchanged name. Matching spec.md §7's convergence property
// (P7), a second Apply call with the same desired set is always a no-op.
func (l *Loop) Apply(ctx context.Context, desired []config.ChannelConfig) {
	desiredByName := make(map[string]config.ChannelConfig, len(desired))
	for _, cfg := range desired {
		desiredByName[cfg.Name] = cfg
	}

	running := l.manager.Snapshot()

	for name := range running {
		if _, stillDesired := desiredByName[name]; !stillDesired {
			if err := l.manager.Remove(name); err != nil {
				l.warn("remove", name, err)
			}
		}
	}

	for name, cfg := range desiredByName {
		current, isRunning := running[name]
		switch {
		case !isRunning:
			if err := l.manager.Add(ctx, cfg); err != nil {
				l.warn("add", name, err)
			}
		case !current.Equal(cfg):
			if err := l.manager.Replace(ctx, cfg); err != nil {
				l.warn("replace", name, err)
			}
		}
	}
}

func (l *Loop) warn(action, name string, err error) {
	if l.logger != nil {
		l.logger.Warn("reconcile: action failed", "action", action, "channel", name, "err", err)
	}
}
