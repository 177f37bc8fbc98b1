package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/corvidsystems/bridge/internal/config"
	"github.com/corvidsystems/bridge/internal/workerpool"
)

// Manager is the in-memory registry of running channels, keyed by name. It
// is the "running set" half of the reconciliation loop's diff against the
// store's "desired set" (spec.md §7).
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	pool     *workerpool.Pool
	logger   *slog.Logger
}

// NewManager constructs an empty Manager backed by the given worker pool.
func NewManager(pool *workerpool.Pool, logger *slog.Logger) *Manager {
	return &Manager{
		channels: make(map[string]*Channel),
		pool:     pool,
		logger:   logger,
	}
}

// Add builds and starts a new channel from cfg. It fails if a channel with
// the same name is already running.
func (m *Manager) Add(ctx context.Context, cfg config.ChannelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.channels[cfg.Name]; exists {
		return fmt.Errorf("channel %q already running", cfg.Name)
	}

	ch, err := New(cfg, m.pool, m.logger)
	if err != nil {
		return err
	}
	if err := ch.Start(ctx); err != nil {
		return err
	}
	m.channels[cfg.Name] = ch
	return nil
}

// Remove stops and forgets the named channel. Removing an unknown name is
// a no-op, matching the idempotent teardown spec.md §7 requires of the
// reconciliation loop.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	ch, exists := m.channels[name]
	delete(m.channels, name)
	m.mu.Unlock()

	if !exists {
		return nil
	}
	return ch.Stop()
}

// Replace removes the named channel, if running, and adds it back with
// cfg. Used when the reconciliation loop finds a channel whose
// configuration changed under an unchanged name.
func (m *Manager) Replace(ctx context.Context, cfg config.ChannelConfig) error {
	if err := m.Remove(cfg.Name); err != nil {
		return err
	}
	return m.Add(ctx, cfg)
}

// Names returns the currently running channel names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}

// Get returns the running channel by name, if any.
func (m *Manager) Get(name string) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// Snapshot returns the configuration of every running channel, used by the
// reconciliation loop to compute its diff against the store.
func (m *Manager) Snapshot() map[string]config.ChannelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]config.ChannelConfig, len(m.channels))
	for name, ch := range m.channels {
		out[name] = ch.Config()
	}
	return out
}

// StopAll stops every running channel, used on process shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	channels := make([]*Channel, 0, len(m.channels))
	for name, ch := range m.channels {
		channels = append(channels, ch)
		delete(m.channels, name)
	}
	m.mu.Unlock()

	for _, ch := range channels {
		_ = ch.Stop()
	}
}

// Pool returns the shared worker pool.
func (m *Manager) Pool() *workerpool.Pool {
	return m.pool
}
