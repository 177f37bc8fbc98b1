// Package channel implements the bidirectional forwarding unit: two
// endpoints, two lossy ring buffers, and the single-flight drain task
// protocol that moves bytes from one side's ring buffer to the other
// side's Write without ever running more than one drain goroutine per
// direction (spec.md §5, properties P3/P4).
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
	"github.com/corvidsystems/bridge/internal/config"
	"github.com/corvidsystems/bridge/internal/endpoint"
	"github.com/corvidsystems/bridge/internal/logging"
	"github.com/corvidsystems/bridge/internal/ringbuf"
	"github.com/corvidsystems/bridge/internal/workerpool"
)

// stopDrainPoll and stopDrainAttempts bound Stop's wait for outstanding
// drain tasks to notice the ring buffer shutdown and clear their
// single-flight flag: 5 polls of 10 ms, ~50 ms worst case.
const (
	stopDrainPoll     = 10 * time.Millisecond
	stopDrainAttempts = 5
)

type direction int

const (
	aToB direction = iota
	bToA
)

// drainChunkSize bounds a single Pop call inside the drain loop, and so the
// size of each Write handed to the destination. The drain task keeps
// popping until the buffer is empty and re-arms itself in place, so under
// sustained load one direction holds its worker goroutine until the
// buffer drains.
const drainChunkSize = 32 * 1024

// Channel owns a named pair of endpoints and forwards bytes between them
// through bounded ring buffers, draining via the shared worker pool.
type Channel struct {
	Name string

	a, b config.EndpointConfig
	epA  endpoint.Endpoint
	epB  endpoint.Endpoint

	bufAtoB *ringbuf.RingBuffer
	bufBtoA *ringbuf.RingBuffer

	activeAtoB atomic.Bool
	activeBtoA atomic.Bool

	pool   *workerpool.Pool
	stats  Stats
	logger *slog.Logger
}

// New constructs a Channel from its configuration. Endpoints are built but
// not opened; call Start to bring it up.
func New(cfg config.ChannelConfig, pool *workerpool.Pool, baseLogger *slog.Logger) (*Channel, error) {
	epA, err := endpoint.New(cfg.EndpointA)
	if err != nil {
		return nil, fmt.Errorf("channel %q input: %w", cfg.Name, err)
	}
	epB, err := endpoint.New(cfg.EndpointB)
	if err != nil {
		return nil, fmt.Errorf("channel %q output: %w", cfg.Name, err)
	}

	c := &Channel{
		Name:    cfg.Name,
		a:       cfg.EndpointA,
		b:       cfg.EndpointB,
		epA:     epA,
		epB:     epB,
		bufAtoB: ringbuf.New(ringbuf.DefaultCapacity),
		bufBtoA: ringbuf.New(ringbuf.DefaultCapacity),
		pool:    pool,
		logger:  logging.ForChannel(baseLogger, cfg.Name),
	}
	return c, nil
}

// Config returns the configuration this channel was built from, used by
// the reconciliation loop's diff.
func (c *Channel) Config() config.ChannelConfig {
	return config.ChannelConfig{Name: c.Name, EndpointA: c.a, EndpointB: c.b}
}

// Stats returns the channel's byte/drop counters.
func (c *Channel) Stats() Snapshot {
	return c.stats.Snapshot()
}

// StateA and StateB report the connection state of each side's endpoint,
// surfaced by the admin API alongside the byte/drop counters.
func (c *Channel) StateA() endpoint.State { return c.epA.State() }
func (c *Channel) StateB() endpoint.State { return c.epB.State() }

// Start opens both endpoints and wires their data callbacks into the
// forwarding path. It returns the first open error, if either endpoint
// fails outright (servers binding a port); client-style endpoints that
// fail to dial instead retry in the background and Start still succeeds.
func (c *Channel) Start(ctx context.Context) error {
	c.epA.SetLogCallback(c.logger)
	c.epB.SetLogCallback(c.logger)

	c.epA.SetErrorCallback(func(err error) { c.logError("input", err) })
	c.epB.SetErrorCallback(func(err error) { c.logError("output", err) })

	c.epA.SetDataCallback(func(data []byte) { c.forward(aToB, data) })
	c.epB.SetDataCallback(func(data []byte) { c.forward(bToA, data) })

	if err := c.epA.Open(ctx); err != nil {
		return fmt.Errorf("%w: %v", bridgeerr.ErrEndpointOpenFailed, err)
	}
	if err := c.epB.Open(ctx); err != nil {
		_ = c.epA.Close()
		return fmt.Errorf("%w: %v", bridgeerr.ErrEndpointOpenFailed, err)
	}
	return nil
}

func (c *Channel) logError(side string, err error) {
	if c.logger != nil {
		c.logger.Warn("endpoint error", "side", side, "err", err)
	}
}

// forward pushes data read from one side into the ring buffer feeding the
// other side, dropping it and counting the drop if the buffer is full
// (property P5), then schedules a drain if one isn't already running.
func (c *Channel) forward(dir direction, data []byte) {
	buf := c.bufFor(dir)
	if !buf.Push(data) {
		c.stats.recordDropped(dir)
		if c.logger != nil {
			c.logger.Debug("ring buffer overflow, dropping chunk", "direction", dirName(dir), "bytes", len(data))
		}
		return
	}
	logging.LogBinary(c.logger, "rx:"+dirName(dir), data, false)
	c.scheduleDrain(dir)
}

func (c *Channel) bufFor(dir direction) *ringbuf.RingBuffer {
	if dir == aToB {
		return c.bufAtoB
	}
	return c.bufBtoA
}

func (c *Channel) destFor(dir direction) endpoint.Endpoint {
	if dir == aToB {
		return c.epB
	}
	return c.epA
}

func (c *Channel) activeFlag(dir direction) *atomic.Bool {
	if dir == aToB {
		return &c.activeAtoB
	}
	return &c.activeBtoA
}

// scheduleDrain implements the single-flight drain task protocol: a
// direction gets at most one outstanding drain task (P3), and an idle
// channel has zero tasks queued or running (P4). The flag is test-and-set
// with atomic.Bool.CompareAndSwap; after a drain loop empties the buffer
// and clears the flag, it re-checks the buffer once more before returning
// so a push that raced the final Pop isn't left stranded until the next
// unrelated forward() call.
func (c *Channel) scheduleDrain(dir direction) {
	flag := c.activeFlag(dir)
	if !flag.CompareAndSwap(false, true) {
		return
	}
	c.pool.Submit(func() { c.drain(dir) })
}

func (c *Channel) drain(dir direction) {
	buf := c.bufFor(dir)
	dst := c.destFor(dir)
	flag := c.activeFlag(dir)

	for {
		for {
			chunk := buf.Pop(drainChunkSize)
			if chunk == nil {
				break
			}
			dst.Write(chunk)
			c.stats.recordForwarded(dir, len(chunk))
			logging.LogBinary(c.logger, "tx:"+dirName(dir), chunk, false)
		}

		flag.Store(false)
		if buf.Empty() {
			return
		}
		if !flag.CompareAndSwap(false, true) {
			return // another forward() call already re-armed and will drain
		}
	}
}

// Stop closes both endpoints and shuts down the ring buffers so any
// in-flight drain task exits promptly, then spin-waits briefly for both
// single-flight flags to clear. This closes the race where a drain task is
// between its last Pop and clearing the flag when Stop runs: without the
// wait, a caller that immediately rebuilds a same-named channel could
// briefly see two drain goroutines touching what looks like one channel.
func (c *Channel) Stop() error {
	c.bufAtoB.Shutdown()
	c.bufBtoA.Shutdown()

	errA := c.epA.Close()
	errB := c.epB.Close()

	for i := 0; i < stopDrainAttempts; i++ {
		if !c.activeAtoB.Load() && !c.activeBtoA.Load() {
			break
		}
		time.Sleep(stopDrainPoll)
	}

	if errA != nil {
		return errA
	}
	return errB
}

func dirName(dir direction) string {
	if dir == aToB {
		return "a_to_b"
	}
	return "b_to_a"
}
