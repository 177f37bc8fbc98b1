// Package endpoint implements the uniform bidirectional byte-port contract
// (spec.md §4.3) over five driver types: TCP server, TCP client, UDP server,
// UDP client, and serial. Every driver runs its own read loop in a private
// goroutine and exposes Open/Close/Write/State plus three install-before-open
// callbacks (data, log, error) — the "driver trait" redesign from spec.md §9.
package endpoint

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the connection-state automaton from spec.md §3: DISCONNECTED is
// the initial and post-Close state; Open drives DISCONNECTED -> CONNECTING
// -> CONNECTED or ERROR; an I/O error after a successful open drives
// CONNECTED -> ERROR. The TCP client and serial drivers then retry the
// connection; the UDP client does not, and stays in ERROR until Close.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// DataCallback receives bytes read from the endpoint's peer.
type DataCallback func(data []byte)

// ErrorCallback is notified when the endpoint transitions to an error
// state; err identifies the failure (see internal/bridgeerr).
type ErrorCallback func(err error)

// Endpoint is the uniform lifecycle every driver implements.
//
// Open, Close, and Write must all be safe to call idempotently and
// concurrently with each other and with the driver's own read loop.
// SetDataCallback/SetLogCallback/SetErrorCallback must be called before
// Open and never again afterwards.
type Endpoint interface {
	Open(ctx context.Context) error
	Close() error
	Write(data []byte)
	State() State

	SetDataCallback(DataCallback)
	SetLogCallback(*slog.Logger)
	SetErrorCallback(ErrorCallback)
}

// base holds the fields every driver needs: the state machine, installed
// callbacks, and the shutdown signal read by the driver's goroutine(s). It
// is embedded, not inherited from — Go has no base classes, so each driver
// composes base and implements the rest of Endpoint directly, matching the
// "driver trait, not inheritance tree" redesign note.
type base struct {
	state atomic.Int32

	mu       sync.Mutex
	onData   DataCallback
	onError  ErrorCallback
	logger   *slog.Logger
	closeCh  chan struct{}
	closeOne sync.Once
}

func (b *base) init() {
	b.closeCh = make(chan struct{})
}

func (b *base) State() State {
	return State(b.state.Load())
}

func (b *base) setState(s State) {
	b.state.Store(int32(s))
}

func (b *base) SetDataCallback(f DataCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onData = f
}

func (b *base) SetLogCallback(logger *slog.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
}

func (b *base) SetErrorCallback(f ErrorCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = f
}

func (b *base) deliverData(data []byte) {
	b.mu.Lock()
	cb := b.onData
	b.mu.Unlock()
	if cb != nil && len(data) > 0 {
		cb(data)
	}
}

func (b *base) deliverError(err error) {
	b.mu.Lock()
	cb := b.onError
	log := b.logger
	b.mu.Unlock()
	if log != nil {
		log.Error("endpoint error", "err", err)
	}
	if cb != nil {
		cb(err)
	}
}

func (b *base) log() *slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logger
}

// signalClose closes closeCh exactly once, waking every goroutine blocked
// on it.
func (b *base) signalClose() {
	b.closeOne.Do(func() { close(b.closeCh) })
}

// closed reports whether signalClose has fired, for goroutines that poll
// rather than select.
func (b *base) closed() bool {
	select {
	case <-b.closeCh:
		return true
	default:
		return false
	}
}
