package endpoint

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
	"github.com/corvidsystems/bridge/internal/config"
)

const serialReadBufSize = 4 * 1024

// Serial binds a single local serial device at a fixed baud rate. Unlike
// the network drivers it has exactly one peer by construction, so there is
// no broadcast/last-sender bookkeeping — just open, read, write
// (spec.md §4.4.5).
type Serial struct {
	base

	Port     string
	BaudRate uint32

	mu     sync.Mutex
	port   *serial.Port
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSerial constructs a serial endpoint for the given device path and
// baud rate.
func NewSerial(devicePort string, baud uint32) *Serial {
	s := &Serial{Port: devicePort, BaudRate: baud}
	s.init()
	return s
}

// Open starts a connect-and-retry loop in the background, matching
// TCPClient: a serial device can be unplugged and reattached, and the
// driver should recover without the caller re-invoking Open.
func (s *Serial) Open(ctx context.Context) error {
	if s.State() == Connecting || s.State() == Connected {
		return nil
	}
	if !config.StandardBaudRates[s.BaudRate] {
		s.setState(Error)
		return fmt.Errorf("%w: serial %s: unsupported baud rate %d", bridgeerr.ErrEndpointPermanent, s.Port, s.BaudRate)
	}
	s.setState(Connecting)

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.openLoop(runCtx)
	return nil
}

func (s *Serial) openLoop(ctx context.Context) {
	defer s.wg.Done()

	bo := backoff.NewConstantBackOff(reconnectCooldown)
	for {
		if s.closed() {
			return
		}

		cfg := &serial.Config{Name: s.Port, Baud: int(s.BaudRate)}
		port, err := serial.OpenPort(cfg)
		if err != nil {
			s.setState(Error)
			s.deliverError(fmt.Errorf("%w: serial open %s: %v", bridgeerr.ErrEndpointOpenFailed, s.Port, err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(bo.NextBackOff()):
				continue
			}
		}

		s.mu.Lock()
		s.port = port
		s.mu.Unlock()
		s.setState(Connected)

		s.readUntilBroken(port)

		s.mu.Lock()
		s.port = nil
		s.mu.Unlock()

		if s.closed() {
			return
		}
		s.setState(Error)

		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}

func (s *Serial) readUntilBroken(port *serial.Port) {
	buf := make([]byte, serialReadBufSize)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.deliverData(chunk)
		}
		if err != nil {
			_ = port.Close()
			return
		}
	}
}

// Write writes to the open serial port. Success-with-zero-effect while
// disconnected. A short or failed write is logged and flips the endpoint
// to ERROR, closing the port so the open loop reconnects.
func (s *Serial) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return
	}
	n, err := port.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.setState(Error)
		s.deliverError(fmt.Errorf("%w: serial write: %v", bridgeerr.ErrEndpointTransient, err))
		_ = port.Close()
	}
}

// Close stops the open loop and releases the device.
func (s *Serial) Close() error {
	if s.State() == Disconnected {
		return nil
	}
	s.signalClose()

	s.mu.Lock()
	cancel := s.cancel
	port := s.port
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if port != nil {
		_ = port.Close()
	}
	s.wg.Wait()
	s.setState(Disconnected)
	return nil
}
