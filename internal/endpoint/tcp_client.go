package endpoint

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
)

// reconnectCooldown is the fixed delay between dial attempts while a
// TCPClient is trying to re-establish a lost connection.
const reconnectCooldown = 1 * time.Second

// TCPClient dials out to a fixed remote address and reconnects on a
// constant back-off whenever the connection drops (spec.md §4.4.2).
type TCPClient struct {
	base

	IP   string
	Port uint16

	mu      sync.Mutex
	conn    net.Conn
	dialCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTCPClient constructs a TCP client endpoint targeting ip:port.
func NewTCPClient(ip string, port uint16) *TCPClient {
	c := &TCPClient{IP: ip, Port: port}
	c.init()
	return c
}

// Open starts the connect-and-retry loop in the background and returns
// immediately; State() transitions to CONNECTED once the first dial
// succeeds. Idempotent while already connecting or connected.
func (c *TCPClient) Open(ctx context.Context) error {
	if c.State() == Connecting || c.State() == Connected {
		return nil
	}
	c.setState(Connecting)

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.dialCtx = runCtx
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.dialLoop(runCtx)
	return nil
}

func (c *TCPClient) dialLoop(ctx context.Context) {
	defer c.wg.Done()

	bo := backoff.NewConstantBackOff(reconnectCooldown)
	for {
		if c.closed() {
			return
		}

		dialer := net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", c.IP, c.Port))
		if err != nil {
			c.setState(Error)
			c.deliverError(fmt.Errorf("%w: tcp_client dial %s:%d: %v", bridgeerr.ErrEndpointTransient, c.IP, c.Port, err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(bo.NextBackOff()):
				continue
			}
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(Connected)

		c.readUntilBroken(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.closed() {
			return
		}
		c.setState(Error)

		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}

func (c *TCPClient) readUntilBroken(conn net.Conn) {
	buf := make([]byte, tcpReadBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.deliverData(chunk)
		}
		if err != nil {
			_ = conn.Close()
			return
		}
	}
}

// Write sends to the current connection. While disconnected the data is
// discarded without error; it is not buffered for a later reconnect. A short or failed write flips the endpoint to ERROR and closes the
// connection, driving the dial loop into its reconnect path.
func (c *TCPClient) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	n, err := conn.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		c.setState(Error)
		c.deliverError(fmt.Errorf("%w: tcp_client write: %v", bridgeerr.ErrEndpointTransient, err))
		_ = conn.Close()
	}
}

// Close stops the dial loop and closes any live connection.
func (c *TCPClient) Close() error {
	if c.State() == Disconnected {
		return nil
	}
	c.signalClose()

	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.wg.Wait()
	c.setState(Disconnected)
	return nil
}
