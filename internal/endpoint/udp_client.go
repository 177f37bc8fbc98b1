package endpoint

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
)

// UDPClient sends datagrams to a fixed remote address and receives
// whatever comes back on the same socket. UDP is connectionless, so
// CONNECTED here means "socket created", not "peer reachable"
// (spec.md §4.4.4).
type UDPClient struct {
	base

	IP   string
	Port uint16

	mu   sync.Mutex
	conn *net.UDPConn
	wg   sync.WaitGroup
}

// NewUDPClient constructs a UDP client endpoint targeting ip:port.
func NewUDPClient(ip string, port uint16) *UDPClient {
	c := &UDPClient{IP: ip, Port: port}
	c.init()
	return c
}

// Open resolves the remote address, opens the local socket via Dial (which
// fixes the peer address for Write/Read without a handshake), and starts
// the receive loop. Idempotent.
func (c *UDPClient) Open(ctx context.Context) error {
	if c.State() == Connected {
		return nil
	}
	c.setState(Connecting)

	remote, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", c.IP, c.Port))
	if err != nil {
		c.setState(Error)
		return fmt.Errorf("%w: udp_client resolve %s:%d: %v", bridgeerr.ErrEndpointOpenFailed, c.IP, c.Port, err)
	}

	conn, err := net.DialUDP("udp", nil, remote)
	if err != nil {
		c.setState(Error)
		return fmt.Errorf("%w: udp_client dial %s:%d: %v", bridgeerr.ErrEndpointOpenFailed, c.IP, c.Port, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setState(Connected)
	c.wg.Add(1)
	go c.readLoop(conn)
	return nil
}

func (c *UDPClient) readLoop(conn *net.UDPConn) {
	defer c.wg.Done()
	buf := make([]byte, udpReadBufSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if c.closed() {
				return
			}
			c.setState(Error)
			c.deliverError(fmt.Errorf("%w: udp_client read: %v", bridgeerr.ErrEndpointTransient, err))
			return
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		c.deliverData(chunk)
	}
}

// Write sends data as a single datagram to the configured remote address.
// A short or failed write is logged and flips the endpoint to ERROR; the
// socket itself stays open since UDP has no connection to tear down.
func (c *UDPClient) Write(data []byte) {
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
		c.deliverError(fmt.Errorf("%w: udp_client write: %v", bridgeerr.ErrEndpointTransient, err))
	}
}

// Close stops the receive loop and releases the socket.
func (c *UDPClient) Close() error {
	if c.State() == Disconnected {
		return nil
	}
	c.signalClose()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	c.wg.Wait()
	c.setState(Disconnected)
	return nil
}
