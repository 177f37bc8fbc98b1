package endpoint

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
)

const tcpReadBufSize = 4 * 1024

// TCPServer accepts multiple concurrent clients on a fixed port and
// broadcasts every Write to all of them. It reports CONNECTED as long as
// the listener is bound, independent of whether any peer is attached
// (spec.md §4.4.1).
type TCPServer struct {
	base

	Port uint16

	mu       sync.Mutex
	listener net.Listener
	peers    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewTCPServer constructs a TCP server endpoint bound to port.
func NewTCPServer(port uint16) *TCPServer {
	s := &TCPServer{Port: port, peers: make(map[net.Conn]struct{})}
	s.init()
	return s
}

// Open binds and starts listening. Idempotent: calling it while already
// CONNECTED is a no-op that returns nil.
func (s *TCPServer) Open(ctx context.Context) error {
	if s.State() == Connected {
		return nil
	}
	s.setState(Connecting)

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctlErr error
			err := c.Control(func(fd uintptr) {
				ctlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return ctlErr
		},
	}

	addr := fmt.Sprintf(":%d", s.Port)
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.setState(Error)
		return fmt.Errorf("%w: tcp_server listen %s: %v", bridgeerr.ErrEndpointPermanent, addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.setState(Connected)
	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

func (s *TCPServer) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed() {
				return
			}
			s.setState(Error)
			s.deliverError(fmt.Errorf("%w: tcp_server accept: %v", bridgeerr.ErrEndpointTransient, err))
			return
		}

		s.mu.Lock()
		s.peers[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.readLoop(conn)
	}
}

func (s *TCPServer) readLoop(conn net.Conn) {
	defer s.wg.Done()
	defer s.removePeer(conn)

	buf := make([]byte, tcpReadBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.deliverData(chunk)
		}
		if err != nil {
			return // EOF or error: peer disconnected, remove from table
		}
	}
}

func (s *TCPServer) removePeer(conn net.Conn) {
	s.mu.Lock()
	delete(s.peers, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// Write broadcasts data to every connected peer. A peer whose write fails
// is closed and evicted immediately after the broadcast pass completes —
// we snapshot the peer set before writing, so a failing write never
// invalidates the map we're iterating. Success-with-zero-effect when there
// are no peers, matching the spec's resolved Open Question.
func (s *TCPServer) Write(data []byte) {
	if len(data) == 0 {
		return
	}

	s.mu.Lock()
	peers := make([]net.Conn, 0, len(s.peers))
	for c := range s.peers {
		peers = append(peers, c)
	}
	s.mu.Unlock()

	var failed []net.Conn
	for _, c := range peers {
		if _, err := c.Write(data); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		s.removePeer(c)
	}
}

// Close closes every peer, then the listening socket, and waits for the
// accept loop and all read loops to exit.
func (s *TCPServer) Close() error {
	if s.State() == Disconnected {
		return nil
	}
	s.signalClose()

	s.mu.Lock()
	ln := s.listener
	peers := make([]net.Conn, 0, len(s.peers))
	for c := range s.peers {
		peers = append(peers, c)
	}
	s.mu.Unlock()

	for _, c := range peers {
		_ = c.Close()
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.wg.Wait()
	s.setState(Disconnected)
	return nil
}

// PeerCount returns the number of currently connected peers, used by
// tests.
func (s *TCPServer) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}
