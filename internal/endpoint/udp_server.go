package endpoint

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/corvidsystems/bridge/internal/bridgeerr"
)

// udpReadBufSize is sized for the largest possible UDP datagram so a
// single read never truncates one (resolves SPEC_FULL.md's UDP framing
// Open Question).
const udpReadBufSize = 64 * 1024

// UDPServer binds a fixed local port and forwards each inbound datagram
// whole. It has no accept step, so "peer" means any address a datagram has
// ever arrived from: Write fans the payload out as one datagram to every
// known peer, and peers are never evicted automatically (spec.md §4.4.3).
type UDPServer struct {
	base

	Port uint16

	mu      sync.Mutex
	conn    *net.UDPConn
	clients map[string]*net.UDPAddr
	wg      sync.WaitGroup
}

// NewUDPServer constructs a UDP server endpoint bound to port.
func NewUDPServer(port uint16) *UDPServer {
	s := &UDPServer{Port: port, clients: make(map[string]*net.UDPAddr)}
	s.init()
	return s
}

// Open binds the UDP socket and starts the receive loop. Idempotent.
func (s *UDPServer) Open(ctx context.Context) error {
	if s.State() == Connected {
		return nil
	}
	s.setState(Connecting)

	addr := &net.UDPAddr{Port: int(s.Port)}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		s.setState(Error)
		return fmt.Errorf("%w: udp_server listen :%d: %v", bridgeerr.ErrEndpointPermanent, s.Port, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.setState(Connected)
	s.wg.Add(1)
	go s.readLoop(conn)
	return nil
}

func (s *UDPServer) readLoop(conn *net.UDPConn) {
	defer s.wg.Done()
	buf := make([]byte, udpReadBufSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if s.closed() {
				return
			}
			s.setState(Error)
			s.deliverError(fmt.Errorf("%w: udp_server read: %v", bridgeerr.ErrEndpointTransient, err))
			return
		}

		s.mu.Lock()
		s.clients[addr.String()] = addr
		s.mu.Unlock()

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		s.deliverData(chunk)
	}
}

// Write sends data as one datagram to every peer that has ever sent this
// server a datagram. Success-with-zero-effect if none have yet arrived.
func (s *UDPServer) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	conn := s.conn
	peers := make([]*net.UDPAddr, 0, len(s.clients))
	for _, addr := range s.clients {
		peers = append(peers, addr)
	}
	s.mu.Unlock()
	if conn == nil {
		return
	}
	for _, addr := range peers {
		_, _ = conn.WriteToUDP(data, addr)
	}
}

// Close stops the receive loop and releases the socket.
func (s *UDPServer) Close() error {
	if s.State() == Disconnected {
		return nil
	}
	s.signalClose()

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	s.wg.Wait()
	s.setState(Disconnected)
	return nil
}
