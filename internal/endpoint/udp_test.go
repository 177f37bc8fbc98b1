package endpoint

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUDPRoundTripPreservesDatagramBoundaries targets property P2: a
// single Write on one side arrives as exactly one data callback invocation
// on the other, never split or coalesced.
func TestUDPRoundTripPreservesDatagramBoundaries(t *testing.T) {
	srv := NewUDPServer(0)
	require.NoError(t, srv.Open(context.Background()))
	defer srv.Close()
	port := srv.conn.LocalAddr().(*net.UDPAddr).Port

	received := make(chan []byte, 4)
	srv.SetDataCallback(func(data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		received <- cp
	})

	client := NewUDPClient("127.0.0.1", uint16(port))
	require.NoError(t, client.Open(context.Background()))
	defer client.Close()

	client.Write([]byte("datagram-one"))

	select {
	case got := <-received:
		assert.Equal(t, "datagram-one", string(got))
	case <-time.After(time.Second):
		t.Fatal("server never received datagram")
	}

	clientReceived := make(chan []byte, 4)
	client.SetDataCallback(func(data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		clientReceived <- cp
	})

	srv.Write([]byte("reply"))
	select {
	case got := <-clientReceived:
		assert.Equal(t, "reply", string(got))
	case <-time.After(time.Second):
		t.Fatal("client never received reply")
	}
}

func TestUDPServerWriteBeforeAnyDatagramIsNoop(t *testing.T) {
	srv := NewUDPServer(0)
	require.NoError(t, srv.Open(context.Background()))
	defer srv.Close()
	assert.NotPanics(t, func() { srv.Write([]byte("nobody yet")) })
}

// TestUDPServerFansOutToEveryKnownPeer targets spec.md §8 scenario 6: once
// two distinct clients have each sent the server a datagram, a single
// server-side Write reaches both, not just the most recent sender.
func TestUDPServerFansOutToEveryKnownPeer(t *testing.T) {
	srv := NewUDPServer(0)
	require.NoError(t, srv.Open(context.Background()))
	defer srv.Close()
	port := srv.conn.LocalAddr().(*net.UDPAddr).Port

	srv.SetDataCallback(func(data []byte) {})

	client1 := NewUDPClient("127.0.0.1", uint16(port))
	require.NoError(t, client1.Open(context.Background()))
	defer client1.Close()

	client2 := NewUDPClient("127.0.0.1", uint16(port))
	require.NoError(t, client2.Open(context.Background()))
	defer client2.Close()

	client1.Write([]byte("hello-from-1"))
	client2.Write([]byte("hello-from-2"))
	time.Sleep(100 * time.Millisecond) // let both datagrams register as known peers

	got1 := make(chan []byte, 1)
	client1.SetDataCallback(func(data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		got1 <- cp
	})
	got2 := make(chan []byte, 1)
	client2.SetDataCallback(func(data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		got2 <- cp
	})

	srv.Write([]byte("broadcast"))

	select {
	case got := <-got1:
		assert.Equal(t, "broadcast", string(got))
	case <-time.After(time.Second):
		t.Fatal("client1 never received the fan-out datagram")
	}
	select {
	case got := <-got2:
		assert.Equal(t, "broadcast", string(got))
	case <-time.After(time.Second):
		t.Fatal("client2 never received the fan-out datagram")
	}
}

func TestUDPClientCloseIsIdempotent(t *testing.T) {
	client := NewUDPClient("127.0.0.1", 1)
	require.NoError(t, client.Open(context.Background()))
	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}

// TestUDPClientWriteFailureFlipsToError targets the write-error path of
// spec.md §4.4.2/§4.8: a write against a broken socket flips the endpoint
// to ERROR rather than silently swallowing the error.
func TestUDPClientWriteFailureFlipsToError(t *testing.T) {
	client := NewUDPClient("127.0.0.1", 9)
	require.NoError(t, client.Open(context.Background()))
	defer client.Close()
	require.Eventually(t, func() bool { return client.State() == Connected }, time.Second, 10*time.Millisecond)

	client.mu.Lock()
	conn := client.conn
	client.mu.Unlock()
	require.NoError(t, conn.Close())

	client.Write([]byte("x"))
	assert.Equal(t, Error, client.State())
}
