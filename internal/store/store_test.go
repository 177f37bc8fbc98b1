package store_test

import (
	"path/filepath"
	"testing"

	"github.com/corvidsystems/bridge/internal/config"
	"github.com/corvidsystems/bridge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadChannelsOnFreshStoreIsEmpty(t *testing.T) {
	s := openTestStore(t)
	channels, err := s.LoadChannels()
	require.NoError(t, err)
	assert.Empty(t, channels)
}

// TestReplaceThenLoadRoundTrips exercises property P9's store leg:
// replace_channels(C); load_channels() == C, order preserved on name.
func TestReplaceThenLoadRoundTrips(t *testing.T) {
	s := openTestStore(t)

	want := []config.ChannelConfig{
		{
			Name:      "alpha",
			EndpointA: config.EndpointConfig{Type: config.TCPServer, Port: 9100},
			EndpointB: config.EndpointConfig{Type: config.TCPServer, Port: 9101},
		},
		{
			Name:      "beta",
			EndpointA: config.EndpointConfig{Type: config.Serial, SerialPort: "/dev/ttyS0", BaudRate: 115200},
			EndpointB: config.EndpointConfig{Type: config.TCPClient, IP: "127.0.0.1", Port: 9200},
		},
	}

	require.NoError(t, s.ReplaceChannels(want))
	got, err := s.LoadChannels()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReplaceChannelsIsAtomicAndClearsPrevious(t *testing.T) {
	s := openTestStore(t)

	first := []config.ChannelConfig{
		{Name: "a", EndpointA: config.EndpointConfig{Type: config.UDPServer, Port: 1}, EndpointB: config.EndpointConfig{Type: config.UDPServer, Port: 2}},
	}
	require.NoError(t, s.ReplaceChannels(first))

	second := []config.ChannelConfig{
		{Name: "b", EndpointA: config.EndpointConfig{Type: config.UDPServer, Port: 3}, EndpointB: config.EndpointConfig{Type: config.UDPServer, Port: 4}},
	}
	require.NoError(t, s.ReplaceChannels(second))

	got, err := s.LoadChannels()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
}

func TestReplaceChannelsWithEmptySliceClearsTable(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.ReplaceChannels([]config.ChannelConfig{
		{Name: "a", EndpointA: config.EndpointConfig{Type: config.UDPServer, Port: 1}, EndpointB: config.EndpointConfig{Type: config.UDPServer, Port: 2}},
	}))
	require.NoError(t, s.ReplaceChannels(nil))

	got, err := s.LoadChannels()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHealth(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Health())
}
