package ringbuf_test

import (
	"testing"

	"github.com/corvidsystems/bridge/internal/ringbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopRoundTrip(t *testing.T) {
	r := ringbuf.New(16)

	require.True(t, r.Push([]byte("hello")))
	out := r.Pop(64)
	assert.Equal(t, []byte("hello"), out)
	assert.True(t, r.Empty())
}

func TestPushWrapsAroundCapacityBoundary(t *testing.T) {
	r := ringbuf.New(8)

	require.True(t, r.Push([]byte("abcdef"))) // tail wraps past end next push
	require.Equal(t, []byte("abcdef"), r.Pop(6))
	require.True(t, r.Push([]byte("12345678")))
	assert.Equal(t, []byte("12345678"), r.Pop(8))
}

// TestOverflowDropsWholeChunk is scenario 3 / property P5: a push that
// would exceed capacity fails outright and stores nothing from that push.
func TestOverflowDropsWholeChunk(t *testing.T) {
	r := ringbuf.New(16)

	require.True(t, r.Push(make([]byte, 16)))
	ok := r.Push([]byte{1, 2, 3, 4})
	assert.False(t, ok)

	// Nothing from the failed push should be observable; draining the
	// buffer returns exactly the first 16 zero bytes.
	out := r.Pop(64)
	assert.Len(t, out, 16)
}

func TestPushExactlyAtCapacitySucceeds(t *testing.T) {
	r := ringbuf.New(4)
	assert.True(t, r.Push([]byte("abcd")))
	assert.False(t, r.Push([]byte("e")))
}

func TestPopOnEmptyReturnsNilNonBlocking(t *testing.T) {
	r := ringbuf.New(16)
	assert.Nil(t, r.Pop(16))
}

func TestShutdownDisablesPushAndDrainsToEmpty(t *testing.T) {
	r := ringbuf.New(16)
	require.True(t, r.Push([]byte("x")))

	r.Shutdown()

	assert.False(t, r.Push([]byte("y")))
	assert.True(t, r.Empty())
	assert.Nil(t, r.Pop(16))
}

func TestPopReturnsAtMostMax(t *testing.T) {
	r := ringbuf.New(32)
	require.True(t, r.Push([]byte("0123456789")))
	first := r.Pop(4)
	assert.Equal(t, []byte("0123"), first)
	rest := r.Pop(32)
	assert.Equal(t, []byte("456789"), rest)
}

func TestManySmallPushesThenWraparoundRead(t *testing.T) {
	r := ringbuf.New(8)
	for i := 0; i < 3; i++ {
		require.True(t, r.Push([]byte{byte(i)}))
		out := r.Pop(1)
		require.Equal(t, []byte{byte(i)}, out)
	}
	require.True(t, r.Push([]byte{10, 11, 12, 13, 14, 15, 16, 17}))
	assert.Equal(t, []byte{10, 11, 12, 13, 14, 15, 16, 17}, r.Pop(8))
}
