package handlers_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidsystems/bridge/internal/api/handlers"
	"github.com/corvidsystems/bridge/internal/api/models"
	"github.com/corvidsystems/bridge/internal/channel"
	"github.com/corvidsystems/bridge/internal/config"
	"github.com/corvidsystems/bridge/internal/workerpool"
)

func setupTestRouter(h *handlers.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.GET("/channels", h.ListChannels)
	r.GET("/channels/:name", h.GetChannel)
	return r
}

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestHealth(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()
	mgr := channel.NewManager(pool, nil)
	h := handlers.New(mgr, nil)
	r := setupTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, int64(0))
}

func TestListChannels_EmptyWhenNoneRunning(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()
	mgr := channel.NewManager(pool, nil)
	h := handlers.New(mgr, nil)
	r := setupTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ChannelListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Channels)
}

func TestGetChannel_NotFound(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()
	mgr := channel.NewManager(pool, nil)
	h := handlers.New(mgr, nil)
	r := setupTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/channels/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChannel_ReturnsRunningChannel(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()
	mgr := channel.NewManager(pool, nil)

	cfg := config.ChannelConfig{
		Name:      "echo",
		EndpointA: config.EndpointConfig{Type: config.TCPServer, Port: freePort(t)},
		EndpointB: config.EndpointConfig{Type: config.TCPServer, Port: freePort(t)},
	}
	require.NoError(t, mgr.Add(context.Background(), cfg))
	defer mgr.StopAll()

	h := handlers.New(mgr, nil)
	r := setupTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/channels/echo", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "echo", resp.Name)
	assert.Equal(t, "tcp_server", resp.EndpointA.Type)
	assert.NotEmpty(t, resp.StateA)
	assert.NotEmpty(t, resp.StateB)
}
