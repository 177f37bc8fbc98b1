package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/corvidsystems/bridge/internal/api/models"
	"github.com/corvidsystems/bridge/internal/channel"
	"github.com/corvidsystems/bridge/internal/config"
)

// ListChannels returns every currently running channel, sorted by name for
// a stable response ordering.
func (h *Handler) ListChannels(c *gin.Context) {
	names := h.manager.Names()
	sort.Strings(names)

	resp := models.ChannelListResponse{Channels: make([]models.ChannelResponse, 0, len(names))}
	for _, name := range names {
		ch, ok := h.manager.Get(name)
		if !ok {
			continue
		}
		resp.Channels = append(resp.Channels, toChannelResponse(ch))
	}
	c.JSON(http.StatusOK, resp)
}

// GetChannel returns a single running channel by name, or 404 if it isn't
// currently running.
func (h *Handler) GetChannel(c *gin.Context) {
	name := c.Param("name")
	ch, ok := h.manager.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "channel not found"})
		return
	}
	c.JSON(http.StatusOK, toChannelResponse(ch))
}

func toChannelResponse(ch *channel.Channel) models.ChannelResponse {
	cfg := ch.Config()
	stats := ch.Stats()
	return models.ChannelResponse{
		Name:      cfg.Name,
		EndpointA: toEndpointResponse(cfg.EndpointA),
		EndpointB: toEndpointResponse(cfg.EndpointB),
		StateA:    ch.StateA().String(),
		StateB:    ch.StateB().String(),
		BytesAB:   stats.BytesAtoB,
		BytesBA:   stats.BytesBtoA,
		DropsAB:   stats.DropsAtoB,
		DropsBA:   stats.DropsBtoA,
	}
}

func toEndpointResponse(e config.EndpointConfig) models.EndpointResponse {
	return models.EndpointResponse{
		Type:       string(e.Type),
		IP:         e.IP,
		Port:       e.Port,
		SerialPort: e.SerialPort,
		BaudRate:   e.BaudRate,
	}
}
