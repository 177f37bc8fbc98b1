package api

import (
	"github.com/gin-gonic/gin"

	"github.com/corvidsystems/bridge/internal/api/handlers"
	"github.com/corvidsystems/bridge/internal/api/middleware"
)

// RegisterRoutes mounts the admin API's handlers at the documented paths.
// /healthz is never guarded by the API key so a liveness probe doesn't
// need credentials; the channel-inspection routes take the key when one
// is configured.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, apiKey string) {
	r.GET("/healthz", h.Health)

	group := r.Group("/")
	if apiKey != "" {
		group.Use(middleware.RequireAPIKey(apiKey))
	}

	group.GET("/channels", h.ListChannels)
	group.GET("/channels/:name", h.GetChannel)
}
