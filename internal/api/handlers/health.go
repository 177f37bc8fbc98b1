package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/corvidsystems/bridge/internal/api/models"
)

// Health reports process liveness plus a cheap resource snapshot. It never
// depends on channel state, so it stays a 200 even while every configured
// channel is reconnecting.
func (h *Handler) Health(c *gin.Context) {
	uptime := time.Since(h.startTime)

	var memUsedMB float64
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memUsedMB = float64(vmStat.Used) / 1024 / 1024
	}

	var cpuPercent float64
	if pcts, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pcts) > 0 {
		cpuPercent = pcts[0]
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(uptime.Seconds()),
		CPUPercent:    cpuPercent,
		MemoryUsedMB:  memUsedMB,
	})
}
