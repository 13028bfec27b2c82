package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StatsHandlers serves the read-only occupancy snapshot.
type StatsHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewStatsHandlers creates a new stats handlers instance.
func NewStatsHandlers(hub Hub, logger *zerolog.Logger) *StatsHandlers {
	return &StatsHandlers{hub: hub, log: logger}
}

// StatsResponse represents the connection statistics body.
type StatsResponse struct {
	Connections  int `json:"connections"`
	Total        int `json:"total"`
	Visitors     int `json:"visitors"`
	Agents       int `json:"agents"`
	OnlineAgents int `json:"online_agents"`
	Typing       int `json:"typing"`
}

// GetStats returns participant counts partitioned by role.
// GET /api/stats
func (h *StatsHandlers) GetStats(c *gin.Context) {
	if subject := c.GetString(ContextKeySubject); subject != "" {
		h.log.Debug().Str("subject", subject).Msg("stats requested")
	}

	stats, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read relay stats")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "relay unavailable"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Connections:  stats.Connections,
		Total:        stats.Total,
		Visitors:     stats.Visitors,
		Agents:       stats.Agents,
		OnlineAgents: stats.OnlineAgents,
		Typing:       stats.Typing,
	})
}
