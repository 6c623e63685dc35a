package server

import (
	"context"
	"dice-io-server/internal/engine"
	"dice-io-server/pkg/api"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const inspectTimeout = 2 * time.Second

// DebugHandler exposes the game's internal state. Reads go through the
// game loop, never straight into its memory.
type DebugHandler struct {
	Game *engine.Game
}

func NewDebugHandler(g *engine.Game) *DebugHandler {
	return &DebugHandler{Game: g}
}

func (h *DebugHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/entities", h.handleDumpEntities)
	r.GET("/stats", h.handleStats)
}

// /debug/entities - every player with a body, including hidden combat state
func (h *DebugHandler) handleDumpEntities(c *gin.Context) {
	msg, ok := h.inspect(c, engine.InspectEntities)
	if !ok {
		return
	}
	writeJSON(c, msg.Entities)
}

// /debug/stats - loop counters
func (h *DebugHandler) handleStats(c *gin.Context) {
	msg, ok := h.inspect(c, engine.InspectStats)
	if !ok {
		return
	}
	writeJSON(c, msg.Stats)
}

func (h *DebugHandler) inspect(c *gin.Context, cmd string) (api.DebugMessage, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), inspectTimeout)
	defer cancel()

	msg, err := h.Game.Inspect(ctx, cmd)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game loop did not answer"})
		return api.DebugMessage{}, false
	}
	return msg, true
}

func writeJSON(c *gin.Context, data interface{}) {
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")

	// an empty entity list goes out as [] rather than null
	switch v := data.(type) {
	case nil:
		c.Data(http.StatusOK, "application/json", []byte("[]"))
		return
	case []api.PlayerState:
		if v == nil {
			c.Data(http.StatusOK, "application/json", []byte("[]"))
			return
		}
	}
	c.JSON(http.StatusOK, data)
}
