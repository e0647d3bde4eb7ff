package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/team-builder/internal/stats"
)

type HealthHandler struct {
	tables *stats.TableSet
}

func NewHealthHandler(tables *stats.TableSet) *HealthHandler {
	return &HealthHandler{
		tables: tables,
	}
}

// GetHealth returns basic liveness plus how many game tables loaded.
// Tables are read once at startup, so a running server is a ready server.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"service":           "team-builder",
		"games_loaded":      len(h.tables.Tables),
		"games_unavailable": len(h.tables.Failures),
		"time":              time.Now().UTC(),
	})
}
