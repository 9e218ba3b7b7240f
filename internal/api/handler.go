package api

import (
	"errors"
	"net/http"

	"github.com/duelforge/arena/internal/battle"
	"github.com/duelforge/arena/internal/constants"
	"github.com/duelforge/arena/internal/metrics"
	"github.com/duelforge/arena/internal/recovery"
	"github.com/duelforge/arena/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ArenaHandler serves the operational HTTP surface: health, metrics and
// administrative session management. Player-facing duel actions arrive
// through the chat integration, not through HTTP.
type ArenaHandler struct {
	orch      *service.Orchestrator
	sweeper   *recovery.Sweeper
	collector *metrics.Collector
}

func NewArenaHandler(orch *service.Orchestrator, sweeper *recovery.Sweeper, collector *metrics.Collector) *ArenaHandler {
	return &ArenaHandler{orch: orch, sweeper: sweeper, collector: collector}
}

// RegisterRoutes wires the handler onto the router.
func (h *ArenaHandler) RegisterRoutes(router *gin.Engine) {
	router.GET(constants.RouteHealth, h.Health)

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteStats, h.GetStats)
		apiRoutes.GET(constants.RouteSessions, h.ListSessions)
		apiRoutes.GET(constants.RouteSessionCounts, h.GetSessionCounts)
		apiRoutes.POST(constants.RouteSessionCancel, h.CancelSession)
	}
}

// Health reports process liveness.
func (h *ArenaHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}

// GetStats returns the metrics snapshot.
func (h *ArenaHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Snapshot())
}

// ListSessions returns the durable records still in a non-terminal state.
func (h *ArenaHandler) ListSessions(c *gin.Context) {
	records, err := h.sweeper.ListUnfinished()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchSessions})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetSessionCounts returns the durable census per session status.
func (h *ArenaHandler) GetSessionCounts(c *gin.Context) {
	counts, err := h.sweeper.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchCounts})
		return
	}
	out := gin.H{}
	for status, n := range counts {
		out[string(status)] = n
	}
	c.JSON(http.StatusOK, out)
}

// CancelSession force-ends a live session with the aborted cause.
func (h *ArenaHandler) CancelSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidSessionID})
		return
	}
	s, err := h.orch.AdminCancel(sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.JSONKeyStatus: string(battle.StatusEnded),
		"session":               s,
	})
}

// writeServiceError maps typed orchestrator failures onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrExpired):
		status = http.StatusGone
	}
	c.JSON(status, gin.H{constants.JSONKeyError: err.Error()})
}
