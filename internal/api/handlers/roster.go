package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/api/middleware"
	"github.com/jstittsworth/team-builder/internal/charts"
	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/session"
	"github.com/jstittsworth/team-builder/internal/stats"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

// Resolution status values returned by the roster endpoints
const (
	StatusComplete          = "complete"
	StatusNeedsSubstitution = "needs_substitution"
)

// RosterHandler serves the resolve / substitute / recalculate workflow.
// Team assignments ride on every request; only substitution decisions
// live server-side, keyed by session.
type RosterHandler struct {
	resolver   *stats.Resolver
	aggregator *stats.Aggregator
	renderer   *charts.Renderer
	sessions   session.Store
	logger     *logrus.Logger
}

func NewRosterHandler(resolver *stats.Resolver, aggregator *stats.Aggregator, renderer *charts.Renderer, sessions session.Store, logger *logrus.Logger) *RosterHandler {
	return &RosterHandler{
		resolver:   resolver,
		aggregator: aggregator,
		renderer:   renderer,
		sessions:   sessions,
		logger:     logger,
	}
}

type rosterRequest struct {
	Teams map[string][]string `json:"teams"`
}

type substitutionsRequest struct {
	Teams     map[string][]string `json:"teams"`
	Decisions []game.Decision     `json:"decisions"`
}

// resolutionStatus is the response body shared by the resolve and
// substitution endpoints.
type resolutionStatus struct {
	Status    string            `json:"status"`
	Games     []stats.GameGap   `json:"games"`
	Players   []stats.PlayerGap `json:"players,omitempty"`
	Decisions []game.Decision   `json:"decisions,omitempty"`
}

type recalcResponse struct {
	Result     *game.AggregateResult    `json:"result"`
	PerGameImg string                   `json:"per_game_img"`
	DiffImg    string                   `json:"diff_img"`
	DiffImgs   map[game.TeamName]string `json:"diff_imgs"`
}

// ResolveRoster reports, per game, which assigned players have no table
// row and who could stand in for them. The session's stored decisions
// are applied before reporting, so a fully decided roster comes back
// complete.
func (h *RosterHandler) ResolveRoster(c *gin.Context) {
	var req rosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	assignments, err := game.ParseAssignments(req.Teams)
	if err != nil {
		utils.SendValidationError(c, "Invalid team assignments", err.Error())
		return
	}

	state, ok := h.loadState(c)
	if !ok {
		return
	}

	res := h.resolver.Resolve(assignments, state.Decisions)
	utils.SendSuccess(c, http.StatusOK, statusFor(res, state.Decisions))
}

// SubmitSubstitutions validates the submitted decisions against the
// roster's actual gaps, stores them in the session, and returns the
// updated resolution status.
func (h *RosterHandler) SubmitSubstitutions(c *gin.Context) {
	var req substitutionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if len(req.Decisions) == 0 {
		utils.SendValidationError(c, "At least one decision is required", nil)
		return
	}

	assignments, err := game.ParseAssignments(req.Teams)
	if err != nil {
		utils.SendValidationError(c, "Invalid team assignments", err.Error())
		return
	}

	if appErr := h.resolver.ValidateDecisions(assignments, req.Decisions); appErr != nil {
		utils.SendAppError(c, appErr)
		return
	}

	state, ok := h.loadState(c)
	if !ok {
		return
	}
	for _, d := range req.Decisions {
		state.UpsertDecision(d)
	}
	if !h.saveState(c, state) {
		return
	}

	res := h.resolver.Resolve(assignments, state.Decisions)
	utils.SendSuccess(c, http.StatusOK, statusFor(res, state.Decisions))
}

// ClearSubstitutions drops every decision the session has stored
func (h *RosterHandler) ClearSubstitutions(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		h.logger.WithField("session_id", sessionID).WithError(err).Error("Failed to clear session decisions")
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "failed to clear substitutions", nil))
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"cleared": true})
}

// Recalculate runs the full pipeline on a resolved roster: aggregate,
// then render the per-game grid and the four differential charts. A
// roster with undecided missing players is rejected whole; no partial
// result is ever returned.
func (h *RosterHandler) Recalculate(c *gin.Context) {
	var req rosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	assignments, err := game.ParseAssignments(req.Teams)
	if err != nil {
		utils.SendValidationError(c, "Invalid team assignments", err.Error())
		return
	}

	state, ok := h.loadState(c)
	if !ok {
		return
	}

	res := h.resolver.Resolve(assignments, state.Decisions)
	result, err := h.aggregator.Aggregate(res)
	if err != nil {
		if appErr, isApp := err.(*utils.AppError); isApp {
			utils.SendAppError(c, appErr)
			return
		}
		h.logger.WithError(err).Error("Aggregation failed")
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "recalculation failed", nil))
		return
	}

	perGameImg, err := h.renderer.PerGameGrid(result)
	if err != nil {
		h.logger.WithError(err).Error("Per-game chart rendering failed")
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "chart rendering failed", nil))
		return
	}

	diffImgs, diffSheet, err := h.renderer.TeamDifferentials(result)
	if err != nil {
		h.logger.WithError(err).Error("Differential chart rendering failed")
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "chart rendering failed", nil))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"session_id": middleware.GetSessionID(c),
		"players":    len(assignments.Players()),
		"games":      len(result.Games),
	}).Info("Recalculated team stats")

	utils.SendSuccess(c, http.StatusOK, recalcResponse{
		Result:     result,
		PerGameImg: perGameImg,
		DiffImg:    diffSheet,
		DiffImgs:   diffImgs,
	})
}

// loadState fetches the session's decisions, treating an absent session
// as empty. A false return means the response has already been sent.
func (h *RosterHandler) loadState(c *gin.Context) (*session.State, bool) {
	sessionID := middleware.GetSessionID(c)
	state, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err == session.ErrNotFound {
		return &session.State{}, true
	}
	if err != nil {
		h.logger.WithField("session_id", sessionID).WithError(err).Error("Session store read failed")
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "session store unavailable", nil))
		return nil, false
	}
	return state, true
}

func (h *RosterHandler) saveState(c *gin.Context, state *session.State) bool {
	sessionID := middleware.GetSessionID(c)
	state.Touch()
	if err := h.sessions.Put(c.Request.Context(), sessionID, state); err != nil {
		h.logger.WithField("session_id", sessionID).WithError(err).Error("Session store write failed")
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "session store unavailable", nil))
		return false
	}
	return true
}

func statusFor(res *stats.Resolution, decisions []game.Decision) resolutionStatus {
	status := StatusComplete
	if !res.Complete {
		status = StatusNeedsSubstitution
	}
	return resolutionStatus{
		Status:    status,
		Games:     res.Games,
		Players:   res.Players,
		Decisions: decisions,
	}
}
