package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/team-builder/internal/charts"
	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/stats"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

// PlayersHandler looks one player up across every loaded game
type PlayersHandler struct {
	tables   *stats.TableSet
	renderer *charts.Renderer
}

func NewPlayersHandler(tables *stats.TableSet, renderer *charts.Renderer) *PlayersHandler {
	return &PlayersHandler{
		tables:   tables,
		renderer: renderer,
	}
}

type playerGameScore struct {
	Game  string  `json:"game"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type playerResponse struct {
	Player string            `json:"player"`
	Games  []playerGameScore `json:"games"`
	Img    string            `json:"img"`
}

// GetPlayer returns the player's score in every aggregated game where
// they have a row, matched case-insensitively, plus a bar chart of
// those scores. A name present in no game is a 404.
func (h *PlayersHandler) GetPlayer(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		utils.SendValidationError(c, "player name is required", nil)
		return
	}

	canonical := ""
	var found []playerGameScore
	for _, mode := range game.AggregateModes() {
		table, ok := h.tables.Get(mode.Key)
		if !ok {
			continue
		}
		row, ok := lookupFold(table, name)
		if !ok {
			continue
		}
		if canonical == "" {
			canonical = row
		}
		found = append(found, playerGameScore{
			Game:  mode.Key,
			Name:  mode.Name,
			Score: meanOf(table.Samples[row]),
		})
	}

	if len(found) == 0 {
		utils.SendError(c, http.StatusNotFound,
			utils.NewAppError(utils.ErrCodeNotFound, "player has no stats in any game", gin.H{"player": name}))
		return
	}

	labels := make([]string, len(found))
	scores := make([]float64, len(found))
	for i, f := range found {
		labels[i] = f.Name
		scores[i] = f.Score
	}

	img, err := h.renderer.PlayerGames(canonical, labels, scores)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "chart rendering failed", nil))
		return
	}

	utils.SendSuccess(c, http.StatusOK, playerResponse{
		Player: canonical,
		Games:  found,
		Img:    img,
	})
}

// lookupFold finds a player's row by case-insensitive name, returning
// the name as spelled in the table. Exact matches win; otherwise the
// first fold match in sorted order keeps the result deterministic.
func lookupFold(table *game.Table, name string) (string, bool) {
	if table.Has(name) {
		return name, true
	}
	for _, row := range table.Players() {
		if strings.EqualFold(row, name) {
			return row, true
		}
	}
	return "", false
}
