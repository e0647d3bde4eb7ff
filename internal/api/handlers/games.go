package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/team-builder/internal/charts"
	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/stats"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

const defaultLeaderboardLimit = 20

// GamesHandler exposes the configured games and per-game leaderboards
type GamesHandler struct {
	tables   *stats.TableSet
	renderer *charts.Renderer
}

func NewGamesHandler(tables *stats.TableSet, renderer *charts.Renderer) *GamesHandler {
	return &GamesHandler{
		tables:   tables,
		renderer: renderer,
	}
}

type gameInfo struct {
	Key             string     `json:"key"`
	Name            string     `json:"name"`
	ShortLabel      string     `json:"short_label"`
	Overall         bool       `json:"overall"`
	InDifferentials bool       `json:"in_differentials"`
	Available       bool       `json:"available"`
	Rows            int        `json:"rows,omitempty"`
	Updated         *time.Time `json:"updated,omitempty"`
	Error           string     `json:"error,omitempty"`
}

type leaderboardEntry struct {
	Player string  `json:"player"`
	Score  float64 `json:"score"`
}

type leaderboardResponse struct {
	Game    string             `json:"game"`
	Name    string             `json:"name"`
	Entries []leaderboardEntry `json:"entries"`
	Img     string             `json:"img"`
}

// ListGames returns every enabled game with its availability, row count,
// and file freshness. The meta timestamp is the newest table on disk,
// advisory only.
func (h *GamesHandler) ListGames(c *gin.Context) {
	var games []gameInfo
	for _, mode := range game.EnabledModes() {
		info := gameInfo{
			Key:             mode.Key,
			Name:            mode.Name,
			ShortLabel:      mode.ShortLabel,
			Overall:         mode.Overall,
			InDifferentials: mode.InDifferentials,
		}

		if table, ok := h.tables.Get(mode.Key); ok {
			info.Available = true
			info.Rows = len(table.Samples)
			modified := table.Modified
			info.Updated = &modified
		} else {
			info.Error = h.tables.Failures[mode.Key]
		}

		games = append(games, info)
	}

	meta := &utils.Meta{Total: len(games)}
	if !h.tables.Updated.IsZero() {
		meta.Updated = h.tables.Updated.Format(time.RFC3339)
	}
	utils.SendSuccessWithMeta(c, http.StatusOK, games, meta)
}

// GetLeaderboard returns one game's top players, highest score first,
// with a rendered bar chart. Ties break on name so the order is stable.
func (h *GamesHandler) GetLeaderboard(c *gin.Context) {
	key := c.Param("key")
	mode, ok := game.ModeByKey(key)
	if !ok || !mode.Enabled {
		utils.SendError(c, http.StatusNotFound,
			utils.NewAppError(utils.ErrCodeNotFound, "unknown game", gin.H{"game": key}))
		return
	}

	table, ok := h.tables.Get(mode.Key)
	if !ok {
		utils.SendAppError(c, utils.NewLoadError(mode.Key, "game unavailable: "+h.tables.Failures[mode.Key]))
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLeaderboardLimit)))
	if err != nil || limit < 1 {
		utils.SendValidationError(c, "limit must be a positive integer", c.Query("limit"))
		return
	}
	if limit > 100 {
		limit = 100
	}

	entries := make([]leaderboardEntry, 0, len(table.Samples))
	for _, player := range table.Players() {
		entries = append(entries, leaderboardEntry{
			Player: player,
			Score:  meanOf(table.Samples[player]),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	players := make([]string, len(entries))
	scores := make([]float64, len(entries))
	for i, e := range entries {
		players[i] = e.Player
		scores[i] = e.Score
	}

	img, err := h.renderer.Leaderboard(mode.Name+" Leaderboard", players, scores)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeInternal, "chart rendering failed", nil))
		return
	}

	utils.SendSuccessWithMeta(c, http.StatusOK, leaderboardResponse{
		Game:    mode.Key,
		Name:    mode.Name,
		Entries: entries,
		Img:     img,
	}, &utils.Meta{Total: len(table.Samples), Limit: limit})
}

func meanOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
