package game

import (
	"sort"
	"time"
)

// Table holds one game's scores keyed by player name. Scores are kept as
// sample lists so multi-sample sources average naturally; CSV input yields
// one sample per player. Immutable once loaded.
type Table struct {
	GameKey  string               `json:"game_key"`
	Samples  map[string][]float64 `json:"samples"`
	Source   string               `json:"source"`
	Modified time.Time            `json:"modified"`
}

// Has reports whether the table has a row for the player
func (t *Table) Has(player string) bool {
	_, ok := t.Samples[player]
	return ok
}

// Players returns the table's player names sorted for stable output
func (t *Table) Players() []string {
	players := make([]string, 0, len(t.Samples))
	for name := range t.Samples {
		players = append(players, name)
	}
	sort.Strings(players)
	return players
}

// Decision resolves one missing player: use a substitute's row or ignore
// the player. An empty GameKey makes the decision global, applying to
// every game where the player is missing.
type Decision struct {
	Player     string `json:"player"`
	GameKey    string `json:"game,omitempty"`
	Substitute string `json:"substitute,omitempty"`
	Ignore     bool   `json:"ignore,omitempty"`
}

// Global reports whether the decision applies across all games
func (d Decision) Global() bool {
	return d.GameKey == ""
}

// AggregateResult is the transient output of one recalculation. It is
// recomputed per request and never persisted.
type AggregateResult struct {
	// Teams is the roster the result was computed for.
	Teams Assignments `json:"teams"`

	// Games lists the aggregated game keys in configured order;
	// DiffGames is the non-overall subset differentials cover.
	Games     []string `json:"games"`
	DiffGames []string `json:"diff_games"`

	// PlayerAverages holds player -> game -> mean score. A player has an
	// entry only for games where a score was counted for them.
	PlayerAverages map[string]map[string]float64 `json:"player_averages"`

	// Per game: team totals, counted players, per-player team average
	// (rounded to 2 decimals), and the cross-team mean of totals.
	TeamTotals   map[string]map[TeamName]float64 `json:"team_totals"`
	TeamCounts   map[string]map[TeamName]int     `json:"team_counts"`
	TeamAverages map[string]map[TeamName]float64 `json:"team_averages"`
	TeamMeans    map[string]float64              `json:"team_means"`

	// Differentials holds team -> per-game differential aligned with
	// DiffGames: team total minus the mean of all four team totals.
	Differentials map[TeamName][]float64 `json:"differentials"`
}

// Empty reports whether the result has nothing to chart
func (r *AggregateResult) Empty() bool {
	return len(r.Games) == 0 || len(r.PlayerAverages) == 0
}
