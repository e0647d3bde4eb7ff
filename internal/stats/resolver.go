package stats

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

// GameGap lists one game's missing players and its candidate substitutes
// (players in the table not assigned to any team).
type GameGap struct {
	GameKey    string   `json:"game"`
	Missing    []string `json:"missing"`
	Candidates []string `json:"candidates"`
}

// PlayerGap rolls up where one player is still missing. MissingEverywhere
// flags a player absent from every available game, who can only be ignored.
type PlayerGap struct {
	Player            string   `json:"player"`
	MissingGames      []string `json:"missing_games"`
	MissingEverywhere bool     `json:"missing_everywhere"`
}

// Resolution is the outcome of reconciling team assignments against the
// loaded tables with the session's decisions applied.
type Resolution struct {
	Complete bool        `json:"complete"`
	Games    []GameGap   `json:"games"`
	Players  []PlayerGap `json:"players,omitempty"`

	// Assignments and the per-game resolved samples feed the aggregator.
	// Ignored players have no entry; a substituted player carries the
	// substitute's samples.
	Assignments game.Assignments                `json:"-"`
	Resolved    map[string]map[string][]float64 `json:"-"`
	GameKeys    []string                        `json:"-"`
}

// Resolver reconciles team assignments against loaded tables
type Resolver struct {
	tables *TableSet
	log    *logrus.Logger
}

// NewResolver creates a resolver over the loaded table set
func NewResolver(tables *TableSet, log *logrus.Logger) *Resolver {
	return &Resolver{
		tables: tables,
		log:    log,
	}
}

// games returns the available modes included in aggregation, in
// configured order
func (r *Resolver) games() []game.Mode {
	var out []game.Mode
	for _, mode := range game.AggregateModes() {
		if r.tables.Available(mode.Key) {
			out = append(out, mode)
		}
	}
	return out
}

// Resolve applies decisions and reports the remaining gaps. Decisions
// never mutate assignments; they only redirect which table row a missing
// player's score is read from. A decision for a player who has their own
// row in a game is inert for that game.
func (r *Resolver) Resolve(assignments game.Assignments, decisions []game.Decision) *Resolution {
	perGame, global := indexDecisions(decisions)
	players := assignments.Players()
	modes := r.games()

	res := &Resolution{
		Complete:    true,
		Assignments: assignments,
		Resolved:    make(map[string]map[string][]float64, len(modes)),
	}

	missingGames := make(map[string][]string)

	for _, mode := range modes {
		table, _ := r.tables.Get(mode.Key)
		resolved := make(map[string][]float64, len(players))
		var missing []string

		for _, player := range players {
			if table.Has(player) {
				resolved[player] = table.Samples[player]
				continue
			}

			decision, ok := perGame[mode.Key][player]
			if !ok {
				decision, ok = global[player]
			}
			if !ok {
				missing = append(missing, player)
				missingGames[player] = append(missingGames[player], mode.Key)
				continue
			}

			if decision.Ignore {
				continue
			}
			if table.Has(decision.Substitute) {
				resolved[player] = table.Samples[decision.Substitute]
				continue
			}
			// Global sub with no row here still counts, as zero
			r.log.WithFields(logrus.Fields{
				"game":       mode.Key,
				"player":     player,
				"substitute": decision.Substitute,
			}).Warn("Substitute has no row in this game, counting 0")
			resolved[player] = []float64{0}
		}

		var candidates []string
		for _, name := range table.Players() {
			if _, assigned := assignments.TeamOf(name); !assigned {
				candidates = append(candidates, name)
			}
		}

		if len(missing) > 0 {
			res.Complete = false
		}
		res.Games = append(res.Games, GameGap{
			GameKey:    mode.Key,
			Missing:    missing,
			Candidates: candidates,
		})
		res.Resolved[mode.Key] = resolved
		res.GameKeys = append(res.GameKeys, mode.Key)
	}

	for _, player := range players {
		games := missingGames[player]
		if len(games) == 0 {
			continue
		}
		res.Players = append(res.Players, PlayerGap{
			Player:            player,
			MissingGames:      games,
			MissingEverywhere: len(games) == len(modes),
		})
	}

	return res
}

// ValidateDecisions rejects decisions that do not match an actual gap:
// the player must be assigned and missing, and a substitute must have a
// row in the target game and be unassigned.
func (r *Resolver) ValidateDecisions(assignments game.Assignments, decisions []game.Decision) *utils.AppError {
	missing := r.missingByGame(assignments)
	var conflicts []string
	seen := make(map[string]bool)

	for i, d := range decisions {
		if d.Player == "" {
			conflicts = append(conflicts, fmt.Sprintf("decision %d: player is required", i+1))
			continue
		}

		key := d.Player + "\x00" + d.GameKey
		if seen[key] {
			conflicts = append(conflicts, duplicateConflict(d))
			continue
		}
		seen[key] = true

		if _, assigned := assignments.TeamOf(d.Player); !assigned {
			conflicts = append(conflicts, fmt.Sprintf("player %q is not assigned to any team", d.Player))
			continue
		}
		if d.Ignore && d.Substitute != "" {
			conflicts = append(conflicts, fmt.Sprintf("player %q: substitute and ignore are mutually exclusive", d.Player))
			continue
		}
		if !d.Ignore && d.Substitute == "" {
			conflicts = append(conflicts, fmt.Sprintf("player %q: a decision needs a substitute or ignore", d.Player))
			continue
		}

		if d.Global() {
			conflicts = append(conflicts, r.validateGlobal(d, assignments, missing)...)
		} else {
			conflicts = append(conflicts, r.validateSingleGame(d, assignments, missing)...)
		}
	}

	if len(conflicts) > 0 {
		return utils.NewAppError(utils.ErrCodeSubstitutionConflict,
			"substitution decisions conflict with the current roster", conflicts)
	}
	return nil
}

func (r *Resolver) validateSingleGame(d game.Decision, assignments game.Assignments, missing map[string]map[string]bool) []string {
	gameMissing, ok := missing[d.GameKey]
	if !ok {
		return []string{fmt.Sprintf("game %q is unknown or unavailable", d.GameKey)}
	}
	if !gameMissing[d.Player] {
		return []string{fmt.Sprintf("player %q is not missing from %s", d.Player, d.GameKey)}
	}
	if d.Ignore {
		return nil
	}

	table, _ := r.tables.Get(d.GameKey)
	if !table.Has(d.Substitute) {
		return []string{fmt.Sprintf("substitute %q has no row in %s", d.Substitute, d.GameKey)}
	}
	if _, assigned := assignments.TeamOf(d.Substitute); assigned {
		return []string{fmt.Sprintf("substitute %q is already assigned to a team", d.Substitute)}
	}
	return nil
}

func (r *Resolver) validateGlobal(d game.Decision, assignments game.Assignments, missing map[string]map[string]bool) []string {
	var missingAnywhere bool
	var substituteUsable bool
	for key, gameMissing := range missing {
		if !gameMissing[d.Player] {
			continue
		}
		missingAnywhere = true
		if table, ok := r.tables.Get(key); ok && table.Has(d.Substitute) {
			substituteUsable = true
		}
	}

	if !missingAnywhere {
		return []string{fmt.Sprintf("player %q is not missing from any game", d.Player)}
	}
	if d.Ignore {
		return nil
	}

	if _, assigned := assignments.TeamOf(d.Substitute); assigned {
		return []string{fmt.Sprintf("substitute %q is already assigned to a team", d.Substitute)}
	}
	if !substituteUsable {
		return []string{fmt.Sprintf("substitute %q has no row in any game where %q is missing", d.Substitute, d.Player)}
	}
	return nil
}

// missingByGame computes raw gaps with no decisions applied
func (r *Resolver) missingByGame(assignments game.Assignments) map[string]map[string]bool {
	players := assignments.Players()
	out := make(map[string]map[string]bool)

	for _, mode := range r.games() {
		table, _ := r.tables.Get(mode.Key)
		gameMissing := make(map[string]bool)
		for _, player := range players {
			if !table.Has(player) {
				gameMissing[player] = true
			}
		}
		out[mode.Key] = gameMissing
	}
	return out
}

func indexDecisions(decisions []game.Decision) (map[string]map[string]game.Decision, map[string]game.Decision) {
	perGame := make(map[string]map[string]game.Decision)
	global := make(map[string]game.Decision)

	for _, d := range decisions {
		if d.Global() {
			global[d.Player] = d
			continue
		}
		if perGame[d.GameKey] == nil {
			perGame[d.GameKey] = make(map[string]game.Decision)
		}
		perGame[d.GameKey][d.Player] = d
	}
	return perGame, global
}

func duplicateConflict(d game.Decision) string {
	if d.Global() {
		return fmt.Sprintf("duplicate global decision for player %q", d.Player)
	}
	return fmt.Sprintf("duplicate decision for player %q in %s", d.Player, d.GameKey)
}
