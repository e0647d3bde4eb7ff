package stats

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

// Aggregator computes per-player averages and per-team differentials
// from a complete resolution.
type Aggregator struct {
	log *logrus.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(log *logrus.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// Aggregate computes the full result for one recalculation. It refuses a
// resolution with missing players and never returns a partial result.
//
// Team totals sum the counted players' scores; the cross-team mean always
// spans all four teams, so an empty team's zero total pulls the mean down
// rather than dropping out of it.
func (a *Aggregator) Aggregate(res *Resolution) (*game.AggregateResult, error) {
	if !res.Complete {
		return nil, utils.NewAppError(utils.ErrCodeUnresolvedRoster,
			"players are missing from one or more games; substitute or ignore them first",
			res.Players)
	}

	result := &game.AggregateResult{
		Teams:          res.Assignments,
		PlayerAverages: make(map[string]map[string]float64),
		TeamTotals:     make(map[string]map[game.TeamName]float64, len(res.GameKeys)),
		TeamCounts:     make(map[string]map[game.TeamName]int, len(res.GameKeys)),
		TeamAverages:   make(map[string]map[game.TeamName]float64, len(res.GameKeys)),
		TeamMeans:      make(map[string]float64, len(res.GameKeys)),
		Differentials:  make(map[game.TeamName][]float64, len(game.TeamOrder)),
	}
	for _, team := range game.TeamOrder {
		result.Differentials[team] = []float64{}
	}

	players := res.Assignments.Players()

	for _, key := range res.GameKeys {
		mode, _ := game.ModeByKey(key)
		resolved := res.Resolved[key]

		// Per-player mean of samples; the identity for single-sample rows
		for _, player := range players {
			samples, counted := resolved[player]
			if !counted {
				continue
			}
			if len(samples) == 0 {
				a.log.WithFields(logrus.Fields{
					"game":   key,
					"player": player,
				}).Error("Player resolved with zero samples")
				return nil, utils.NewInternalConsistencyError(
					"aggregation failed an internal consistency check")
			}
			if result.PlayerAverages[player] == nil {
				result.PlayerAverages[player] = make(map[string]float64)
			}
			result.PlayerAverages[player][key] = mean(samples)
		}

		totals := make(map[game.TeamName]float64, len(game.TeamOrder))
		counts := make(map[game.TeamName]int, len(game.TeamOrder))
		averages := make(map[game.TeamName]float64, len(game.TeamOrder))

		var totalSum float64
		for _, team := range game.TeamOrder {
			var total float64
			count := 0
			for _, player := range res.Assignments[team] {
				avg, counted := result.PlayerAverages[player][key]
				if !counted {
					continue
				}
				total += avg
				count++
			}
			totals[team] = total
			counts[team] = count
			totalSum += total

			if count == 0 {
				averages[team] = 0
				continue
			}
			denom := float64(count)
			if mode.NonPvPAggregate {
				denom *= float64(game.NonPvPSpan())
			}
			averages[team] = round2(total / denom)
		}

		gameMean := totalSum / float64(len(game.TeamOrder))

		result.Games = append(result.Games, key)
		result.TeamTotals[key] = totals
		result.TeamCounts[key] = counts
		result.TeamAverages[key] = averages
		result.TeamMeans[key] = gameMean

		if mode.Overall {
			continue
		}
		result.DiffGames = append(result.DiffGames, key)
		for _, team := range game.TeamOrder {
			result.Differentials[team] = append(result.Differentials[team], totals[team]-gameMean)
		}
	}

	return result, nil
}

func mean(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
