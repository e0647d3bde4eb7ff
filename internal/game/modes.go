package game

// Mode describes one configured game mode
type Mode struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	ShortLabel      string `json:"short_label"`
	File            string `json:"file"`
	Enabled         bool   `json:"enabled"`
	Overall         bool   `json:"overall"`
	PvP             bool   `json:"pvp"`
	NonPvP          bool   `json:"non_pvp"`
	NonPvPAggregate bool   `json:"non_pvp_aggregate"`
	InDifferentials bool   `json:"in_differentials"`
}

// modes is the configured game set. Aggregate rows (pvp, non_pvp) carry
// precomputed sheet data, so they load like any base game.
var modes = []Mode{
	{
		Key:             "overall",
		Name:            "Overall",
		ShortLabel:      "All",
		File:            "overall.csv",
		Enabled:         true,
		Overall:         true,
		InDifferentials: true,
	},
	{
		Key:             "bedwars",
		Name:            "Bedwars",
		ShortLabel:      "BW",
		File:            "bedwars.csv",
		Enabled:         true,
		PvP:             true,
		InDifferentials: true,
	},
	{
		Key:             "bridge_duels",
		Name:            "Bridge Duels",
		ShortLabel:      "BD",
		File:            "bridgeDuels.csv",
		Enabled:         true,
		PvP:             true,
		InDifferentials: true,
	},
	{
		Key:             "build_battle",
		Name:            "Build Battle",
		ShortLabel:      "BB",
		File:            "buildBattle.csv",
		Enabled:         true,
		NonPvP:          true,
		InDifferentials: true,
	},
	{
		Key:             "mini_walls",
		Name:            "Mini Walls",
		ShortLabel:      "MW",
		File:            "miniWalls.csv",
		Enabled:         true,
		PvP:             true,
		InDifferentials: true,
	},
	{
		Key:             "parkour_duels",
		Name:            "Parkour Duels",
		ShortLabel:      "PD",
		File:            "parkourDuels.csv",
		Enabled:         true,
		NonPvP:          true,
		InDifferentials: true,
	},
	{
		Key:             "party_games",
		Name:            "Party Games",
		ShortLabel:      "PG",
		File:            "partyGames.csv",
		Enabled:         true,
		NonPvP:          true,
		InDifferentials: true,
	},
	{
		Key:             "skywars",
		Name:            "Skywars",
		ShortLabel:      "SW",
		File:            "skywars.csv",
		Enabled:         true,
		PvP:             true,
		InDifferentials: true,
	},
	{
		Key:        "survival_games",
		Name:       "Survival Games",
		ShortLabel: "SG",
		File:       "survivalGames.csv",
		Enabled:    false,
		PvP:        true,
	},
	{
		Key:             "uhc_duels",
		Name:            "UHC Duels",
		ShortLabel:      "UD",
		File:            "uhcDuels.csv",
		Enabled:         true,
		PvP:             true,
		InDifferentials: true,
	},
	{
		Key:             "wobtafitv",
		Name:            "WOBTAFITV",
		ShortLabel:      "WO",
		File:            "wobtafitv.csv",
		Enabled:         true,
		NonPvP:          true,
		InDifferentials: true,
	},
	{
		Key:             "pvp",
		Name:            "PvP",
		ShortLabel:      "PvP",
		File:            "pvp.csv",
		Enabled:         true,
		InDifferentials: true,
	},
	{
		Key:             "non_pvp",
		Name:            "Non-PvP",
		ShortLabel:      "nP",
		File:            "nonPvP.csv",
		Enabled:         true,
		NonPvPAggregate: true,
		InDifferentials: true,
	},
}

// Modes returns every configured mode in display order
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// EnabledModes returns the modes whose tables are expected on disk
func EnabledModes() []Mode {
	var out []Mode
	for _, m := range modes {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// AggregateModes returns the modes included in averages and charts
func AggregateModes() []Mode {
	var out []Mode
	for _, m := range modes {
		if m.Enabled && m.InDifferentials {
			out = append(out, m)
		}
	}
	return out
}

// DifferentialModes returns the non-overall modes differentials are
// computed for
func DifferentialModes() []Mode {
	var out []Mode
	for _, m := range AggregateModes() {
		if m.Overall {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ModeByKey looks up a configured mode
func ModeByKey(key string) (Mode, bool) {
	for _, m := range modes {
		if m.Key == key {
			return m, true
		}
	}
	return Mode{}, false
}

// NonPvPSpan is the number of base non-PvP games folded into the
// Non-PvP aggregate row; its per-player average divides by this span
func NonPvPSpan() int {
	count := 0
	for _, m := range modes {
		if m.NonPvP {
			count++
		}
	}
	return count
}
