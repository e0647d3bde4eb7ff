package game

import (
	"fmt"
	"strings"
)

// TeamName identifies one of the four fixed teams
type TeamName string

const (
	TeamRed    TeamName = "red"
	TeamYellow TeamName = "yellow"
	TeamGreen  TeamName = "green"
	TeamBlue   TeamName = "blue"
)

// TeamOrder is the stable order teams appear in results and charts
var TeamOrder = []TeamName{TeamRed, TeamYellow, TeamGreen, TeamBlue}

// RGB is a bar color used by the chart renderer
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var teamColors = map[TeamName]RGB{
	TeamRed:    {255, 80, 80},
	TeamYellow: {255, 220, 120},
	TeamGreen:  {120, 220, 120},
	TeamBlue:   {120, 180, 255},
}

var teamHex = map[TeamName]string{
	TeamRed:    "#FF4C4C",
	TeamYellow: "#FFD93D",
	TeamGreen:  "#4CAF50",
	TeamBlue:   "#4C77FF",
}

// Valid reports whether t is one of the four configured teams
func (t TeamName) Valid() bool {
	_, ok := teamColors[t]
	return ok
}

// DisplayName returns the capitalized team label
func (t TeamName) DisplayName() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[0])) + string(t[1:])
}

// Color returns the chart bar color for the team
func (t TeamName) Color() RGB {
	return teamColors[t]
}

// Hex returns the CSS color used by the page legend
func (t TeamName) Hex() string {
	return teamHex[t]
}

// Assignments maps each team to its players. Players not listed stay in the
// pool. A missing team key is an empty team.
type Assignments map[TeamName][]string

// ParseAssignments validates a raw team mapping from a request body.
// Names are trimmed and blank entries dropped; unknown team keys and
// players assigned more than once are rejected.
func ParseAssignments(raw map[string][]string) (Assignments, error) {
	assignments := make(Assignments, len(TeamOrder))
	seen := make(map[string]TeamName)

	for rawTeam, names := range raw {
		team := TeamName(strings.ToLower(strings.TrimSpace(rawTeam)))
		if !team.Valid() {
			return nil, fmt.Errorf("unknown team %q", rawTeam)
		}
		if _, dup := assignments[team]; dup {
			return nil, fmt.Errorf("team %q listed twice", rawTeam)
		}

		players := make([]string, 0, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if prev, ok := seen[name]; ok {
				if prev == team {
					return nil, fmt.Errorf("player %q listed twice on team %s", name, team)
				}
				return nil, fmt.Errorf("player %q assigned to both %s and %s", name, prev, team)
			}
			seen[name] = team
			players = append(players, name)
		}
		assignments[team] = players
	}

	for _, team := range TeamOrder {
		if _, ok := assignments[team]; !ok {
			assignments[team] = nil
		}
	}

	return assignments, nil
}

// Players returns every assigned player in team order, preserving each
// team's roster order
func (a Assignments) Players() []string {
	var players []string
	for _, team := range TeamOrder {
		players = append(players, a[team]...)
	}
	return players
}

// TeamOf returns the team a player is assigned to
func (a Assignments) TeamOf(player string) (TeamName, bool) {
	for _, team := range TeamOrder {
		for _, name := range a[team] {
			if name == player {
				return team, true
			}
		}
	}
	return "", false
}

// Empty reports whether no player is assigned to any team
func (a Assignments) Empty() bool {
	for _, team := range TeamOrder {
		if len(a[team]) > 0 {
			return false
		}
	}
	return true
}
