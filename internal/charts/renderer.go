package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jstittsworth/team-builder/internal/game"
)

// Grid shapes match the source charts: every aggregated game fits one
// 4x3 sheet, and the four team differential charts fit one 2x2 sheet.
const (
	gridRows = 4
	gridCols = 3
	diffRows = 2
	diffCols = 2
)

// Renderer turns one AggregateResult into embeddable PNG data URLs. It
// holds no mutable state, so one renderer serves every request.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer; width and height size a single chart
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		width:  width,
		height: height,
	}
}

// PerGameGrid renders the per-game sheet: one mini bar chart per
// aggregated game, a bar per counted player in team order, colored by
// the player's team. Pool players never appear. An empty result yields
// a placeholder sheet instead of an error.
func (r *Renderer) PerGameGrid(result *game.AggregateResult) (string, error) {
	if result.Empty() {
		return dataURL(placeholderImage(gridCols*r.width, gridRows*r.height, "No players assigned"))
	}

	players := result.Teams.Players()
	cells := make([]image.Image, 0, len(result.Games))

	for _, key := range result.Games {
		title := key
		if mode, ok := game.ModeByKey(key); ok {
			title = mode.Name
		}

		var bars []chart.Value
		var values []float64
		for _, player := range players {
			avg, counted := result.PlayerAverages[player][key]
			if !counted {
				continue
			}
			team, _ := result.Teams.TeamOf(player)
			bars = append(bars, chart.Value{
				Label: player,
				Value: avg,
				Style: barStyle(team.Color()),
			})
			values = append(values, avg)
		}

		if len(bars) == 0 {
			cells = append(cells, placeholderImage(r.width, r.height, title+": no scores"))
			continue
		}

		cell, err := r.renderBars(title, bars, chartRange(values, false), false)
		if err != nil {
			return "", err
		}
		cells = append(cells, cell)
	}

	return dataURL(composeGrid(cells, gridRows, gridCols, r.width, r.height))
}

// TeamDifferentials renders one chart per team (total minus the
// cross-team mean for every non-overall game, zero baseline) plus the
// 2x2 composite sheet the page embeds.
func (r *Renderer) TeamDifferentials(result *game.AggregateResult) (map[game.TeamName]string, string, error) {
	urls := make(map[game.TeamName]string, len(game.TeamOrder))

	if result.Empty() || len(result.DiffGames) == 0 {
		single, err := dataURL(placeholderImage(r.width, r.height, "No differentials"))
		if err != nil {
			return nil, "", err
		}
		for _, team := range game.TeamOrder {
			urls[team] = single
		}
		sheet, err := dataURL(placeholderImage(diffCols*r.width, diffRows*r.height, "No differentials"))
		return urls, sheet, err
	}

	labels := make([]string, len(result.DiffGames))
	for i, key := range result.DiffGames {
		labels[i] = key
		if mode, ok := game.ModeByKey(key); ok {
			labels[i] = mode.ShortLabel
		}
	}

	cells := make([]image.Image, 0, len(game.TeamOrder))
	for _, team := range game.TeamOrder {
		diffs := result.Differentials[team]
		bars := make([]chart.Value, len(diffs))
		for i, diff := range diffs {
			bars[i] = chart.Value{
				Label: labels[i],
				Value: diff,
				Style: barStyle(team.Color()),
			}
		}

		cell, err := r.renderBars(team.DisplayName()+" Team", bars, chartRange(diffs, true), true)
		if err != nil {
			return nil, "", err
		}
		cells = append(cells, cell)

		url, err := dataURL(cell)
		if err != nil {
			return nil, "", err
		}
		urls[team] = url
	}

	sheet, err := dataURL(composeGrid(cells, diffRows, diffCols, r.width, r.height))
	return urls, sheet, err
}

// Leaderboard renders the top players of one game, highest first
func (r *Renderer) Leaderboard(title string, players []string, scores []float64) (string, error) {
	if len(players) == 0 {
		return dataURL(placeholderImage(r.width, r.height, title+": no scores"))
	}

	bars := make([]chart.Value, len(players))
	for i, player := range players {
		bars[i] = chart.Value{
			Label: player,
			Value: scores[i],
			Style: barStyle(game.RGB{R: 56, G: 189, B: 248}),
		}
	}

	img, err := r.renderBars(title, bars, chartRange(scores, true), true)
	if err != nil {
		return "", err
	}
	return dataURL(img)
}

// PlayerGames renders one player's score across every game they appear in
func (r *Renderer) PlayerGames(title string, labels []string, scores []float64) (string, error) {
	if len(labels) == 0 {
		return dataURL(placeholderImage(r.width, r.height, title+": no scores"))
	}

	bars := make([]chart.Value, len(labels))
	for i, label := range labels {
		bars[i] = chart.Value{
			Label: label,
			Value: scores[i],
			Style: barStyle(game.RGB{R: 148, G: 163, B: 184}),
		}
	}

	img, err := r.renderBars(title, bars, chartRange(scores, true), true)
	if err != nil {
		return "", err
	}
	return dataURL(img)
}

func (r *Renderer) renderBars(title string, bars []chart.Value, yrange chart.Range, useBase bool) (image.Image, error) {
	bc := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 10},
		Width:      r.width,
		Height:     r.height,
		BarWidth:   26,
		BarSpacing: 12,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 12, Right: 12, Bottom: 16},
		},
		XAxis: chart.Style{
			FontSize:            7.5,
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 7.5},
			Range: yrange,
		},
		UseBaseValue: useBase,
		BaseValue:    0,
		Bars:         bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart %q: %w", title, err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart %q: %w", title, err)
	}
	return img, nil
}

func barStyle(c game.RGB) chart.Style {
	col := drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
	return chart.Style{
		FillColor:   col,
		StrokeColor: col,
		StrokeWidth: 0,
	}
}

// chartRange pads the value range the way the source charts did: 10%
// headroom, zero kept inside the range for differential-style charts,
// and a (-1, 1) fallback when the data is flat.
func chartRange(values []float64, includeZero bool) chart.Range {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}

	pad := func(v, out, in float64) float64 {
		if v >= 0 {
			return v * out
		}
		return v * in
	}
	lo = pad(lo, 0.9, 1.1)
	hi = pad(hi, 1.1, 0.9)

	if lo == hi {
		lo, hi = -1, 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
