package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/stats"
)

func TestIndexPage(t *testing.T) {
	router := openRouter(testTables(map[string]map[string]float64{
		"bedwars": {"Alice": 10},
	}))

	w := performRequest(router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	page := w.Body.String()
	for _, team := range []string{"red", "yellow", "green", "blue"} {
		assert.Contains(t, page, `id="team-`+team+`"`, "dropzone for %s", team)
	}
	assert.Contains(t, page, "Red Team")
	assert.Contains(t, page, "Blue Team")
	assert.Contains(t, page, "#FF4C4C", "legend carries the red swatch")
	assert.Contains(t, page, "2026-01-10 12:00", "freshness stamp from the loaded tables")
}

func TestIndexPageNoTables(t *testing.T) {
	router := openRouter(&stats.TableSet{
		Tables:   map[string]*game.Table{},
		Failures: map[string]string{},
	})

	w := performRequest(router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "(no tables loaded)")
}
