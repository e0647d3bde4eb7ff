package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/stats"
)

//go:embed templates/index.html
var templatesFS embed.FS

// PageTemplate parses the embedded page templates for the gin engine
func PageTemplate() *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/*.html"))
}

// WebHandler serves the drag-and-drop page. Everything dynamic on it
// comes back from the API; the page itself only needs the team setup
// and the stats freshness stamp.
type WebHandler struct {
	tables *stats.TableSet
}

func NewWebHandler(tables *stats.TableSet) *WebHandler {
	return &WebHandler{
		tables: tables,
	}
}

type legendItem struct {
	Label string
	Color string
}

func (h *WebHandler) Index(c *gin.Context) {
	teams := make([]gin.H, 0, len(game.TeamOrder))
	legend := make([]legendItem, 0, len(game.TeamOrder))
	keys := make([]string, 0, len(game.TeamOrder))
	for _, team := range game.TeamOrder {
		teams = append(teams, gin.H{
			"Key":  string(team),
			"Name": team.DisplayName(),
		})
		legend = append(legend, legendItem{
			Label: team.DisplayName(),
			Color: team.Hex(),
		})
		keys = append(keys, string(team))
	}

	lastUpdated := ""
	if !h.tables.Updated.IsZero() {
		lastUpdated = h.tables.Updated.Format("2006-01-02 15:04")
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Teams":       teams,
		"TeamKeys":    keys,
		"Legend":      legend,
		"LastUpdated": lastUpdated,
	})
}
