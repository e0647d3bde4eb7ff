package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/api/handlers"
	"github.com/jstittsworth/team-builder/internal/api/middleware"
	"github.com/jstittsworth/team-builder/internal/charts"
	"github.com/jstittsworth/team-builder/internal/session"
	"github.com/jstittsworth/team-builder/internal/stats"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, tables *stats.TableSet, sessions session.Store, renderer *charts.Renderer, recalcLimiter *middleware.RateLimiter, logger *logrus.Logger) {
	resolver := stats.NewResolver(tables, logger)
	aggregator := stats.NewAggregator(logger)

	rosterHandler := handlers.NewRosterHandler(resolver, aggregator, renderer, sessions, logger)
	gamesHandler := handlers.NewGamesHandler(tables, renderer)
	playersHandler := handlers.NewPlayersHandler(tables, renderer)

	// Game and player lookups
	group.GET("/games", gamesHandler.ListGames)
	group.GET("/games/:key/leaderboard", gamesHandler.GetLeaderboard)
	group.GET("/players/:name", playersHandler.GetPlayer)

	// Roster workflow: resolve gaps, decide substitutions, recalculate.
	// Only recalculation is rate limited; it is the one call that
	// renders charts.
	group.POST("/roster/resolve", rosterHandler.ResolveRoster)
	group.POST("/roster/substitutions", rosterHandler.SubmitSubstitutions)
	group.DELETE("/roster/substitutions", rosterHandler.ClearSubstitutions)
	group.POST("/roster/recalc", recalcLimiter.Middleware(), rosterHandler.Recalculate)
}
