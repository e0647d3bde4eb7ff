package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/jstittsworth/team-builder/internal/api/handlers"
	"github.com/jstittsworth/team-builder/internal/api/middleware"
	"github.com/jstittsworth/team-builder/internal/charts"
	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/session"
	"github.com/jstittsworth/team-builder/internal/stats"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

// testTables builds an in-memory table set from raw scores
func testTables(scores map[string]map[string]float64) *stats.TableSet {
	set := &stats.TableSet{
		Tables:   make(map[string]*game.Table),
		Failures: make(map[string]string),
		Updated:  time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	for key, rows := range scores {
		samples := make(map[string][]float64, len(rows))
		for player, score := range rows {
			samples[player] = []float64{score}
		}
		set.Tables[key] = &game.Table{
			GameKey:  key,
			Samples:  samples,
			Modified: set.Updated,
		}
	}
	return set
}

// buildRouter wires the handlers the way cmd/server does, minus config
func buildRouter(tables *stats.TableSet, sessions session.Store, limiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	resolver := stats.NewResolver(tables, log)
	aggregator := stats.NewAggregator(log)
	renderer := charts.NewRenderer(200, 150)

	rosterHandler := handlers.NewRosterHandler(resolver, aggregator, renderer, sessions, log)
	gamesHandler := handlers.NewGamesHandler(tables, renderer)
	playersHandler := handlers.NewPlayersHandler(tables, renderer)

	router := gin.New()
	router.SetHTMLTemplate(handlers.PageTemplate())
	router.GET("/", handlers.NewWebHandler(tables).Index)
	router.GET("/healthz", handlers.NewHealthHandler(tables).GetHealth)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.NewSessionMiddleware("test-secret", time.Hour).Establish())
	apiV1.GET("/games", gamesHandler.ListGames)
	apiV1.GET("/games/:key/leaderboard", gamesHandler.GetLeaderboard)
	apiV1.GET("/players/:name", playersHandler.GetPlayer)
	apiV1.POST("/roster/resolve", rosterHandler.ResolveRoster)
	apiV1.POST("/roster/substitutions", rosterHandler.SubmitSubstitutions)
	apiV1.DELETE("/roster/substitutions", rosterHandler.ClearSubstitutions)
	apiV1.POST("/roster/recalc", limiter.Middleware(), rosterHandler.Recalculate)

	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.AppError `json:"error"`
	Meta    *utils.Meta     `json:"meta"`
}

type resolutionBody struct {
	Status string `json:"status"`
	Games  []struct {
		Game       string   `json:"game"`
		Missing    []string `json:"missing"`
		Candidates []string `json:"candidates"`
	} `json:"games"`
	Players []struct {
		Player            string   `json:"player"`
		MissingGames      []string `json:"missing_games"`
		MissingEverywhere bool     `json:"missing_everywhere"`
	} `json:"players"`
	Decisions []game.Decision `json:"decisions"`
}

type recalcBody struct {
	Result struct {
		Games         []string                      `json:"games"`
		DiffGames     []string                      `json:"diff_games"`
		TeamTotals    map[string]map[string]float64 `json:"team_totals"`
		TeamMeans     map[string]float64            `json:"team_means"`
		Differentials map[string][]float64          `json:"differentials"`
	} `json:"result"`
	PerGameImg string            `json:"per_game_img"`
	DiffImg    string            `json:"diff_img"`
	DiffImgs   map[string]string `json:"diff_imgs"`
}

type RosterWorkflowTestSuite struct {
	suite.Suite
	router   *gin.Engine
	sessions *session.MemoryStore
	cookies  map[string]*http.Cookie
}

func (s *RosterWorkflowTestSuite) SetupTest() {
	s.sessions = session.NewMemoryStore(time.Hour)
	s.cookies = make(map[string]*http.Cookie)
	s.router = buildRouter(testTables(map[string]map[string]float64{
		"bedwars": {"A": 10, "B": 20, "C": 30, "D": 40, "F": 35},
		"skywars": {"A": 1, "B": 2, "C": 3, "D": 4, "F": 5},
	}), s.sessions, middleware.NewRateLimiter(600, 100))
}

// do performs a request carrying the suite's cookie jar, so session
// state persists across calls the way a browser would
func (s *RosterWorkflowTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range s.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		s.cookies[cookie.Name] = cookie
	}
	return w
}

func (s *RosterWorkflowTestSuite) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil && env.Data != nil {
		s.Require().NoError(json.Unmarshal(env.Data, data))
	}
	return env
}

func teamsBody(teams map[string][]string) map[string]interface{} {
	return map[string]interface{}{"teams": teams}
}

var fullTeams = map[string][]string{
	"red":    {"A", "B"},
	"yellow": {"C"},
	"green":  {},
	"blue":   {"D"},
}

func (s *RosterWorkflowTestSuite) TestResolveComplete() {
	w := s.do(http.MethodPost, "/api/v1/roster/resolve", teamsBody(fullTeams))
	s.Require().Equal(http.StatusOK, w.Code)

	var body resolutionBody
	env := s.decode(w, &body)
	s.True(env.Success)
	s.Equal("complete", body.Status)
	s.Empty(body.Players)
	s.Require().Len(body.Games, 2)
	s.Equal([]string{"F"}, body.Games[0].Candidates, "unassigned table players are candidates")
}

func (s *RosterWorkflowTestSuite) TestResolveReportsGaps() {
	teams := map[string][]string{
		"red":   {"A"},
		"green": {"E"},
	}

	w := s.do(http.MethodPost, "/api/v1/roster/resolve", teamsBody(teams))
	s.Require().Equal(http.StatusOK, w.Code)

	var body resolutionBody
	s.decode(w, &body)
	s.Equal("needs_substitution", body.Status)

	s.Require().Len(body.Players, 1)
	s.Equal("E", body.Players[0].Player)
	s.Equal([]string{"bedwars", "skywars"}, body.Players[0].MissingGames)
	s.True(body.Players[0].MissingEverywhere)

	for _, g := range body.Games {
		s.Equal([]string{"E"}, g.Missing)
		s.Contains(g.Candidates, "F")
	}
}

func (s *RosterWorkflowTestSuite) TestSubstitutionFlow() {
	teams := map[string][]string{
		"red":   {"A"},
		"green": {"E"},
	}

	// Store a global decision for the missing player
	w := s.do(http.MethodPost, "/api/v1/roster/substitutions", map[string]interface{}{
		"teams":     teams,
		"decisions": []game.Decision{{Player: "E", Substitute: "F"}},
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var body resolutionBody
	s.decode(w, &body)
	s.Equal("complete", body.Status, "global decision clears every missing list")
	s.Require().Len(body.Decisions, 1)
	s.Equal("F", body.Decisions[0].Substitute)

	// The decision persists in the session: a later resolve still sees it
	w = s.do(http.MethodPost, "/api/v1/roster/resolve", teamsBody(teams))
	s.decode(w, &body)
	s.Equal("complete", body.Status)

	// Recalculation uses the substitute's row for the missing player
	w = s.do(http.MethodPost, "/api/v1/roster/recalc", teamsBody(teams))
	s.Require().Equal(http.StatusOK, w.Code)

	var recalc recalcBody
	s.decode(w, &recalc)
	s.Equal(35.0, recalc.Result.TeamTotals["bedwars"]["green"], "green team scores with F's bedwars row")
	s.Equal(5.0, recalc.Result.TeamTotals["skywars"]["green"])
}

func (s *RosterWorkflowTestSuite) TestSubstitutionConflict() {
	teams := map[string][]string{
		"red":   {"A"},
		"green": {"E"},
	}

	w := s.do(http.MethodPost, "/api/v1/roster/substitutions", map[string]interface{}{
		"teams":     teams,
		"decisions": []game.Decision{{Player: "E", Substitute: "Nobody"}},
	})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)

	env := s.decode(w, nil)
	s.False(env.Success)
	s.Require().NotNil(env.Error)
	s.Equal(utils.ErrCodeSubstitutionConflict, env.Error.Code)

	// A decision for a player who is not missing is likewise rejected
	w = s.do(http.MethodPost, "/api/v1/roster/substitutions", map[string]interface{}{
		"teams":     fullTeams,
		"decisions": []game.Decision{{Player: "A", Substitute: "F"}},
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *RosterWorkflowTestSuite) TestRecalcRejectsUnresolvedRoster() {
	teams := map[string][]string{
		"red":   {"A"},
		"green": {"E"},
	}

	w := s.do(http.MethodPost, "/api/v1/roster/recalc", teamsBody(teams))
	s.Require().Equal(http.StatusConflict, w.Code)

	env := s.decode(w, nil)
	s.False(env.Success)
	s.Require().NotNil(env.Error)
	s.Equal(utils.ErrCodeUnresolvedRoster, env.Error.Code)
	s.Nil(env.Data, "no partial result")
}

func (s *RosterWorkflowTestSuite) TestRecalcScenario() {
	w := s.do(http.MethodPost, "/api/v1/roster/recalc", teamsBody(fullTeams))
	s.Require().Equal(http.StatusOK, w.Code)

	var body recalcBody
	s.decode(w, &body)

	totals := body.Result.TeamTotals["bedwars"]
	s.Equal(30.0, totals["red"])
	s.Equal(30.0, totals["yellow"])
	s.Equal(0.0, totals["green"], "empty team still totals zero")
	s.Equal(40.0, totals["blue"])
	s.Equal(25.0, body.Result.TeamMeans["bedwars"])

	diffIdx := -1
	for i, key := range body.Result.DiffGames {
		if key == "bedwars" {
			diffIdx = i
		}
	}
	s.Require().GreaterOrEqual(diffIdx, 0)
	s.Equal(5.0, body.Result.Differentials["red"][diffIdx])
	s.Equal(-25.0, body.Result.Differentials["green"][diffIdx])
	s.Equal(15.0, body.Result.Differentials["blue"][diffIdx])

	s.Contains(body.PerGameImg, "data:image/png;base64,")
	s.Contains(body.DiffImg, "data:image/png;base64,")
	s.Len(body.DiffImgs, 4)
	for _, url := range body.DiffImgs {
		s.Contains(url, "data:image/png;base64,")
	}
}

func (s *RosterWorkflowTestSuite) TestRecalcEmptyRoster() {
	w := s.do(http.MethodPost, "/api/v1/roster/recalc", teamsBody(map[string][]string{}))
	s.Require().Equal(http.StatusOK, w.Code)

	var body recalcBody
	s.decode(w, &body)
	s.Contains(body.PerGameImg, "data:image/png;base64,", "empty roster renders a placeholder, not an error")
}

func (s *RosterWorkflowTestSuite) TestClearSubstitutions() {
	teams := map[string][]string{
		"red":   {"A"},
		"green": {"E"},
	}

	w := s.do(http.MethodPost, "/api/v1/roster/substitutions", map[string]interface{}{
		"teams":     teams,
		"decisions": []game.Decision{{Player: "E", Ignore: true}},
	})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/roster/substitutions", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var body resolutionBody
	w = s.do(http.MethodPost, "/api/v1/roster/resolve", teamsBody(teams))
	s.decode(w, &body)
	s.Equal("needs_substitution", body.Status, "cleared decisions reopen the gaps")
}

func (s *RosterWorkflowTestSuite) TestValidationErrors() {
	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{
			name: "unknown team key",
			path: "/api/v1/roster/resolve",
			body: teamsBody(map[string][]string{"purple": {"A"}}),
		},
		{
			name: "player on two teams",
			path: "/api/v1/roster/resolve",
			body: teamsBody(map[string][]string{"red": {"A"}, "blue": {"A"}}),
		},
		{
			name: "empty decision list",
			path: "/api/v1/roster/substitutions",
			body: map[string]interface{}{"teams": fullTeams, "decisions": []game.Decision{}},
		},
		{
			name: "malformed json",
			path: "/api/v1/roster/recalc",
			body: "not an object",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, tt.path, tt.body)
			s.Equal(http.StatusBadRequest, w.Code)

			env := s.decode(w, nil)
			s.Require().NotNil(env.Error)
			s.Equal(utils.ErrCodeValidation, env.Error.Code)
		})
	}
}

func (s *RosterWorkflowTestSuite) TestRecalcRateLimited() {
	router := buildRouter(testTables(map[string]map[string]float64{
		"bedwars": {"A": 10},
	}), session.NewMemoryStore(time.Hour), middleware.NewRateLimiter(1, 1))

	body, _ := json.Marshal(teamsBody(map[string][]string{"red": {"A"}}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/recalc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NotEmpty(w.Result().Cookies())
	cookie := w.Result().Cookies()[0]

	req = httptest.NewRequest(http.MethodPost, "/api/v1/roster/recalc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusTooManyRequests, w.Code)
}

func TestRosterWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(RosterWorkflowTestSuite))
}
