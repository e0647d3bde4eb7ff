package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/pkg/utils"
)

// TableSet holds every loaded table plus per-game load failures. A game
// that failed to parse stays configured but is unavailable.
type TableSet struct {
	Tables   map[string]*game.Table
	Failures map[string]string
	Updated  time.Time
}

// Get returns the loaded table for a game key
func (s *TableSet) Get(key string) (*game.Table, bool) {
	t, ok := s.Tables[key]
	return t, ok
}

// Available reports whether the game's table loaded cleanly
func (s *TableSet) Available(key string) bool {
	_, ok := s.Tables[key]
	return ok
}

// Loader reads per-game stat tables from a directory
type Loader struct {
	dir   string
	modes []game.Mode
	log   *logrus.Logger
}

// NewLoader creates a loader for the given stats directory
func NewLoader(dir string, modes []game.Mode, log *logrus.Logger) *Loader {
	return &Loader{
		dir:   dir,
		modes: modes,
		log:   log,
	}
}

// Load reads one table per enabled mode. A missing file is a
// configuration error and aborts the load; a malformed file only marks
// that game unavailable.
func (l *Loader) Load() (*TableSet, error) {
	set := &TableSet{
		Tables:   make(map[string]*game.Table),
		Failures: make(map[string]string),
	}

	for _, mode := range l.modes {
		if !mode.Enabled {
			continue
		}

		path := filepath.Join(l.dir, mode.File)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, utils.NewConfigurationError(
					fmt.Sprintf("missing stats file for %s: %s", mode.Key, path))
			}
			return nil, utils.NewConfigurationError(
				fmt.Sprintf("cannot stat %s: %v", path, err))
		}

		table, err := loadTable(path, mode.Key)
		if err != nil {
			l.log.WithFields(logrus.Fields{
				"game": mode.Key,
				"file": path,
			}).WithError(err).Warn("Stats table failed to load, game unavailable")
			set.Failures[mode.Key] = err.Error()
			continue
		}

		table.Modified = info.ModTime()
		set.Tables[mode.Key] = table
		if table.Modified.After(set.Updated) {
			set.Updated = table.Modified
		}

		l.log.WithFields(logrus.Fields{
			"game": mode.Key,
			"rows": len(table.Samples),
		}).Debug("Loaded stats table")
	}

	return set, nil
}

// Report describes one game's table for diagnostics
type Report struct {
	Mode     game.Mode
	Path     string
	Missing  bool
	Err      string
	Rows     int
	Modified time.Time
}

// Check inspects every enabled mode without aborting on the first
// problem, so the validation CLI can list everything wrong at once.
func (l *Loader) Check() []Report {
	var reports []Report
	for _, mode := range l.modes {
		if !mode.Enabled {
			continue
		}

		report := Report{
			Mode: mode,
			Path: filepath.Join(l.dir, mode.File),
		}

		info, err := os.Stat(report.Path)
		if err != nil {
			report.Missing = true
			reports = append(reports, report)
			continue
		}
		report.Modified = info.ModTime()

		table, err := loadTable(report.Path, mode.Key)
		if err != nil {
			report.Err = err.Error()
		} else {
			report.Rows = len(table.Samples)
		}
		reports = append(reports, report)
	}
	return reports
}

// loadTable parses one Player,Points CSV. Rules carried over from the
// sheet exports: an optional header row, blank rows and rows whose player
// or score cell starts with '#' (sheet error sentinels) are skipped, and
// thousands separators are stripped. A non-numeric score or a duplicate
// player rejects the whole table.
func loadTable(path, gameKey string) (*game.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	samples := make(map[string][]float64)
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		if len(record) == 0 {
			continue
		}
		player := strings.TrimSpace(record[0])
		score := ""
		if len(record) > 1 {
			score = strings.TrimSpace(record[1])
		}

		// Optional header
		if row == 1 && strings.EqualFold(player, "player") {
			continue
		}

		if player == "" || score == "" {
			continue
		}
		if strings.HasPrefix(player, "#") || strings.HasPrefix(score, "#") {
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(score, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: non-numeric score %q for player %q", row, score, player)
		}
		if _, dup := samples[player]; dup {
			return nil, fmt.Errorf("row %d: duplicate player %q", row, player)
		}
		samples[player] = []float64{value}
	}

	return &game.Table{
		GameKey: gameKey,
		Samples: samples,
		Source:  path,
	}, nil
}
