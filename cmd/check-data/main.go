package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/team-builder/internal/game"
	"github.com/jstittsworth/team-builder/internal/stats"
	"github.com/jstittsworth/team-builder/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	loader := stats.NewLoader(cfg.StatsDir, game.Modes(), quiet)

	fmt.Println("=== Team Builder Data Validation ===")
	fmt.Println()
	fmt.Printf("Stats directory: %s\n", cfg.StatsDir)
	fmt.Println("====================================================")

	reports := loader.Check()

	missing := 0
	malformed := 0
	var latest time.Time

	for _, report := range reports {
		fmt.Printf("\n%s (%s)\n", report.Mode.Name, report.Mode.File)

		if report.Missing {
			missing++
			fmt.Printf("  ❌ MISSING: %s\n", report.Path)
			continue
		}

		fmt.Printf("  Updated: %s\n", report.Modified.Format("2006-01-02 15:04"))
		if report.Modified.After(latest) {
			latest = report.Modified
		}

		if report.Err != "" {
			malformed++
			fmt.Printf("  ⚠️  MALFORMED: %s\n", report.Err)
			continue
		}

		fmt.Printf("  Rows: %d\n", report.Rows)
		if report.Rows == 0 {
			fmt.Printf("  ⚠️  WARNING: table has no player rows\n")
		}
	}

	// Reload cleanly to show sample rows for the games that parse
	fmt.Println("\n=== Sample Rows ===")
	set, err := loader.Load()
	if err != nil {
		fmt.Printf("(skipped: %v)\n", err)
	} else {
		printSamples(set)
	}

	fmt.Println("\n=== Summary ===")
	fmt.Printf("Enabled games: %d\n", len(reports))
	fmt.Printf("Tables OK: %d\n", len(reports)-missing-malformed)
	if missing > 0 {
		fmt.Printf("Missing files: %d\n", missing)
	}
	if malformed > 0 {
		fmt.Printf("Malformed files: %d\n", malformed)
	}
	if !latest.IsZero() {
		fmt.Printf("Latest update: %s\n", latest.Format("2006-01-02 15:04"))
	}

	if missing > 0 || malformed > 0 {
		fmt.Println("\n❌ Validation failed")
		os.Exit(1)
	}

	fmt.Println("\n✅ All tables valid")
}

// printSamples prints each loaded game's top three rows as a sanity check
func printSamples(set *stats.TableSet) {
	for _, mode := range game.EnabledModes() {
		table, ok := set.Get(mode.Key)
		if !ok {
			continue
		}

		type row struct {
			name  string
			score float64
		}
		rows := make([]row, 0, len(table.Samples))
		for _, name := range table.Players() {
			var total float64
			for _, s := range table.Samples[name] {
				total += s
			}
			score := 0.0
			if len(table.Samples[name]) > 0 {
				score = total / float64(len(table.Samples[name]))
			}
			rows = append(rows, row{name: name, score: score})
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })

		fmt.Printf("\n  %s:\n", mode.Name)
		for i, r := range rows {
			if i >= 3 {
				break
			}
			fmt.Printf("    %s: %.1f\n", r.name, r.score)
		}
	}
}
