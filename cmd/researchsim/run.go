package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"researchsim/internal/config"
	"researchsim/internal/logging"
	"researchsim/internal/store"
	"researchsim/internal/tech"
	"researchsim/internal/world"
)

func runCmd() *cobra.Command {
	var days int
	var seed uint64
	var trace bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the research simulation and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				cfg.Days = days
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cfg.Days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			return runSimulation(cmd.Context(), cfg, trace)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Number of days to simulate (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default from config)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Write every event to .researchsim/events.jsonl")
	return cmd
}

func runSimulation(ctx context.Context, cfg *config.ProjectConfig, trace bool) error {
	logger := newLogger(cfg)

	catalogFile, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	w, err := world.Load(cfg.Path(cfg.World))
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	runID := uuid.NewString()
	var events *logging.EventTrace
	if trace || logging.ParseLevel(cfg.Logging.Level) < slog.LevelInfo {
		events = logging.OpenEventTrace(cfg.Path(".researchsim"), runID)
		defer events.Close()
	}

	result, err := simulate(ctx, simulation{
		RunID:   runID,
		Project: cfg.Project,
		Seed:    cfg.Seed,
		Days:    cfg.Days,
		Rates:   cfg.Rates,
		Catalog: catalogFile,
		World:   w,
		Store:   db,
		Trace:   events,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	printRunSummary(os.Stdout, result)
	return nil
}

type simulation struct {
	RunID   string
	Project string
	Seed    uint64
	Days    int
	Rates   tech.Rates
	Catalog *config.CatalogFile
	World   *world.World
	Store   store.Store
	Trace   *logging.EventTrace
	Logger  *slog.Logger
}

type runResult struct {
	RunID   string
	Seed    uint64
	Days    int
	Events  int
	Deaths  []string
	Faults  []tech.StageFault
	Summary tech.Summary
}

// simulate drives the engine day by day over the world and records the run.
// Deaths are rolled before each day so the engine sees the day's population.
func simulate(ctx context.Context, sim simulation) (*runResult, error) {
	catalog, err := sim.Catalog.Build()
	if err != nil {
		return nil, err
	}

	src := tech.NewRand(sim.Seed)
	system := tech.New(catalog,
		tech.WithRates(sim.Rates),
		tech.WithSource(src),
		tech.WithLogger(sim.Logger),
	)
	if err := sim.World.Seed(system); err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	if err := sim.Store.CreateRun(ctx, store.RunInput{
		ID:        sim.RunID,
		Project:   sim.Project,
		Seed:      sim.Seed,
		Days:      sim.Days,
		StartedAt: started,
	}); err != nil {
		return nil, err
	}
	sim.Logger.Info("run started", "run", sim.RunID, "seed", sim.Seed, "days", sim.Days, "technologies", catalog.Len())

	result := &runResult{RunID: sim.RunID, Seed: sim.Seed}
	for day := 1; day <= sim.Days; day++ {
		if err := ctx.Err(); err != nil {
			sim.Logger.Warn("run interrupted", "run", sim.RunID, "day", day)
			break
		}

		for _, name := range sim.World.Age(src) {
			sim.Logger.Debug("agent died", "agent", name, "day", day)
			result.Deaths = append(result.Deaths, name)
		}

		report := system.Day(day, sim.World.Population())
		for _, e := range report.Events {
			sim.Logger.Log(ctx, logging.LevelTrace, "event", "day", e.Day, "kind", e.Kind, "technology", e.Technology, "actor", e.Actor)
		}
		sim.Trace.Write(report)
		if err := sim.Store.AppendEvents(ctx, sim.RunID, report.Events); err != nil {
			return nil, fmt.Errorf("recording day %d: %w", day, err)
		}
		result.Events += len(report.Events)
		result.Faults = append(result.Faults, report.Faults...)
		result.Days = day
	}

	system.Knowledge.RefreshGroups(sim.World.Population())
	result.Summary = system.Summary()
	snap := store.Snapshot{
		Day:          result.Days,
		FinishedAt:   time.Now().UTC(),
		Technologies: store.StatesFromCatalog(catalog),
		Knowledge:    store.KnowledgeFromIndex(system.Knowledge),
		Groups:       store.GroupsFromIndex(system.Knowledge),
		Summary:      result.Summary,
		Faults:       result.Faults,
	}
	if err := sim.Store.SaveSnapshot(ctx, sim.RunID, snap); err != nil {
		return nil, err
	}
	sim.Logger.Info("run finished", "run", sim.RunID, "day", result.Days, "events", result.Events, "faults", len(result.Faults))
	return result, nil
}

func printRunSummary(out io.Writer, result *runResult) {
	s := result.Summary
	fmt.Fprintf(out, "Run %s (seed %d) finished after %d days.\n", result.RunID, result.Seed, result.Days)
	fmt.Fprintf(out, "  Events recorded:      %d\n", result.Events)
	fmt.Fprintf(out, "  Technologies:         %d discovered, %d undiscovered\n", s.Discovered, s.Undiscovered)
	fmt.Fprintf(out, "  Projects:             %d active, %d completed, %d abandoned\n", s.ActiveProjects, s.CompletedProjects, s.AbandonedProjects)
	fmt.Fprintf(out, "  Innovations:          %d (%d recent)\n", s.Innovations, s.RecentInnovations)
	fmt.Fprintf(out, "  Goals open:           %d\n", s.OpenGoals)
	fmt.Fprintf(out, "  Competitions active:  %d\n", s.ActiveCompetitions)
	fmt.Fprintf(out, "  Conflicts open:       %d\n", s.OpenConflicts)
	fmt.Fprintf(out, "  Failures:             %d\n", s.Failures)
	fmt.Fprintf(out, "  Advancement:          mean %.3f, median %.3f\n", s.AverageAdvancement, s.MedianAdvancement)
	fmt.Fprintf(out, "  Complexity ratio:     %.3f\n", s.ComplexityRatio)

	if len(s.DiscoveredByCategory) > 0 {
		categories := make([]string, 0, len(s.DiscoveredByCategory))
		for c := range s.DiscoveredByCategory {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)
		fmt.Fprintln(out, "  Discovered by category:")
		for _, c := range categories {
			fmt.Fprintf(out, "    %-12s %d\n", c, s.DiscoveredByCategory[tech.Category(c)])
		}
	}
	if len(result.Deaths) > 0 {
		fmt.Fprintf(out, "  Deaths:               %d\n", len(result.Deaths))
	}
	if len(result.Faults) > 0 {
		fmt.Fprintf(out, "\nStage faults (%d):\n", len(result.Faults))
		for _, f := range result.Faults {
			fmt.Fprintf(out, "  - day %d %s: %s\n", f.Day, f.Stage, f.Err)
		}
	}
}

