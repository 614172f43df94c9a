// Package main is the nutriplan command line: plan reports, catalog
// imports, health checks and schema migrations
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/infrastructure/catalog"
	"github.com/nutriplan/engine/internal/infrastructure/config"
	"github.com/nutriplan/engine/internal/infrastructure/container"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/migrations"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/sqlite"
	"github.com/nutriplan/engine/internal/ports/inbound"
	"github.com/nutriplan/engine/pkg/healthcheck"
	"github.com/nutriplan/engine/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const usage = `Usage: nutriplan [-config file] <command> [flags]

Commands:
  report   -plan <id> [-actor <id>] [-targets <json>]   analyze a plan against its targets
  options  -day <id> -meal <type> [-actor <id>]         list the options of a meal slot
  import   -file <json>                                 import foods into the catalog
  health                                                check database, cache and catalog
  migrate  [up|down|reset|status|force <version>]       manage the Postgres schema
`

// defaultActor is the seeded demo nutritionist, used when -actor is omitted
var defaultActor = sqlite.DemoNutritionistID

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string, out io.Writer) error {
	switch command {
	case "report":
		return runReport(ctx, cfg, args, out)
	case "options":
		return runOptions(ctx, cfg, args, out)
	case "import":
		return runImport(ctx, cfg, args, out)
	case "health":
		return runHealth(ctx, cfg, out)
	case "migrate":
		return runMigrate(cfg, args, out)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// withApp starts the container, populates targets and runs fn before stopping it
func withApp(ctx context.Context, cfg *config.Config, fn func() error, targets ...interface{}) error {
	app := fx.New(container.New(cfg), fx.Populate(targets...))
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn()
}

func runReport(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	planFlag := fs.String("plan", "", "Plan id")
	actorFlag := fs.String("actor", "", "Acting nutritionist or patient id (defaults to the plan nutritionist)")
	targetsFlag := fs.String("targets", "", `Target overrides as JSON, e.g. {"calories":1800}`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	planID, err := uuid.Parse(*planFlag)
	if err != nil {
		return fmt.Errorf("invalid -plan: %w", err)
	}
	actorID, err := parseActor(*actorFlag)
	if err != nil {
		return err
	}
	var targets map[string]float64
	if *targetsFlag != "" {
		if err := json.Unmarshal([]byte(*targetsFlag), &targets); err != nil {
			return fmt.Errorf("invalid -targets: %w", err)
		}
	}

	var svc inbound.NutritionService
	return withApp(ctx, cfg, func() error {
		report, err := svc.GenerateReport(ctx, inbound.ReportQuery{
			ActorID: actorID,
			PlanID:  planID,
			Targets: targets,
		})
		if err != nil {
			return err
		}
		return writeJSON(out, report)
	}, &svc)
}

func runOptions(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	dayFlag := fs.String("day", "", "Plan day id")
	mealFlag := fs.String("meal", "", "Meal type, e.g. DESAYUNO")
	actorFlag := fs.String("actor", "", "Acting nutritionist or patient id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dayID, err := uuid.Parse(*dayFlag)
	if err != nil {
		return fmt.Errorf("invalid -day: %w", err)
	}
	actorID, err := parseActor(*actorFlag)
	if err != nil {
		return err
	}

	var svc inbound.MealOptionService
	return withApp(ctx, cfg, func() error {
		options, err := svc.ListMealOptions(ctx, inbound.ListMealOptionsQuery{
			ActorID:  actorID,
			DayID:    dayID,
			MealType: *mealFlag,
		})
		if err != nil {
			return err
		}
		return writeJSON(out, options)
	}, &svc)
}

func runImport(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fileFlag := fs.String("file", "", "Provider catalog JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fileFlag == "" {
		return fmt.Errorf("-file is required")
	}

	doc, err := os.ReadFile(*fileFlag)
	if err != nil {
		return err
	}

	var importer *catalog.Importer
	return withApp(ctx, cfg, func() error {
		result, err := importer.Import(ctx, doc)
		if err != nil {
			return err
		}
		return writeJSON(out, result)
	}, &importer)
}

func runHealth(ctx context.Context, cfg *config.Config, out io.Writer) error {
	var hc *healthcheck.HealthCheck
	return withApp(ctx, cfg, func() error {
		resp := hc.Check(ctx)
		if err := writeJSON(out, resp); err != nil {
			return err
		}
		return resp.Err()
	}, &hc)
}

func runMigrate(cfg *config.Config, args []string, out io.Writer) error {
	if cfg.Database.Driver != "postgres" {
		fmt.Fprintln(out, "sqlite schemas are created automatically; nothing to migrate")
		return nil
	}

	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := migrations.Open(cfg.GetDSN(), log)
	if err != nil {
		return err
	}
	defer m.Close()

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}

	switch action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "reset":
		err = m.Reset()
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force needs a version")
		}
		version, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		err = m.Force(version)
	case "status":
		status, statusErr := m.Status()
		if statusErr != nil {
			return statusErr
		}
		return writeJSON(out, status)
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	if err != nil {
		return err
	}

	log.Info("Migration finished", zap.String("action", action))
	return nil
}

func parseActor(s string) (uuid.UUID, error) {
	if s == "" {
		return defaultActor, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -actor: %w", err)
	}
	return id, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
