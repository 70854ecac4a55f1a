package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/liftsession/internal/config"
	"github.com/lowaak/liftsession/internal/console"
	"github.com/lowaak/liftsession/internal/interval"
	"github.com/lowaak/liftsession/internal/safego"
	"github.com/lowaak/liftsession/internal/sequencer"
	"github.com/lowaak/liftsession/internal/store"
	"github.com/lowaak/liftsession/internal/suggest"
	"github.com/lowaak/liftsession/internal/workout"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	must("load configuration", err)
	must("run session", run(cfg))
}

// loadPlan reads the configured plan, else the plan of the previous run, else
// the built-in sample
func loadPlan(cfg *config.Config, uiState *console.UIStatePersistence, logger *log.Logger) (*workout.Workout, error) {
	path := cfg.PlanFile
	if path == "" {
		path = uiState.LastPlanFile()
		if path == "" {
			return workout.SampleWorkout(), nil
		}
		if _, err := os.Stat(path); err != nil {
			logger.Printf("Previous plan %s unavailable, using the sample plan: %v", path, err)
			return workout.SampleWorkout(), nil
		}
	}
	plan, err := workout.LoadWorkout(path)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	uiState.SetLastPlanFile(path)
	logger.Printf("Loaded plan '%s' from %s", plan.Name, path)
	return plan, nil
}

func run(cfg *config.Config) error {
	logFile := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	defer logFile.Close()

	// The terminal UI owns stdout, log lines go to the file and the log pane
	logChan := make(chan string, 256)
	logger := log.New(io.MultiWriter(logFile, console.NewLogWriter(logChan)), "", log.LstdFlags)
	if cfg.ConfigFileUsed != "" {
		logger.Printf("Using config file %s", cfg.ConfigFileUsed)
	}

	uiState := console.NewUIStatePersistence(filepath.Join(store.DataDir(), "ui_state.json"), logger)
	plan, err := loadPlan(cfg, uiState, logger)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	session, err := db.StartSession(ctx, plan.Name)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	logger.Printf("Session %s started for '%s'", session.ID, plan.Name)

	signals := suggest.NewSignals()
	if err := db.SeedSignals(ctx, signals, session.ID, plan.ExerciseIDs()); err != nil {
		logger.Printf("Could not load exercise history: %v", err)
	}

	clk := clock.New()
	loop := interval.NewLoop(clk, logger)
	seq := sequencer.New(plan, store.NewSessionLogger(db, session.ID), signals, loop, clk, logger, sequencer.Options{
		WatchdogTimeout: cfg.WatchdogTimeout,
		Interval:        cfg.Interval,
	})

	// the model subscribes before the first block is activated
	model := console.NewUIModel(seq, clk, cfg.ManualEditWindow, logger, logChan)
	controller := console.NewUIController(model, seq, logger)
	model.SetMode(uiState.Mode())
	seq.Start()

	app := tview.NewApplication()
	base := console.NewBaseUIView(console.NewBaseUIViewArg{
		UIViewImpl:   console.NewCursesUIView(logger, app),
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	// Timers may have stalled while the process was stopped (Ctrl-Z)
	sigCont := make(chan os.Signal, 1)
	signal.Notify(sigCont, syscall.SIGCONT)
	safego.Go(logger, "main.foreground", func() {
		for range sigCont {
			logger.Println("Resumed in foreground")
			controller.Foreground()
		}
	})

	runErr := base.Run()

	signal.Stop(sigCont)
	close(sigCont)
	uiState.SetMode(model.GetUIState().Mode)
	base.Shutdown()
	controller.Shutdown()
	model.Shutdown()
	loop.Shutdown()

	status := store.SessionAbandoned
	if seq.Finished() {
		status = store.SessionCompleted
	}
	if err := db.FinishSession(ctx, session.ID, status); err != nil {
		logger.Printf("Could not close session %s: %v", session.ID, err)
	}
	if summary, err := db.Summarize(ctx, session.ID); err == nil {
		logger.Printf("Session %s %s: %d sets, %d rows, %.1f volume", session.ID, status, summary.Actions, summary.Rows, summary.Volume)
		fmt.Printf("%s: %d sets logged, %.1f total volume (%s)\n", plan.Name, summary.Actions, summary.Volume, status)
	} else {
		logger.Printf("Could not summarize session %s: %v", session.ID, err)
	}

	return runErr
}

func must(action string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to %s: %v\n", action, err)
		os.Exit(1)
	}
}
