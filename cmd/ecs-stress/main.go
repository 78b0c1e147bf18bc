package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/plus3/ashecs/ecs"
	"github.com/plus3/ashecs/internal/config"
	"github.com/plus3/ashecs/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	churnPriority    = 0
	movementPriority = 10
	agingPriority    = 20
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML or YAML run configuration.")
	templatesPath := flag.String("templates", "", "Path to a YAML file of entity templates.")
	duration := flag.Duration("duration", 0, "Overrides the configured run duration.")
	entityCount := flag.Int("entities", 0, "Overrides the configured initial entity count.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *duration > 0 {
		cfg.Run.Duration = *duration
	}
	if *entityCount > 0 {
		cfg.Run.Entities = *entityCount
	}
	if *templatesPath != "" {
		cfg.Scenario.Templates = *templatesPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	templates := config.DefaultTemplates()
	if cfg.Scenario.Templates != "" {
		templates, err = config.LoadTemplates(cfg.Scenario.Templates)
		if err != nil {
			log.Fatal("load templates", zap.Error(err))
		}
	}

	report, err := run(cfg, templates, log)
	if err != nil {
		log.Fatal("stress run failed", zap.Error(err))
	}
	report.GCPauseMetrics = *gcPauseMetrics

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal("generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

// run populates an engine from templates and updates it until the configured
// duration elapses.
func run(cfg *config.Config, templates []config.Template, log *zap.Logger) (*Report, error) {
	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	spawn, err := newSpawner(rng, templates)
	if err != nil {
		return nil, err
	}

	engine := ecs.NewEngine(ecs.WithLogger(log.Named("ecs")))
	defer engine.Close()

	commands := ecs.NewCommands(engine)
	defer commands.Release()

	engine.AddSystem(newChurnSystem(engine, rng, cfg.Run.ChurnPerFrame), churnPriority)
	engine.AddSystem(newMovementSystem(), movementPriority)
	engine.AddSystem(newAgingSystem(commands, spawn), agingPriority)

	log.Info("populating engine", zap.Int("entities", cfg.Run.Entities), zap.Int64("seed", seed))
	for i := 0; i < cfg.Run.Entities; i++ {
		engine.AddEntity(spawn.spawn())
	}

	report := &Report{
		Duration:  cfg.Run.Duration,
		Entities:  cfg.Run.Entities,
		Templates: len(templates),
		Churn:     cfg.Run.ChurnPerFrame,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()

	var frames, liveEntities atomic.Int64
	liveEntities.Store(int64(engine.EntityCount()))
	done := make(chan struct{})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		var ticker *time.Ticker
		if cfg.Run.Tick > 0 {
			ticker = time.NewTicker(cfg.Run.Tick)
			defer ticker.Stop()
		}

		lastFrameTime := time.Now()
		for {
			if ticker != nil {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			} else if ctx.Err() != nil {
				return nil
			}

			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			engine.Update(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))

			frames.Add(1)
			liveEntities.Store(int64(engine.EntityCount()))
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Run.ReportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				log.Info("progress",
					zap.Int64("frames", frames.Load()),
					zap.Int64("entities", liveEntities.Load()))
			}
		}
	})

	startTime := time.Now()
	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = frames.Load()
	report.UpdateTime.Finalize()
	report.Engine = *engine.Stats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info("simulation finished",
		zap.Int64("frames", report.TotalUpdates),
		zap.Duration("elapsed", report.TotalTime))
	return report, nil
}
