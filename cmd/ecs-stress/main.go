package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"reflect"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/plus3/tickworks/config"
	"github.com/plus3/tickworks/ecs"
	"github.com/plus3/tickworks/engine"
	"github.com/plus3/tickworks/input"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML config file.")
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The number of live entities to maintain.")
	systemCount := flag.Int("systems", 50, "The number of generated load systems.")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile to the working directory.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		log.Fatal("unknown profile mode", zap.String("profile", *profileMode))
	}

	report, err := run(cfg, log, options{
		duration: *duration,
		entities: *entityCount,
		systems:  *systemCount,
		seed:     *seed,
	})
	if err != nil {
		log.Fatal("stress test failed", zap.Error(err))
	}
	report.GCPauseMetrics = *gcPauseMetrics

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

type options struct {
	duration time.Duration
	entities int
	systems  int
	seed     int64
}

func run(cfg *config.Config, log *zap.Logger, opts options) (*Report, error) {
	rng := rand.New(rand.NewSource(opts.seed))

	registry := ecs.NewComponentRegistry()
	registerComponents(registry)

	report := &Report{
		Duration:   opts.duration,
		Entities:   opts.entities,
		Components: registry.Len(),
		Systems:    opts.systems,
	}

	eng, err := engine.New(cfg.Engine, registry, engine.WithLogger(log))
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	log.Info("populating", zap.Int("entities", opts.entities))
	for i := 0; i < opts.entities; i++ {
		if _, err := ecs.Spawn(eng.Entities(), randomComponents(rng)...); err != nil {
			return nil, err
		}
	}

	eng.AddSystem(&MovementSystem{})
	eng.AddSystem(&LifetimeSystem{})
	eng.AddSystem(&SpawnerSystem{Target: opts.entities, rng: rng})
	for _, s := range newLoadSystems(registry, rng, opts.systems) {
		eng.AddSystem(s)
	}
	bindInput(eng.Input())
	movers := registry.Signature(reflect.TypeFor[Velocity]())

	runtime.ReadMemStats(&report.MemStatsStart)
	log.Info("running", zap.Duration("duration", opts.duration))

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := startTime

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			now := time.Now()
			dt := now.Sub(lastFrameTime).Seconds()
			lastFrameTime = now

			if !eng.Entities().Alive(eng.Input().Focused()) {
				for id := range eng.Entities().Query(movers) {
					eng.Input().Focus(id)
					break
				}
			}
			eng.Input().Post(input.Event{Device: input.Keyboard, Code: "Space", Action: input.Press, Time: now})

			report.Record(eng.Tick(dt))
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.SystemStats = eng.Systems().Stats().Systems
	report.EntityStats = eng.Entities().CollectStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info("finished", zap.Int64("updates", report.TotalUpdates))
	return report, nil
}
