package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/chatlife/app"
	"github.com/pthm-cable/chatlife/chat"
	"github.com/pthm-cable/chatlife/config"
	"github.com/pthm-cable/chatlife/game"
	"github.com/pthm-cable/chatlife/server"
)

const headlessDt = 1.0 / 60.0

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	serve := flag.Bool("serve", false, "Serve viewers and chat sources over HTTP")
	addr := flag.String("addr", "", "Listen address (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (\"auto\" = runs/<uuid>)")
	dbPath := flag.String("db", "", "SQLite run database (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *dbPath != "" {
		cfg.Telemetry.Database = *dbPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *outputDir == "auto" {
		*outputDir = filepath.Join("runs", uuid.NewString())
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hooks run during Step, after everything below is wired.
	var (
		mgr *chat.Manager
		hub *server.Hub
	)
	hooks := game.Hooks{
		OnNotification: func(n game.Notification) {
			if hub != nil {
				hub.Notify(n)
			}
		},
		OnConfigApplied: func(c *config.Config) {
			if mgr != nil {
				mgr.Configure(c)
			}
		},
	}

	var window *app.App
	if !*headless {
		window = app.New(app.Options{MaxTicks: *maxTicks}, rngSeed)
		hooks = window.Hooks(hooks)
	}

	pop, err := game.New(cfg, game.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Hooks:     hooks,
	})
	if err != nil {
		slog.Error("failed to create population", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := pop.Close(); err != nil {
			slog.Error("failed to close population", "error", err)
		}
	}()

	current := pop.Config()
	votes := chat.NewVoteManager(current, pop, rand.New(rand.NewSource(rngSeed+1)))
	mgr = chat.NewManager(current, pop, votes, rand.New(rand.NewSource(rngSeed+2)))

	if *serve {
		hub = server.NewHub(current.Server, pop.Settings(), pop, mgr)
		srv := &http.Server{Addr: current.Server.Addr, Handler: hub.Handler()}
		go hub.Run(ctx)
		go func() {
			slog.Info("server_listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server failed", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown", "error", err)
			}
		}()
	}

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
			"serve", *serve,
		)
		runHeadless(ctx, pop, votes, hub, *maxTicks, max(*stepsPerUpdate, 1))
		return
	}

	window.SetChat(mgr, hub)
	window.Open(current.Screen.Width, current.Screen.Height, current.Screen.TargetFPS)
	defer window.Close()
	window.Attach(pop)
	window.Run(ctx)
}

// runHeadless steps at a fixed dt. With a hub attached it keeps real time so
// viewers and vote timers see a live world; otherwise it runs flat out.
func runHeadless(ctx context.Context, pop *game.Population, votes *chat.VoteManager, hub *server.Hub, maxTicks, steps int) {
	pacer := server.NewPacer(pop.Config().Server.SnapshotHz)

	var tick <-chan time.Time
	if hub != nil {
		ticker := time.NewTicker(time.Duration(headlessDt * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return
		}

		for range steps {
			pop.Step(headlessDt)
		}
		votes.Update(headlessDt)
		if hub != nil && pacer.Due(headlessDt) {
			hub.Publish(pop.Snapshot(false))
		}

		if maxTicks > 0 && pop.Tick() >= maxTicks {
			elapsed := time.Since(start)
			slog.Info("simulation complete",
				"ticks", pop.Tick(),
				"sim_time", pop.SimTime(),
				"living", pop.Living(),
				"elapsed", elapsed.String(),
				"ticks_per_sec", float64(pop.Tick())/elapsed.Seconds(),
			)
			return
		}
	}
}
