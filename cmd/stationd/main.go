package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Drabants/unitystation/internal/config"
	"github.com/Drabants/unitystation/internal/core/event"
	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/data"
	"github.com/Drabants/unitystation/internal/handler"
	"github.com/Drabants/unitystation/internal/lifecycle"
	gonet "github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/persist"
	"github.com/Drabants/unitystation/internal/scripting"
	"github.com/Drabants/unitystation/internal/system"
	"github.com/Drabants/unitystation/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           stationd  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m    networked object lifecycle server      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/station.toml"
	if p := os.Getenv("STATIOND_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadOrDefaults(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")

	// 4. Create repositories
	operatorRepo := persist.NewOperatorRepo(db)
	auditRepo := persist.NewAuditRepo(db)
	snapRepo := persist.NewSnapshotRepo(db)

	if err := operatorRepo.ResetOnline(ctx); err != nil {
		return fmt.Errorf("reset operator online flags: %w", err)
	}
	auditRows, err := auditRepo.CountRows(ctx)
	if err != nil {
		return fmt.Errorf("count audit rows: %w", err)
	}
	printStat("audit trail rows", int(auditRows))
	fmt.Println()

	// 5. Load data tables
	printSection("data")

	templates, err := data.LoadTemplateTable("data/templates.yaml")
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	printStat("object templates", templates.Count())

	spawnList, err := data.LoadSpawnList("data/spawns.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn entries", len(spawnList))

	// 6. Lua pool policy
	var luaEngine *scripting.Engine
	if cfg.Pool.PolicyScripts {
		luaEngine, err = scripting.NewEngine(cfg.Pool.ScriptDir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		printOK("pool policy scripts loaded")
	}

	// 7. World state, pool, lifecycle wiring
	ticksPerSecond := int(time.Second / cfg.Network.TickRate)
	worldState := world.NewState(cfg.World.ViewRange)
	pool := world.NewPoolRegistry(cfg.Pool.DefaultCapacity)
	pool.SetPolicy(lifecycle.NewPoolPolicy(templates, luaEngine, cfg.Pool.DefaultCapacity))
	decayTracker := world.NewDecayTracker()
	bus := event.NewBus()
	hooks := lifecycle.NewHookRegistry(log)

	store := gonet.NewSessionStore()
	broadcaster := handler.NewBroadcaster(worldState, store, log)

	coordinator := lifecycle.NewCoordinator(worldState, pool, hooks, broadcaster, bus, log)
	spawner := lifecycle.NewSpawner(worldState, pool, templates, decayTracker, broadcaster, bus, ticksPerSecond, log)

	registerHooks(hooks, coordinator, decayTracker)

	// 8. Restore the last snapshot, or run the spawn list fresh.
	respawnSys := system.NewRespawnSystem(worldState, spawner, bus, spawnList, ticksPerSecond, log)
	restored, err := restoreSnapshot(ctx, snapRepo, spawner, templates, log)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if restored > 0 {
		printStat("objects restored", restored)
	} else {
		printStat("objects spawned", respawnSys.SpawnInitial())
	}
	fmt.Println()

	// 9. Packet handler registry
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Config:       cfg,
		Log:          log,
		World:        worldState,
		Pool:         pool,
		Coordinator:  coordinator,
		Spawner:      spawner,
		Templates:    templates,
		OperatorRepo: operatorRepo,
		Bus:          bus,
	}
	handler.RegisterAll(pktReg, deps)

	// 10. Network server
	pktPerSec := 0
	if cfg.RateLimit.Enabled {
		pktPerSec = cfg.RateLimit.PacketsPerSecond
	}
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		pktPerSec,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 11. Tick systems
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, store, worldState, operatorRepo, bus, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewDecaySystem(decayTracker, coordinator, cfg.World.DecayIntervalTicks, log))
	runner.Register(respawnSys)
	runner.Register(system.NewVisibilitySystem(worldState, store))
	runner.Register(system.NewOutputSystem(store))
	persistSys := system.NewPersistenceSystem(worldState, auditRepo, snapRepo, bus, cfg.World.SaveIntervalTicks, log)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(bus))

	// 12. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()

			store.ForEach(func(sess *gonet.Session) {
				handler.SendDisconnect(sess, handler.DisconnectServerClose)
				sess.FlushOutput()
				sess.Close()
			})

			persistSys.FlushNow()
			if err := persistSys.SnapshotNow(); err != nil {
				log.Error("shutdown snapshot failed", zap.Error(err))
			} else {
				log.Info("world snapshot saved", zap.Int("objects", worldState.Count()))
			}

			log.Info("server stopped")
			return nil
		}
	}
}

// registerHooks wires the boot-time despawn listeners.
func registerHooks(hooks *lifecycle.HookRegistry, coordinator *lifecycle.Coordinator, decayTracker *world.DecayTracker) {
	// A despawned object must leave the decay list no matter which path
	// removed it.
	hooks.RegisterHook("decay_untrack", func(o *world.Object, _ lifecycle.HookInfo) error {
		decayTracker.Untrack(o.ID)
		return nil
	})

	// Despawning a container takes its contents with it. The children
	// route through the coordinator so delegation releases their slots
	// and each child's own capabilities decide pool-or-destroy.
	hooks.RegisterHook("cascade_contents", func(o *world.Object, _ lifecycle.HookInfo) error {
		if o.Contents == nil {
			return nil
		}
		for _, child := range o.Contents.Contents() {
			if _, err := coordinator.DespawnAuthoritative(lifecycle.DespawnRequest{
				Object: child,
				Cause:  lifecycle.CauseContents,
			}); err != nil {
				return fmt.Errorf("cascade child %d: %w", child.ID, err)
			}
		}
		return nil
	})
}

// restoreSnapshot re-places the objects of the last shutdown snapshot.
// Returns the number restored; 0 when no snapshot exists.
func restoreSnapshot(ctx context.Context, repo *persist.SnapshotRepo, spawner *lifecycle.Spawner, templates *data.TemplateTable, log *zap.Logger) (int, error) {
	rows, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, row := range rows {
		if templates.Get(row.TemplateID) == nil {
			log.Warn("snapshot row references unknown template",
				zap.Int32("object", row.ObjectID),
				zap.Int32("template", row.TemplateID),
			)
			continue
		}
		o, err := spawner.Spawn(row.TemplateID, row.X, row.Y, row.Deck)
		if err != nil {
			return restored, err
		}
		if row.DecayTicks > 0 {
			o.DecayTicks = row.DecayTicks
		}
		restored++
	}
	return restored, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
