package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"firefight/internal/api"
	"firefight/internal/config"
	"firefight/internal/game"
	"firefight/internal/game/spatial"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  FIREFIGHT - AUTHORITY")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	serverCfg := appConfig.Server

	catalog, err := loadCatalog(appConfig.Combat.CatalogPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("🔫 Weapons: %v", catalog.Names())
	log.Printf("🎮 Config: %d TPS, default weapon %s, %d max characters",
		appConfig.Tick.Rate, appConfig.Combat.DefaultWeapon, serverCfg.MaxCharacters)

	engine := game.NewEngine(game.EngineOptions{
		Tick:          appConfig.Tick,
		Combat:        appConfig.Combat,
		World:         appConfig.World,
		Limits:        appConfig.Limits,
		MaxCharacters: serverCfg.MaxCharacters,
		Catalog:       catalog,
	})

	if serverCfg.EventLogPath != "" {
		if err := engine.StartEventLog(serverCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
		}
	}

	spawnTargets(engine, appConfig.World, getEnvInt("TRAINING_TARGETS", 2))

	debug := api.StartDebugServer(api.ObservabilityFromEnv(serverCfg.DebugServer))

	server := api.NewServer(engine, api.ServerOptions{PeerQueueSize: appConfig.Limits.PeerQueueSize})

	engine.Start()
	log.Println("✅ Combat engine started")

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🔌 Replicas connect to ws://localhost%s/ws", addr)
		serveErr <- server.Start(addr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Printf("❌ API server failed: %v", err)
		}
	}

	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	if err := debug.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Debug server shutdown: %v", err)
	}
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}

// loadCatalog reads the YAML catalog, falling back to the built-in one when
// the file does not exist.
func loadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		return config.DefaultCatalog(), nil
	}
	catalog, err := config.LoadCatalog(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("💡 %s not found, using built-in weapon catalog", path)
		return config.DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("weapon catalog: %w", err)
	}
	log.Printf("📦 Weapon catalog: %s", path)
	return catalog, nil
}

// spawnTargets places n training targets across the arena's middle band,
// alternating static and patrolling.
func spawnTargets(engine *game.Engine, arena config.WorldConfig, n int) {
	for i := range n {
		x := arena.Width * float64(i+1) / float64(n+1)
		y := arena.Depth / 2
		z := game.DefaultHalfExtent.Z
		opts := game.TargetOptions{
			Name:     fmt.Sprintf("target-%d", i+1),
			Position: spatial.V(x, y, z),
			Static:   i%2 == 0,
		}
		if !opts.Static {
			to := spatial.V(x, arena.Depth*0.8, z)
			opts.PatrolTo = &to
			opts.PatrolSpeed = 150
		}
		id, err := engine.SpawnTarget(opts)
		if err != nil {
			log.Printf("⚠️ Target %s not spawned: %v", opts.Name, err)
			continue
		}
		log.Printf("🎯 Spawned %s (%s)", opts.Name, id)
	}
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
