package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os/signal"
	"syscall"
	"time"

	"firefight/internal/config"
	"firefight/internal/replica"

	"github.com/joho/godotenv"
)

const statsInterval = 10 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	appConfig := config.Load()
	cfg := appConfig.Replica

	catalog, err := config.LoadCatalog(appConfig.Combat.CatalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		catalog, err = config.DefaultCatalog(), nil
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("🤖 Replica %q -> %s (weapon %s, burst %s every %s)",
		cfg.Name, cfg.ServerURL, cfg.Weapon, cfg.BurstLength, cfg.BurstEvery)

	client := replica.New(replica.Options{
		Replica: cfg,
		Tick:    appConfig.Tick,
		Combat:  appConfig.Combat,
		World:   appConfig.World,
		Limits:  appConfig.Limits,
		Catalog: catalog,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := client.Stats()
				log.Printf("📊 in=%d out=%d dropped=%d unhandled=%d hit markers=%d",
					s.FramesIn, s.FramesOut, s.FramesDropped, s.Unhandled, s.HitMarkers)
			}
		}
	}()

	if err := client.Run(ctx); err != nil {
		log.Fatalf("❌ Replica stopped: %v", err)
	}
	log.Println("👋 Goodbye!")
}
