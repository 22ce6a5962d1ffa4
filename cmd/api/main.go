package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"momo-vod/internal/api/handlers"
	"momo-vod/internal/api/middleware"
	"momo-vod/internal/config"
	database "momo-vod/internal/db"

	// Use an alias to prevent naming collisions with the 'server' variable
	apiserver "momo-vod/internal/api/server"
)

func main() {
	mintToken := flag.String("mint-token", "", "Print a signed token for <subject>:<role> and exit")
	ttl := flag.Duration("token-ttl", 30*24*time.Hour, "Lifetime of a minted token")
	seed := flag.Bool("seed", false, "Seed the demo episode comments")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 1. Setup Configuration
	cfg := config.Load()

	if *mintToken != "" {
		if err := printToken(cfg, *mintToken, *ttl); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	log.Println("Starting VOD API Server...")

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations
	db.AutoMigrate()
	if *seed {
		database.SeedDemoComments(db.DB)
	}

	// 4. Setup Metrics
	handlers.RegisterMetrics()
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 5. Start Server
	srv := apiserver.New(cfg, db)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)

	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func printToken(cfg *config.Config, arg string, ttl time.Duration) error {
	subject, role, ok := strings.Cut(arg, ":")
	if !ok || subject == "" {
		return fmt.Errorf("-mint-token wants <subject>:<role>, got %q", arg)
	}
	switch role {
	case middleware.RoleViewer, middleware.RolePublisher, middleware.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), subject, role, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, token)
	return nil
}
