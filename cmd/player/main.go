package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"momo-vod/internal/config"
	"momo-vod/internal/meter"
	"momo-vod/internal/player"
	"momo-vod/internal/rpc"
)

func main() {
	// 1. Parse Flags
	// Flags override the scenario file
	scenarioPath := flag.String("scenario", "", "YAML scenario to replay (defaults to the built-in demo)")
	episode := flag.String("episode", "", "Override the scenario episode")
	season := flag.String("season", "", "Override the scenario season")
	metrics := flag.Bool("metrics", false, "Expose player metrics while the scenario runs")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 2. Load Config
	cfg := config.Load()

	// 3. Load Scenario
	sc := player.DemoScenario()
	if *scenarioPath != "" {
		loaded, err := player.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("❌ Scenario: %v", err)
		}
		sc = loaded
	}
	if *episode != "" {
		sc.EpisodeID = *episode
	}
	if *season != "" {
		sc.SeasonID = *season
	}
	if sc.EpisodeID == "" || sc.SeasonID == "" {
		log.Fatal("❌ Scenario needs an episode and a season (-episode, -season)")
	}
	if cfg.Client.Token == "" {
		log.Println("⚠️ No client token set (MOMO_CLIENT_TOKEN); the API will refuse calls")
	}

	if *metrics {
		meter.RegisterMetrics()
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Printf("📊 Metrics exposed at http://localhost%s/metrics", cfg.Server.MetricsPort)
			if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
				log.Printf("⚠️ Metrics server error: %v", err)
			}
		}()
	}

	// 4. Wire Session
	client := rpc.NewClient(cfg.Client.APIURL, cfg.Client.Token)
	session := player.NewSession(client, sc, player.Options{
		Meter: meter.Options{
			Interval:  cfg.MeterInterval(),
			Retries:   cfg.Client.MeterRetries,
			KeepAlive: cfg.Client.MeterKeepAlive,
			Timeout:   cfg.MeterTimeout(),
		},
		PollEvery: cfg.CommentsPollInterval(),
		Out:       os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(player.Banner(sc))

	// 5. Run, then unload like a closing page
	report, err := session.Run(ctx)
	session.Close()
	if err != nil {
		log.Fatalf("❌ Playback failed: %v", err)
	}

	fmt.Println()
	fmt.Println(player.Summary(report, session.Meter().Pending()))
	if report.MeterStopped != nil {
		os.Exit(1)
	}
}
