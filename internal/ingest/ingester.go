package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momo-vod/internal/config"
	database "momo-vod/internal/db"
	"momo-vod/internal/models"
	"momo-vod/internal/scheduler"
	"momo-vod/internal/storage"
)

// Dumps above this size are rejected without parsing.
const maxDumpBytes = 16 << 20

var (
	jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vod_ingest_jobs_total",
			Help: "Total ingest jobs",
		},
		[]string{"status"},
	)
	duration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vod_ingest_duration_seconds",
			Help:    "Processing time",
			Buckets: prometheus.DefBuckets,
		},
	)
	imported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vod_ingest_comments_total",
			Help: "Comments imported from dumps",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(jobs, duration, imported)
}

// Namespace for comment ids derived from dump content. The same dump always
// yields the same ids, so reprocessing after a partial failure is harmless.
var dumpNamespace = uuid.MustParse("9b0d3c52-6f3e-4c1b-a5d7-2e1f0c8a4b11")

type Worker struct {
	storage  *storage.Client
	db       *database.Client
	clock    scheduler.Clock
	interval time.Duration
}

func New(cfg *config.Config, store *storage.Client, db *database.Client) *Worker {
	interval := time.Duration(cfg.Server.PollingInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Worker{storage: store, db: db, clock: scheduler.RealClock{}, interval: interval}
}

// Run drains the queue, then again on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("Watcher started on '%s' (every %s)...", w.storage.IngestBucket(), w.interval)
	w.ProcessQueue(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Ingest watcher stopped")
			return
		case <-ticker.C:
			w.ProcessQueue(ctx)
		}
	}
}

// Result counts the outcome of one pass over the queue.
type Result struct {
	Imported int
	Rejected int
	Failed   int
}

func (w *Worker) ProcessQueue(ctx context.Context) Result {
	var res Result

	keys, err := w.storage.ListIngestFiles(ctx)
	if err != nil {
		log.Printf("Error listing bucket: %v", err)
		return res
	}

	if len(keys) > 0 {
		log.Printf("Found %d items in ingest queue.", len(keys))
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		if !IsSupportedFormat(key) {
			continue
		}

		log.Printf("Processing: %s", key)
		n, err := w.processFile(ctx, key)
		switch {
		case errors.Is(err, ErrInvalidDump):
			log.Printf("🚫 REJECTED %s: %v", key, err)
			jobs.WithLabelValues("rejected").Inc()
			res.Rejected++
		case err != nil:
			log.Printf("❌ FAILED %s: %v", key, err)
			jobs.WithLabelValues("failure").Inc()
			res.Failed++
		default:
			log.Printf("✅ IMPORTED %s (%d comments)", key, n)
			jobs.WithLabelValues("success").Inc()
			res.Imported++
		}
	}
	return res
}

// processFile imports one dump and returns how many comments were new.
// Invalid dumps are archived under rejected/ and removed from the queue;
// any other error leaves the dump in place for the next pass.
func (w *Worker) processFile(ctx context.Context, key string) (int, error) {
	timer := prometheus.NewTimer(duration)
	defer timer.ObserveDuration()

	// 1. Download
	obj, err := w.storage.DownloadIngestFile(ctx, key)
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(io.LimitReader(obj.Body, maxDumpBytes+1))
	obj.Body.Close()
	if err != nil {
		return 0, err
	}

	now := w.clock.Now()

	// 2. Parse & validate
	var dump *Dump
	if len(data) > maxDumpBytes {
		err = fmt.Errorf("%w: larger than %d bytes", ErrInvalidDump, maxDumpBytes)
	} else {
		dump, err = ParseDump(key, data)
	}
	if err != nil {
		if archiveErr := w.move(ctx, key, RejectedPath(key, now), data); archiveErr != nil {
			return 0, fmt.Errorf("reject %s: %w", key, archiveErr)
		}
		return 0, err
	}

	// 3. DB persistence, all or nothing
	n, err := w.insert(ctx, key, data, dump)
	if err != nil {
		return 0, err
	}
	imported.Add(float64(n))

	// 4. Archive and dequeue
	dest := BuildPath(dump.EpisodeID, key, now)
	log.Printf("   -> Archiving to: %s", dest)
	if err := w.move(ctx, key, dest, data); err != nil {
		return n, err
	}
	return n, nil
}

func (w *Worker) insert(ctx context.Context, key string, data []byte, dump *Dump) (int, error) {
	sum := sha256.Sum256(data)
	episode := strings.TrimSpace(dump.EpisodeID)

	rows := make([]models.Comment, 0, len(dump.Comments))
	for i, c := range dump.Comments {
		author := strings.TrimSpace(c.AuthorID)
		if author == "" {
			author = "ingest"
		}
		rows = append(rows, models.Comment{
			ID:          uuid.NewSHA1(dumpNamespace, []byte(fmt.Sprintf("%x/%d", sum, i))).String(),
			EpisodeID:   episode,
			TimestampMs: c.TimestampMs,
			AuthorID:    author,
			Body:        strings.TrimSpace(c.Body),
			Source:      "ingest",
		})
	}

	var created int64
	err := w.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).CreateInBatches(&rows, 200)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store %s: %w", key, err)
	}
	return int(created), nil
}

// move copies the raw dump to the archive bucket, then drops it from ingest.
func (w *Worker) move(ctx context.Context, key, dest string, data []byte) error {
	if err := w.storage.ArchiveFile(ctx, dest, bytes.NewReader(data), contentType(key)); err != nil {
		return err
	}
	return w.storage.DeleteIngestFile(ctx, key)
}

func contentType(key string) string {
	if strings.HasSuffix(strings.ToLower(key), ".json") {
		return "application/json"
	}
	return "application/yaml"
}
