package database

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momo-vod/internal/models"
)

// DemoEpisodeID is the episode SeedDemoComments fills.
const DemoEpisodeID = "demo-s01e01"

// SeedDemoComments populates a demo episode so the player has something to
// overlay on a fresh install.
func SeedDemoComments(db *gorm.DB) int {
	comments := []models.Comment{
		// --- COLD OPEN ---
		{ID: "6f1c2b7e-0000-4000-8000-000000000001", TimestampMs: 1_200, AuthorID: "system", Body: "first!"},
		{ID: "6f1c2b7e-0000-4000-8000-000000000002", TimestampMs: 1_200, AuthorID: "system", Body: "here before it gets good"},
		{ID: "6f1c2b7e-0000-4000-8000-000000000003", TimestampMs: 4_500, AuthorID: "system", Body: "that intro song though"},

		// --- ACT ONE ---
		{ID: "6f1c2b7e-0000-4000-8000-000000000004", TimestampMs: 15_000, AuthorID: "system", Body: "wait who is that"},
		{ID: "6f1c2b7e-0000-4000-8000-000000000005", TimestampMs: 22_750, AuthorID: "system", Body: "called it"},
		{ID: "6f1c2b7e-0000-4000-8000-000000000006", TimestampMs: 31_000, AuthorID: "system", Body: "rewind, did you see the background?"},

		// --- CLIFFHANGER ---
		{ID: "6f1c2b7e-0000-4000-8000-000000000007", TimestampMs: 58_000, AuthorID: "system", Body: "NO"},
		{ID: "6f1c2b7e-0000-4000-8000-000000000008", TimestampMs: 59_500, AuthorID: "system", Body: "next episode now"},
	}

	log.Printf("🌱 Seeding %d demo comments...", len(comments))
	var created int
	for _, c := range comments {
		c.EpisodeID = DemoEpisodeID
		c.Source = "seed"
		// Skip rows that already exist so restarts stay idempotent
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&c)
		if res.Error == nil {
			created += int(res.RowsAffected)
		}
	}
	return created
}
