package database

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"momo-vod/internal/models"
)

// SetupInMemoryDB creates a throwaway DB for testing
func SetupInMemoryDB(t *testing.T) *Client {
	t.Helper()
	// Named shared-cache DB: every pooled connection sees the same tables,
	// and tests do not see each other's rows
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	c := &Client{DB: d}
	if err := c.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return c
}

func TestSeedDemoCommentsIsIdempotent(t *testing.T) {
	c := SetupInMemoryDB(t)

	if n := SeedDemoComments(c.DB); n != 8 {
		t.Fatalf("expected 8 comments created, got %d", n)
	}
	if n := SeedDemoComments(c.DB); n != 0 {
		t.Errorf("expected second seed to create nothing, got %d", n)
	}

	var count int64
	c.DB.Model(&models.Comment{}).Where("episode_id = ?", DemoEpisodeID).Count(&count)
	if count != 8 {
		t.Errorf("expected 8 stored comments, got %d", count)
	}
}
