package ingest

import (
	"fmt"
	"time"

	"momo-vod/internal/utils"
)

// BuildPath returns where a processed dump lives in the archive bucket:
// archive/<episode>/<yyyymmdd>-<name>.
func BuildPath(episodeID, originalKey string, at time.Time) string {
	episode := utils.Sanitize(episodeID, "Unknown_Episode")
	name := utils.SanitizeFilename(originalKey, "dump")
	return fmt.Sprintf("archive/%s/%s-%s", episode, at.UTC().Format("20060102"), name)
}

// RejectedPath is the archive location for dumps that failed validation.
func RejectedPath(originalKey string, at time.Time) string {
	name := utils.SanitizeFilename(originalKey, "dump")
	return fmt.Sprintf("rejected/%s-%s", at.UTC().Format("20060102"), name)
}
