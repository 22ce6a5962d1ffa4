package models

import "time"

// MaxCommentRunes caps the length of a comment body, live or ingested.
const MaxCommentRunes = 500

// Comment is a viewer comment pinned to a playback offset of an episode.
// Clients only order on TimestampMs; everything else is display data.
type Comment struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	EpisodeID   string    `gorm:"index:idx_episode_pin,priority:1;not null" json:"episodeId"`
	TimestampMs int64     `gorm:"index:idx_episode_pin,priority:2;not null" json:"timestampMs"` // Pin time within the video
	AuthorID    string    `gorm:"index" json:"authorId"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	Source      string    `gorm:"type:varchar(20);default:'live'" json:"-"` // "live" or "ingest"
	CreatedAt   time.Time `json:"createdAt"`
}
