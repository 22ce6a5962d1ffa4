package models

import "time"

// MeterReading records one accepted watch-time sync from a client.
type MeterReading struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	ViewerID    string    `gorm:"index;not null" json:"viewerId"`
	SeasonID    string    `gorm:"index;not null" json:"seasonId"`
	WatchTimeMs int64     `gorm:"not null" json:"watchTimeMs"`
	RequestID   *string   `gorm:"uniqueIndex;type:varchar(64)" json:"-"` // Client request id, retries reuse it
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// SeasonSummary is the aggregate a publisher sees for one season.
type SeasonSummary struct {
	SeasonID     string `json:"seasonId"`
	WatchTimeMs  int64  `json:"watchTimeMs"`
	Viewers      int64  `json:"viewers"`
	ReadingCount int64  `json:"readingCount"`
}
