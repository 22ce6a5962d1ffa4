package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"momo-vod/internal/models"
)

// StatsHandler handles stats-related requests independently of the main server
type StatsHandler struct {
	db *gorm.DB
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

// GetStats returns aggregated dashboard statistics
func (h *StatsHandler) GetStats(c *gin.Context) {
	var totalComments int64
	var totalEpisodes int64
	var totalReadings int64
	var watchTimeMs int64

	// 1. Comments
	h.db.Model(&models.Comment{}).Count(&totalComments)
	h.db.Model(&models.Comment{}).Distinct("episode_id").Count(&totalEpisodes)

	// 2. Metering
	h.db.Model(&models.MeterReading{}).Count(&totalReadings)
	h.db.Model(&models.MeterReading{}).Select("COALESCE(SUM(watch_time_ms), 0)").Scan(&watchTimeMs)

	// 3. Latest comments across episodes
	var recent []models.Comment
	h.db.Order("created_at DESC").Limit(5).Find(&recent)

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_comments":         totalComments,
			"episodes_with_comments": totalEpisodes,
			"total_meter_readings":   totalReadings,
			"total_watch_time_ms":    watchTimeMs,
		},
		"recent_comments": recent,
	})
}
