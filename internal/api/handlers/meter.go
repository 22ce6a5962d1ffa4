package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momo-vod/internal/api/middleware"
	"momo-vod/internal/models"
	"momo-vod/internal/rpc"
)

var (
	meterReadings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vod_meter_readings_total", Help: "Meter readings by outcome"},
		[]string{"status"},
	)
	meterWatchMs = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vod_meter_watch_ms_total", Help: "Accepted watch time in milliseconds"},
	)
)

// RegisterMetrics registers the API collectors with the default registry.
func RegisterMetrics() {
	prometheus.MustRegister(commentsPosted, meterReadings, meterWatchMs)
}

// MeterHandler serves the meter.v1 RPCs
type MeterHandler struct {
	db *gorm.DB
}

func NewMeterHandler(db *gorm.DB) *MeterHandler {
	return &MeterHandler{db: db}
}

// SyncMeterReading books watch time for the authenticated viewer. Retries of
// the same client call carry the same request id and are accepted without
// being stored twice.
func (h *MeterHandler) SyncMeterReading(c *gin.Context) {
	var req rpc.SyncMeterReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		meterReadings.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SeasonID == "" {
		meterReadings.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "seasonId is required"})
		return
	}
	if req.WatchTimeMs <= 0 {
		meterReadings.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "watchTimeMs must be positive"})
		return
	}

	reading := models.MeterReading{
		ViewerID:    middleware.ViewerID(c),
		SeasonID:    req.SeasonID,
		WatchTimeMs: req.WatchTimeMs,
	}
	if id := c.GetHeader(rpc.RequestIDHeader); id != "" {
		reading.RequestID = &id
	}

	result := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoNothing: true,
	}).Create(&reading)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store reading"})
		return
	}

	if result.RowsAffected == 0 {
		meterReadings.WithLabelValues("duplicate").Inc()
	} else {
		meterReadings.WithLabelValues("accepted").Inc()
		meterWatchMs.Add(float64(req.WatchTimeMs))
	}

	c.JSON(http.StatusOK, rpc.SyncMeterReadingResponse{})
}

// GetSeasonSummary aggregates the readings of one season for publishers.
func (h *MeterHandler) GetSeasonSummary(c *gin.Context) {
	var req rpc.GetSeasonSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SeasonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seasonId is required"})
		return
	}

	summary := models.SeasonSummary{SeasonID: req.SeasonID}
	err := h.db.Model(&models.MeterReading{}).
		Select("COALESCE(SUM(watch_time_ms), 0) AS watch_time_ms, COUNT(DISTINCT viewer_id) AS viewers, COUNT(*) AS reading_count").
		Where("season_id = ?", req.SeasonID).
		Scan(&summary).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate readings"})
		return
	}
	summary.SeasonID = req.SeasonID

	c.JSON(http.StatusOK, rpc.GetSeasonSummaryResponse{Summary: summary})
}
