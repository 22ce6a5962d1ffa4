package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"momo-vod/internal/api/middleware"
	"momo-vod/internal/models"
	"momo-vod/internal/rpc"
)

var commentsPosted = prometheus.NewCounter(
	prometheus.CounterOpts{Name: "vod_comments_posted_total", Help: "Comments accepted through the API"},
)

// CommentHandler serves the comments.v1 RPCs
type CommentHandler struct {
	db *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

// GetComments returns every comment of an episode, ordered by pin time then
// arrival. There is no paging: players merge the full list client-side.
func (h *CommentHandler) GetComments(c *gin.Context) {
	var req rpc.GetCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.EpisodeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "episodeId is required"})
		return
	}

	comments := []models.Comment{}
	err := h.db.Where("episode_id = ?", req.EpisodeID).
		Order("timestamp_ms asc").
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, rpc.GetCommentsResponse{Comments: comments})
}

// PostComment pins a new comment from the authenticated viewer.
func (h *CommentHandler) PostComment(c *gin.Context) {
	var req rpc.PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body := strings.TrimSpace(req.Body)
	switch {
	case req.EpisodeID == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "episodeId is required"})
		return
	case body == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		return
	case utf8.RuneCountInString(body) > models.MaxCommentRunes:
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is too long"})
		return
	case req.TimestampMs < 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestampMs must not be negative"})
		return
	}

	comment := models.Comment{
		ID:          uuid.NewString(),
		EpisodeID:   req.EpisodeID,
		TimestampMs: req.TimestampMs,
		AuthorID:    middleware.ViewerID(c),
		Body:        body,
		Source:      "live",
	}

	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save comment"})
		return
	}
	commentsPosted.Inc()

	c.JSON(http.StatusOK, rpc.PostCommentResponse{Comment: comment})
}
