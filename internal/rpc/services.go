package rpc

import "momo-vod/internal/models"

const (
	CommentsService = "comments.v1"
	MeterService    = "meter.v1"
)

// --- comments.v1 ---

type GetCommentsRequest struct {
	EpisodeID string `json:"episodeId"`
}

type GetCommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

type PostCommentRequest struct {
	EpisodeID   string `json:"episodeId"`
	TimestampMs int64  `json:"timestampMs"`
	Body        string `json:"body"`
}

type PostCommentResponse struct {
	Comment models.Comment `json:"comment"`
}

var (
	GetComments = Descriptor[GetCommentsRequest, GetCommentsResponse]{Service: CommentsService, Method: "GetComments"}
	PostComment = Descriptor[PostCommentRequest, PostCommentResponse]{Service: CommentsService, Method: "PostComment"}
)

// --- meter.v1 ---

type SyncMeterReadingRequest struct {
	SeasonID    string `json:"seasonId"`
	WatchTimeMs int64  `json:"watchTimeMs"`
}

type SyncMeterReadingResponse struct{}

type GetSeasonSummaryRequest struct {
	SeasonID string `json:"seasonId"`
}

type GetSeasonSummaryResponse struct {
	Summary models.SeasonSummary `json:"summary"`
}

var (
	SyncMeterReading = Descriptor[SyncMeterReadingRequest, SyncMeterReadingResponse]{Service: MeterService, Method: "SyncMeterReading"}
	GetSeasonSummary = Descriptor[GetSeasonSummaryRequest, GetSeasonSummaryResponse]{Service: MeterService, Method: "GetSeasonSummary"}
)
