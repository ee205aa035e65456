package dto

import (
	"time"
)

// ExtractInsightsRequest represents the request to run insight extraction on a transcript
type ExtractInsightsRequest struct {
	TranscriptUUID string `json:"-"`
	CustomerID     uint   `json:"-"`
	MaxInsights    *int   `json:"max_insights,omitempty" validate:"omitempty,min=1,max=20"`
}

// ExtractInsightsResponse represents the response with the extracted insights
type ExtractInsightsResponse struct {
	Message string               `json:"message"`
	Items   []GetInsightResponse `json:"items"`
}

// GetInsightResponse represents an insight in responses
type GetInsightResponse struct {
	UUID           string    `json:"uuid"`
	TranscriptUUID string    `json:"transcript_uuid,omitempty"`
	Content        string    `json:"content"`
	Score          float64   `json:"score"`
	Topics         []string  `json:"topics,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListInsightsFilter represents filter criteria for listing insights
type ListInsightsFilter struct {
	Status   *string  `json:"status,omitempty"`
	Topic    *string  `json:"topic,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
}

// ListInsightsRequest represents a paginated list request for a transcript's insights
type ListInsightsRequest struct {
	TranscriptUUID string              `json:"-"`
	CustomerID     uint                `json:"-"`
	Page           int                 `json:"page"`
	Limit          int                 `json:"limit"`
	Filter         *ListInsightsFilter `json:"filter,omitempty"`
}

// ListInsightsResponse represents a paginated list of insights
type ListInsightsResponse struct {
	Message    string               `json:"message"`
	Items      []GetInsightResponse `json:"items"`
	Pagination PaginationInfo       `json:"pagination"`
}

// ReviewInsightRequest represents the request to accept or dismiss an insight
type ReviewInsightRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
	Decision   string `json:"decision" validate:"required,oneof=accept dismiss"`
}

// ReviewInsightResponse represents the response after reviewing an insight
type ReviewInsightResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
