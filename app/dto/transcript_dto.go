package dto

import (
	"time"
)

// IngestTranscriptRequest represents the request to ingest a transcript
type IngestTranscriptRequest struct {
	CustomerID      uint       `json:"-"`
	Title           string     `json:"title" validate:"required,min=1,max=255"`
	Content         string     `json:"content" validate:"required,min=1"`
	Source          *string    `json:"source,omitempty" validate:"omitempty,oneof=upload recording"`
	DurationSeconds *int       `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
	RecordedAt      *time.Time `json:"recorded_at,omitempty"`
	Language        *string    `json:"language,omitempty" validate:"omitempty,max=10"`
	Tags            []string   `json:"tags,omitempty"`
}

// IngestTranscriptResponse represents the response after ingesting a transcript
type IngestTranscriptResponse struct {
	Message    string `json:"message"`
	Transcript GetTranscriptResponse `json:"transcript"`
}

// GetTranscriptResponse represents a transcript in responses
type GetTranscriptResponse struct {
	UUID            string     `json:"uuid"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Source          string     `json:"source"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	RecordedAt      *time.Time `json:"recorded_at,omitempty"`
	Language        *string    `json:"language,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListTranscriptsFilter represents filter criteria for listing transcripts
type ListTranscriptsFilter struct {
	Title  *string `json:"title,omitempty"`
	Source *string `json:"source,omitempty"`
	Tag    *string `json:"tag,omitempty"`
}

// ListTranscriptsRequest represents a paginated list request for a customer's transcripts
type ListTranscriptsRequest struct {
	CustomerID uint                   `json:"-"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	OrderBy    string                 `json:"orderby"` // newest, oldest
	Filter     *ListTranscriptsFilter `json:"filter,omitempty"`
}

// ListTranscriptsResponse represents a paginated list of transcripts
type ListTranscriptsResponse struct {
	Message    string                  `json:"message"`
	Items      []GetTranscriptResponse `json:"items"`
	Pagination PaginationInfo          `json:"pagination"`
}

// DeleteTranscriptRequest represents the request to delete a transcript
type DeleteTranscriptRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// DeleteTranscriptResponse represents the response after deleting a transcript
type DeleteTranscriptResponse struct {
	Message string `json:"message"`
}
