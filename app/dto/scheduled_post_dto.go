package dto

import (
	"time"
)

// SchedulePostRequest represents the request to schedule an approved post
type SchedulePostRequest struct {
	CustomerID  uint      `json:"-"`
	PostUUID    string    `json:"post_uuid" validate:"required,uuid"`
	Platform    string    `json:"platform" validate:"required,oneof=linkedin x"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// SchedulePostResponse represents the response after scheduling a post
type SchedulePostResponse struct {
	Message       string                   `json:"message"`
	ScheduledPost GetScheduledPostResponse `json:"scheduled_post"`
}

// RescheduleRequest represents the request to move a pending schedule to a new time
type RescheduleRequest struct {
	UUID        string    `json:"-"`
	CustomerID  uint      `json:"-"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// RescheduleResponse represents the response after rescheduling
type RescheduleResponse struct {
	Message       string                   `json:"message"`
	ScheduledPost GetScheduledPostResponse `json:"scheduled_post"`
}

// CancelScheduleRequest represents the request to cancel a schedule
type CancelScheduleRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// CancelScheduleResponse represents the response after cancelling a schedule
type CancelScheduleResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// RetryScheduleRequest represents the request to re-enqueue a failed schedule
type RetryScheduleRequest struct {
	UUID        string     `json:"-"`
	CustomerID  uint       `json:"-"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// RetryScheduleResponse represents the response after requesting a retry
type RetryScheduleResponse struct {
	Message       string                   `json:"message"`
	ScheduledPost GetScheduledPostResponse `json:"scheduled_post"`
}

// DeleteScheduleRequest represents the request to delete a schedule record
type DeleteScheduleRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// DeleteScheduleResponse represents the response after deleting a schedule
type DeleteScheduleResponse struct {
	Message string `json:"message"`
}

// GetScheduledPostResponse represents a scheduled post in responses
type GetScheduledPostResponse struct {
	UUID           string     `json:"uuid"`
	PostUUID       string     `json:"post_uuid,omitempty"`
	Platform       string     `json:"platform"`
	Content        string     `json:"content"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	ExternalPostID *string    `json:"external_post_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// ListScheduledPostsFilter represents filter criteria for listing scheduled posts
type ListScheduledPostsFilter struct {
	Status          *string    `json:"status,omitempty"`
	Platform        *string    `json:"platform,omitempty"`
	ScheduledAfter  *time.Time `json:"scheduled_after,omitempty"`
	ScheduledBefore *time.Time `json:"scheduled_before,omitempty"`
}

// ListScheduledPostsRequest represents a paginated list request for a customer's scheduled posts
type ListScheduledPostsRequest struct {
	CustomerID uint                      `json:"-"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
	OrderBy    string                    `json:"orderby"` // soonest, latest, newest, oldest
	Filter     *ListScheduledPostsFilter `json:"filter,omitempty"`
}

// ListScheduledPostsResponse represents a paginated list of scheduled posts
type ListScheduledPostsResponse struct {
	Message    string                     `json:"message"`
	Items      []GetScheduledPostResponse `json:"items"`
	Pagination PaginationInfo             `json:"pagination"`
}

// GetPublishAttemptResponse represents a publish attempt in responses
type GetPublishAttemptResponse struct {
	Platform       string    `json:"platform"`
	Result         string    `json:"result"`
	ExternalPostID *string   `json:"external_post_id,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// GetScheduledPostHistoryResponse represents a scheduled post with its attempt history
type GetScheduledPostHistoryResponse struct {
	ScheduledPost GetScheduledPostResponse    `json:"scheduled_post"`
	Attempts      []GetPublishAttemptResponse `json:"attempts"`
}

// PublishReportRequest represents the request to export a publish report
type PublishReportRequest struct {
	CustomerID uint       `json:"-"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}
