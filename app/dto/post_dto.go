package dto

import (
	"time"
)

// CreatePostRequest represents the request to create a post draft by hand
type CreatePostRequest struct {
	CustomerID  uint    `json:"-"`
	InsightUUID *string `json:"insight_uuid,omitempty"`
	Platform    *string `json:"platform,omitempty" validate:"omitempty,oneof=linkedin x"`
	Content     string  `json:"content" validate:"required,min=1,max=10000"`
}

// GeneratePostRequest represents the request to generate a post draft from an insight
type GeneratePostRequest struct {
	CustomerID  uint    `json:"-"`
	InsightUUID string  `json:"insight_uuid" validate:"required,uuid"`
	Platform    string  `json:"platform" validate:"required,oneof=linkedin x"`
	Tone        *string `json:"tone,omitempty" validate:"omitempty,max=50"`
}

// CreatePostResponse represents the response after creating or generating a post
type CreatePostResponse struct {
	Message string          `json:"message"`
	Post    GetPostResponse `json:"post"`
}

// UpdatePostRequest represents the request to edit a post draft
type UpdatePostRequest struct {
	UUID       string  `json:"-"`
	CustomerID uint    `json:"-"`
	Content    *string `json:"content,omitempty" validate:"omitempty,min=1,max=10000"`
	Platform   *string `json:"platform,omitempty" validate:"omitempty,oneof=linkedin x"`
}

// UpdatePostResponse represents the response after updating a post
type UpdatePostResponse struct {
	Message string          `json:"message"`
	Post    GetPostResponse `json:"post"`
}

// ApprovePostRequest represents the request to approve a post draft for scheduling
type ApprovePostRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// ApprovePostResponse represents the response after approving a post
type ApprovePostResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GetPostResponse represents a post in responses
type GetPostResponse struct {
	UUID        string     `json:"uuid"`
	InsightUUID *string    `json:"insight_uuid,omitempty"`
	Platform    *string    `json:"platform,omitempty"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ListPostsFilter represents filter criteria for listing posts
type ListPostsFilter struct {
	Status   *string `json:"status,omitempty"`
	Platform *string `json:"platform,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// ListPostsRequest represents a paginated list request for a customer's posts
type ListPostsRequest struct {
	CustomerID uint             `json:"-"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	OrderBy    string           `json:"orderby"` // newest, oldest
	Filter     *ListPostsFilter `json:"filter,omitempty"`
}

// ListPostsResponse represents a paginated list of posts
type ListPostsResponse struct {
	Message    string            `json:"message"`
	Items      []GetPostResponse `json:"items"`
	Pagination PaginationInfo    `json:"pagination"`
}

// DeletePostRequest represents the request to delete a post draft
type DeletePostRequest struct {
	UUID       string `json:"-"`
	CustomerID uint   `json:"-"`
}

// DeletePostResponse represents the response after deleting a post
type DeletePostResponse struct {
	Message string `json:"message"`
}
