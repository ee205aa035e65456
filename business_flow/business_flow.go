// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/Amaterasu/app/dto"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthCustomerDTO converts a customer model to AuthCustomerDTO for authentication responses
func ToAuthCustomerDTO(customer models.Customer) dto.AuthCustomerDTO {
	return dto.AuthCustomerDTO{
		ID:          customer.ID,
		UUID:        customer.UUID.String(),
		Email:       customer.Email,
		DisplayName: customer.DisplayName,
		IsActive:    customer.IsActive,
		CreatedAt:   customer.CreatedAt.Format(time.RFC3339),
	}
}

// ToTranscriptDTO converts a transcript model to its response representation
func ToTranscriptDTO(t models.Transcript) dto.GetTranscriptResponse {
	return dto.GetTranscriptResponse{
		UUID:            t.UUID.String(),
		Title:           t.Title,
		Content:         t.Content,
		Source:          t.Source,
		DurationSeconds: t.DurationSeconds,
		RecordedAt:      t.RecordedAt,
		Language:        t.Language,
		Tags:            t.Tags,
		CreatedAt:       t.CreatedAt,
	}
}

// ToInsightDTO converts an insight model to its response representation
func ToInsightDTO(i models.Insight) dto.GetInsightResponse {
	resp := dto.GetInsightResponse{
		UUID:      i.UUID.String(),
		Content:   i.Content,
		Score:     i.Score,
		Topics:    i.Topics,
		Status:    i.Status.String(),
		CreatedAt: i.CreatedAt,
	}
	if i.Transcript != nil {
		resp.TranscriptUUID = i.Transcript.UUID.String()
	}

	return resp
}

// ToPostDTO converts a post model to its response representation
func ToPostDTO(p models.Post) dto.GetPostResponse {
	resp := dto.GetPostResponse{
		UUID:      p.UUID.String(),
		Content:   p.Content,
		Status:    p.Status.String(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Platform != nil {
		resp.Platform = utils.ToPtr(p.Platform.String())
	}
	if p.Insight != nil {
		resp.InsightUUID = utils.ToPtr(p.Insight.UUID.String())
	}

	return resp
}

// ToScheduledPostDTO converts a scheduled post model to its response representation
func ToScheduledPostDTO(sp models.ScheduledPost) dto.GetScheduledPostResponse {
	resp := dto.GetScheduledPostResponse{
		UUID:           sp.UUID.String(),
		Platform:       sp.Platform.String(),
		Content:        sp.Content,
		ScheduledAt:    sp.ScheduledAt,
		Status:         sp.Status.String(),
		RetryCount:     sp.RetryCount,
		LastAttemptAt:  sp.LastAttemptAt,
		ErrorMessage:   sp.ErrorMessage,
		ExternalPostID: sp.ExternalPostID,
		CreatedAt:      sp.CreatedAt,
		UpdatedAt:      sp.UpdatedAt,
	}
	if sp.Post != nil {
		resp.PostUUID = sp.Post.UUID.String()
	}

	return resp
}

// ToPublishAttemptDTO converts a publish attempt model to its response representation
func ToPublishAttemptDTO(a models.PublishAttempt) dto.GetPublishAttemptResponse {
	return dto.GetPublishAttemptResponse{
		Platform:       a.Platform.String(),
		Result:         a.Result,
		ExternalPostID: a.ExternalPostID,
		ErrorMessage:   a.ErrorMessage,
		AttemptedAt:    a.AttemptedAt,
	}
}

// normalizePagination validates and applies defaults to page and limit values
func normalizePagination(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = utils.DefaultPageSize
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if limit < 1 || limit > utils.MaxPageSize {
		return 0, 0, ErrInvalidPageSize
	}

	return page, limit, nil
}

// totalPages computes the page count for pagination metadata
func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}

	return pages
}
