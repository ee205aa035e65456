package models

import (
	"time"
)

// Publish attempt result constants
const (
	PublishAttemptResultSuccess = "success"
	PublishAttemptResultFailure = "failure"
)

// PublishAttempt records a single call to an external platform API for a
// scheduled post. The scheduled post keeps only the latest outcome; the
// attempt rows keep the full history for operator reports.
type PublishAttempt struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ScheduledPostID uint      `gorm:"not null;index:idx_publish_attempts_scheduled_post_id" json:"scheduled_post_id"`
	Platform        Platform  `gorm:"type:platform;not null" json:"platform"`
	Result          string    `gorm:"size:20;not null" json:"result"`
	ExternalPostID  *string   `gorm:"size:255" json:"external_post_id,omitempty"`
	ErrorMessage    *string   `gorm:"type:text" json:"error_message,omitempty"`
	AttemptedAt     time.Time `gorm:"not null;index:idx_publish_attempts_attempted_at" json:"attempted_at"`

	// Relations
	ScheduledPost *ScheduledPost `gorm:"foreignKey:ScheduledPostID;references:ID" json:"scheduled_post,omitempty"`
}

// TableName returns the table name for the model
func (PublishAttempt) TableName() string {
	return "publish_attempts"
}

// Succeeded reports whether the attempt reached the platform
func (a *PublishAttempt) Succeeded() bool {
	return a.Result == PublishAttemptResultSuccess
}

// PublishAttemptFilter represents filter criteria for publish attempts
type PublishAttemptFilter struct {
	ID              *uint      `json:"id,omitempty"`
	ScheduledPostID *uint      `json:"scheduled_post_id,omitempty"`
	Platform        *Platform  `json:"platform,omitempty"`
	Result          *string    `json:"result,omitempty"`
	AttemptedAfter  *time.Time `json:"attempted_after,omitempty"`
	AttemptedBefore *time.Time `json:"attempted_before,omitempty"`
}
