package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduledPostStatus represents the lifecycle status of a scheduled post
type ScheduledPostStatus string

const (
	ScheduledPostStatusPending    ScheduledPostStatus = "pending"
	ScheduledPostStatusPublishing ScheduledPostStatus = "publishing"
	ScheduledPostStatusPublished  ScheduledPostStatus = "published"
	ScheduledPostStatusFailed     ScheduledPostStatus = "failed"
	ScheduledPostStatusCancelled  ScheduledPostStatus = "cancelled"
)

// String returns the string representation of the status
func (s ScheduledPostStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ScheduledPostStatus) Valid() bool {
	switch s {
	case ScheduledPostStatusPending, ScheduledPostStatusPublishing,
		ScheduledPostStatusPublished, ScheduledPostStatusFailed,
		ScheduledPostStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted from the status
func (s ScheduledPostStatus) IsTerminal() bool {
	return s == ScheduledPostStatusPublished || s == ScheduledPostStatusCancelled
}

// Scan implements the sql.Scanner interface for ScheduledPostStatus
func (s *ScheduledPostStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ScheduledPostStatus(v)
	case []byte:
		*s = ScheduledPostStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ScheduledPostStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ScheduledPostStatus
func (s ScheduledPostStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ScheduledPostStatus: %s", s)
	}
	return string(s), nil
}

// ScheduledPost binds a post to a platform and a future publish time.
// The status column is the single source of truth for the publication
// lifecycle; every mutation of it goes through the transition table below
// and a conditional update in the repository so concurrent transitions on
// the same record cannot both succeed.
type ScheduledPost struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_scheduled_posts_uuid" json:"uuid"`
	PostID         uint                `gorm:"not null;index:idx_scheduled_posts_post_id" json:"post_id"`
	CustomerID     uint                `gorm:"not null;index:idx_scheduled_posts_customer_id" json:"customer_id"`
	Platform       Platform            `gorm:"type:platform;not null" json:"platform"`
	Content        string              `gorm:"type:text;not null" json:"content"`
	ScheduledAt    time.Time           `gorm:"not null;index:idx_scheduled_posts_scheduled_at" json:"scheduled_at"`
	Status         ScheduledPostStatus `gorm:"type:scheduled_post_status;not null;default:'pending';index:idx_scheduled_posts_status" json:"status"`
	RetryCount     int                 `gorm:"not null;default:0" json:"retry_count"`
	LastAttemptAt  *time.Time          `json:"last_attempt_at,omitempty"`
	ErrorMessage   *string             `gorm:"type:text" json:"error_message,omitempty"`
	ExternalPostID *string             `gorm:"size:255" json:"external_post_id,omitempty"`
	QueueJobID     *string             `gorm:"size:255" json:"queue_job_id,omitempty"`
	CreatedAt      time.Time           `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_scheduled_posts_created_at" json:"created_at"`
	UpdatedAt      *time.Time          `json:"updated_at,omitempty"`

	// Relations
	Post     *Post     `gorm:"foreignKey:PostID;references:ID" json:"post,omitempty"`
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (ScheduledPost) TableName() string {
	return "scheduled_posts"
}

// BeforeCreate is a GORM hook that fills defaults before insert
func (p *ScheduledPost) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ScheduledPostStatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

// CanTransitionTo checks if the scheduled post can transition to the given status.
// The full table:
//
//	pending    -> publishing (worker claims the record)
//	pending    -> cancelled  (user cancels before dispatch)
//	publishing -> published  (platform accepted the post)
//	publishing -> failed     (platform call failed)
//	failed     -> pending    (retry, re-enqueue)
//	failed     -> cancelled  (user gives up)
//
// published and cancelled are terminal. Rescheduling keeps the record in
// pending and is therefore not a transition.
func (p *ScheduledPost) CanTransitionTo(newStatus ScheduledPostStatus) bool {
	switch p.Status {
	case ScheduledPostStatusPending:
		return newStatus == ScheduledPostStatusPublishing ||
			newStatus == ScheduledPostStatusCancelled
	case ScheduledPostStatusPublishing:
		return newStatus == ScheduledPostStatusPublished ||
			newStatus == ScheduledPostStatusFailed
	case ScheduledPostStatusFailed:
		return newStatus == ScheduledPostStatusPending ||
			newStatus == ScheduledPostStatusCancelled
	default:
		return false
	}
}

// IsReschedulable checks if the scheduled time can still be changed
func (p *ScheduledPost) IsReschedulable() bool {
	return p.Status == ScheduledPostStatusPending
}

// IsCancellable checks if the scheduled post can be cancelled. Once the
// external call is in flight cancellation cannot retroactively stop it.
func (p *ScheduledPost) IsCancellable() bool {
	return p.Status == ScheduledPostStatusPending || p.Status == ScheduledPostStatusFailed
}

// IsRetryable checks if a retry may be requested
func (p *ScheduledPost) IsRetryable() bool {
	return p.Status == ScheduledPostStatusFailed
}

// GetStatusDisplayName returns a human-readable status name
func (p *ScheduledPost) GetStatusDisplayName() string {
	switch p.Status {
	case ScheduledPostStatusPending:
		return "Pending"
	case ScheduledPostStatusPublishing:
		return "Publishing"
	case ScheduledPostStatusPublished:
		return "Published"
	case ScheduledPostStatusFailed:
		return "Failed"
	case ScheduledPostStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ScheduledPostFilter represents filter criteria for scheduled posts
type ScheduledPostFilter struct {
	ID              *uint                `json:"id,omitempty"`
	UUID            *uuid.UUID           `json:"uuid,omitempty"`
	PostID          *uint                `json:"post_id,omitempty"`
	CustomerID      *uint                `json:"customer_id,omitempty"`
	Platform        *Platform            `json:"platform,omitempty"`
	Status          *ScheduledPostStatus `json:"status,omitempty"`
	DueBefore       *time.Time           `json:"due_before,omitempty"`
	ScheduledAfter  *time.Time           `json:"scheduled_after,omitempty"`
	ScheduledBefore *time.Time           `json:"scheduled_before,omitempty"`
	CreatedAfter    *time.Time           `json:"created_after,omitempty"`
	CreatedBefore   *time.Time           `json:"created_before,omitempty"`
	MaxRetryCount   *int                 `json:"max_retry_count,omitempty"`
}
