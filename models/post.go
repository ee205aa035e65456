package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus represents the status of a generated post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusApproved  PostStatus = "approved"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
)

// String returns the string representation of the status
func (s PostStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusApproved, PostStatusScheduled, PostStatusPublished:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PostStatus
func (s *PostStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PostStatus(v)
	case []byte:
		*s = PostStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PostStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PostStatus
func (s PostStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PostStatus: %s", s)
	}
	return string(s), nil
}

// Post represents a platform-agnostic piece of generated content, owned
// independently of any scheduling attempt
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_posts_uuid" json:"uuid"`
	CustomerID uint       `gorm:"not null;index:idx_posts_customer_id" json:"customer_id"`
	InsightID  *uint      `gorm:"index:idx_posts_insight_id" json:"insight_id,omitempty"`
	Platform   *Platform  `gorm:"type:platform" json:"platform,omitempty"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     PostStatus `gorm:"type:post_status;not null;default:'draft';index:idx_posts_status" json:"status"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_posts_created_at" json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Insight  *Insight  `gorm:"foreignKey:InsightID;references:ID" json:"insight,omitempty"`
}

// TableName returns the table name for the model
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate is a GORM hook that fills defaults before insert
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PostStatusDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

// IsEditable checks if the post content can still be edited
func (p *Post) IsEditable() bool {
	return p.Status == PostStatusDraft
}

// IsDeletable checks if the post can be deleted
func (p *Post) IsDeletable() bool {
	return p.Status == PostStatusDraft
}

// CanTransitionTo checks if the post can transition to the given status.
// scheduled -> approved happens when the scheduling wrapper is deleted and
// the post is handed back for a new attempt.
func (p *Post) CanTransitionTo(newStatus PostStatus) bool {
	switch p.Status {
	case PostStatusDraft:
		return newStatus == PostStatusApproved
	case PostStatusApproved:
		return newStatus == PostStatusScheduled
	case PostStatusScheduled:
		return newStatus == PostStatusPublished || newStatus == PostStatusApproved
	default:
		return false
	}
}

// PostFilter represents filter criteria for posts
type PostFilter struct {
	ID            *uint       `json:"id,omitempty"`
	UUID          *uuid.UUID  `json:"uuid,omitempty"`
	CustomerID    *uint       `json:"customer_id,omitempty"`
	InsightID     *uint       `json:"insight_id,omitempty"`
	Platform      *Platform   `json:"platform,omitempty"`
	Status        *PostStatus `json:"status,omitempty"`
	Content       *string     `json:"content,omitempty"`
	CreatedAfter  *time.Time  `json:"created_after,omitempty"`
	CreatedBefore *time.Time  `json:"created_before,omitempty"`
}
