package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// InsightStatus represents the review status of an extracted insight
type InsightStatus string

const (
	InsightStatusSuggested InsightStatus = "suggested"
	InsightStatusAccepted  InsightStatus = "accepted"
	InsightStatusDismissed InsightStatus = "dismissed"
)

// String returns the string representation of the status
func (s InsightStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s InsightStatus) Valid() bool {
	switch s {
	case InsightStatusSuggested, InsightStatusAccepted, InsightStatusDismissed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for InsightStatus
func (s *InsightStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = InsightStatus(v)
	case []byte:
		*s = InsightStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into InsightStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for InsightStatus
func (s InsightStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid InsightStatus: %s", s)
	}
	return string(s), nil
}

// Insight represents an extracted, scored claim from a transcript, used as
// source material for posts
type Insight struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_insights_uuid" json:"uuid"`
	TranscriptID uint           `gorm:"not null;index:idx_insights_transcript_id" json:"transcript_id"`
	CustomerID   uint           `gorm:"not null;index:idx_insights_customer_id" json:"customer_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Score        float64        `gorm:"not null;default:0" json:"score"`
	Topics       pq.StringArray `gorm:"type:text[]" json:"topics,omitempty"`
	Status       InsightStatus  `gorm:"type:insight_status;not null;default:'suggested';index:idx_insights_status" json:"status"`
	CreatedAt    time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Transcript *Transcript `gorm:"foreignKey:TranscriptID;references:ID" json:"transcript,omitempty"`
	Customer   *Customer   `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (Insight) TableName() string {
	return "insights"
}

// BeforeCreate is a GORM hook that fills defaults before insert
func (i *Insight) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == uuid.Nil {
		i.UUID = uuid.New()
	}
	if i.Status == "" {
		i.Status = InsightStatusSuggested
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}

// IsReviewable checks if the insight can still be accepted or dismissed
func (i *Insight) IsReviewable() bool {
	return i.Status == InsightStatusSuggested
}

// InsightFilter represents filter criteria for insights
type InsightFilter struct {
	ID            *uint          `json:"id,omitempty"`
	UUID          *uuid.UUID     `json:"uuid,omitempty"`
	TranscriptID  *uint          `json:"transcript_id,omitempty"`
	CustomerID    *uint          `json:"customer_id,omitempty"`
	Status        *InsightStatus `json:"status,omitempty"`
	Topic         *string        `json:"topic,omitempty"`
	MinScore      *float64       `json:"min_score,omitempty"`
	CreatedAfter  *time.Time     `json:"created_after,omitempty"`
	CreatedBefore *time.Time     `json:"created_before,omitempty"`
}
