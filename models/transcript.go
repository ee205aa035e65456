package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Transcript source constants
const (
	TranscriptSourceUpload    = "upload"
	TranscriptSourceRecording = "recording"
)

// Transcript represents an ingested meeting transcript, the raw input of
// the platform. Transcripts coming from the desktop recorder carry meeting
// metadata (duration, recording time); uploaded ones usually do not.
type Transcript struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_transcripts_uuid" json:"uuid"`
	CustomerID      uint           `gorm:"not null;index:idx_transcripts_customer_id" json:"customer_id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	Source          string         `gorm:"size:20;not null;default:'upload'" json:"source"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	RecordedAt      *time.Time     `json:"recorded_at,omitempty"`
	Language        *string        `gorm:"size:10" json:"language,omitempty"`
	Tags            pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
	CreatedAt       time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_transcripts_created_at" json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName returns the table name for the model
func (Transcript) TableName() string {
	return "transcripts"
}

// BeforeCreate is a GORM hook that fills defaults before insert
func (t *Transcript) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.Source == "" {
		t.Source = TranscriptSourceUpload
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return nil
}

// TranscriptFilter represents filter criteria for transcripts
type TranscriptFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	CustomerID    *uint      `json:"customer_id,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Source        *string    `json:"source,omitempty"`
	Tag           *string    `json:"tag,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
