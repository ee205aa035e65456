// Package models contains domain entities and business models for the content publishing platform
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CustomerID   *uint           `gorm:"index:idx_audit_customer_id" json:"customer_id,omitempty"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Action       string          `gorm:"type:audit_action_enum;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb;index:idx_audit_metadata,type:gin" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionLoginSuccess = "login_success"
	AuditActionLoginFailed  = "login_failed"
	AuditActionLogout       = "logout"

	AuditActionTranscriptIngested       = "transcript_ingested"
	AuditActionTranscriptDeleted        = "transcript_deleted"
	AuditActionInsightsExtracted        = "insights_extracted"
	AuditActionInsightsExtractionFailed = "insights_extraction_failed"
	AuditActionInsightAccepted          = "insight_accepted"
	AuditActionInsightDismissed         = "insight_dismissed"

	AuditActionPostCreated   = "post_created"
	AuditActionPostGenerated = "post_generated"
	AuditActionPostUpdated   = "post_updated"
	AuditActionPostApproved  = "post_approved"
	AuditActionPostDeleted   = "post_deleted"

	AuditActionPostScheduled      = "post_scheduled"
	AuditActionPostScheduleFailed = "post_schedule_failed"
	AuditActionPostRescheduled    = "post_rescheduled"
	AuditActionScheduleCancelled  = "schedule_cancelled"
	AuditActionScheduleRetried    = "schedule_retried"
	AuditActionScheduleDeleted    = "schedule_deleted"
	AuditActionPublishSucceeded   = "publish_succeeded"
	AuditActionPublishFailed      = "publish_failed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	CustomerID    *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccess: true,
		AuditActionLoginFailed:  true,
		AuditActionLogout:       true,
	}
	return securityActions[a.Action]
}
