// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/Amaterasu/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrStatusConflict is returned by conditional status updates when the row
// exists but is not in the expected status. The caller lost a race (or
// attempted an illegal transition) and must re-read the record.
var ErrStatusConflict = errors.New("record is not in the expected status")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error
}

// TranscriptRepository defines operations for transcripts
type TranscriptRepository interface {
	Repository[models.Transcript, models.TranscriptFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Transcript, error)
	ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.Transcript, error)
	Delete(ctx context.Context, id uint) error
}

// InsightRepository defines operations for insights
type InsightRepository interface {
	Repository[models.Insight, models.InsightFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Insight, error)
	ByTranscriptID(ctx context.Context, transcriptID uint, limit, offset int) ([]*models.Insight, error)
	UpdateStatus(ctx context.Context, id uint, status models.InsightStatus) error
}

// PostRepository defines operations for posts
type PostRepository interface {
	Repository[models.Post, models.PostFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Post, error)
	ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error
	Delete(ctx context.Context, id uint) error
}

// ScheduledPostRepository defines operations for scheduled posts
type ScheduledPostRepository interface {
	Repository[models.ScheduledPost, models.ScheduledPostFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ScheduledPost, error)
	ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.ScheduledPost, error)
	ActiveByPostID(ctx context.Context, postID uint) (*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error)
	ListRetryable(ctx context.Context, maxRetryCount, limit int) ([]*models.ScheduledPost, error)
	Update(ctx context.Context, post *models.ScheduledPost) error
	// UpdateStatusIf performs a conditional status transition: the row is
	// updated only while its current status equals from. Returns
	// ErrStatusConflict otherwise, so two concurrent transitions on the
	// same record never both succeed.
	UpdateStatusIf(ctx context.Context, id uint, from, to models.ScheduledPostStatus, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// PublishAttemptRepository defines operations for publish attempts
type PublishAttemptRepository interface {
	Repository[models.PublishAttempt, models.PublishAttemptFilter]
	ByScheduledPostID(ctx context.Context, scheduledPostID uint) ([]*models.PublishAttempt, error)
	ListByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.PublishAttempt, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
