package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Amaterasu/models"
	"gorm.io/gorm"
)

// PublishAttemptRepositoryImpl implements the PublishAttemptRepository interface
type PublishAttemptRepositoryImpl struct {
	*BaseRepository[models.PublishAttempt, models.PublishAttemptFilter]
}

// NewPublishAttemptRepository creates a new publish attempt repository
func NewPublishAttemptRepository(db *gorm.DB) PublishAttemptRepository {
	return &PublishAttemptRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PublishAttempt, models.PublishAttemptFilter](db),
	}
}

// ByScheduledPostID retrieves all attempts for a scheduled post, newest first
func (r *PublishAttemptRepositoryImpl) ByScheduledPostID(ctx context.Context, scheduledPostID uint) ([]*models.PublishAttempt, error) {
	filter := models.PublishAttemptFilter{ScheduledPostID: &scheduledPostID}
	return r.ByFilter(ctx, filter, "attempted_at DESC", 0, 0)
}

// ListByCustomerID retrieves attempts across all of a customer's scheduled posts
func (r *PublishAttemptRepositoryImpl) ListByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.PublishAttempt, error) {
	db := r.getDB(ctx)

	var attempts []*models.PublishAttempt
	query := db.
		Joins("JOIN scheduled_posts ON scheduled_posts.id = publish_attempts.scheduled_post_id").
		Where("scheduled_posts.customer_id = ?", customerID).
		Order("publish_attempts.attempted_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find publish attempts by customer: %w", err)
	}

	return attempts, nil
}

// ByFilter retrieves publish attempts based on filter criteria
func (r *PublishAttemptRepositoryImpl) ByFilter(ctx context.Context, filter models.PublishAttemptFilter, orderBy string, limit, offset int) ([]*models.PublishAttempt, error) {
	db := r.getDB(ctx)

	var attempts []*models.PublishAttempt
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find publish attempts by filter: %w", err)
	}

	return attempts, nil
}

// Count returns the number of publish attempts matching the filter
func (r *PublishAttemptRepositoryImpl) Count(ctx context.Context, filter models.PublishAttemptFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var attempt models.PublishAttempt
	query := r.applyFilter(db.Model(&attempt), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count publish attempts: %w", err)
	}

	return count, nil
}

// Exists checks if any publish attempt matching the filter exists
func (r *PublishAttemptRepositoryImpl) Exists(ctx context.Context, filter models.PublishAttemptFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PublishAttemptRepositoryImpl) applyFilter(db *gorm.DB, filter models.PublishAttemptFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ScheduledPostID != nil {
		db = db.Where("scheduled_post_id = ?", *filter.ScheduledPostID)
	}
	if filter.Platform != nil {
		db = db.Where("platform = ?", *filter.Platform)
	}
	if filter.Result != nil {
		db = db.Where("result = ?", *filter.Result)
	}
	if filter.AttemptedAfter != nil {
		db = db.Where("attempted_at >= ?", *filter.AttemptedAfter)
	}
	if filter.AttemptedBefore != nil {
		db = db.Where("attempted_at <= ?", *filter.AttemptedBefore)
	}

	return db
}
