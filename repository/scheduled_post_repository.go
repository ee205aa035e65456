package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/utils"
	"gorm.io/gorm"
)

// ScheduledPostRepositoryImpl implements the ScheduledPostRepository interface
type ScheduledPostRepositoryImpl struct {
	*BaseRepository[models.ScheduledPost, models.ScheduledPostFilter]
}

// NewScheduledPostRepository creates a new scheduled post repository
func NewScheduledPostRepository(db *gorm.DB) ScheduledPostRepository {
	return &ScheduledPostRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ScheduledPost, models.ScheduledPostFilter](db),
	}
}

// ByUUID retrieves a scheduled post by UUID
func (r *ScheduledPostRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.ScheduledPost, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.ScheduledPostFilter{UUID: &parsedUUID}
	posts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find scheduled post by UUID: %w", err)
	}

	if len(posts) == 0 {
		return nil, nil
	}

	return posts[0], nil
}

// ByCustomerID retrieves scheduled posts by customer ID with pagination
func (r *ScheduledPostRepositoryImpl) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.ScheduledPost, error) {
	filter := models.ScheduledPostFilter{CustomerID: &customerID}
	return r.ByFilter(ctx, filter, "scheduled_at DESC", limit, offset)
}

// ActiveByPostID retrieves the single non-terminal scheduled post for a
// source post, if any. At most one scheduling attempt per post may be
// active at a time.
func (r *ScheduledPostRepositoryImpl) ActiveByPostID(ctx context.Context, postID uint) (*models.ScheduledPost, error) {
	db := r.getDB(ctx)

	var posts []*models.ScheduledPost
	err := db.Where("post_id = ?", postID).
		Where("status NOT IN ?", []models.ScheduledPostStatus{
			models.ScheduledPostStatusPublished,
			models.ScheduledPostStatusCancelled,
		}).
		Order("created_at DESC").
		Limit(1).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find active scheduled post for post %d: %w", postID, err)
	}
	if len(posts) == 0 {
		return nil, nil
	}

	return posts[0], nil
}

// ListDue retrieves pending scheduled posts whose scheduled time has passed
func (r *ScheduledPostRepositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	status := models.ScheduledPostStatusPending
	filter := models.ScheduledPostFilter{
		Status:    &status,
		DueBefore: &now,
	}
	return r.ByFilter(ctx, filter, "scheduled_at ASC", limit, 0)
}

// ListRetryable retrieves failed scheduled posts still under the retry cap
func (r *ScheduledPostRepositoryImpl) ListRetryable(ctx context.Context, maxRetryCount, limit int) ([]*models.ScheduledPost, error) {
	status := models.ScheduledPostStatusFailed
	filter := models.ScheduledPostFilter{
		Status:        &status,
		MaxRetryCount: &maxRetryCount,
	}
	return r.ByFilter(ctx, filter, "scheduled_at ASC", limit, 0)
}

// Update updates a scheduled post
func (r *ScheduledPostRepositoryImpl) Update(ctx context.Context, post *models.ScheduledPost) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := time.Now().UTC()
	post.UpdatedAt = &now

	err = db.Save(post).Error
	if err != nil {
		return fmt.Errorf("failed to update scheduled post: %w", err)
	}

	return nil
}

// UpdateStatusIf performs the conditional status transition. The WHERE
// clause on the current status makes the transition an atomic
// compare-and-set: of two racing callers exactly one sees RowsAffected == 1.
func (r *ScheduledPostRepositoryImpl) UpdateStatusIf(ctx context.Context, id uint, from, to models.ScheduledPostStatus, fields map[string]any) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	res := db.Model(&models.ScheduledPost{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		err = fmt.Errorf("failed to update scheduled post status: %w", res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrStatusConflict
		return err
	}

	return nil
}

// Delete removes a scheduled post
func (r *ScheduledPostRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.ScheduledPost{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete scheduled post: %w", err)
	}

	return nil
}

// ByFilter retrieves scheduled posts based on filter criteria
func (r *ScheduledPostRepositoryImpl) ByFilter(ctx context.Context, filter models.ScheduledPostFilter, orderBy string, limit, offset int) ([]*models.ScheduledPost, error) {
	db := r.getDB(ctx)

	var posts []*models.ScheduledPost
	query := r.applyFilter(db, filter)

	// Apply ordering
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("Post")

	err := query.Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find scheduled posts by filter: %w", err)
	}

	return posts, nil
}

// Count returns the number of scheduled posts matching the filter
func (r *ScheduledPostRepositoryImpl) Count(ctx context.Context, filter models.ScheduledPostFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var post models.ScheduledPost
	query := r.applyFilter(db.Model(&post), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count scheduled posts: %w", err)
	}

	return count, nil
}

// Exists checks if any scheduled post matching the filter exists
func (r *ScheduledPostRepositoryImpl) Exists(ctx context.Context, filter models.ScheduledPostFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ScheduledPostRepositoryImpl) applyFilter(db *gorm.DB, filter models.ScheduledPostFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.PostID != nil {
		db = db.Where("post_id = ?", *filter.PostID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Platform != nil {
		db = db.Where("platform = ?", *filter.Platform)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.DueBefore != nil {
		db = db.Where("scheduled_at <= ?", *filter.DueBefore)
	}
	if filter.ScheduledAfter != nil {
		db = db.Where("scheduled_at >= ?", *filter.ScheduledAfter)
	}
	if filter.ScheduledBefore != nil {
		db = db.Where("scheduled_at <= ?", *filter.ScheduledBefore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.MaxRetryCount != nil {
		db = db.Where("retry_count < ?", *filter.MaxRetryCount)
	}

	return db
}
