package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/utils"
	"gorm.io/gorm"
)

// InsightRepositoryImpl implements the InsightRepository interface
type InsightRepositoryImpl struct {
	*BaseRepository[models.Insight, models.InsightFilter]
}

// NewInsightRepository creates a new insight repository
func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &InsightRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Insight, models.InsightFilter](db),
	}
}

// ByUUID retrieves an insight by UUID
func (r *InsightRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Insight, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.InsightFilter{UUID: &parsedUUID}
	insights, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find insight by UUID: %w", err)
	}

	if len(insights) == 0 {
		return nil, nil
	}

	return insights[0], nil
}

// ByTranscriptID retrieves insights for a transcript ordered by score
func (r *InsightRepositoryImpl) ByTranscriptID(ctx context.Context, transcriptID uint, limit, offset int) ([]*models.Insight, error) {
	filter := models.InsightFilter{TranscriptID: &transcriptID}
	return r.ByFilter(ctx, filter, "score DESC", limit, offset)
}

// UpdateStatus updates only the status of an insight
func (r *InsightRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.InsightStatus) error {
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
	err = db.Model(&models.Insight{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}).Error

	if err != nil {
		return fmt.Errorf("failed to update insight status: %w", err)
	}

	return nil
}

// ByFilter retrieves insights based on filter criteria
func (r *InsightRepositoryImpl) ByFilter(ctx context.Context, filter models.InsightFilter, orderBy string, limit, offset int) ([]*models.Insight, error) {
	db := r.getDB(ctx)

	var insights []*models.Insight
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

	err := query.Find(&insights).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find insights by filter: %w", err)
	}

	return insights, nil
}

// Count returns the number of insights matching the filter
func (r *InsightRepositoryImpl) Count(ctx context.Context, filter models.InsightFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var insight models.Insight
	query := r.applyFilter(db.Model(&insight), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}

	return count, nil
}

// Exists checks if any insight matching the filter exists
func (r *InsightRepositoryImpl) Exists(ctx context.Context, filter models.InsightFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *InsightRepositoryImpl) applyFilter(db *gorm.DB, filter models.InsightFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.TranscriptID != nil {
		db = db.Where("transcript_id = ?", *filter.TranscriptID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Topic != nil {
		db = db.Where("? = ANY(topics)", *filter.Topic)
	}
	if filter.MinScore != nil {
		db = db.Where("score >= ?", *filter.MinScore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
