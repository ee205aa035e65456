package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/utils"
	"gorm.io/gorm"
)

// TranscriptRepositoryImpl implements the TranscriptRepository interface
type TranscriptRepositoryImpl struct {
	*BaseRepository[models.Transcript, models.TranscriptFilter]
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) TranscriptRepository {
	return &TranscriptRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Transcript, models.TranscriptFilter](db),
	}
}

// ByUUID retrieves a transcript by UUID
func (r *TranscriptRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Transcript, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.TranscriptFilter{UUID: &parsedUUID}
	transcripts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find transcript by UUID: %w", err)
	}

	if len(transcripts) == 0 {
		return nil, nil
	}

	return transcripts[0], nil
}

// ByCustomerID retrieves transcripts by customer ID with pagination
func (r *TranscriptRepositoryImpl) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.Transcript, error) {
	filter := models.TranscriptFilter{CustomerID: &customerID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// Delete removes a transcript
func (r *TranscriptRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.Transcript{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	return nil
}

// ByFilter retrieves transcripts based on filter criteria
func (r *TranscriptRepositoryImpl) ByFilter(ctx context.Context, filter models.TranscriptFilter, orderBy string, limit, offset int) ([]*models.Transcript, error) {
	db := r.getDB(ctx)

	var transcripts []*models.Transcript
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

	err := query.Find(&transcripts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find transcripts by filter: %w", err)
	}

	return transcripts, nil
}

// Count returns the number of transcripts matching the filter
func (r *TranscriptRepositoryImpl) Count(ctx context.Context, filter models.TranscriptFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var transcript models.Transcript
	query := r.applyFilter(db.Model(&transcript), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transcripts: %w", err)
	}

	return count, nil
}

// Exists checks if any transcript matching the filter exists
func (r *TranscriptRepositoryImpl) Exists(ctx context.Context, filter models.TranscriptFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *TranscriptRepositoryImpl) applyFilter(db *gorm.DB, filter models.TranscriptFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Title != nil {
		db = db.Where("title ILIKE ?", "%"+*filter.Title+"%")
	}
	if filter.Source != nil {
		db = db.Where("source = ?", *filter.Source)
	}
	if filter.Tag != nil {
		db = db.Where("? = ANY(tags)", *filter.Tag)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
