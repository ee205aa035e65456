package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Amaterasu/app/dto"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/repository"
	"github.com/amirphl/Amaterasu/utils"
	"gorm.io/gorm"
)

// TranscriptFlow handles transcript ingestion and management operations
type TranscriptFlow interface {
	Ingest(ctx context.Context, request *dto.IngestTranscriptRequest, metadata *ClientMetadata) (*dto.IngestTranscriptResponse, error)
	List(ctx context.Context, request *dto.ListTranscriptsRequest) (*dto.ListTranscriptsResponse, error)
	Get(ctx context.Context, uuid string, customerID uint) (*dto.GetTranscriptResponse, error)
	Delete(ctx context.Context, request *dto.DeleteTranscriptRequest, metadata *ClientMetadata) (*dto.DeleteTranscriptResponse, error)
}

// TranscriptFlowImpl implements the transcript business flow
type TranscriptFlowImpl struct {
	transcriptRepo repository.TranscriptRepository
	auditRepo      repository.AuditLogRepository
	db             *gorm.DB
}

// NewTranscriptFlow creates a new transcript flow instance
func NewTranscriptFlow(
	transcriptRepo repository.TranscriptRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) TranscriptFlow {
	return &TranscriptFlowImpl{
		transcriptRepo: transcriptRepo,
		auditRepo:      auditRepo,
		db:             db,
	}
}

// Ingest stores a new transcript for the customer
func (tf *TranscriptFlowImpl) Ingest(ctx context.Context, request *dto.IngestTranscriptRequest, metadata *ClientMetadata) (*dto.IngestTranscriptResponse, error) {
	if err := tf.validateIngestRequest(request); err != nil {
		return nil, NewBusinessError("TRANSCRIPT_VALIDATION_FAILED", "Transcript validation failed", err)
	}

	source := models.TranscriptSourceUpload
	if request.Source != nil {
		source = *request.Source
	}

	transcript := &models.Transcript{
		CustomerID:      request.CustomerID,
		Title:           request.Title,
		Content:         request.Content,
		Source:          source,
		DurationSeconds: request.DurationSeconds,
		RecordedAt:      utils.TimeToUTCPtr(request.RecordedAt),
		Language:        request.Language,
		Tags:            request.Tags,
	}
	if err := transcript.BeforeCreate(nil); err != nil {
		return nil, NewBusinessError("TRANSCRIPT_INGEST_FAILED", "Transcript ingestion failed", err)
	}

	if err := tf.transcriptRepo.Save(ctx, transcript); err != nil {
		errMsg := fmt.Sprintf("Transcript ingestion failed: %s", err.Error())
		_ = tf.LogTranscriptAction(ctx, request.CustomerID, models.AuditActionTranscriptIngested, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("TRANSCRIPT_INGEST_FAILED", "Transcript ingestion failed", err)
	}

	msg := fmt.Sprintf("Transcript ingested: %s", transcript.UUID)
	_ = tf.LogTranscriptAction(ctx, request.CustomerID, models.AuditActionTranscriptIngested, msg, true, nil, metadata)

	return &dto.IngestTranscriptResponse{
		Message:    "Transcript ingested successfully",
		Transcript: ToTranscriptDTO(*transcript),
	}, nil
}

// List returns the customer's transcripts page by page
func (tf *TranscriptFlowImpl) List(ctx context.Context, request *dto.ListTranscriptsRequest) (*dto.ListTranscriptsResponse, error) {
	page, limit, err := normalizePagination(request.Page, request.Limit)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSCRIPTS_VALIDATION_FAILED", "List transcripts validation failed", err)
	}

	filter := models.TranscriptFilter{
		CustomerID: &request.CustomerID,
	}
	if request.Filter != nil {
		filter.Title = request.Filter.Title
		filter.Source = request.Filter.Source
		filter.Tag = request.Filter.Tag
	}

	orderBy := "created_at DESC"
	if request.OrderBy == "oldest" {
		orderBy = "created_at ASC"
	}

	transcripts, err := tf.transcriptRepo.ByFilter(ctx, filter, orderBy, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSCRIPTS_FAILED", "Listing transcripts failed", err)
	}

	total, err := tf.transcriptRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSCRIPTS_FAILED", "Listing transcripts failed", err)
	}

	items := make([]dto.GetTranscriptResponse, 0, len(transcripts))
	for _, t := range transcripts {
		items = append(items, ToTranscriptDTO(*t))
	}

	return &dto.ListTranscriptsResponse{
		Message: "Transcripts retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

// Get returns a single transcript owned by the customer
func (tf *TranscriptFlowImpl) Get(ctx context.Context, uuid string, customerID uint) (*dto.GetTranscriptResponse, error) {
	transcript, err := tf.findOwnedTranscript(ctx, uuid, customerID)
	if err != nil {
		return nil, NewBusinessError("GET_TRANSCRIPT_FAILED", "Getting transcript failed", err)
	}

	resp := ToTranscriptDTO(*transcript)
	return &resp, nil
}

// Delete removes a transcript owned by the customer
func (tf *TranscriptFlowImpl) Delete(ctx context.Context, request *dto.DeleteTranscriptRequest, metadata *ClientMetadata) (*dto.DeleteTranscriptResponse, error) {
	transcript, err := tf.findOwnedTranscript(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("DELETE_TRANSCRIPT_FAILED", "Deleting transcript failed", err)
	}

	if err := tf.transcriptRepo.Delete(ctx, transcript.ID); err != nil {
		errMsg := fmt.Sprintf("Transcript deletion failed: %s", err.Error())
		_ = tf.LogTranscriptAction(ctx, request.CustomerID, models.AuditActionTranscriptDeleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("DELETE_TRANSCRIPT_FAILED", "Deleting transcript failed", err)
	}

	msg := fmt.Sprintf("Transcript deleted: %s", transcript.UUID)
	_ = tf.LogTranscriptAction(ctx, request.CustomerID, models.AuditActionTranscriptDeleted, msg, true, nil, metadata)

	return &dto.DeleteTranscriptResponse{
		Message: "Transcript deleted successfully",
	}, nil
}

// Private helper methods

func (tf *TranscriptFlowImpl) findOwnedTranscript(ctx context.Context, uuid string, customerID uint) (*models.Transcript, error) {
	transcript, err := tf.transcriptRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if transcript == nil {
		return nil, ErrTranscriptNotFound
	}
	if transcript.CustomerID != customerID {
		return nil, ErrTranscriptAccessDenied
	}

	return transcript, nil
}

func (tf *TranscriptFlowImpl) validateIngestRequest(request *dto.IngestTranscriptRequest) error {
	if request.Title == "" {
		return ErrTranscriptTitleRequired
	}
	if request.Content == "" {
		return ErrTranscriptContentRequired
	}

	return nil
}

func (tf *TranscriptFlowImpl) LogTranscriptAction(ctx context.Context, customerID uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   &customerID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return tf.auditRepo.Save(ctx, audit)
}
