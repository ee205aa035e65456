package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Amaterasu/app/dto"
	"github.com/amirphl/Amaterasu/app/services"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/repository"
	"github.com/amirphl/Amaterasu/utils"
	"gorm.io/gorm"
)

// InsightFlow handles insight extraction and review operations
type InsightFlow interface {
	Extract(ctx context.Context, request *dto.ExtractInsightsRequest, metadata *ClientMetadata) (*dto.ExtractInsightsResponse, error)
	List(ctx context.Context, request *dto.ListInsightsRequest) (*dto.ListInsightsResponse, error)
	Review(ctx context.Context, request *dto.ReviewInsightRequest, metadata *ClientMetadata) (*dto.ReviewInsightResponse, error)
}

// InsightFlowImpl implements the insight business flow
type InsightFlowImpl struct {
	transcriptRepo repository.TranscriptRepository
	insightRepo    repository.InsightRepository
	auditRepo      repository.AuditLogRepository
	llmService     services.LLMService
	maxInsights    int
	db             *gorm.DB
}

// NewInsightFlow creates a new insight flow instance
func NewInsightFlow(
	transcriptRepo repository.TranscriptRepository,
	insightRepo repository.InsightRepository,
	auditRepo repository.AuditLogRepository,
	llmService services.LLMService,
	maxInsights int,
	db *gorm.DB,
) InsightFlow {
	if maxInsights <= 0 {
		maxInsights = services.DefaultMaxInsights
	}

	return &InsightFlowImpl{
		transcriptRepo: transcriptRepo,
		insightRepo:    insightRepo,
		auditRepo:      auditRepo,
		llmService:     llmService,
		maxInsights:    maxInsights,
		db:             db,
	}
}

// Extract runs the language model over a transcript and stores the suggested insights
func (inf *InsightFlowImpl) Extract(ctx context.Context, request *dto.ExtractInsightsRequest, metadata *ClientMetadata) (*dto.ExtractInsightsResponse, error) {
	transcript, err := inf.findOwnedTranscript(ctx, request.TranscriptUUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("EXTRACT_INSIGHTS_FAILED", "Insight extraction failed", err)
	}

	maxInsights := inf.maxInsights
	if request.MaxInsights != nil && *request.MaxInsights > 0 && *request.MaxInsights < maxInsights {
		maxInsights = *request.MaxInsights
	}

	// The model call happens outside any transaction, it can take a while
	extracted, err := inf.llmService.ExtractInsights(ctx, transcript.Title, transcript.Content, maxInsights)
	if err != nil {
		errMsg := fmt.Sprintf("Insight extraction failed: %s", err.Error())
		_ = inf.LogInsightAction(ctx, request.CustomerID, models.AuditActionInsightsExtractionFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("EXTRACT_INSIGHTS_FAILED", "Insight extraction failed", err)
	}

	insights := make([]*models.Insight, 0, len(extracted))
	for _, e := range extracted {
		insight := &models.Insight{
			TranscriptID: transcript.ID,
			CustomerID:   request.CustomerID,
			Content:      e.Content,
			Score:        e.Score,
			Topics:       e.Topics,
			Status:       models.InsightStatusSuggested,
		}
		if err := insight.BeforeCreate(nil); err != nil {
			return nil, NewBusinessError("EXTRACT_INSIGHTS_FAILED", "Insight extraction failed", err)
		}
		insights = append(insights, insight)
	}

	if err := inf.insightRepo.SaveBatch(ctx, insights); err != nil {
		errMsg := fmt.Sprintf("Insight extraction failed: %s", err.Error())
		_ = inf.LogInsightAction(ctx, request.CustomerID, models.AuditActionInsightsExtractionFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("EXTRACT_INSIGHTS_FAILED", "Insight extraction failed", err)
	}

	msg := fmt.Sprintf("Extracted %d insights from transcript %s", len(insights), transcript.UUID)
	_ = inf.LogInsightAction(ctx, request.CustomerID, models.AuditActionInsightsExtracted, msg, true, nil, metadata)

	items := make([]dto.GetInsightResponse, 0, len(insights))
	for _, i := range insights {
		item := ToInsightDTO(*i)
		item.TranscriptUUID = transcript.UUID.String()
		items = append(items, item)
	}

	return &dto.ExtractInsightsResponse{
		Message: "Insights extracted successfully",
		Items:   items,
	}, nil
}

// List returns the insights of a transcript, best scored first
func (inf *InsightFlowImpl) List(ctx context.Context, request *dto.ListInsightsRequest) (*dto.ListInsightsResponse, error) {
	page, limit, err := normalizePagination(request.Page, request.Limit)
	if err != nil {
		return nil, NewBusinessError("LIST_INSIGHTS_VALIDATION_FAILED", "List insights validation failed", err)
	}

	transcript, err := inf.findOwnedTranscript(ctx, request.TranscriptUUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("LIST_INSIGHTS_FAILED", "Listing insights failed", err)
	}

	filter := models.InsightFilter{
		TranscriptID: &transcript.ID,
	}
	if request.Filter != nil {
		if request.Filter.Status != nil {
			status := models.InsightStatus(*request.Filter.Status)
			filter.Status = &status
		}
		filter.Topic = request.Filter.Topic
		filter.MinScore = request.Filter.MinScore
	}

	insights, err := inf.insightRepo.ByFilter(ctx, filter, "score DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_INSIGHTS_FAILED", "Listing insights failed", err)
	}

	total, err := inf.insightRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_INSIGHTS_FAILED", "Listing insights failed", err)
	}

	items := make([]dto.GetInsightResponse, 0, len(insights))
	for _, i := range insights {
		item := ToInsightDTO(*i)
		item.TranscriptUUID = transcript.UUID.String()
		items = append(items, item)
	}

	return &dto.ListInsightsResponse{
		Message: "Insights retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

// Review accepts or dismisses a suggested insight
func (inf *InsightFlowImpl) Review(ctx context.Context, request *dto.ReviewInsightRequest, metadata *ClientMetadata) (*dto.ReviewInsightResponse, error) {
	var newStatus models.InsightStatus
	var action string

	switch request.Decision {
	case "accept":
		newStatus = models.InsightStatusAccepted
		action = models.AuditActionInsightAccepted
	case "dismiss":
		newStatus = models.InsightStatusDismissed
		action = models.AuditActionInsightDismissed
	default:
		return nil, NewBusinessError("REVIEW_INSIGHT_VALIDATION_FAILED", "Review insight validation failed", ErrInvalidReviewDecision)
	}

	insight, err := inf.insightRepo.ByUUID(ctx, request.UUID)
	if err != nil {
		return nil, NewBusinessError("REVIEW_INSIGHT_FAILED", "Reviewing insight failed", err)
	}
	if insight == nil {
		return nil, NewBusinessError("REVIEW_INSIGHT_FAILED", "Reviewing insight failed", ErrInsightNotFound)
	}
	if insight.CustomerID != request.CustomerID {
		return nil, NewBusinessError("REVIEW_INSIGHT_FAILED", "Reviewing insight failed", ErrInsightAccessDenied)
	}
	if !insight.IsReviewable() {
		return nil, NewBusinessError("REVIEW_INSIGHT_FAILED", "Reviewing insight failed", ErrInsightNotReviewable)
	}

	if err := inf.insightRepo.UpdateStatus(ctx, insight.ID, newStatus); err != nil {
		errMsg := fmt.Sprintf("Insight review failed: %s", err.Error())
		_ = inf.LogInsightAction(ctx, request.CustomerID, action, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REVIEW_INSIGHT_FAILED", "Reviewing insight failed", err)
	}

	msg := fmt.Sprintf("Insight %s %sed", insight.UUID, request.Decision)
	_ = inf.LogInsightAction(ctx, request.CustomerID, action, msg, true, nil, metadata)

	return &dto.ReviewInsightResponse{
		Message: "Insight reviewed successfully",
		Status:  newStatus.String(),
	}, nil
}

// Private helper methods

func (inf *InsightFlowImpl) findOwnedTranscript(ctx context.Context, uuid string, customerID uint) (*models.Transcript, error) {
	transcript, err := inf.transcriptRepo.ByUUID(ctx, uuid)
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

func (inf *InsightFlowImpl) LogInsightAction(ctx context.Context, customerID uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return inf.auditRepo.Save(ctx, audit)
}
