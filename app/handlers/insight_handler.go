// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Amaterasu/app/dto"
	businessflow "github.com/amirphl/Amaterasu/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// InsightHandlerInterface defines the contract for insight handlers
type InsightHandlerInterface interface {
	ExtractInsights(c fiber.Ctx) error
	ListInsights(c fiber.Ctx) error
	ReviewInsight(c fiber.Ctx) error
}

// InsightHandler handles insight-related HTTP requests
type InsightHandler struct {
	insightFlow businessflow.InsightFlow
	validator   *validator.Validate
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(insightFlow businessflow.InsightFlow) *InsightHandler {
	return &InsightHandler{
		insightFlow: insightFlow,
		validator:   validator.New(),
	}
}

func (h *InsightHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *InsightHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ExtractInsights runs the language model over a transcript
// @Summary Extract Insights
// @Description Run insight extraction on a transcript and store the suggestions
// @Tags Insights
// @Accept json
// @Produce json
// @Param uuid path string true "Transcript UUID"
// @Param request body dto.ExtractInsightsRequest false "Extraction options"
// @Success 201 {object} dto.APIResponse{data=dto.ExtractInsightsResponse} "Insights extracted successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - transcript belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Transcript not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transcripts/{uuid}/insights [post]
func (h *InsightHandler) ExtractInsights(c fiber.Ctx) error {
	transcriptUUID := c.Params("uuid")
	if transcriptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Transcript UUID is required", "MISSING_TRANSCRIPT_UUID", nil)
	}

	var req dto.ExtractInsightsRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	req.TranscriptUUID = transcriptUUID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get authenticated customer ID from context
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// The model call can take a while, allow a longer timeout than usual
	result, err := h.insightFlow.Extract(h.createRequestContextWithTimeout(c, "/api/v1/transcripts/"+transcriptUUID+"/insights", 2*time.Minute), &req, metadata)
	if err != nil {
		if businessflow.IsTranscriptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Transcript not found", "TRANSCRIPT_NOT_FOUND", nil)
		}
		if businessflow.IsTranscriptAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: transcript belongs to another customer", "TRANSCRIPT_ACCESS_DENIED", nil)
		}

		log.Println("Insight extraction failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Insight extraction failed", "EXTRACT_INSIGHTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Insights extracted successfully", fiber.Map{
		"message": result.Message,
		"items":   result.Items,
	})
}

// ListInsights returns a transcript's insights, best scored first
// @Summary List Insights
// @Description Retrieve the insights of a transcript with pagination and filters, ordered by score
// @Tags Insights
// @Accept json
// @Produce json
// @Param uuid path string true "Transcript UUID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param status query string false "Filter by status (suggested|accepted|dismissed)"
// @Param topic query string false "Filter by topic"
// @Param min_score query number false "Filter by minimum score"
// @Success 200 {object} dto.APIResponse{data=dto.ListInsightsResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - transcript belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Transcript not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transcripts/{uuid}/insights [get]
func (h *InsightHandler) ListInsights(c fiber.Ctx) error {
	transcriptUUID := c.Params("uuid")
	if transcriptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Transcript UUID is required", "MISSING_TRANSCRIPT_UUID", nil)
	}

	page, limit := parsePagination(c)
	status := c.Query("status")
	topic := c.Query("topic")
	minScoreStr := c.Query("min_score")

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	// Build request DTO
	var filter *dto.ListInsightsFilter
	if status != "" || topic != "" || minScoreStr != "" {
		filter = &dto.ListInsightsFilter{}
		if status != "" {
			filter.Status = &status
		}
		if topic != "" {
			filter.Topic = &topic
		}
		if minScoreStr != "" {
			if v, err := strconv.ParseFloat(minScoreStr, 64); err == nil {
				filter.MinScore = &v
			}
		}
	}
	req := &dto.ListInsightsRequest{
		TranscriptUUID: transcriptUUID,
		CustomerID:     customerID,
		Page:           page,
		Limit:          limit,
		Filter:         filter,
	}

	result, err := h.insightFlow.List(h.createRequestContext(c, "/api/v1/transcripts/"+transcriptUUID+"/insights"), req)
	if err != nil {
		if businessflow.IsTranscriptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Transcript not found", "TRANSCRIPT_NOT_FOUND", nil)
		}
		if businessflow.IsTranscriptAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: transcript belongs to another customer", "TRANSCRIPT_ACCESS_DENIED", nil)
		}

		log.Println("List insights failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list insights", "LIST_INSIGHTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Insights retrieved successfully", fiber.Map{
		"message":    result.Message,
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// ReviewInsight accepts or dismisses a suggested insight
// @Summary Review Insight
// @Description Accept or dismiss a suggested insight
// @Tags Insights
// @Accept json
// @Produce json
// @Param uuid path string true "Insight UUID"
// @Param request body dto.ReviewInsightRequest true "Review decision"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewInsightResponse}
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - insight belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Insight not found"
// @Failure 409 {object} dto.APIResponse "Insight has already been reviewed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/insights/{uuid}/review [patch]
func (h *InsightHandler) ReviewInsight(c fiber.Ctx) error {
	insightUUID := c.Params("uuid")
	if insightUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Insight UUID is required", "MISSING_INSIGHT_UUID", nil)
	}

	var req dto.ReviewInsightRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = insightUUID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.insightFlow.Review(h.createRequestContext(c, "/api/v1/insights/"+insightUUID+"/review"), &req, metadata)
	if err != nil {
		if businessflow.IsInsightNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Insight not found", "INSIGHT_NOT_FOUND", nil)
		}
		if businessflow.IsInsightAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: insight belongs to another customer", "INSIGHT_ACCESS_DENIED", nil)
		}
		if businessflow.IsInsightNotReviewable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Insight has already been reviewed", "INSIGHT_NOT_REVIEWABLE", nil)
		}

		log.Println("Insight review failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Insight review failed", "REVIEW_INSIGHT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Insight reviewed successfully", fiber.Map{
		"message": result.Message,
		"status":  result.Status,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *InsightHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *InsightHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
