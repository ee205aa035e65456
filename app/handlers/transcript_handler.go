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

// TranscriptHandlerInterface defines the contract for transcript handlers
type TranscriptHandlerInterface interface {
	IngestTranscript(c fiber.Ctx) error
	ListTranscripts(c fiber.Ctx) error
	GetTranscript(c fiber.Ctx) error
	DeleteTranscript(c fiber.Ctx) error
}

// TranscriptHandler handles transcript-related HTTP requests
type TranscriptHandler struct {
	transcriptFlow businessflow.TranscriptFlow
	validator      *validator.Validate
}

// NewTranscriptHandler creates a new transcript handler
func NewTranscriptHandler(transcriptFlow businessflow.TranscriptFlow) *TranscriptHandler {
	return &TranscriptHandler{
		transcriptFlow: transcriptFlow,
		validator:      validator.New(),
	}
}

func (h *TranscriptHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TranscriptHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// IngestTranscript handles the transcript ingestion process
// @Summary Ingest Transcript
// @Description Store a raw transcript from an upload or a recording
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param request body dto.IngestTranscriptRequest true "Transcript data"
// @Success 201 {object} dto.APIResponse{data=dto.IngestTranscriptResponse} "Transcript ingested successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transcripts [post]
func (h *TranscriptHandler) IngestTranscript(c fiber.Ctx) error {
	var req dto.IngestTranscriptRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

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

	// Call business logic with proper context
	result, err := h.transcriptFlow.Ingest(h.createRequestContext(c, "/api/v1/transcripts"), &req, metadata)
	if err != nil {
		log.Println("Transcript ingestion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Transcript ingestion failed", "TRANSCRIPT_INGEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Transcript ingested successfully", fiber.Map{
		"message":    result.Message,
		"transcript": result.Transcript,
	})
}

// ListTranscripts returns the customer's transcripts with filters and pagination
// @Summary List Transcripts
// @Description Retrieve the authenticated customer's transcripts with pagination, ordering, and filters
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param orderby query string false "Order by (newest|oldest)" default(newest)
// @Param title query string false "Filter by title (contains)"
// @Param source query string false "Filter by source (upload|recording)"
// @Param tag query string false "Filter by tag"
// @Success 200 {object} dto.APIResponse{data=dto.ListTranscriptsResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transcripts [get]
func (h *TranscriptHandler) ListTranscripts(c fiber.Ctx) error {
	page, limit := parsePagination(c)
	orderby := c.Query("orderby", "newest")
	title := c.Query("title")
	source := c.Query("source")
	tag := c.Query("tag")

	// Get authenticated customer ID
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	// Build request DTO
	var filter *dto.ListTranscriptsFilter
	if title != "" || source != "" || tag != "" {
		filter = &dto.ListTranscriptsFilter{}
		if title != "" {
			filter.Title = &title
		}
		if source != "" {
			filter.Source = &source
		}
		if tag != "" {
			filter.Tag = &tag
		}
	}
	req := &dto.ListTranscriptsRequest{
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
		OrderBy:    orderby,
		Filter:     filter,
	}

	// Call business logic
	result, err := h.transcriptFlow.List(h.createRequestContext(c, "/api/v1/transcripts"), req)
	if err != nil {
		log.Println("List transcripts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list transcripts", "LIST_TRANSCRIPTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Transcripts retrieved successfully", fiber.Map{
		"message":    result.Message,
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// GetTranscript returns a single transcript by UUID
// @Summary Get Transcript
// @Description Retrieve a single transcript owned by the authenticated customer
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param uuid path string true "Transcript UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetTranscriptResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - transcript belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Transcript not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transcripts/{uuid} [get]
func (h *TranscriptHandler) GetTranscript(c fiber.Ctx) error {
	transcriptUUID := c.Params("uuid")
	if transcriptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Transcript UUID is required", "MISSING_TRANSCRIPT_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.transcriptFlow.Get(h.createRequestContext(c, "/api/v1/transcripts/"+transcriptUUID), transcriptUUID, customerID)
	if err != nil {
		if businessflow.IsTranscriptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Transcript not found", "TRANSCRIPT_NOT_FOUND", nil)
		}
		if businessflow.IsTranscriptAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: transcript belongs to another customer", "TRANSCRIPT_ACCESS_DENIED", nil)
		}

		log.Println("Get transcript failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get transcript", "GET_TRANSCRIPT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Transcript retrieved successfully", result)
}

// DeleteTranscript removes a transcript by UUID
// @Summary Delete Transcript
// @Description Delete a transcript owned by the authenticated customer
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param uuid path string true "Transcript UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteTranscriptResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - transcript belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Transcript not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transcripts/{uuid} [delete]
func (h *TranscriptHandler) DeleteTranscript(c fiber.Ctx) error {
	transcriptUUID := c.Params("uuid")
	if transcriptUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Transcript UUID is required", "MISSING_TRANSCRIPT_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteTranscriptRequest{
		UUID:       transcriptUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.transcriptFlow.Delete(h.createRequestContext(c, "/api/v1/transcripts/"+transcriptUUID), req, metadata)
	if err != nil {
		if businessflow.IsTranscriptNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Transcript not found", "TRANSCRIPT_NOT_FOUND", nil)
		}
		if businessflow.IsTranscriptAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: transcript belongs to another customer", "TRANSCRIPT_ACCESS_DENIED", nil)
		}

		log.Println("Delete transcript failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete transcript", "DELETE_TRANSCRIPT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Transcript deleted successfully", fiber.Map{
		"message": result.Message,
	})
}

// parsePagination reads page and limit query params with sane bounds
func parsePagination(c fiber.Ctx) (int, int) {
	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	limit := 20
	if v, err := strconv.Atoi(c.Query("limit", "20")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *TranscriptHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
