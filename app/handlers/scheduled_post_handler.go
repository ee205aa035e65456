// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Amaterasu/app/dto"
	businessflow "github.com/amirphl/Amaterasu/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ScheduledPostHandlerInterface defines the contract for scheduled post handlers
type ScheduledPostHandlerInterface interface {
	SchedulePost(c fiber.Ctx) error
	ListScheduledPosts(c fiber.Ctx) error
	GetScheduledPost(c fiber.Ctx) error
	Reschedule(c fiber.Ctx) error
	CancelSchedule(c fiber.Ctx) error
	RetrySchedule(c fiber.Ctx) error
	DeleteSchedule(c fiber.Ctx) error
	GetScheduleHistory(c fiber.Ctx) error
	ExportPublishReport(c fiber.Ctx) error
}

// ScheduledPostHandler handles scheduled post HTTP requests
type ScheduledPostHandler struct {
	scheduledPostFlow businessflow.ScheduledPostFlow
	validator         *validator.Validate
}

// NewScheduledPostHandler creates a new scheduled post handler
func NewScheduledPostHandler(scheduledPostFlow businessflow.ScheduledPostFlow) *ScheduledPostHandler {
	return &ScheduledPostHandler{
		scheduledPostFlow: scheduledPostFlow,
		validator:         validator.New(),
	}
}

func (h *ScheduledPostHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ScheduledPostHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SchedulePost creates a pending schedule for an approved post
// @Summary Schedule Post
// @Description Schedule an approved post for future publication on a platform
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body dto.SchedulePostRequest true "Scheduling data"
// @Success 201 {object} dto.APIResponse{data=dto.SchedulePostResponse} "Post scheduled successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or scheduled time not in the future"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - post access denied or not approved"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 409 {object} dto.APIResponse "Post already has an active schedule"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules [post]
func (h *ScheduledPostHandler) SchedulePost(c fiber.Ctx) error {
	var req dto.SchedulePostRequest
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
	result, err := h.scheduledPostFlow.Schedule(h.createRequestContext(c, "/api/v1/schedules"), &req, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: post belongs to another customer", "POST_ACCESS_DENIED", nil)
		}
		if businessflow.IsPostNotApproved(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Post must be approved before scheduling", "POST_NOT_APPROVED", nil)
		}
		if businessflow.IsScheduleTimeNotFuture(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled time must be in the future", "SCHEDULE_TIME_NOT_FUTURE", nil)
		}
		if businessflow.IsPostAlreadyScheduled(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Post already has an active schedule", "POST_ALREADY_SCHEDULED", nil)
		}

		log.Println("Post scheduling failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post scheduling failed", "SCHEDULE_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Post scheduled successfully", fiber.Map{
		"message":        result.Message,
		"scheduled_post": result.ScheduledPost,
	})
}

// ListScheduledPosts returns the customer's scheduled posts with filters and pagination
// @Summary List Scheduled Posts
// @Description Retrieve the authenticated customer's scheduled posts with pagination, ordering, and filters
// @Tags Schedules
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param orderby query string false "Order by (soonest|latest|newest|oldest)" default(newest)
// @Param status query string false "Filter by status (pending|publishing|published|failed|cancelled)"
// @Param platform query string false "Filter by platform (linkedin|x)"
// @Success 200 {object} dto.APIResponse{data=dto.ListScheduledPostsResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules [get]
func (h *ScheduledPostHandler) ListScheduledPosts(c fiber.Ctx) error {
	page, limit := parsePagination(c)
	orderby := c.Query("orderby", "newest")
	status := c.Query("status")
	platform := c.Query("platform")

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	// Build request DTO
	var filter *dto.ListScheduledPostsFilter
	if status != "" || platform != "" {
		filter = &dto.ListScheduledPostsFilter{}
		if status != "" {
			filter.Status = &status
		}
		if platform != "" {
			filter.Platform = &platform
		}
	}
	req := &dto.ListScheduledPostsRequest{
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
		OrderBy:    orderby,
		Filter:     filter,
	}

	result, err := h.scheduledPostFlow.List(h.createRequestContext(c, "/api/v1/schedules"), req)
	if err != nil {
		log.Println("List scheduled posts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list scheduled posts", "LIST_SCHEDULES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Scheduled posts retrieved successfully", fiber.Map{
		"message":    result.Message,
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// GetScheduledPost returns a single scheduled post by UUID
// @Summary Get Scheduled Post
// @Description Retrieve a single scheduled post owned by the authenticated customer
// @Tags Schedules
// @Accept json
// @Produce json
// @Param uuid path string true "Scheduled post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetScheduledPostResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - schedule belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Scheduled post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/{uuid} [get]
func (h *ScheduledPostHandler) GetScheduledPost(c fiber.Ctx) error {
	scheduleUUID := c.Params("uuid")
	if scheduleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule UUID is required", "MISSING_SCHEDULE_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.scheduledPostFlow.Get(h.createRequestContext(c, "/api/v1/schedules/"+scheduleUUID), scheduleUUID, customerID)
	if err != nil {
		return h.scheduleErrorResponse(c, err, "Get scheduled post failed", "GET_SCHEDULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Scheduled post retrieved successfully", result)
}

// Reschedule moves a pending schedule to a new future time
// @Summary Reschedule
// @Description Move a pending schedule to a new time in the future
// @Tags Schedules
// @Accept json
// @Produce json
// @Param uuid path string true "Scheduled post UUID"
// @Param request body dto.RescheduleRequest true "New scheduled time"
// @Success 200 {object} dto.APIResponse{data=dto.RescheduleResponse}
// @Failure 400 {object} dto.APIResponse "Validation error or scheduled time not in the future"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - schedule access denied or not reschedulable"
// @Failure 404 {object} dto.APIResponse "Scheduled post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/{uuid}/reschedule [patch]
func (h *ScheduledPostHandler) Reschedule(c fiber.Ctx) error {
	scheduleUUID := c.Params("uuid")
	if scheduleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule UUID is required", "MISSING_SCHEDULE_UUID", nil)
	}

	var req dto.RescheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = scheduleUUID

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

	result, err := h.scheduledPostFlow.Reschedule(h.createRequestContext(c, "/api/v1/schedules/"+scheduleUUID+"/reschedule"), &req, metadata)
	if err != nil {
		if businessflow.IsScheduleTimeNotFuture(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled time must be in the future", "SCHEDULE_TIME_NOT_FUTURE", nil)
		}
		if businessflow.IsScheduleNotReschedulable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only pending schedules can be rescheduled", "SCHEDULE_NOT_RESCHEDULABLE", nil)
		}

		return h.scheduleErrorResponse(c, err, "Rescheduling failed", "RESCHEDULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule updated successfully", fiber.Map{
		"message":        result.Message,
		"scheduled_post": result.ScheduledPost,
	})
}

// CancelSchedule cancels a pending or failed schedule
// @Summary Cancel Schedule
// @Description Cancel a schedule before its post is published
// @Tags Schedules
// @Accept json
// @Produce json
// @Param uuid path string true "Scheduled post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.CancelScheduleResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - schedule access denied or not cancellable"
// @Failure 404 {object} dto.APIResponse "Scheduled post not found"
// @Failure 409 {object} dto.APIResponse "Schedule was claimed concurrently"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/{uuid}/cancel [post]
func (h *ScheduledPostHandler) CancelSchedule(c fiber.Ctx) error {
	scheduleUUID := c.Params("uuid")
	if scheduleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule UUID is required", "MISSING_SCHEDULE_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.CancelScheduleRequest{
		UUID:       scheduleUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.scheduledPostFlow.Cancel(h.createRequestContext(c, "/api/v1/schedules/"+scheduleUUID+"/cancel"), req, metadata)
	if err != nil {
		if businessflow.IsScheduleNotCancellable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Schedule can no longer be cancelled", "SCHEDULE_NOT_CANCELLABLE", nil)
		}
		if businessflow.IsScheduleConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Schedule was claimed by the publisher, try again", "SCHEDULE_CONFLICT", nil)
		}

		return h.scheduleErrorResponse(c, err, "Cancelling schedule failed", "CANCEL_SCHEDULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule cancelled successfully", fiber.Map{
		"message": result.Message,
		"status":  result.Status,
	})
}

// RetrySchedule re-enqueues a failed schedule
// @Summary Retry Schedule
// @Description Re-enqueue a failed schedule for another publish attempt, optionally at a new time
// @Tags Schedules
// @Accept json
// @Produce json
// @Param uuid path string true "Scheduled post UUID"
// @Param request body dto.RetryScheduleRequest false "Optional new scheduled time"
// @Success 200 {object} dto.APIResponse{data=dto.RetryScheduleResponse}
// @Failure 400 {object} dto.APIResponse "Validation error or scheduled time not in the future"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - schedule access denied, not retryable, or retry limit reached"
// @Failure 404 {object} dto.APIResponse "Scheduled post not found"
// @Failure 409 {object} dto.APIResponse "Schedule was modified concurrently"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/{uuid}/retry [post]
func (h *ScheduledPostHandler) RetrySchedule(c fiber.Ctx) error {
	scheduleUUID := c.Params("uuid")
	if scheduleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule UUID is required", "MISSING_SCHEDULE_UUID", nil)
	}

	var req dto.RetryScheduleRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	req.UUID = scheduleUUID

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.scheduledPostFlow.Retry(h.createRequestContext(c, "/api/v1/schedules/"+scheduleUUID+"/retry"), &req, metadata)
	if err != nil {
		if businessflow.IsScheduleNotRetryable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only failed schedules can be retried", "SCHEDULE_NOT_RETRYABLE", nil)
		}
		if businessflow.IsRetryLimitReached(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Retry limit reached", "RETRY_LIMIT_REACHED", nil)
		}
		if businessflow.IsScheduleTimeNotFuture(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled time must be in the future", "SCHEDULE_TIME_NOT_FUTURE", nil)
		}
		if businessflow.IsScheduleConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Schedule was modified concurrently, try again", "SCHEDULE_CONFLICT", nil)
		}

		return h.scheduleErrorResponse(c, err, "Retrying schedule failed", "RETRY_SCHEDULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule queued for retry", fiber.Map{
		"message":        result.Message,
		"scheduled_post": result.ScheduledPost,
	})
}

// DeleteSchedule removes a finished schedule record
// @Summary Delete Schedule
// @Description Delete a published or cancelled schedule record
// @Tags Schedules
// @Accept json
// @Produce json
// @Param uuid path string true "Scheduled post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteScheduleResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - schedule access denied or still active"
// @Failure 404 {object} dto.APIResponse "Scheduled post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/{uuid} [delete]
func (h *ScheduledPostHandler) DeleteSchedule(c fiber.Ctx) error {
	scheduleUUID := c.Params("uuid")
	if scheduleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule UUID is required", "MISSING_SCHEDULE_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeleteScheduleRequest{
		UUID:       scheduleUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.scheduledPostFlow.Delete(h.createRequestContext(c, "/api/v1/schedules/"+scheduleUUID), req, metadata)
	if err != nil {
		if businessflow.IsScheduleNotDeletable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Schedule must be cancelled or published before deletion", "SCHEDULE_NOT_DELETABLE", nil)
		}

		return h.scheduleErrorResponse(c, err, "Deleting schedule failed", "DELETE_SCHEDULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule deleted successfully", fiber.Map{
		"message": result.Message,
	})
}

// GetScheduleHistory returns a scheduled post with its publish attempt history
// @Summary Get Schedule History
// @Description Retrieve a scheduled post along with every publish attempt made on it
// @Tags Schedules
// @Accept json
// @Produce json
// @Param uuid path string true "Scheduled post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetScheduledPostHistoryResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - schedule belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Scheduled post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/{uuid}/history [get]
func (h *ScheduledPostHandler) GetScheduleHistory(c fiber.Ctx) error {
	scheduleUUID := c.Params("uuid")
	if scheduleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule UUID is required", "MISSING_SCHEDULE_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.scheduledPostFlow.History(h.createRequestContext(c, "/api/v1/schedules/"+scheduleUUID+"/history"), scheduleUUID, customerID)
	if err != nil {
		return h.scheduleErrorResponse(c, err, "Get schedule history failed", "GET_SCHEDULE_HISTORY_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Schedule history retrieved successfully", result)
}

// ExportPublishReport streams an Excel report of the customer's scheduled posts
// @Summary Export Publish Report
// @Description Download an Excel workbook of the customer's scheduled posts and their outcomes
// @Tags Schedules
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start_date query string false "Start of scheduled-at range (RFC3339)"
// @Param end_date query string false "End of scheduled-at range (RFC3339)"
// @Success 200 {file} binary "Excel report"
// @Failure 400 {object} dto.APIResponse "Invalid date range"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/schedules/report [get]
func (h *ScheduledPostHandler) ExportPublishReport(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.PublishReportRequest{CustomerID: customerID}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "start_date must be RFC3339", "INVALID_DATE", nil)
		}
		req.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "end_date must be RFC3339", "INVALID_DATE", nil)
		}
		req.EndDate = &t
	}

	filename, content, err := h.scheduledPostFlow.ExportReport(h.createRequestContext(c, "/api/v1/schedules/report"), req)
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date cannot be after end date", "INVALID_DATE_RANGE", nil)
		}

		log.Println("Publish report export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Publish report export failed", "PUBLISH_REPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	return c.Send(content)
}

// scheduleErrorResponse maps the shared not-found and access-denied cases
func (h *ScheduledPostHandler) scheduleErrorResponse(c fiber.Ctx, err error, logMsg, code string) error {
	if businessflow.IsScheduleNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Scheduled post not found", "SCHEDULE_NOT_FOUND", nil)
	}
	if businessflow.IsScheduleAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: schedule belongs to another customer", "SCHEDULE_ACCESS_DENIED", nil)
	}

	log.Println(logMsg, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, logMsg, code, nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ScheduledPostHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
