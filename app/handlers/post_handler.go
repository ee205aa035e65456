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

// PostHandlerInterface defines the contract for post handlers
type PostHandlerInterface interface {
	CreatePost(c fiber.Ctx) error
	GeneratePost(c fiber.Ctx) error
	ListPosts(c fiber.Ctx) error
	GetPost(c fiber.Ctx) error
	UpdatePost(c fiber.Ctx) error
	ApprovePost(c fiber.Ctx) error
	DeletePost(c fiber.Ctx) error
}

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postFlow  businessflow.PostFlow
	validator *validator.Validate
}

// NewPostHandler creates a new post handler
func NewPostHandler(postFlow businessflow.PostFlow) *PostHandler {
	return &PostHandler{
		postFlow:  postFlow,
		validator: validator.New(),
	}
}

func (h *PostHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PostHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreatePost handles manual post draft creation
// @Summary Create Post
// @Description Create a post draft by hand, optionally linked to an insight
// @Tags Posts
// @Accept json
// @Produce json
// @Param request body dto.CreatePostRequest true "Post data"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePostResponse} "Post created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Insight not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts [post]
func (h *PostHandler) CreatePost(c fiber.Ctx) error {
	var req dto.CreatePostRequest
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
	result, err := h.postFlow.Create(h.createRequestContext(c, "/api/v1/posts"), &req, metadata)
	if err != nil {
		if businessflow.IsInsightNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Insight not found", "INSIGHT_NOT_FOUND", nil)
		}
		if businessflow.IsInsightAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: insight belongs to another customer", "INSIGHT_ACCESS_DENIED", nil)
		}

		log.Println("Post creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post creation failed", "CREATE_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Post created successfully", fiber.Map{
		"message": result.Message,
		"post":    result.Post,
	})
}

// GeneratePost drafts a post from an insight using the language model
// @Summary Generate Post
// @Description Generate a platform-fitted post draft from an insight
// @Tags Posts
// @Accept json
// @Produce json
// @Param request body dto.GeneratePostRequest true "Generation parameters"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePostResponse} "Post generated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Insight not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts/generate [post]
func (h *PostHandler) GeneratePost(c fiber.Ctx) error {
	var req dto.GeneratePostRequest
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

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	req.CustomerID = customerID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// The model call can take a while, allow a longer timeout than usual
	result, err := h.postFlow.Generate(h.createRequestContextWithTimeout(c, "/api/v1/posts/generate", 2*time.Minute), &req, metadata)
	if err != nil {
		if businessflow.IsInsightNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Insight not found", "INSIGHT_NOT_FOUND", nil)
		}
		if businessflow.IsInsightAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: insight belongs to another customer", "INSIGHT_ACCESS_DENIED", nil)
		}

		log.Println("Post generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post generation failed", "GENERATE_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Post generated successfully", fiber.Map{
		"message": result.Message,
		"post":    result.Post,
	})
}

// ListPosts returns the customer's posts with filters and pagination
// @Summary List Posts
// @Description Retrieve the authenticated customer's posts with pagination, ordering, and filters
// @Tags Posts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param orderby query string false "Order by (newest|oldest)" default(newest)
// @Param status query string false "Filter by status (draft|approved|scheduled|published)"
// @Param platform query string false "Filter by platform (linkedin|x)"
// @Param content query string false "Filter by content (contains)"
// @Success 200 {object} dto.APIResponse{data=dto.ListPostsResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts [get]
func (h *PostHandler) ListPosts(c fiber.Ctx) error {
	page, limit := parsePagination(c)
	orderby := c.Query("orderby", "newest")
	status := c.Query("status")
	platform := c.Query("platform")
	content := c.Query("content")

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	// Build request DTO
	var filter *dto.ListPostsFilter
	if status != "" || platform != "" || content != "" {
		filter = &dto.ListPostsFilter{}
		if status != "" {
			filter.Status = &status
		}
		if platform != "" {
			filter.Platform = &platform
		}
		if content != "" {
			filter.Content = &content
		}
	}
	req := &dto.ListPostsRequest{
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
		OrderBy:    orderby,
		Filter:     filter,
	}

	result, err := h.postFlow.List(h.createRequestContext(c, "/api/v1/posts"), req)
	if err != nil {
		log.Println("List posts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list posts", "LIST_POSTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Posts retrieved successfully", fiber.Map{
		"message":    result.Message,
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// GetPost returns a single post by UUID
// @Summary Get Post
// @Description Retrieve a single post owned by the authenticated customer
// @Tags Posts
// @Accept json
// @Produce json
// @Param uuid path string true "Post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetPostResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - post belongs to another customer"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts/{uuid} [get]
func (h *PostHandler) GetPost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.postFlow.Get(h.createRequestContext(c, "/api/v1/posts/"+postUUID), postUUID, customerID)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: post belongs to another customer", "POST_ACCESS_DENIED", nil)
		}

		log.Println("Get post failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get post", "GET_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Post retrieved successfully", result)
}

// UpdatePost edits a draft post
// @Summary Update Post
// @Description Edit the content or platform of a draft post
// @Tags Posts
// @Accept json
// @Produce json
// @Param uuid path string true "Post UUID"
// @Param request body dto.UpdatePostRequest true "Post update data"
// @Success 200 {object} dto.APIResponse{data=dto.UpdatePostResponse}
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - post access denied or no longer editable"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts/{uuid} [put]
func (h *PostHandler) UpdatePost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	var req dto.UpdatePostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = postUUID

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

	result, err := h.postFlow.Update(h.createRequestContext(c, "/api/v1/posts/"+postUUID), &req, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: post belongs to another customer", "POST_ACCESS_DENIED", nil)
		}
		if businessflow.IsPostNotEditable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Post can no longer be edited", "POST_NOT_EDITABLE", nil)
		}

		log.Println("Post update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post update failed", "UPDATE_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Post updated successfully", fiber.Map{
		"message": result.Message,
		"post":    result.Post,
	})
}

// ApprovePost marks a draft post as ready for scheduling
// @Summary Approve Post
// @Description Approve a draft post so it can be scheduled for publication
// @Tags Posts
// @Accept json
// @Produce json
// @Param uuid path string true "Post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ApprovePostResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - post access denied or not approvable"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts/{uuid}/approve [post]
func (h *PostHandler) ApprovePost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.ApprovePostRequest{
		UUID:       postUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.postFlow.Approve(h.createRequestContext(c, "/api/v1/posts/"+postUUID+"/approve"), req, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: post belongs to another customer", "POST_ACCESS_DENIED", nil)
		}
		if businessflow.IsPostNotApprovable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only draft posts can be approved", "POST_NOT_APPROVABLE", nil)
		}

		log.Println("Post approval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post approval failed", "APPROVE_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Post approved successfully", fiber.Map{
		"message": result.Message,
		"status":  result.Status,
	})
}

// DeletePost removes a draft post
// @Summary Delete Post
// @Description Delete a draft post owned by the authenticated customer
// @Tags Posts
// @Accept json
// @Produce json
// @Param uuid path string true "Post UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DeletePostResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - post access denied or no longer deletable"
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/posts/{uuid} [delete]
func (h *PostHandler) DeletePost(c fiber.Ctx) error {
	postUUID := c.Params("uuid")
	if postUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Post UUID is required", "MISSING_POST_UUID", nil)
	}

	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	req := &dto.DeletePostRequest{
		UUID:       postUUID,
		CustomerID: customerID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.postFlow.Delete(h.createRequestContext(c, "/api/v1/posts/"+postUUID), req, metadata)
	if err != nil {
		if businessflow.IsPostNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Post not found", "POST_NOT_FOUND", nil)
		}
		if businessflow.IsPostAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: post belongs to another customer", "POST_ACCESS_DENIED", nil)
		}
		if businessflow.IsPostNotDeletable(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Post can no longer be deleted", "POST_NOT_DELETABLE", nil)
		}

		log.Println("Post deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Post deletion failed", "DELETE_POST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Post deleted successfully", fiber.Map{
		"message": result.Message,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *PostHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *PostHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
