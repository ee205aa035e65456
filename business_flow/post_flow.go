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

// PostFlow handles post drafting, editing, and approval operations
type PostFlow interface {
	Create(ctx context.Context, request *dto.CreatePostRequest, metadata *ClientMetadata) (*dto.CreatePostResponse, error)
	Generate(ctx context.Context, request *dto.GeneratePostRequest, metadata *ClientMetadata) (*dto.CreatePostResponse, error)
	List(ctx context.Context, request *dto.ListPostsRequest) (*dto.ListPostsResponse, error)
	Get(ctx context.Context, uuid string, customerID uint) (*dto.GetPostResponse, error)
	Update(ctx context.Context, request *dto.UpdatePostRequest, metadata *ClientMetadata) (*dto.UpdatePostResponse, error)
	Approve(ctx context.Context, request *dto.ApprovePostRequest, metadata *ClientMetadata) (*dto.ApprovePostResponse, error)
	Delete(ctx context.Context, request *dto.DeletePostRequest, metadata *ClientMetadata) (*dto.DeletePostResponse, error)
}

// PostFlowImpl implements the post business flow
type PostFlowImpl struct {
	postRepo    repository.PostRepository
	insightRepo repository.InsightRepository
	auditRepo   repository.AuditLogRepository
	llmService  services.LLMService
	db          *gorm.DB
}

// NewPostFlow creates a new post flow instance
func NewPostFlow(
	postRepo repository.PostRepository,
	insightRepo repository.InsightRepository,
	auditRepo repository.AuditLogRepository,
	llmService services.LLMService,
	db *gorm.DB,
) PostFlow {
	return &PostFlowImpl{
		postRepo:    postRepo,
		insightRepo: insightRepo,
		auditRepo:   auditRepo,
		llmService:  llmService,
		db:          db,
	}
}

// Create stores a hand-written post draft
func (pf *PostFlowImpl) Create(ctx context.Context, request *dto.CreatePostRequest, metadata *ClientMetadata) (*dto.CreatePostResponse, error) {
	if request.Content == "" {
		return nil, NewBusinessError("CREATE_POST_VALIDATION_FAILED", "Create post validation failed", ErrPostContentRequired)
	}

	var platform *models.Platform
	if request.Platform != nil {
		p := models.Platform(*request.Platform)
		if !p.Valid() {
			return nil, NewBusinessError("CREATE_POST_VALIDATION_FAILED", "Create post validation failed", ErrPostPlatformInvalid)
		}
		platform = &p
	}

	var insightID *uint
	var insight *models.Insight
	if request.InsightUUID != nil {
		var err error
		insight, err = pf.findOwnedInsight(ctx, *request.InsightUUID, request.CustomerID)
		if err != nil {
			return nil, NewBusinessError("CREATE_POST_FAILED", "Creating post failed", err)
		}
		insightID = &insight.ID
	}

	post := &models.Post{
		CustomerID: request.CustomerID,
		InsightID:  insightID,
		Platform:   platform,
		Content:    request.Content,
		Status:     models.PostStatusDraft,
		Insight:    insight,
	}
	if err := post.BeforeCreate(nil); err != nil {
		return nil, NewBusinessError("CREATE_POST_FAILED", "Creating post failed", err)
	}

	if err := pf.postRepo.Save(ctx, post); err != nil {
		errMsg := fmt.Sprintf("Post creation failed: %s", err.Error())
		_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CREATE_POST_FAILED", "Creating post failed", err)
	}

	msg := fmt.Sprintf("Post created: %s", post.UUID)
	_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostCreated, msg, true, nil, metadata)

	return &dto.CreatePostResponse{
		Message: "Post created successfully",
		Post:    ToPostDTO(*post),
	}, nil
}

// Generate drafts a post from an accepted insight using the language model
func (pf *PostFlowImpl) Generate(ctx context.Context, request *dto.GeneratePostRequest, metadata *ClientMetadata) (*dto.CreatePostResponse, error) {
	platform := models.Platform(request.Platform)
	if !platform.Valid() {
		return nil, NewBusinessError("GENERATE_POST_VALIDATION_FAILED", "Generate post validation failed", ErrPostPlatformInvalid)
	}

	insight, err := pf.findOwnedInsight(ctx, request.InsightUUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("GENERATE_POST_FAILED", "Generating post failed", err)
	}

	content, err := pf.llmService.GeneratePost(ctx, insight.Content, platform.String(), request.Tone)
	if err != nil {
		errMsg := fmt.Sprintf("Post generation failed: %s", err.Error())
		_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostGenerated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("GENERATE_POST_FAILED", "Generating post failed", err)
	}

	post := &models.Post{
		CustomerID: request.CustomerID,
		InsightID:  &insight.ID,
		Platform:   &platform,
		Content:    content,
		Status:     models.PostStatusDraft,
		Insight:    insight,
	}
	if err := post.BeforeCreate(nil); err != nil {
		return nil, NewBusinessError("GENERATE_POST_FAILED", "Generating post failed", err)
	}

	if err := pf.postRepo.Save(ctx, post); err != nil {
		errMsg := fmt.Sprintf("Post generation failed: %s", err.Error())
		_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostGenerated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("GENERATE_POST_FAILED", "Generating post failed", err)
	}

	msg := fmt.Sprintf("Post generated from insight %s: %s", insight.UUID, post.UUID)
	_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostGenerated, msg, true, nil, metadata)

	return &dto.CreatePostResponse{
		Message: "Post generated successfully",
		Post:    ToPostDTO(*post),
	}, nil
}

// List returns the customer's posts page by page
func (pf *PostFlowImpl) List(ctx context.Context, request *dto.ListPostsRequest) (*dto.ListPostsResponse, error) {
	page, limit, err := normalizePagination(request.Page, request.Limit)
	if err != nil {
		return nil, NewBusinessError("LIST_POSTS_VALIDATION_FAILED", "List posts validation failed", err)
	}

	filter := models.PostFilter{
		CustomerID: &request.CustomerID,
	}
	if request.Filter != nil {
		if request.Filter.Status != nil {
			status := models.PostStatus(*request.Filter.Status)
			filter.Status = &status
		}
		if request.Filter.Platform != nil {
			platform := models.Platform(*request.Filter.Platform)
			filter.Platform = &platform
		}
		filter.Content = request.Filter.Content
	}

	orderBy := "created_at DESC"
	if request.OrderBy == "oldest" {
		orderBy = "created_at ASC"
	}

	posts, err := pf.postRepo.ByFilter(ctx, filter, orderBy, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_POSTS_FAILED", "Listing posts failed", err)
	}

	total, err := pf.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_POSTS_FAILED", "Listing posts failed", err)
	}

	items := make([]dto.GetPostResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, ToPostDTO(*p))
	}

	return &dto.ListPostsResponse{
		Message: "Posts retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

// Get returns a single post owned by the customer
func (pf *PostFlowImpl) Get(ctx context.Context, uuid string, customerID uint) (*dto.GetPostResponse, error) {
	post, err := pf.findOwnedPost(ctx, uuid, customerID)
	if err != nil {
		return nil, NewBusinessError("GET_POST_FAILED", "Getting post failed", err)
	}

	resp := ToPostDTO(*post)
	return &resp, nil
}

// Update edits the content or platform of a draft post
func (pf *PostFlowImpl) Update(ctx context.Context, request *dto.UpdatePostRequest, metadata *ClientMetadata) (*dto.UpdatePostResponse, error) {
	post, err := pf.findOwnedPost(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("UPDATE_POST_FAILED", "Updating post failed", err)
	}

	if !post.IsEditable() {
		return nil, NewBusinessError("UPDATE_POST_FAILED", "Updating post failed", ErrPostNotEditable)
	}

	if request.Content != nil {
		if *request.Content == "" {
			return nil, NewBusinessError("UPDATE_POST_VALIDATION_FAILED", "Update post validation failed", ErrPostContentRequired)
		}
		post.Content = *request.Content
	}
	if request.Platform != nil {
		platform := models.Platform(*request.Platform)
		if !platform.Valid() {
			return nil, NewBusinessError("UPDATE_POST_VALIDATION_FAILED", "Update post validation failed", ErrPostPlatformInvalid)
		}
		post.Platform = &platform
	}

	if err := pf.postRepo.Update(ctx, post); err != nil {
		errMsg := fmt.Sprintf("Post update failed: %s", err.Error())
		_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("UPDATE_POST_FAILED", "Updating post failed", err)
	}

	msg := fmt.Sprintf("Post updated: %s", post.UUID)
	_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostUpdated, msg, true, nil, metadata)

	return &dto.UpdatePostResponse{
		Message: "Post updated successfully",
		Post:    ToPostDTO(*post),
	}, nil
}

// Approve marks a draft post as ready for scheduling
func (pf *PostFlowImpl) Approve(ctx context.Context, request *dto.ApprovePostRequest, metadata *ClientMetadata) (*dto.ApprovePostResponse, error) {
	post, err := pf.findOwnedPost(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("APPROVE_POST_FAILED", "Approving post failed", err)
	}

	if !post.CanTransitionTo(models.PostStatusApproved) {
		return nil, NewBusinessError("APPROVE_POST_FAILED", "Approving post failed", ErrPostNotApprovable)
	}

	if err := pf.postRepo.UpdateStatus(ctx, post.ID, models.PostStatusApproved); err != nil {
		errMsg := fmt.Sprintf("Post approval failed: %s", err.Error())
		_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostApproved, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("APPROVE_POST_FAILED", "Approving post failed", err)
	}

	msg := fmt.Sprintf("Post approved: %s", post.UUID)
	_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostApproved, msg, true, nil, metadata)

	return &dto.ApprovePostResponse{
		Message: "Post approved successfully",
		Status:  models.PostStatusApproved.String(),
	}, nil
}

// Delete removes a draft post
func (pf *PostFlowImpl) Delete(ctx context.Context, request *dto.DeletePostRequest, metadata *ClientMetadata) (*dto.DeletePostResponse, error) {
	post, err := pf.findOwnedPost(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("DELETE_POST_FAILED", "Deleting post failed", err)
	}

	if !post.IsDeletable() {
		return nil, NewBusinessError("DELETE_POST_FAILED", "Deleting post failed", ErrPostNotDeletable)
	}

	if err := pf.postRepo.Delete(ctx, post.ID); err != nil {
		errMsg := fmt.Sprintf("Post deletion failed: %s", err.Error())
		_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostDeleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("DELETE_POST_FAILED", "Deleting post failed", err)
	}

	msg := fmt.Sprintf("Post deleted: %s", post.UUID)
	_ = pf.LogPostAction(ctx, request.CustomerID, models.AuditActionPostDeleted, msg, true, nil, metadata)

	return &dto.DeletePostResponse{
		Message: "Post deleted successfully",
	}, nil
}

// Private helper methods

func (pf *PostFlowImpl) findOwnedPost(ctx context.Context, uuid string, customerID uint) (*models.Post, error) {
	post, err := pf.postRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.CustomerID != customerID {
		return nil, ErrPostAccessDenied
	}

	return post, nil
}

func (pf *PostFlowImpl) findOwnedInsight(ctx context.Context, uuid string, customerID uint) (*models.Insight, error) {
	insight, err := pf.insightRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if insight == nil {
		return nil, ErrInsightNotFound
	}
	if insight.CustomerID != customerID {
		return nil, ErrInsightAccessDenied
	}

	return insight, nil
}

func (pf *PostFlowImpl) LogPostAction(ctx context.Context, customerID uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return pf.auditRepo.Save(ctx, audit)
}
