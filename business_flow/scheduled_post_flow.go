package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Amaterasu/app/dto"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/repository"
	"github.com/amirphl/Amaterasu/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ScheduledPostFlow handles the scheduled publication lifecycle: creating a
// schedule for an approved post, moving it through pending, publishing,
// published, failed, and cancelled, and reporting on the outcome. Every
// status change goes through the conditional update in the repository so a
// user action and the publish worker can never both win the same transition.
type ScheduledPostFlow interface {
	Schedule(ctx context.Context, request *dto.SchedulePostRequest, metadata *ClientMetadata) (*dto.SchedulePostResponse, error)
	Reschedule(ctx context.Context, request *dto.RescheduleRequest, metadata *ClientMetadata) (*dto.RescheduleResponse, error)
	Cancel(ctx context.Context, request *dto.CancelScheduleRequest, metadata *ClientMetadata) (*dto.CancelScheduleResponse, error)
	Retry(ctx context.Context, request *dto.RetryScheduleRequest, metadata *ClientMetadata) (*dto.RetryScheduleResponse, error)
	Delete(ctx context.Context, request *dto.DeleteScheduleRequest, metadata *ClientMetadata) (*dto.DeleteScheduleResponse, error)
	List(ctx context.Context, request *dto.ListScheduledPostsRequest) (*dto.ListScheduledPostsResponse, error)
	Get(ctx context.Context, uuid string, customerID uint) (*dto.GetScheduledPostResponse, error)
	History(ctx context.Context, uuid string, customerID uint) (*dto.GetScheduledPostHistoryResponse, error)
	ExportReport(ctx context.Context, request *dto.PublishReportRequest) (string, []byte, error)
}

// ScheduledPostFlowImpl implements the scheduled post business flow
type ScheduledPostFlowImpl struct {
	scheduledPostRepo repository.ScheduledPostRepository
	postRepo          repository.PostRepository
	attemptRepo       repository.PublishAttemptRepository
	auditRepo         repository.AuditLogRepository
	maxRetryCount     int
	db                *gorm.DB
}

// NewScheduledPostFlow creates a new scheduled post flow instance
func NewScheduledPostFlow(
	scheduledPostRepo repository.ScheduledPostRepository,
	postRepo repository.PostRepository,
	attemptRepo repository.PublishAttemptRepository,
	auditRepo repository.AuditLogRepository,
	maxRetryCount int,
	db *gorm.DB,
) ScheduledPostFlow {
	return &ScheduledPostFlowImpl{
		scheduledPostRepo: scheduledPostRepo,
		postRepo:          postRepo,
		attemptRepo:       attemptRepo,
		auditRepo:         auditRepo,
		maxRetryCount:     maxRetryCount,
		db:                db,
	}
}

// Schedule creates a pending schedule for an approved post. The post moves to
// scheduled in the same transaction, so a post can never carry two active
// schedules at once.
func (sf *ScheduledPostFlowImpl) Schedule(ctx context.Context, request *dto.SchedulePostRequest, metadata *ClientMetadata) (*dto.SchedulePostResponse, error) {
	platform := models.Platform(request.Platform)
	if !platform.Valid() {
		return nil, NewBusinessError("SCHEDULE_POST_VALIDATION_FAILED", "Schedule post validation failed", ErrPostPlatformInvalid)
	}

	scheduledAt := utils.TimeToUTC(request.ScheduledAt)
	if !utils.IsFuture(scheduledAt) {
		return nil, NewBusinessError("SCHEDULE_POST_VALIDATION_FAILED", "Schedule post validation failed", ErrScheduleTimeNotFuture)
	}

	var scheduledPost *models.ScheduledPost

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		post, err := sf.postRepo.ByUUID(ctx, request.PostUUID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrPostNotFound
		}
		if post.CustomerID != request.CustomerID {
			return ErrPostAccessDenied
		}
		if post.Status != models.PostStatusApproved {
			return ErrPostNotApproved
		}

		active, err := sf.scheduledPostRepo.ActiveByPostID(ctx, post.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrPostAlreadyScheduled
		}

		scheduledPost = &models.ScheduledPost{
			PostID:      post.ID,
			CustomerID:  request.CustomerID,
			Platform:    platform,
			Content:     post.Content,
			ScheduledAt: scheduledAt,
			Status:      models.ScheduledPostStatusPending,
			Post:        post,
		}
		if err := scheduledPost.BeforeCreate(nil); err != nil {
			return err
		}
		if err := sf.scheduledPostRepo.Save(ctx, scheduledPost); err != nil {
			return err
		}

		return sf.postRepo.UpdateStatus(ctx, post.ID, models.PostStatusScheduled)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Scheduling post failed: %s", err.Error())
		_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionPostScheduleFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SCHEDULE_POST_FAILED", "Scheduling post failed", err)
	}

	msg := fmt.Sprintf("Post %s scheduled for %s on %s", request.PostUUID, scheduledAt.Format(time.RFC3339), platform)
	_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionPostScheduled, msg, true, nil, metadata)

	return &dto.SchedulePostResponse{
		Message:       "Post scheduled successfully",
		ScheduledPost: ToScheduledPostDTO(*scheduledPost),
	}, nil
}

// Reschedule moves a pending schedule to a new future time. The record stays
// pending, so this is an ordinary update rather than a status transition.
func (sf *ScheduledPostFlowImpl) Reschedule(ctx context.Context, request *dto.RescheduleRequest, metadata *ClientMetadata) (*dto.RescheduleResponse, error) {
	scheduledAt := utils.TimeToUTC(request.ScheduledAt)
	if !utils.IsFuture(scheduledAt) {
		return nil, NewBusinessError("RESCHEDULE_VALIDATION_FAILED", "Reschedule validation failed", ErrScheduleTimeNotFuture)
	}

	scheduledPost, err := sf.findOwnedSchedule(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("RESCHEDULE_FAILED", "Rescheduling failed", err)
	}

	if !scheduledPost.IsReschedulable() {
		return nil, NewBusinessError("RESCHEDULE_FAILED", "Rescheduling failed", ErrScheduleNotReschedulable)
	}

	scheduledPost.ScheduledAt = scheduledAt
	if err := sf.scheduledPostRepo.Update(ctx, scheduledPost); err != nil {
		errMsg := fmt.Sprintf("Rescheduling failed: %s", err.Error())
		_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionPostRescheduled, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("RESCHEDULE_FAILED", "Rescheduling failed", err)
	}

	msg := fmt.Sprintf("Schedule %s moved to %s", scheduledPost.UUID, scheduledAt.Format(time.RFC3339))
	_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionPostRescheduled, msg, true, nil, metadata)

	return &dto.RescheduleResponse{
		Message:       "Schedule updated successfully",
		ScheduledPost: ToScheduledPostDTO(*scheduledPost),
	}, nil
}

// Cancel stops a pending or failed schedule. The source post keeps its status;
// deleting the cancelled record is what hands the post back. The conditional
// update guards against the publish worker claiming the record at the same
// moment: if the worker wins, the caller gets a conflict instead of a silent
// double outcome.
func (sf *ScheduledPostFlowImpl) Cancel(ctx context.Context, request *dto.CancelScheduleRequest, metadata *ClientMetadata) (*dto.CancelScheduleResponse, error) {
	scheduledPost, err := sf.findOwnedSchedule(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CANCEL_SCHEDULE_FAILED", "Cancelling schedule failed", err)
	}

	if !scheduledPost.IsCancellable() {
		return nil, NewBusinessError("CANCEL_SCHEDULE_FAILED", "Cancelling schedule failed", ErrScheduleNotCancellable)
	}

	err = sf.scheduledPostRepo.UpdateStatusIf(ctx, scheduledPost.ID, scheduledPost.Status, models.ScheduledPostStatusCancelled, nil)
	if err == repository.ErrStatusConflict {
		err = ErrScheduleConflict
	}

	if err != nil {
		errMsg := fmt.Sprintf("Cancelling schedule failed: %s", err.Error())
		_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionScheduleCancelled, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CANCEL_SCHEDULE_FAILED", "Cancelling schedule failed", err)
	}

	msg := fmt.Sprintf("Schedule cancelled: %s", scheduledPost.UUID)
	_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionScheduleCancelled, msg, true, nil, metadata)

	return &dto.CancelScheduleResponse{
		Message: "Schedule cancelled successfully",
		Status:  models.ScheduledPostStatusCancelled.String(),
	}, nil
}

// Retry re-enqueues a failed schedule as pending, optionally at a new time.
// The retry counter only increments on publish attempts, not here.
func (sf *ScheduledPostFlowImpl) Retry(ctx context.Context, request *dto.RetryScheduleRequest, metadata *ClientMetadata) (*dto.RetryScheduleResponse, error) {
	scheduledPost, err := sf.findOwnedSchedule(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("RETRY_SCHEDULE_FAILED", "Retrying schedule failed", err)
	}

	if !scheduledPost.IsRetryable() {
		return nil, NewBusinessError("RETRY_SCHEDULE_FAILED", "Retrying schedule failed", ErrScheduleNotRetryable)
	}
	if scheduledPost.RetryCount >= sf.maxRetryCount {
		return nil, NewBusinessError("RETRY_SCHEDULE_FAILED", "Retrying schedule failed", ErrRetryLimitReached)
	}

	// The failure reason stays on the record until a publish succeeds
	fields := map[string]any{}
	if request.ScheduledAt != nil {
		scheduledAt := utils.TimeToUTC(*request.ScheduledAt)
		if !utils.IsFuture(scheduledAt) {
			return nil, NewBusinessError("RETRY_SCHEDULE_VALIDATION_FAILED", "Retry schedule validation failed", ErrScheduleTimeNotFuture)
		}
		fields["scheduled_at"] = scheduledAt
		scheduledPost.ScheduledAt = scheduledAt
	}

	if err := sf.scheduledPostRepo.UpdateStatusIf(ctx, scheduledPost.ID, models.ScheduledPostStatusFailed, models.ScheduledPostStatusPending, fields); err != nil {
		if err == repository.ErrStatusConflict {
			err = ErrScheduleConflict
		}
		errMsg := fmt.Sprintf("Retrying schedule failed: %s", err.Error())
		_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionScheduleRetried, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("RETRY_SCHEDULE_FAILED", "Retrying schedule failed", err)
	}

	scheduledPost.Status = models.ScheduledPostStatusPending

	msg := fmt.Sprintf("Schedule retried: %s (attempt %d of %d)", scheduledPost.UUID, scheduledPost.RetryCount+1, sf.maxRetryCount)
	_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionScheduleRetried, msg, true, nil, metadata)

	return &dto.RetryScheduleResponse{
		Message:       "Schedule queued for retry",
		ScheduledPost: ToScheduledPostDTO(*scheduledPost),
	}, nil
}

// Delete removes a finished schedule record. Active records must be
// cancelled first so the publish worker never works on a deleted row.
func (sf *ScheduledPostFlowImpl) Delete(ctx context.Context, request *dto.DeleteScheduleRequest, metadata *ClientMetadata) (*dto.DeleteScheduleResponse, error) {
	scheduledPost, err := sf.findOwnedSchedule(ctx, request.UUID, request.CustomerID)
	if err != nil {
		return nil, NewBusinessError("DELETE_SCHEDULE_FAILED", "Deleting schedule failed", err)
	}

	if !scheduledPost.Status.IsTerminal() {
		return nil, NewBusinessError("DELETE_SCHEDULE_FAILED", "Deleting schedule failed", ErrScheduleNotDeletable)
	}

	err = repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		if err := sf.scheduledPostRepo.Delete(ctx, scheduledPost.ID); err != nil {
			return err
		}

		// Hand the post back so it can be scheduled again; a no-op unless
		// the post is still sitting in scheduled
		return sf.releasePost(ctx, scheduledPost.PostID)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Deleting schedule failed: %s", err.Error())
		_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionScheduleDeleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("DELETE_SCHEDULE_FAILED", "Deleting schedule failed", err)
	}

	msg := fmt.Sprintf("Schedule deleted: %s", scheduledPost.UUID)
	_ = sf.LogScheduleAction(ctx, request.CustomerID, models.AuditActionScheduleDeleted, msg, true, nil, metadata)

	return &dto.DeleteScheduleResponse{
		Message: "Schedule deleted successfully",
	}, nil
}

// List returns the customer's scheduled posts page by page
func (sf *ScheduledPostFlowImpl) List(ctx context.Context, request *dto.ListScheduledPostsRequest) (*dto.ListScheduledPostsResponse, error) {
	page, limit, err := normalizePagination(request.Page, request.Limit)
	if err != nil {
		return nil, NewBusinessError("LIST_SCHEDULES_VALIDATION_FAILED", "List schedules validation failed", err)
	}

	filter := models.ScheduledPostFilter{
		CustomerID: &request.CustomerID,
	}
	if request.Filter != nil {
		if request.Filter.Status != nil {
			status := models.ScheduledPostStatus(*request.Filter.Status)
			filter.Status = &status
		}
		if request.Filter.Platform != nil {
			platform := models.Platform(*request.Filter.Platform)
			filter.Platform = &platform
		}
		filter.ScheduledAfter = request.Filter.ScheduledAfter
		filter.ScheduledBefore = request.Filter.ScheduledBefore
	}

	var orderBy string
	switch request.OrderBy {
	case "soonest":
		orderBy = "scheduled_at ASC"
	case "latest":
		orderBy = "scheduled_at DESC"
	case "oldest":
		orderBy = "created_at ASC"
	default:
		orderBy = "created_at DESC"
	}

	scheduledPosts, err := sf.scheduledPostRepo.ByFilter(ctx, filter, orderBy, limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("LIST_SCHEDULES_FAILED", "Listing schedules failed", err)
	}

	total, err := sf.scheduledPostRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_SCHEDULES_FAILED", "Listing schedules failed", err)
	}

	items := make([]dto.GetScheduledPostResponse, 0, len(scheduledPosts))
	for _, sp := range scheduledPosts {
		items = append(items, ToScheduledPostDTO(*sp))
	}

	return &dto.ListScheduledPostsResponse{
		Message: "Scheduled posts retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

// Get returns a single scheduled post owned by the customer
func (sf *ScheduledPostFlowImpl) Get(ctx context.Context, uuid string, customerID uint) (*dto.GetScheduledPostResponse, error) {
	scheduledPost, err := sf.findOwnedSchedule(ctx, uuid, customerID)
	if err != nil {
		return nil, NewBusinessError("GET_SCHEDULE_FAILED", "Getting schedule failed", err)
	}

	resp := ToScheduledPostDTO(*scheduledPost)
	return &resp, nil
}

// History returns a scheduled post along with every publish attempt made on it
func (sf *ScheduledPostFlowImpl) History(ctx context.Context, uuid string, customerID uint) (*dto.GetScheduledPostHistoryResponse, error) {
	scheduledPost, err := sf.findOwnedSchedule(ctx, uuid, customerID)
	if err != nil {
		return nil, NewBusinessError("GET_SCHEDULE_HISTORY_FAILED", "Getting schedule history failed", err)
	}

	attempts, err := sf.attemptRepo.ByScheduledPostID(ctx, scheduledPost.ID)
	if err != nil {
		return nil, NewBusinessError("GET_SCHEDULE_HISTORY_FAILED", "Getting schedule history failed", err)
	}

	attemptItems := make([]dto.GetPublishAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		attemptItems = append(attemptItems, ToPublishAttemptDTO(*a))
	}

	return &dto.GetScheduledPostHistoryResponse{
		ScheduledPost: ToScheduledPostDTO(*scheduledPost),
		Attempts:      attemptItems,
	}, nil
}

// ExportReport builds an Excel workbook of the customer's scheduled posts,
// optionally bounded by a scheduled-at date range
func (sf *ScheduledPostFlowImpl) ExportReport(ctx context.Context, request *dto.PublishReportRequest) (string, []byte, error) {
	if request.StartDate != nil && request.EndDate != nil && request.StartDate.After(*request.EndDate) {
		return "", nil, NewBusinessError("PUBLISH_REPORT_VALIDATION_FAILED", "Publish report validation failed", ErrStartDateAfterEndDate)
	}

	filter := models.ScheduledPostFilter{
		CustomerID:      &request.CustomerID,
		ScheduledAfter:  request.StartDate,
		ScheduledBefore: request.EndDate,
	}

	scheduledPosts, err := sf.scheduledPostRepo.ByFilter(ctx, filter, "scheduled_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("PUBLISH_REPORT_FAILED", "Building publish report failed", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Publish Report"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"uuid", "post_uuid", "platform", "content", "scheduled_at", "status", "retry_count", "last_attempt_at", "external_post_id", "error_message"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, sp := range scheduledPosts {
		postUUID := ""
		if sp.Post != nil {
			postUUID = sp.Post.UUID.String()
		}
		lastAttempt := ""
		if sp.LastAttemptAt != nil {
			lastAttempt = sp.LastAttemptAt.UTC().Format(time.RFC3339)
		}
		externalPostID := ""
		if sp.ExternalPostID != nil {
			externalPostID = *sp.ExternalPostID
		}
		errorMessage := ""
		if sp.ErrorMessage != nil {
			errorMessage = *sp.ErrorMessage
		}

		record := []any{
			sp.UUID.String(),
			postUUID,
			sp.Platform.String(),
			sp.Content,
			sp.ScheduledAt.UTC().Format(time.RFC3339),
			sp.Status.String(),
			sp.RetryCount,
			lastAttempt,
			externalPostID,
			errorMessage,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("publish_report_%s.xlsx", utils.UTCNow().Format("2006_01_02"))
	return filename, buf.Bytes(), nil
}

// Private helper methods

func (sf *ScheduledPostFlowImpl) findOwnedSchedule(ctx context.Context, uuid string, customerID uint) (*models.ScheduledPost, error) {
	scheduledPost, err := sf.scheduledPostRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if scheduledPost == nil {
		return nil, ErrScheduleNotFound
	}
	if scheduledPost.CustomerID != customerID {
		return nil, ErrScheduleAccessDenied
	}

	return scheduledPost, nil
}

// releasePost moves a post back to approved after its schedule goes away,
// so it can be scheduled again
func (sf *ScheduledPostFlowImpl) releasePost(ctx context.Context, postID uint) error {
	post, err := sf.postRepo.ByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.Status != models.PostStatusScheduled {
		return nil
	}

	return sf.postRepo.UpdateStatus(ctx, postID, models.PostStatusApproved)
}

func (sf *ScheduledPostFlowImpl) LogScheduleAction(ctx context.Context, customerID uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return sf.auditRepo.Save(ctx, audit)
}
