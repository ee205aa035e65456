package businessflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Amaterasu/app/dto"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/repository"
	"github.com/amirphl/Amaterasu/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repository fakes. They honor the same contracts as the GORM
// implementations (nil for missing records, ErrStatusConflict on a lost
// conditional update) without a database.

type fakeScheduledPostRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.ScheduledPost

	// beforeUpdateStatusIf runs before the conditional update applies,
	// used to simulate a concurrent worker winning the claim
	beforeUpdateStatusIf func(id uint)
}

func newFakeScheduledPostRepo() *fakeScheduledPostRepo {
	return &fakeScheduledPostRepo{records: make(map[uint]*models.ScheduledPost)}
}

func cloneScheduledPost(sp *models.ScheduledPost) *models.ScheduledPost {
	c := *sp
	return &c
}

func (f *fakeScheduledPostRepo) matches(sp *models.ScheduledPost, filter models.ScheduledPostFilter) bool {
	if filter.ID != nil && sp.ID != *filter.ID {
		return false
	}
	if filter.UUID != nil && sp.UUID != *filter.UUID {
		return false
	}
	if filter.PostID != nil && sp.PostID != *filter.PostID {
		return false
	}
	if filter.CustomerID != nil && sp.CustomerID != *filter.CustomerID {
		return false
	}
	if filter.Platform != nil && sp.Platform != *filter.Platform {
		return false
	}
	if filter.Status != nil && sp.Status != *filter.Status {
		return false
	}
	if filter.DueBefore != nil && sp.ScheduledAt.After(*filter.DueBefore) {
		return false
	}
	if filter.ScheduledAfter != nil && sp.ScheduledAt.Before(*filter.ScheduledAfter) {
		return false
	}
	if filter.ScheduledBefore != nil && sp.ScheduledAt.After(*filter.ScheduledBefore) {
		return false
	}
	if filter.MaxRetryCount != nil && sp.RetryCount >= *filter.MaxRetryCount {
		return false
	}
	return true
}

func (f *fakeScheduledPostRepo) ByID(ctx context.Context, id uint) (*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return cloneScheduledPost(sp), nil
}

func (f *fakeScheduledPostRepo) ByFilter(ctx context.Context, filter models.ScheduledPostFilter, orderBy string, limit, offset int) ([]*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ScheduledPost
	for _, sp := range f.records {
		if f.matches(sp, filter) {
			out = append(out, cloneScheduledPost(sp))
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeScheduledPostRepo) Save(ctx context.Context, sp *models.ScheduledPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sp.ID = f.nextID
	f.records[sp.ID] = cloneScheduledPost(sp)
	return nil
}

func (f *fakeScheduledPostRepo) SaveBatch(ctx context.Context, sps []*models.ScheduledPost) error {
	for _, sp := range sps {
		if err := f.Save(ctx, sp); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeScheduledPostRepo) Count(ctx context.Context, filter models.ScheduledPostFilter) (int64, error) {
	out, _ := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (f *fakeScheduledPostRepo) Exists(ctx context.Context, filter models.ScheduledPostFilter) (bool, error) {
	count, _ := f.Count(ctx, filter)
	return count > 0, nil
}

func (f *fakeScheduledPostRepo) ByUUID(ctx context.Context, raw string) (*models.ScheduledPost, error) {
	parsed, err := utils.ParseUUID(raw)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sp := range f.records {
		if sp.UUID == parsed {
			return cloneScheduledPost(sp), nil
		}
	}
	return nil, nil
}

func (f *fakeScheduledPostRepo) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.ScheduledPost, error) {
	return f.ByFilter(ctx, models.ScheduledPostFilter{CustomerID: &customerID}, "", limit, offset)
}

func (f *fakeScheduledPostRepo) ActiveByPostID(ctx context.Context, postID uint) (*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sp := range f.records {
		if sp.PostID == postID && !sp.Status.IsTerminal() {
			return cloneScheduledPost(sp), nil
		}
	}
	return nil, nil
}

func (f *fakeScheduledPostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	status := models.ScheduledPostStatusPending
	return f.ByFilter(ctx, models.ScheduledPostFilter{Status: &status, DueBefore: &now}, "", limit, 0)
}

func (f *fakeScheduledPostRepo) ListRetryable(ctx context.Context, maxRetryCount, limit int) ([]*models.ScheduledPost, error) {
	status := models.ScheduledPostStatusFailed
	return f.ByFilter(ctx, models.ScheduledPostFilter{Status: &status, MaxRetryCount: &maxRetryCount}, "", limit, 0)
}

func (f *fakeScheduledPostRepo) Update(ctx context.Context, sp *models.ScheduledPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[sp.ID] = cloneScheduledPost(sp)
	return nil
}

func (f *fakeScheduledPostRepo) UpdateStatusIf(ctx context.Context, id uint, from, to models.ScheduledPostStatus, fields map[string]any) error {
	if f.beforeUpdateStatusIf != nil {
		f.beforeUpdateStatusIf(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	sp, ok := f.records[id]
	if !ok || sp.Status != from {
		return repository.ErrStatusConflict
	}
	sp.Status = to
	for k, v := range fields {
		switch k {
		case "scheduled_at":
			sp.ScheduledAt = v.(time.Time)
		case "error_message":
			if v == nil {
				sp.ErrorMessage = nil
			} else {
				msg := v.(string)
				sp.ErrorMessage = &msg
			}
		case "retry_count":
			sp.RetryCount = v.(int)
		case "external_post_id":
			epid := v.(string)
			sp.ExternalPostID = &epid
		case "last_attempt_at":
			at := v.(time.Time)
			sp.LastAttemptAt = &at
		}
	}
	return nil
}

func (f *fakeScheduledPostRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

type fakePostRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{records: make(map[uint]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	return &c
}

func (f *fakePostRepo) ByID(ctx context.Context, id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (f *fakePostRepo) ByFilter(ctx context.Context, filter models.PostFilter, orderBy string, limit, offset int) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Post
	for _, p := range f.records {
		if filter.CustomerID != nil && p.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, clonePost(p))
	}
	return out, nil
}

func (f *fakePostRepo) Save(ctx context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.records[p.ID] = clonePost(p)
	return nil
}

func (f *fakePostRepo) SaveBatch(ctx context.Context, ps []*models.Post) error {
	for _, p := range ps {
		if err := f.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePostRepo) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	out, _ := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (f *fakePostRepo) Exists(ctx context.Context, filter models.PostFilter) (bool, error) {
	count, _ := f.Count(ctx, filter)
	return count > 0, nil
}

func (f *fakePostRepo) ByUUID(ctx context.Context, raw string) (*models.Post, error) {
	parsed, err := utils.ParseUUID(raw)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.records {
		if p.UUID == parsed {
			return clonePost(p), nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.Post, error) {
	return f.ByFilter(ctx, models.PostFilter{CustomerID: &customerID}, "", limit, offset)
}

func (f *fakePostRepo) Update(ctx context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[p.ID] = clonePost(p)
	return nil
}

func (f *fakePostRepo) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.records[id]; ok {
		p.Status = status
	}
	return nil
}

func (f *fakePostRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

type fakeAttemptRepo struct {
	mu      sync.Mutex
	nextID  uint
	records []*models.PublishAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{}
}

func (f *fakeAttemptRepo) ByID(ctx context.Context, id uint) (*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.records {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeAttemptRepo) ByFilter(ctx context.Context, filter models.PublishAttemptFilter, orderBy string, limit, offset int) ([]*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range f.records {
		if filter.ScheduledPostID != nil && a.ScheduledPostID != *filter.ScheduledPostID {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeAttemptRepo) Save(ctx context.Context, a *models.PublishAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	c := *a
	f.records = append(f.records, &c)
	return nil
}

func (f *fakeAttemptRepo) SaveBatch(ctx context.Context, as []*models.PublishAttempt) error {
	for _, a := range as {
		if err := f.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAttemptRepo) Count(ctx context.Context, filter models.PublishAttemptFilter) (int64, error) {
	out, _ := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (f *fakeAttemptRepo) Exists(ctx context.Context, filter models.PublishAttemptFilter) (bool, error) {
	count, _ := f.Count(ctx, filter)
	return count > 0, nil
}

func (f *fakeAttemptRepo) ByScheduledPostID(ctx context.Context, scheduledPostID uint) ([]*models.PublishAttempt, error) {
	return f.ByFilter(ctx, models.PublishAttemptFilter{ScheduledPostID: &scheduledPostID}, "", 0, 0)
}

func (f *fakeAttemptRepo) ListByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.PublishAttempt, error) {
	return nil, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	records []*models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (f *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditLog
	for _, a := range f.records {
		if filter.Action != nil && a.Action != *filter.Action {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeAuditRepo) Save(ctx context.Context, a *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *a
	f.records = append(f.records, &c)
	return nil
}

func (f *fakeAuditRepo) SaveBatch(ctx context.Context, as []*models.AuditLog) error {
	for _, a := range as {
		if err := f.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	out, _ := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (f *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	count, _ := f.Count(ctx, filter)
	return count > 0, nil
}

func (f *fakeAuditRepo) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (f *fakeAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	return f.ByFilter(ctx, models.AuditLogFilter{Action: &action}, "", limit, offset)
}

func (f *fakeAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

// Test scaffolding

type scheduledPostFlowEnv struct {
	flow          ScheduledPostFlow
	scheduledRepo *fakeScheduledPostRepo
	postRepo      *fakePostRepo
	attemptRepo   *fakeAttemptRepo
	auditRepo     *fakeAuditRepo
}

func newScheduledPostFlowEnv(maxRetryCount int) *scheduledPostFlowEnv {
	env := &scheduledPostFlowEnv{
		scheduledRepo: newFakeScheduledPostRepo(),
		postRepo:      newFakePostRepo(),
		attemptRepo:   newFakeAttemptRepo(),
		auditRepo:     newFakeAuditRepo(),
	}
	env.flow = NewScheduledPostFlow(env.scheduledRepo, env.postRepo, env.attemptRepo, env.auditRepo, maxRetryCount, nil)
	return env
}

func (env *scheduledPostFlowEnv) createPost(t *testing.T, customerID uint, status models.PostStatus) *models.Post {
	t.Helper()
	post := &models.Post{
		UUID:       uuid.New(),
		CustomerID: customerID,
		Content:    "An insight worth sharing",
		Status:     status,
		CreatedAt:  utils.UTCNow(),
	}
	require.NoError(t, env.postRepo.Save(context.Background(), post))
	return post
}

func (env *scheduledPostFlowEnv) createSchedule(t *testing.T, customerID uint, post *models.Post, status models.ScheduledPostStatus, retryCount int) *models.ScheduledPost {
	t.Helper()
	sp := &models.ScheduledPost{
		UUID:        uuid.New(),
		PostID:      post.ID,
		CustomerID:  customerID,
		Platform:    models.PlatformLinkedIn,
		Content:     post.Content,
		ScheduledAt: utils.UTCNowAdd(time.Hour),
		Status:      status,
		RetryCount:  retryCount,
		CreatedAt:   utils.UTCNow(),
	}
	require.NoError(t, env.scheduledRepo.Save(context.Background(), sp))
	return sp
}

var testMetadata = NewClientMetadata("192.0.2.1", "test-agent")

func TestScheduleApprovedPost(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusApproved)

	resp, err := env.flow.Schedule(context.Background(), &dto.SchedulePostRequest{
		CustomerID:  1,
		PostUUID:    post.UUID.String(),
		Platform:    "linkedin",
		ScheduledAt: utils.UTCNowAdd(2 * time.Hour),
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, models.ScheduledPostStatusPending.String(), resp.ScheduledPost.Status)
	assert.Equal(t, post.Content, resp.ScheduledPost.Content)

	stored, err := env.postRepo.ByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, stored.Status)

	audits, err := env.auditRepo.ListByAction(context.Background(), models.AuditActionPostScheduled, 0, 0)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestScheduleRejectsDraftPost(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusDraft)

	_, err := env.flow.Schedule(context.Background(), &dto.SchedulePostRequest{
		CustomerID:  1,
		PostUUID:    post.UUID.String(),
		Platform:    "linkedin",
		ScheduledAt: utils.UTCNowAdd(time.Hour),
	}, testMetadata)

	assert.True(t, IsPostNotApproved(err))
}

func TestScheduleRejectsPastTime(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusApproved)

	_, err := env.flow.Schedule(context.Background(), &dto.SchedulePostRequest{
		CustomerID:  1,
		PostUUID:    post.UUID.String(),
		Platform:    "linkedin",
		ScheduledAt: utils.UTCNowAdd(-time.Minute),
	}, testMetadata)

	assert.True(t, IsScheduleTimeNotFuture(err))
}

func TestScheduleRejectsInvalidPlatform(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusApproved)

	_, err := env.flow.Schedule(context.Background(), &dto.SchedulePostRequest{
		CustomerID:  1,
		PostUUID:    post.UUID.String(),
		Platform:    "myspace",
		ScheduledAt: utils.UTCNowAdd(time.Hour),
	}, testMetadata)

	assert.Error(t, err)
}

func TestScheduleRejectsForeignPost(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 2, models.PostStatusApproved)

	_, err := env.flow.Schedule(context.Background(), &dto.SchedulePostRequest{
		CustomerID:  1,
		PostUUID:    post.UUID.String(),
		Platform:    "linkedin",
		ScheduledAt: utils.UTCNowAdd(time.Hour),
	}, testMetadata)

	assert.True(t, IsPostAccessDenied(err))
}

func TestScheduleRejectsAlreadyScheduledPost(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusApproved)
	env.createSchedule(t, 1, post, models.ScheduledPostStatusPending, 0)

	_, err := env.flow.Schedule(context.Background(), &dto.SchedulePostRequest{
		CustomerID:  1,
		PostUUID:    post.UUID.String(),
		Platform:    "linkedin",
		ScheduledAt: utils.UTCNowAdd(time.Hour),
	}, testMetadata)

	assert.True(t, IsPostAlreadyScheduled(err))
}

func TestCancelPendingScheduleKeepsPost(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPending, 0)

	resp, err := env.flow.Cancel(context.Background(), &dto.CancelScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)

	stored, err := env.scheduledRepo.ByID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledPostStatusCancelled, stored.Status)

	// The source post is untouched until the record is deleted
	keptPost, err := env.postRepo.ByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, keptPost.Status)
}

func TestCancelLosesRaceAgainstWorker(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPending, 0)

	// The worker claims the record between the ownership check and the
	// conditional update
	env.scheduledRepo.beforeUpdateStatusIf = func(id uint) {
		env.scheduledRepo.mu.Lock()
		env.scheduledRepo.records[id].Status = models.ScheduledPostStatusPublishing
		env.scheduledRepo.mu.Unlock()
	}

	_, err := env.flow.Cancel(context.Background(), &dto.CancelScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsScheduleConflict(err))
}

func TestCancelRejectsPublishedSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusPublished)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPublished, 1)

	_, err := env.flow.Cancel(context.Background(), &dto.CancelScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsScheduleNotCancellable(err))
}

func TestRetryFailedSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusFailed, 1)
	failure := "rate limited"
	env.scheduledRepo.records[sp.ID].ErrorMessage = &failure

	resp, err := env.flow.Retry(context.Background(), &dto.RetryScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, models.ScheduledPostStatusPending.String(), resp.ScheduledPost.Status)

	stored, err := env.scheduledRepo.ByID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledPostStatusPending, stored.Status)
	// The failure reason survives until a publish succeeds
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, failure, *stored.ErrorMessage)
	// The retry counter only moves on publish attempts
	assert.Equal(t, 1, stored.RetryCount)
}

func TestRetryWithNewTime(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusFailed, 0)

	newTime := utils.UTCNowAdd(3 * time.Hour)
	_, err := env.flow.Retry(context.Background(), &dto.RetryScheduleRequest{
		UUID:        sp.UUID.String(),
		CustomerID:  1,
		ScheduledAt: &newTime,
	}, testMetadata)

	require.NoError(t, err)
	stored, err := env.scheduledRepo.ByID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, newTime, stored.ScheduledAt, time.Second)
}

func TestRetryRejectsWhenLimitReached(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusFailed, 3)

	_, err := env.flow.Retry(context.Background(), &dto.RetryScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsRetryLimitReached(err))
}

func TestRetryRejectsPendingSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPending, 0)

	_, err := env.flow.Retry(context.Background(), &dto.RetryScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsScheduleNotRetryable(err))
}

func TestRescheduleMovesPendingSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPending, 0)

	newTime := utils.UTCNowAdd(6 * time.Hour)
	resp, err := env.flow.Reschedule(context.Background(), &dto.RescheduleRequest{
		UUID:        sp.UUID.String(),
		CustomerID:  1,
		ScheduledAt: newTime,
	}, testMetadata)

	require.NoError(t, err)
	assert.WithinDuration(t, newTime, resp.ScheduledPost.ScheduledAt, time.Second)
}

func TestRescheduleRejectsFailedSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusFailed, 1)

	_, err := env.flow.Reschedule(context.Background(), &dto.RescheduleRequest{
		UUID:        sp.UUID.String(),
		CustomerID:  1,
		ScheduledAt: utils.UTCNowAdd(time.Hour),
	}, testMetadata)

	assert.True(t, IsScheduleNotReschedulable(err))
}

func TestRescheduleRejectsPublishingSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPublishing, 0)

	_, err := env.flow.Reschedule(context.Background(), &dto.RescheduleRequest{
		UUID:        sp.UUID.String(),
		CustomerID:  1,
		ScheduledAt: utils.UTCNowAdd(time.Hour),
	}, testMetadata)

	assert.True(t, IsScheduleNotReschedulable(err))
}

func TestDeleteRejectsActiveSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPending, 0)

	_, err := env.flow.Delete(context.Background(), &dto.DeleteScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsScheduleNotDeletable(err))
}

func TestDeleteCancelledScheduleReleasesPost(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusCancelled, 0)

	_, err := env.flow.Delete(context.Background(), &dto.DeleteScheduleRequest{
		UUID:       sp.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	require.NoError(t, err)

	stored, err := env.scheduledRepo.ByID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	releasedPost, err := env.postRepo.ByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusApproved, releasedPost.Status)
}

func TestGetRejectsForeignSchedule(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 2, models.PostStatusScheduled)
	sp := env.createSchedule(t, 2, post, models.ScheduledPostStatusPending, 0)

	_, err := env.flow.Get(context.Background(), sp.UUID.String(), 1)
	assert.True(t, IsScheduleAccessDenied(err))
}

func TestHistoryReturnsAttempts(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusPublished)
	sp := env.createSchedule(t, 1, post, models.ScheduledPostStatusPublished, 1)

	require.NoError(t, env.attemptRepo.Save(context.Background(), &models.PublishAttempt{
		ScheduledPostID: sp.ID,
		Platform:        models.PlatformLinkedIn,
		Result:          models.PublishAttemptResultSuccess,
		AttemptedAt:     utils.UTCNow(),
	}))

	resp, err := env.flow.History(context.Background(), sp.UUID.String(), 1)
	require.NoError(t, err)
	assert.Len(t, resp.Attempts, 1)
	assert.Equal(t, models.PublishAttemptResultSuccess, resp.Attempts[0].Result)
}

func TestListPagination(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusScheduled)
	for range 5 {
		env.createSchedule(t, 1, post, models.ScheduledPostStatusPublished, 0)
	}

	resp, err := env.flow.List(context.Background(), &dto.ListScheduledPostsRequest{
		CustomerID: 1,
		Page:       1,
		Limit:      2,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestExportReportRejectsInvertedRange(t *testing.T) {
	env := newScheduledPostFlowEnv(3)

	start := utils.UTCNow()
	end := start.Add(-time.Hour)
	_, _, err := env.flow.ExportReport(context.Background(), &dto.PublishReportRequest{
		CustomerID: 1,
		StartDate:  &start,
		EndDate:    &end,
	})

	assert.True(t, IsStartDateAfterEndDate(err))
}

func TestExportReportProducesWorkbook(t *testing.T) {
	env := newScheduledPostFlowEnv(3)
	post := env.createPost(t, 1, models.PostStatusPublished)
	env.createSchedule(t, 1, post, models.ScheduledPostStatusPublished, 1)

	filename, content, err := env.flow.ExportReport(context.Background(), &dto.PublishReportRequest{
		CustomerID: 1,
	})

	require.NoError(t, err)
	assert.Contains(t, filename, "publish_report_")
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, content)
}
