package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Amaterasu/app/services"
	"github.com/amirphl/Amaterasu/config"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/repository"
	"github.com/amirphl/Amaterasu/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal in-memory fakes for the repositories the worker touches. They keep
// the conditional-update contract (ErrStatusConflict on a status mismatch) so
// the claim and outcome transitions behave as they do against Postgres.

type stubScheduledPostRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.ScheduledPost
}

func newStubScheduledPostRepo() *stubScheduledPostRepo {
	return &stubScheduledPostRepo{records: make(map[uint]*models.ScheduledPost)}
}

func (f *stubScheduledPostRepo) add(sp *models.ScheduledPost) *models.ScheduledPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sp.ID = f.nextID
	c := *sp
	f.records[sp.ID] = &c
	return sp
}

func (f *stubScheduledPostRepo) get(id uint) *models.ScheduledPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *f.records[id]
	return &c
}

func (f *stubScheduledPostRepo) ByID(ctx context.Context, id uint) (*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	c := *sp
	return &c, nil
}

func (f *stubScheduledPostRepo) ByFilter(ctx context.Context, filter models.ScheduledPostFilter, orderBy string, limit, offset int) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *stubScheduledPostRepo) Save(ctx context.Context, sp *models.ScheduledPost) error {
	f.add(sp)
	return nil
}

func (f *stubScheduledPostRepo) SaveBatch(ctx context.Context, sps []*models.ScheduledPost) error {
	return nil
}

func (f *stubScheduledPostRepo) Count(ctx context.Context, filter models.ScheduledPostFilter) (int64, error) {
	return 0, nil
}

func (f *stubScheduledPostRepo) Exists(ctx context.Context, filter models.ScheduledPostFilter) (bool, error) {
	return false, nil
}

func (f *stubScheduledPostRepo) ByUUID(ctx context.Context, uuid string) (*models.ScheduledPost, error) {
	return nil, nil
}

func (f *stubScheduledPostRepo) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *stubScheduledPostRepo) ActiveByPostID(ctx context.Context, postID uint) (*models.ScheduledPost, error) {
	return nil, nil
}

func (f *stubScheduledPostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ScheduledPost
	for _, sp := range f.records {
		if sp.Status == models.ScheduledPostStatusPending && !sp.ScheduledAt.After(now) {
			c := *sp
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *stubScheduledPostRepo) ListRetryable(ctx context.Context, maxRetryCount, limit int) ([]*models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ScheduledPost
	for _, sp := range f.records {
		if sp.Status == models.ScheduledPostStatusFailed && sp.RetryCount < maxRetryCount {
			c := *sp
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *stubScheduledPostRepo) Update(ctx context.Context, sp *models.ScheduledPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *sp
	f.records[sp.ID] = &c
	return nil
}

func (f *stubScheduledPostRepo) UpdateStatusIf(ctx context.Context, id uint, from, to models.ScheduledPostStatus, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp, ok := f.records[id]
	if !ok || sp.Status != from {
		return repository.ErrStatusConflict
	}
	sp.Status = to
	for k, v := range fields {
		switch k {
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
		case "scheduled_at":
			sp.ScheduledAt = v.(time.Time)
		}
	}
	return nil
}

func (f *stubScheduledPostRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

type stubPostRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.Post
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{records: make(map[uint]*models.Post)}
}

func (f *stubPostRepo) add(p *models.Post) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	c := *p
	f.records[p.ID] = &c
	return p
}

func (f *stubPostRepo) ByID(ctx context.Context, id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (f *stubPostRepo) ByFilter(ctx context.Context, filter models.PostFilter, orderBy string, limit, offset int) ([]*models.Post, error) {
	return nil, nil
}

func (f *stubPostRepo) Save(ctx context.Context, p *models.Post) error {
	f.add(p)
	return nil
}

func (f *stubPostRepo) SaveBatch(ctx context.Context, ps []*models.Post) error { return nil }

func (f *stubPostRepo) Count(ctx context.Context, filter models.PostFilter) (int64, error) {
	return 0, nil
}

func (f *stubPostRepo) Exists(ctx context.Context, filter models.PostFilter) (bool, error) {
	return false, nil
}

func (f *stubPostRepo) ByUUID(ctx context.Context, uuid string) (*models.Post, error) {
	return nil, nil
}

func (f *stubPostRepo) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.Post, error) {
	return nil, nil
}

func (f *stubPostRepo) Update(ctx context.Context, p *models.Post) error { return nil }

func (f *stubPostRepo) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.records[id]; ok {
		p.Status = status
	}
	return nil
}

func (f *stubPostRepo) Delete(ctx context.Context, id uint) error { return nil }

type stubAttemptRepo struct {
	mu      sync.Mutex
	records []*models.PublishAttempt
}

func (f *stubAttemptRepo) ByID(ctx context.Context, id uint) (*models.PublishAttempt, error) {
	return nil, nil
}

func (f *stubAttemptRepo) ByFilter(ctx context.Context, filter models.PublishAttemptFilter, orderBy string, limit, offset int) ([]*models.PublishAttempt, error) {
	return nil, nil
}

func (f *stubAttemptRepo) Save(ctx context.Context, a *models.PublishAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *a
	f.records = append(f.records, &c)
	return nil
}

func (f *stubAttemptRepo) SaveBatch(ctx context.Context, as []*models.PublishAttempt) error {
	return nil
}

func (f *stubAttemptRepo) Count(ctx context.Context, filter models.PublishAttemptFilter) (int64, error) {
	return 0, nil
}

func (f *stubAttemptRepo) Exists(ctx context.Context, filter models.PublishAttemptFilter) (bool, error) {
	return false, nil
}

func (f *stubAttemptRepo) ByScheduledPostID(ctx context.Context, scheduledPostID uint) ([]*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range f.records {
		if a.ScheduledPostID == scheduledPostID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *stubAttemptRepo) ListByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.PublishAttempt, error) {
	return nil, nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	records []*models.AuditLog
}

func (f *stubAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (f *stubAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (f *stubAuditRepo) Save(ctx context.Context, a *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *a
	f.records = append(f.records, &c)
	return nil
}

func (f *stubAuditRepo) SaveBatch(ctx context.Context, as []*models.AuditLog) error { return nil }

func (f *stubAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	return 0, nil
}

func (f *stubAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	return false, nil
}

func (f *stubAuditRepo) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (f *stubAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditLog
	for _, a := range f.records {
		if a.Action == action {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *stubAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

type workerEnv struct {
	worker        *PublishScheduler
	scheduledRepo *stubScheduledPostRepo
	postRepo      *stubPostRepo
	attemptRepo   *stubAttemptRepo
	auditRepo     *stubAuditRepo
	client        *services.MockPlatformClient
}

func newWorkerEnv(cfg config.SchedulerConfig) *workerEnv {
	env := &workerEnv{
		scheduledRepo: newStubScheduledPostRepo(),
		postRepo:      newStubPostRepo(),
		attemptRepo:   &stubAttemptRepo{},
		auditRepo:     &stubAuditRepo{},
		client:        services.NewMockPlatformClient(models.PlatformLinkedIn),
	}
	registry := services.PlatformClientRegistry{
		models.PlatformLinkedIn: env.client,
	}
	env.worker = NewPublishScheduler(
		env.scheduledRepo,
		env.postRepo,
		env.attemptRepo,
		env.auditRepo,
		registry,
		nil,
		nil,
		cfg,
		config.LoggingConfig{},
	)
	return env
}

func (env *workerEnv) addDueRecord(t *testing.T, status models.ScheduledPostStatus, retryCount int) *models.ScheduledPost {
	t.Helper()
	post := env.postRepo.add(&models.Post{
		UUID:       uuid.New(),
		CustomerID: 1,
		Content:    "Shipping is a feature",
		Status:     models.PostStatusScheduled,
	})
	return env.scheduledRepo.add(&models.ScheduledPost{
		UUID:        uuid.New(),
		PostID:      post.ID,
		CustomerID:  1,
		Platform:    models.PlatformLinkedIn,
		Content:     post.Content,
		ScheduledAt: utils.UTCNowAdd(-time.Minute),
		Status:      status,
		RetryCount:  retryCount,
		CreatedAt:   utils.UTCNow(),
	})
}

func TestDispatchPublishesDueRecord(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{})
	env.client.NextPostID = "urn:li:share:42"
	sp := env.addDueRecord(t, models.ScheduledPostStatusPending, 0)

	require.NoError(t, env.worker.dispatch(context.Background(), sp))

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusPublished, stored.Status)
	require.NotNil(t, stored.ExternalPostID)
	assert.Equal(t, "urn:li:share:42", *stored.ExternalPostID)
	// Only failed attempts bump the retry counter
	assert.Equal(t, 0, stored.RetryCount)
	assert.NotNil(t, stored.LastAttemptAt)
	assert.Nil(t, stored.ErrorMessage)

	attempts, err := env.attemptRepo.ByScheduledPostID(context.Background(), sp.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.PublishAttemptResultSuccess, attempts[0].Result)

	post, err := env.postRepo.ByID(context.Background(), sp.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)

	audits, err := env.auditRepo.ListByAction(context.Background(), models.AuditActionPublishSucceeded, 0, 0)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestDispatchRecordsFailure(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{})
	env.client.PublishErr = errors.New("platform unavailable")
	sp := env.addDueRecord(t, models.ScheduledPostStatusPending, 0)

	require.NoError(t, env.worker.dispatch(context.Background(), sp))

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "platform unavailable")
	assert.Equal(t, 1, stored.RetryCount)

	attempts, err := env.attemptRepo.ByScheduledPostID(context.Background(), sp.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.PublishAttemptResultFailure, attempts[0].Result)

	// The post stays scheduled until the record is published or cancelled
	post, err := env.postRepo.ByID(context.Background(), sp.PostID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, post.Status)

	audits, err := env.auditRepo.ListByAction(context.Background(), models.AuditActionPublishFailed, 0, 0)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestDispatchSkipsRecordClaimedElsewhere(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{})
	sp := env.addDueRecord(t, models.ScheduledPostStatusPending, 0)

	// Another worker claimed the record after this one listed it
	require.NoError(t, env.scheduledRepo.UpdateStatusIf(context.Background(), sp.ID, models.ScheduledPostStatusPending, models.ScheduledPostStatusPublishing, nil))

	require.NoError(t, env.worker.dispatch(context.Background(), sp))

	assert.Empty(t, env.client.Published)
	attempts, err := env.attemptRepo.ByScheduledPostID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestDispatchFailsRecordWithoutClient(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{})
	sp := env.addDueRecord(t, models.ScheduledPostStatusPending, 0)
	sp.Platform = models.PlatformX
	require.NoError(t, env.scheduledRepo.Update(context.Background(), sp))

	require.NoError(t, env.worker.dispatch(context.Background(), sp))

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "no client registered")
}

func TestProcessRetriesRequeuesAfterBackoff(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{RetryBackoff: 5 * time.Minute})
	sp := env.addDueRecord(t, models.ScheduledPostStatusFailed, 1)
	lastAttempt := utils.UTCNowAdd(-10 * time.Minute)
	sp.LastAttemptAt = &lastAttempt
	msg := "platform unavailable"
	sp.ErrorMessage = &msg
	require.NoError(t, env.scheduledRepo.Update(context.Background(), sp))

	env.worker.processRetries(context.Background())

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusPending, stored.Status)
	// The failure reason stays visible until a publish succeeds
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, msg, *stored.ErrorMessage)
}

func TestProcessRetriesHonorsBackoffWindow(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{RetryBackoff: 5 * time.Minute})
	sp := env.addDueRecord(t, models.ScheduledPostStatusFailed, 1)
	lastAttempt := utils.UTCNowAdd(-time.Minute)
	sp.LastAttemptAt = &lastAttempt
	require.NoError(t, env.scheduledRepo.Update(context.Background(), sp))

	env.worker.processRetries(context.Background())

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusFailed, stored.Status)
}

func TestProcessRetriesRespectsRetryLimit(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{MaxRetryCount: 3, RetryBackoff: 5 * time.Minute})
	sp := env.addDueRecord(t, models.ScheduledPostStatusFailed, 3)
	lastAttempt := utils.UTCNowAdd(-time.Hour)
	sp.LastAttemptAt = &lastAttempt
	require.NoError(t, env.scheduledRepo.Update(context.Background(), sp))

	env.worker.processRetries(context.Background())

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusFailed, stored.Status)
}

func TestFailedPublishRecoversThroughRetry(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{RetryBackoff: 5 * time.Minute})
	env.client.PublishErr = errors.New("platform unavailable")
	env.client.NextPostID = "urn:li:share:99"
	sp := env.addDueRecord(t, models.ScheduledPostStatusPending, 0)

	require.NoError(t, env.worker.dispatch(context.Background(), sp))
	assert.Equal(t, models.ScheduledPostStatusFailed, env.scheduledRepo.get(sp.ID).Status)

	// Backoff window elapses, the platform comes back
	failed := env.scheduledRepo.get(sp.ID)
	lastAttempt := utils.UTCNowAdd(-10 * time.Minute)
	failed.LastAttemptAt = &lastAttempt
	require.NoError(t, env.scheduledRepo.Update(context.Background(), failed))
	env.client.PublishErr = nil

	env.worker.processRetries(context.Background())
	requeued := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusPending, requeued.Status)

	require.NoError(t, env.worker.dispatch(context.Background(), requeued))

	stored := env.scheduledRepo.get(sp.ID)
	assert.Equal(t, models.ScheduledPostStatusPublished, stored.Status)
	// One failed attempt happened, so the counter ends at one
	assert.Equal(t, 1, stored.RetryCount)
	assert.Nil(t, stored.ErrorMessage)
	require.NotNil(t, stored.ExternalPostID)
	assert.Equal(t, "urn:li:share:99", *stored.ExternalPostID)

	attempts, err := env.attemptRepo.ByScheduledPostID(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestStartStopsOnCancel(t *testing.T) {
	env := newWorkerEnv(config.SchedulerConfig{PollInterval: 10 * time.Millisecond})
	env.client.NextPostID = "urn:li:share:7"
	sp := env.addDueRecord(t, models.ScheduledPostStatusPending, 0)

	stop := env.worker.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool {
		return env.scheduledRepo.get(sp.ID).Status == models.ScheduledPostStatusPublished
	}, 2*time.Second, 10*time.Millisecond)
}
