package businessflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/amirphl/Amaterasu/app/dto"
	"github.com/amirphl/Amaterasu/app/services"
	"github.com/amirphl/Amaterasu/models"
	"github.com/amirphl/Amaterasu/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInsightRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.Insight
}

func newFakeInsightRepo() *fakeInsightRepo {
	return &fakeInsightRepo{records: make(map[uint]*models.Insight)}
}

func cloneInsight(i *models.Insight) *models.Insight {
	c := *i
	return &c
}

func (f *fakeInsightRepo) ByID(ctx context.Context, id uint) (*models.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return cloneInsight(i), nil
}

func (f *fakeInsightRepo) ByFilter(ctx context.Context, filter models.InsightFilter, orderBy string, limit, offset int) ([]*models.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Insight
	for _, i := range f.records {
		if filter.TranscriptID != nil && i.TranscriptID != *filter.TranscriptID {
			continue
		}
		if filter.CustomerID != nil && i.CustomerID != *filter.CustomerID {
			continue
		}
		out = append(out, cloneInsight(i))
	}
	return out, nil
}

func (f *fakeInsightRepo) Save(ctx context.Context, i *models.Insight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	i.ID = f.nextID
	f.records[i.ID] = cloneInsight(i)
	return nil
}

func (f *fakeInsightRepo) SaveBatch(ctx context.Context, is []*models.Insight) error {
	for _, i := range is {
		if err := f.Save(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeInsightRepo) Count(ctx context.Context, filter models.InsightFilter) (int64, error) {
	out, _ := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (f *fakeInsightRepo) Exists(ctx context.Context, filter models.InsightFilter) (bool, error) {
	count, _ := f.Count(ctx, filter)
	return count > 0, nil
}

func (f *fakeInsightRepo) ByUUID(ctx context.Context, raw string) (*models.Insight, error) {
	parsed, err := utils.ParseUUID(raw)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.records {
		if i.UUID == parsed {
			return cloneInsight(i), nil
		}
	}
	return nil, nil
}

func (f *fakeInsightRepo) ByTranscriptID(ctx context.Context, transcriptID uint, limit, offset int) ([]*models.Insight, error) {
	return f.ByFilter(ctx, models.InsightFilter{TranscriptID: &transcriptID}, "", limit, offset)
}

func (f *fakeInsightRepo) UpdateStatus(ctx context.Context, id uint, status models.InsightStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.records[id]; ok {
		i.Status = status
	}
	return nil
}

// stubLLMService returns canned content without calling a language model
type stubLLMService struct {
	insights    []services.ExtractedInsight
	postContent string
	err         error

	generateCalls int
}

func (s *stubLLMService) ExtractInsights(ctx context.Context, title, transcript string, maxInsights int) ([]services.ExtractedInsight, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.insights, nil
}

func (s *stubLLMService) GeneratePost(ctx context.Context, insight, platform string, tone *string) (string, error) {
	s.generateCalls++
	if s.err != nil {
		return "", s.err
	}
	return s.postContent, nil
}

type postFlowEnv struct {
	flow        PostFlow
	postRepo    *fakePostRepo
	insightRepo *fakeInsightRepo
	auditRepo   *fakeAuditRepo
	llm         *stubLLMService
}

func newPostFlowEnv() *postFlowEnv {
	env := &postFlowEnv{
		postRepo:    newFakePostRepo(),
		insightRepo: newFakeInsightRepo(),
		auditRepo:   newFakeAuditRepo(),
		llm:         &stubLLMService{postContent: "A generated draft"},
	}
	env.flow = NewPostFlow(env.postRepo, env.insightRepo, env.auditRepo, env.llm, nil)
	return env
}

func (env *postFlowEnv) createInsight(t *testing.T, customerID uint) *models.Insight {
	t.Helper()
	insight := &models.Insight{
		UUID:         uuid.New(),
		TranscriptID: 1,
		CustomerID:   customerID,
		Content:      "Customers churn when onboarding takes over a week",
		Score:        0.9,
		Status:       models.InsightStatusAccepted,
		CreatedAt:    utils.UTCNow(),
	}
	require.NoError(t, env.insightRepo.Save(context.Background(), insight))
	return insight
}

func TestCreatePostDraft(t *testing.T) {
	env := newPostFlowEnv()

	resp, err := env.flow.Create(context.Background(), &dto.CreatePostRequest{
		CustomerID: 1,
		Content:    "Hand-written draft",
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft.String(), resp.Post.Status)
	assert.Equal(t, "Hand-written draft", resp.Post.Content)

	audits, err := env.auditRepo.ListByAction(context.Background(), models.AuditActionPostCreated, 0, 0)
	require.NoError(t, err)
	assert.Len(t, audits, 1)
}

func TestCreatePostRequiresContent(t *testing.T) {
	env := newPostFlowEnv()

	_, err := env.flow.Create(context.Background(), &dto.CreatePostRequest{
		CustomerID: 1,
		Content:    "",
	}, testMetadata)

	assert.ErrorIs(t, err, ErrPostContentRequired)
}

func TestCreatePostLinksInsight(t *testing.T) {
	env := newPostFlowEnv()
	insight := env.createInsight(t, 1)
	insightUUID := insight.UUID.String()

	resp, err := env.flow.Create(context.Background(), &dto.CreatePostRequest{
		CustomerID:  1,
		InsightUUID: &insightUUID,
		Content:     "Draft from an insight",
	}, testMetadata)

	require.NoError(t, err)
	require.NotNil(t, resp.Post.InsightUUID)
	assert.Equal(t, insightUUID, *resp.Post.InsightUUID)
}

func TestCreatePostRejectsForeignInsight(t *testing.T) {
	env := newPostFlowEnv()
	insight := env.createInsight(t, 2)
	insightUUID := insight.UUID.String()

	_, err := env.flow.Create(context.Background(), &dto.CreatePostRequest{
		CustomerID:  1,
		InsightUUID: &insightUUID,
		Content:     "Draft from an insight",
	}, testMetadata)

	assert.True(t, IsInsightAccessDenied(err))
}

func TestGeneratePostFromInsight(t *testing.T) {
	env := newPostFlowEnv()
	insight := env.createInsight(t, 1)

	resp, err := env.flow.Generate(context.Background(), &dto.GeneratePostRequest{
		CustomerID:  1,
		InsightUUID: insight.UUID.String(),
		Platform:    "linkedin",
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, "A generated draft", resp.Post.Content)
	assert.Equal(t, models.PostStatusDraft.String(), resp.Post.Status)
	assert.Equal(t, 1, env.llm.generateCalls)
}

func TestGeneratePostSurfacesModelError(t *testing.T) {
	env := newPostFlowEnv()
	env.llm.err = errors.New("model overloaded")
	insight := env.createInsight(t, 1)

	_, err := env.flow.Generate(context.Background(), &dto.GeneratePostRequest{
		CustomerID:  1,
		InsightUUID: insight.UUID.String(),
		Platform:    "linkedin",
	}, testMetadata)

	assert.Error(t, err)
}

func TestUpdatePostDraft(t *testing.T) {
	env := newPostFlowEnv()
	post := &models.Post{UUID: uuid.New(), CustomerID: 1, Content: "before", Status: models.PostStatusDraft, CreatedAt: utils.UTCNow()}
	require.NoError(t, env.postRepo.Save(context.Background(), post))

	newContent := "after"
	resp, err := env.flow.Update(context.Background(), &dto.UpdatePostRequest{
		UUID:       post.UUID.String(),
		CustomerID: 1,
		Content:    &newContent,
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, "after", resp.Post.Content)
}

func TestUpdateRejectsApprovedPost(t *testing.T) {
	env := newPostFlowEnv()
	post := &models.Post{UUID: uuid.New(), CustomerID: 1, Content: "frozen", Status: models.PostStatusApproved, CreatedAt: utils.UTCNow()}
	require.NoError(t, env.postRepo.Save(context.Background(), post))

	newContent := "changed"
	_, err := env.flow.Update(context.Background(), &dto.UpdatePostRequest{
		UUID:       post.UUID.String(),
		CustomerID: 1,
		Content:    &newContent,
	}, testMetadata)

	assert.True(t, IsPostNotEditable(err))
}

func TestApprovePostDraft(t *testing.T) {
	env := newPostFlowEnv()
	post := &models.Post{UUID: uuid.New(), CustomerID: 1, Content: "ready", Status: models.PostStatusDraft, CreatedAt: utils.UTCNow()}
	require.NoError(t, env.postRepo.Save(context.Background(), post))

	resp, err := env.flow.Approve(context.Background(), &dto.ApprovePostRequest{
		UUID:       post.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, models.PostStatusApproved.String(), resp.Status)

	stored, err := env.postRepo.ByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusApproved, stored.Status)
}

func TestApproveRejectsScheduledPost(t *testing.T) {
	env := newPostFlowEnv()
	post := &models.Post{UUID: uuid.New(), CustomerID: 1, Content: "queued", Status: models.PostStatusScheduled, CreatedAt: utils.UTCNow()}
	require.NoError(t, env.postRepo.Save(context.Background(), post))

	_, err := env.flow.Approve(context.Background(), &dto.ApprovePostRequest{
		UUID:       post.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsPostNotApprovable(err))
}

func TestDeletePostDraft(t *testing.T) {
	env := newPostFlowEnv()
	post := &models.Post{UUID: uuid.New(), CustomerID: 1, Content: "discard", Status: models.PostStatusDraft, CreatedAt: utils.UTCNow()}
	require.NoError(t, env.postRepo.Save(context.Background(), post))

	_, err := env.flow.Delete(context.Background(), &dto.DeletePostRequest{
		UUID:       post.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	require.NoError(t, err)

	stored, err := env.postRepo.ByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteRejectsScheduledPost(t *testing.T) {
	env := newPostFlowEnv()
	post := &models.Post{UUID: uuid.New(), CustomerID: 1, Content: "queued", Status: models.PostStatusScheduled, CreatedAt: utils.UTCNow()}
	require.NoError(t, env.postRepo.Save(context.Background(), post))

	_, err := env.flow.Delete(context.Background(), &dto.DeletePostRequest{
		UUID:       post.UUID.String(),
		CustomerID: 1,
	}, testMetadata)

	assert.True(t, IsPostNotDeletable(err))
}

func TestGetPostNotFound(t *testing.T) {
	env := newPostFlowEnv()

	_, err := env.flow.Get(context.Background(), uuid.New().String(), 1)
	assert.True(t, IsPostNotFound(err))
}
