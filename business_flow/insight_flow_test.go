package businessflow

import (
	"context"
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

type fakeTranscriptRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{records: make(map[uint]*models.Transcript)}
}

func cloneTranscript(tr *models.Transcript) *models.Transcript {
	c := *tr
	return &c
}

func (f *fakeTranscriptRepo) ByID(ctx context.Context, id uint) (*models.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return cloneTranscript(tr), nil
}

func (f *fakeTranscriptRepo) ByFilter(ctx context.Context, filter models.TranscriptFilter, orderBy string, limit, offset int) ([]*models.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transcript
	for _, tr := range f.records {
		if filter.CustomerID != nil && tr.CustomerID != *filter.CustomerID {
			continue
		}
		out = append(out, cloneTranscript(tr))
	}
	return out, nil
}

func (f *fakeTranscriptRepo) Save(ctx context.Context, tr *models.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	tr.ID = f.nextID
	f.records[tr.ID] = cloneTranscript(tr)
	return nil
}

func (f *fakeTranscriptRepo) SaveBatch(ctx context.Context, trs []*models.Transcript) error {
	for _, tr := range trs {
		if err := f.Save(ctx, tr); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTranscriptRepo) Count(ctx context.Context, filter models.TranscriptFilter) (int64, error) {
	out, _ := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(out)), nil
}

func (f *fakeTranscriptRepo) Exists(ctx context.Context, filter models.TranscriptFilter) (bool, error) {
	count, _ := f.Count(ctx, filter)
	return count > 0, nil
}

func (f *fakeTranscriptRepo) ByUUID(ctx context.Context, raw string) (*models.Transcript, error) {
	parsed, err := utils.ParseUUID(raw)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.records {
		if tr.UUID == parsed {
			return cloneTranscript(tr), nil
		}
	}
	return nil, nil
}

func (f *fakeTranscriptRepo) ByCustomerID(ctx context.Context, customerID uint, limit, offset int) ([]*models.Transcript, error) {
	return f.ByFilter(ctx, models.TranscriptFilter{CustomerID: &customerID}, "", limit, offset)
}

func (f *fakeTranscriptRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

type insightFlowEnv struct {
	flow           InsightFlow
	transcriptRepo *fakeTranscriptRepo
	insightRepo    *fakeInsightRepo
	auditRepo      *fakeAuditRepo
	llm            *stubLLMService
}

func newInsightFlowEnv(maxInsights int) *insightFlowEnv {
	env := &insightFlowEnv{
		transcriptRepo: newFakeTranscriptRepo(),
		insightRepo:    newFakeInsightRepo(),
		auditRepo:      newFakeAuditRepo(),
		llm: &stubLLMService{insights: []services.ExtractedInsight{
			{Content: "Onboarding drop-off happens in week one", Score: 0.92, Topics: []string{"onboarding", "churn"}},
			{Content: "Enterprise buyers ask about SSO first", Score: 0.81, Topics: []string{"sales"}},
		}},
	}
	env.flow = NewInsightFlow(env.transcriptRepo, env.insightRepo, env.auditRepo, env.llm, maxInsights, nil)
	return env
}

func (env *insightFlowEnv) createTranscript(t *testing.T, customerID uint) *models.Transcript {
	t.Helper()
	tr := &models.Transcript{
		UUID:       uuid.New(),
		CustomerID: customerID,
		Title:      "Q3 customer interview",
		Content:    "Long transcript body",
		Source:     "upload",
		CreatedAt:  utils.UTCNow(),
	}
	require.NoError(t, env.transcriptRepo.Save(context.Background(), tr))
	return tr
}

func TestExtractInsightsPersistsScoredRows(t *testing.T) {
	env := newInsightFlowEnv(10)
	tr := env.createTranscript(t, 1)

	resp, err := env.flow.Extract(context.Background(), &dto.ExtractInsightsRequest{
		TranscriptUUID: tr.UUID.String(),
		CustomerID:     1,
	}, testMetadata)

	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, models.InsightStatusSuggested.String(), resp.Items[0].Status)
	assert.Equal(t, tr.UUID.String(), resp.Items[0].TranscriptUUID)

	stored, err := env.insightRepo.ByTranscriptID(context.Background(), tr.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, i := range stored {
		assert.Equal(t, models.InsightStatusSuggested, i.Status)
		assert.Greater(t, i.Score, 0.0)
		assert.NotEmpty(t, i.Topics)
	}
}

func TestExtractInsightsRejectsForeignTranscript(t *testing.T) {
	env := newInsightFlowEnv(10)
	tr := env.createTranscript(t, 2)

	_, err := env.flow.Extract(context.Background(), &dto.ExtractInsightsRequest{
		TranscriptUUID: tr.UUID.String(),
		CustomerID:     1,
	}, testMetadata)

	assert.True(t, IsTranscriptAccessDenied(err))
}

func TestReviewAcceptsSuggestedInsight(t *testing.T) {
	env := newInsightFlowEnv(10)
	insight := &models.Insight{
		UUID:         uuid.New(),
		TranscriptID: 1,
		CustomerID:   1,
		Content:      "Something worth posting",
		Score:        0.7,
		Status:       models.InsightStatusSuggested,
		CreatedAt:    utils.UTCNow(),
	}
	require.NoError(t, env.insightRepo.Save(context.Background(), insight))

	resp, err := env.flow.Review(context.Background(), &dto.ReviewInsightRequest{
		UUID:       insight.UUID.String(),
		CustomerID: 1,
		Decision:   "accept",
	}, testMetadata)

	require.NoError(t, err)
	assert.Equal(t, models.InsightStatusAccepted.String(), resp.Status)

	stored, err := env.insightRepo.ByID(context.Background(), insight.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InsightStatusAccepted, stored.Status)
}

func TestReviewRejectsSecondDecision(t *testing.T) {
	env := newInsightFlowEnv(10)
	insight := &models.Insight{
		UUID:         uuid.New(),
		TranscriptID: 1,
		CustomerID:   1,
		Content:      "Already reviewed",
		Score:        0.7,
		Status:       models.InsightStatusDismissed,
		CreatedAt:    utils.UTCNow(),
	}
	require.NoError(t, env.insightRepo.Save(context.Background(), insight))

	_, err := env.flow.Review(context.Background(), &dto.ReviewInsightRequest{
		UUID:       insight.UUID.String(),
		CustomerID: 1,
		Decision:   "accept",
	}, testMetadata)

	assert.True(t, IsInsightNotReviewable(err))
}

func TestReviewRejectsUnknownDecision(t *testing.T) {
	env := newInsightFlowEnv(10)

	_, err := env.flow.Review(context.Background(), &dto.ReviewInsightRequest{
		UUID:       uuid.New().String(),
		CustomerID: 1,
		Decision:   "archive",
	}, testMetadata)

	assert.ErrorIs(t, err, ErrInvalidReviewDecision)
}
