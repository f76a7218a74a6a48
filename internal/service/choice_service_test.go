package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saga-server/internal/adjust"
	"saga-server/internal/models"
)

// --- Mocks ---

type mockQuestRepo struct{ mock.Mock }

func (m *mockQuestRepo) ListActiveQuests(ctx context.Context, playerID uuid.UUID) ([]models.Quest, error) {
	args := m.Called(ctx, playerID)
	if q := args.Get(0); q != nil {
		return q.([]models.Quest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuestRepo) FindActiveQuestByTitle(ctx context.Context, playerID uuid.UUID, title string) (*models.Quest, error) {
	args := m.Called(ctx, playerID, title)
	if q := args.Get(0); q != nil {
		return q.(*models.Quest), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSkillRepo struct{ mock.Mock }

func (m *mockSkillRepo) FindLearnedSkill(ctx context.Context, playerID uuid.UUID, nameSubstring string) (*models.LearnedSkill, error) {
	args := m.Called(ctx, playerID, nameSubstring)
	if s := args.Get(0); s != nil {
		return s.(*models.LearnedSkill), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) SetLastSelectedCategory(ctx context.Context, sessionID uuid.UUID, category string) error {
	return m.Called(ctx, sessionID, category).Error(0)
}

func (m *mockSessionRepo) GetLastSelectedCategory(ctx context.Context, sessionID uuid.UUID) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *mockSessionRepo) ClearLastSelectedCategory(ctx context.Context, sessionID uuid.UUID) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) DispatchAction(ctx context.Context, sessionID, playerID uuid.UUID, actionText, correlationID string) error {
	return m.Called(ctx, sessionID, playerID, actionText, correlationID).Error(0)
}

// --- Helpers ---

type serviceFixture struct {
	svc         ChoiceService
	questRepo   *mockQuestRepo
	skillRepo   *mockSkillRepo
	sessionRepo *mockSessionRepo
	dispatcher  *mockDispatcher
	sessionID   uuid.UUID
	playerID    uuid.UUID
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		questRepo:   new(mockQuestRepo),
		skillRepo:   new(mockSkillRepo),
		sessionRepo: new(mockSessionRepo),
		dispatcher:  new(mockDispatcher),
		sessionID:   uuid.New(),
		playerID:    uuid.New(),
	}
	f.svc = NewChoiceService(
		f.questRepo, f.skillRepo, f.sessionRepo, f.dispatcher,
		adjust.NewDefaultSupportRule(), zap.NewNop())
	return f
}

// --- AnnotateChoices ---

func TestAnnotateChoices_FullyTaggedWithSupportBonus(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("GetLastSelectedCategory", mock.Anything, f.sessionID).Return("Chiến Đấu", nil)
	f.questRepo.On("ListActiveQuests", mock.Anything, f.playerID).Return(nil, nil)

	raw := "✦Chiến Đấu✦ Tấn công kẻ địch (5 phút) Tỷ lệ thành công: 40% Rủi ro: Cao"
	records, err := f.svc.AnnotateChoices(context.Background(), f.sessionID, f.playerID, []string{raw})

	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, "Chiến Đấu", rec.Category)
	assert.Equal(t, "Tấn công kẻ địch", rec.Content)
	assert.Equal(t, "5 phút", rec.TimeEstimate)
	// Support bonus for repeating the category: 40 -> 45, baseline preserved.
	assert.Equal(t, 45, rec.SuccessRate)
	assert.Equal(t, 40, rec.OriginalSuccessRate)
	assert.Equal(t, models.RiskHigh, rec.RiskTier)
	assert.Equal(t, models.RiskHigh, rec.OriginalRiskTier)
	assert.Equal(t, "⬆", rec.SupportIndicator)
	assert.NotEmpty(t, rec.SupportTooltip)
	assert.False(t, rec.IsSkillBoosted)

	f.skillRepo.AssertNotCalled(t, "FindLearnedSkill", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnnotateChoices_SkillMasteryBonus(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("GetLastSelectedCategory", mock.Anything, f.sessionID).Return("", nil)
	f.questRepo.On("ListActiveQuests", mock.Anything, f.playerID).Return(nil, nil)
	f.skillRepo.On("FindLearnedSkill", mock.Anything, f.playerID, "Băng Tâm Quyết").
		Return(&models.LearnedSkill{Name: "Băng Tâm Quyết", MasteryLabel: "Đại Thành"}, nil)

	raw := "Dùng Băng Tâm Quyết để ổn định tâm cảnh"
	records, err := f.svc.AnnotateChoices(context.Background(), f.sessionID, f.playerID, []string{raw})

	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]

	// Inferred baseline 70/Medium, Advanced mastery: +10 success, -1 risk.
	assert.Equal(t, 70, rec.OriginalSuccessRate)
	assert.Equal(t, models.RiskMedium, rec.OriginalRiskTier)
	assert.Equal(t, 80, rec.SuccessRate)
	assert.Equal(t, models.RiskLow, rec.RiskTier)
	assert.True(t, rec.IsSkillBoosted)
	assert.Equal(t, "Băng Tâm Quyết", rec.SkillName)
}

func TestAnnotateChoices_UnlearnedSkillIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("GetLastSelectedCategory", mock.Anything, f.sessionID).Return("", nil)
	f.questRepo.On("ListActiveQuests", mock.Anything, f.playerID).Return(nil, nil)
	f.skillRepo.On("FindLearnedSkill", mock.Anything, f.playerID, "Băng Tâm Quyết").
		Return(nil, models.ErrNotFound)

	records, err := f.svc.AnnotateChoices(context.Background(), f.sessionID, f.playerID,
		[]string{"Dùng Băng Tâm Quyết để ổn định tâm cảnh"})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].IsSkillBoosted)
	assert.Equal(t, 70, records[0].SuccessRate)
	assert.Equal(t, models.RiskMedium, records[0].RiskTier)
}

func TestAnnotateChoices_CollaboratorFailuresDegrade(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("GetLastSelectedCategory", mock.Anything, f.sessionID).Return("", errors.New("redis down"))
	f.questRepo.On("ListActiveQuests", mock.Anything, f.playerID).Return(nil, errors.New("db down"))

	records, err := f.svc.AnnotateChoices(context.Background(), f.sessionID, f.playerID,
		[]string{"✦Chiến Đấu✦ Tấn công kẻ địch Tỷ lệ thành công: 40% Rủi ro: Cao"})

	// Degraded pass: no support bonus, no quest link, but annotation succeeds.
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 40, records[0].SuccessRate)
	assert.Empty(t, records[0].SupportIndicator)
	assert.Nil(t, records[0].QuestLink)
}

// --- SelectChoice / SubmitCustomAction ---

func TestSelectChoice_RecordsCategoryAndDispatches(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("SetLastSelectedCategory", mock.Anything, f.sessionID, "Chiến Đấu").Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tấn công kẻ địch", mock.Anything).Return(nil)

	err := f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "Chiến Đấu", "Tấn công kẻ địch", nil)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
	f.dispatcher.AssertNumberOfCalls(t, "DispatchAction", 1)
}

func TestSelectChoice_EmptyActionText(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "Chiến Đấu", "", nil)

	assert.ErrorIs(t, err, models.ErrBadRequest)
	f.dispatcher.AssertNotCalled(t, "DispatchAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectChoice_UncategorizedClearsSlot(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("ClearLastSelectedCategory", mock.Anything, f.sessionID).Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Quan sát", mock.Anything).Return(nil)

	err := f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "", "Quan sát", nil)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
}

func TestSelectChoice_NonRetryableFailureSurfaced(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("invalid input")
	f.sessionRepo.On("SetLastSelectedCategory", mock.Anything, f.sessionID, "Chiến Đấu").Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tấn công", mock.Anything).Return(cause)

	err := f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "Chiến Đấu", "Tấn công", nil)

	assert.Same(t, cause, err)
	f.dispatcher.AssertNumberOfCalls(t, "DispatchAction", 1)
}

func TestSelectChoice_RetryableFailureRetriedOnce(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("SetLastSelectedCategory", mock.Anything, f.sessionID, "Chiến Đấu").Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tấn công", mock.Anything).
		Return(errors.New("timeout")).Once()
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tấn công", mock.Anything).
		Return(nil).Once()

	err := f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "Chiến Đấu", "Tấn công", nil)

	require.NoError(t, err)
	f.dispatcher.AssertNumberOfCalls(t, "DispatchAction", 2)
}

func TestSubmitCustomAction_ClearsCategorySlot(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("ClearLastSelectedCategory", mock.Anything, f.sessionID).Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tự do hành động", mock.Anything).Return(nil)

	err := f.svc.SubmitCustomAction(context.Background(), f.sessionID, f.playerID, "Tự do hành động", nil)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
	f.dispatcher.AssertExpectations(t)
}

// --- RetryLastAction ---

func TestRetryLastAction_NoRecordedAction(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RetryLastAction(context.Background(), f.sessionID, f.playerID)

	assert.ErrorIs(t, err, models.ErrNoLastAction)
	f.dispatcher.AssertNotCalled(t, "DispatchAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryLastAction_RedispatchesMemoizedAction(t *testing.T) {
	f := newFixture(t)
	f.sessionRepo.On("SetLastSelectedCategory", mock.Anything, f.sessionID, "Chiến Đấu").Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tấn công kẻ địch", mock.Anything).Return(nil)

	require.NoError(t, f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "Chiến Đấu", "Tấn công kẻ địch", nil))
	require.NoError(t, f.svc.RetryLastAction(context.Background(), f.sessionID, f.playerID))

	f.dispatcher.AssertNumberOfCalls(t, "DispatchAction", 2)
}

func TestRetryLastAction_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	otherSession := uuid.New()
	f.sessionRepo.On("SetLastSelectedCategory", mock.Anything, f.sessionID, "Chiến Đấu").Return(nil)
	f.dispatcher.On("DispatchAction", mock.Anything, f.sessionID, f.playerID, "Tấn công", mock.Anything).Return(nil)

	require.NoError(t, f.svc.SelectChoice(context.Background(), f.sessionID, f.playerID, "Chiến Đấu", "Tấn công", nil))

	// A different session has no memoized action.
	err := f.svc.RetryLastAction(context.Background(), otherSession, f.playerID)
	assert.ErrorIs(t, err, models.ErrNoLastAction)
}
