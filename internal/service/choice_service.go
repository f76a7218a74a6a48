// Package service wires the adjustment pipeline and the retry coordinator
// behind the gameplay-facing API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saga-server/internal/adjust"
	"saga-server/internal/models"
	"saga-server/internal/parser"
	"saga-server/internal/repository"
	"saga-server/internal/retry"
)

// ActionDispatcher sends an action to the upstream generator. Implemented by
// the RabbitMQ queue dispatcher and the direct AI client.
type ActionDispatcher interface {
	DispatchAction(ctx context.Context, sessionID, playerID uuid.UUID, actionText, correlationID string) error
}

// ChoiceService is the decision layer behind the choice mechanic.
type ChoiceService interface {
	// AnnotateChoices runs raw generator choice strings through the full
	// adjustment pipeline: extract, infer, category support, skill mastery.
	AnnotateChoices(ctx context.Context, sessionID, playerID uuid.UUID, rawChoices []string) ([]models.ChoiceRecord, error)
	// SelectChoice records the selection's category for the next rendering
	// pass, memoizes the action and dispatches it.
	SelectChoice(ctx context.Context, sessionID, playerID uuid.UUID, category, actionText string, snapshot json.RawMessage) error
	// SubmitCustomAction clears the category slot (free-text actions carry no
	// category), memoizes the action and dispatches it.
	SubmitCustomAction(ctx context.Context, sessionID, playerID uuid.UUID, actionText string, snapshot json.RawMessage) error
	// RetryLastAction re-dispatches the memoized action under the
	// single-flight guard.
	RetryLastAction(ctx context.Context, sessionID, playerID uuid.UUID) error
}

type choiceServiceImpl struct {
	questRepo   repository.QuestRepository
	skillRepo   repository.SkillRepository
	sessionRepo repository.SessionStateRepository
	dispatcher  ActionDispatcher
	supportRule adjust.SupportRule
	logger      *zap.Logger

	// Retry coordinators are in-memory and created empty at process start,
	// one per session.
	coordMu      sync.Mutex
	coordinators map[uuid.UUID]*retry.Coordinator
}

// NewChoiceService creates the choice decision service.
func NewChoiceService(
	questRepo repository.QuestRepository,
	skillRepo repository.SkillRepository,
	sessionRepo repository.SessionStateRepository,
	dispatcher ActionDispatcher,
	supportRule adjust.SupportRule,
	logger *zap.Logger,
) ChoiceService {
	if supportRule == nil {
		supportRule = adjust.NewDefaultSupportRule()
	}
	return &choiceServiceImpl{
		questRepo:    questRepo,
		skillRepo:    skillRepo,
		sessionRepo:  sessionRepo,
		dispatcher:   dispatcher,
		supportRule:  supportRule,
		logger:       logger.Named("ChoiceService"),
		coordinators: make(map[uuid.UUID]*retry.Coordinator),
	}
}

func (s *choiceServiceImpl) coordinator(sessionID uuid.UUID) *retry.Coordinator {
	s.coordMu.Lock()
	defer s.coordMu.Unlock()
	c, ok := s.coordinators[sessionID]
	if !ok {
		c = retry.NewCoordinator(s.logger)
		s.coordinators[sessionID] = c
	}
	return c
}

func (s *choiceServiceImpl) AnnotateChoices(ctx context.Context, sessionID, playerID uuid.UUID, rawChoices []string) ([]models.ChoiceRecord, error) {
	log := s.logger.With(zap.Stringer("sessionID", sessionID))

	// Both collaborator reads only feed optional bonuses and links, so their
	// failures degrade to "no bonus / no link" instead of failing the whole
	// rendering pass.
	lastCategory, err := s.sessionRepo.GetLastSelectedCategory(ctx, sessionID)
	if err != nil {
		log.Warn("Failed to read last selected category, support bonus disabled for this pass", zap.Error(err))
		lastCategory = ""
	}
	quests, err := s.questRepo.ListActiveQuests(ctx, playerID)
	if err != nil {
		log.Warn("Failed to load active quests, quest links disabled for this pass", zap.Error(err))
		quests = nil
	}

	records := make([]models.ChoiceRecord, 0, len(rawChoices))
	for _, raw := range rawChoices {
		records = append(records, s.annotateOne(ctx, playerID, raw, lastCategory, quests))
	}
	return records, nil
}

// annotateOne runs one raw choice through the ordered pipeline. Category
// support is applied before skill mastery; the mastery bonus stacks on top
// of the support result, never on the raw baseline.
func (s *choiceServiceImpl) annotateOne(ctx context.Context, playerID uuid.UUID, raw, lastCategory string, quests []models.Quest) models.ChoiceRecord {
	fields := parser.Infer(parser.Extract(raw, quests))

	baseRate := *fields.SuccessRate
	baseTier := *fields.RiskTier

	supported := adjust.ApplySupport(baseRate, baseTier, fields.Category, lastCategory, s.supportRule)

	rate, tier := supported.Rate, supported.Tier
	boosted := false
	skillName := ""
	if name, ok := adjust.ExtractSkillName(fields.Content); ok {
		if masteryTier, found := s.lookupMastery(ctx, playerID, name); found {
			res := adjust.ApplyMastery(rate, tier, masteryTier)
			rate, tier, boosted = res.Rate, res.Tier, res.Boosted
			if res.Boosted {
				skillName = name
			}
		}
	}

	return models.ChoiceRecord{
		Content:             fields.Content,
		TimeEstimate:        fields.TimeEstimate,
		SuccessRate:         rate,
		OriginalSuccessRate: baseRate,
		RiskTier:            tier,
		OriginalRiskTier:    baseTier,
		RiskDescription:     fields.RiskDescription,
		RewardText:          fields.RewardText,
		IsNSFW:              fields.IsNSFW,
		Category:            fields.Category,
		QuestLink:           fields.QuestLink,
		SupportIndicator:    supported.Indicator,
		SupportTooltip:      supported.Tooltip,
		IsSkillBoosted:      boosted,
		SkillName:           skillName,
	}
}

// lookupMastery confirms the player has learned the extracted skill and has
// a mastery tier above Novice. Any miss is a normal "no applicable bonus",
// never an error.
func (s *choiceServiceImpl) lookupMastery(ctx context.Context, playerID uuid.UUID, skillName string) (models.MasteryTier, bool) {
	skill, err := s.skillRepo.FindLearnedSkill(ctx, playerID, skillName)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("Skill lookup failed, mastery bonus skipped",
				zap.String("skill", skillName), zap.Error(err))
		}
		return models.MasteryNovice, false
	}
	tier := skill.Mastery()
	if tier <= models.MasteryNovice {
		return models.MasteryNovice, false
	}
	return tier, true
}

func (s *choiceServiceImpl) SelectChoice(ctx context.Context, sessionID, playerID uuid.UUID, category, actionText string, snapshot json.RawMessage) error {
	if actionText == "" {
		return fmt.Errorf("%w: action text is empty", models.ErrBadRequest)
	}
	if category != "" {
		if err := s.sessionRepo.SetLastSelectedCategory(ctx, sessionID, category); err != nil {
			return err
		}
	} else if err := s.sessionRepo.ClearLastSelectedCategory(ctx, sessionID); err != nil {
		return err
	}
	return s.dispatchRecorded(ctx, sessionID, playerID, actionText, snapshot)
}

func (s *choiceServiceImpl) SubmitCustomAction(ctx context.Context, sessionID, playerID uuid.UUID, actionText string, snapshot json.RawMessage) error {
	if actionText == "" {
		return fmt.Errorf("%w: action text is empty", models.ErrBadRequest)
	}
	// A free-text action breaks the category chain.
	if err := s.sessionRepo.ClearLastSelectedCategory(ctx, sessionID); err != nil {
		return err
	}
	return s.dispatchRecorded(ctx, sessionID, playerID, actionText, snapshot)
}

// dispatchRecorded memoizes the action, dispatches it, and on failure runs
// the classify-then-retry-once policy. The original dispatch error is
// surfaced unchanged when it is non-retryable or the retry also fails.
func (s *choiceServiceImpl) dispatchRecorded(ctx context.Context, sessionID, playerID uuid.UUID, actionText string, snapshot json.RawMessage) error {
	coord := s.coordinator(sessionID)
	coord.RecordLastAction(actionText, snapshot)

	dispatch := s.dispatchFunc(sessionID, playerID)
	if err := dispatch(ctx, actionText, uuid.NewString()); err != nil {
		s.logger.Warn("Dispatch failed",
			zap.Stringer("sessionID", sessionID), zap.Error(err))
		// Action already recorded above; empty text skips re-recording.
		return coord.HandleFailure(ctx, "", nil, err, dispatch)
	}
	return nil
}

func (s *choiceServiceImpl) dispatchFunc(sessionID, playerID uuid.UUID) retry.DispatchFunc {
	return func(ctx context.Context, actionText, correlationID string) error {
		return s.dispatcher.DispatchAction(ctx, sessionID, playerID, actionText, correlationID)
	}
}

func (s *choiceServiceImpl) RetryLastAction(ctx context.Context, sessionID, playerID uuid.UUID) error {
	coord := s.coordinator(sessionID)
	if coord.LastAction() == nil {
		return models.ErrNoLastAction
	}
	if coord.RetryInFlight() {
		return models.ErrRetryInFlight
	}
	if !coord.ExecuteRetry(ctx, s.dispatchFunc(sessionID, playerID)) {
		// Either a concurrent retry won the guard between the check above and
		// the execute, or the dispatch itself failed.
		if coord.RetryInFlight() {
			return models.ErrRetryInFlight
		}
		return fmt.Errorf("retry dispatch failed for session %s", sessionID)
	}
	return nil
}
