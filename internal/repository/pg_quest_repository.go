package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"saga-server/internal/models"
)

// Compile-time check to ensure pgQuestRepository implements QuestRepository.
var _ QuestRepository = (*pgQuestRepository)(nil)

const questFields = "id, player_id, title, status, created_at"

const listActiveQuestsQuery = `
SELECT ` + questFields + `
FROM quests
WHERE player_id = $1 AND status = $2
ORDER BY created_at`

const findActiveQuestByTitleQuery = `
SELECT ` + questFields + `
FROM quests
WHERE player_id = $1 AND status = $2 AND title = $3
LIMIT 1`

const listObjectivesQuery = `
SELECT id, quest_id, description, completed, position
FROM quest_objectives
WHERE quest_id = ANY($1)
ORDER BY quest_id, position`

type pgQuestRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgQuestRepository creates a PostgreSQL-backed QuestRepository.
func NewPgQuestRepository(pool *pgxpool.Pool, logger *zap.Logger) QuestRepository {
	return &pgQuestRepository{
		pool:   pool,
		logger: logger.Named("PgQuestRepo"),
	}
}

func (r *pgQuestRepository) ListActiveQuests(ctx context.Context, playerID uuid.UUID) ([]models.Quest, error) {
	var quests []models.Quest
	err := pgxscan.Select(ctx, r.pool, &quests, listActiveQuestsQuery, playerID, models.QuestStatusActive)
	if err != nil {
		r.logger.Error("Failed to list active quests", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list active quests: %w", err)
	}
	if err := r.attachObjectives(ctx, quests); err != nil {
		return nil, err
	}
	return quests, nil
}

func (r *pgQuestRepository) FindActiveQuestByTitle(ctx context.Context, playerID uuid.UUID, title string) (*models.Quest, error) {
	var quest models.Quest
	err := pgxscan.Get(ctx, r.pool, &quest, findActiveQuestByTitleQuery, playerID, models.QuestStatusActive, title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to find quest by title",
			zap.Stringer("playerID", playerID), zap.String("title", title), zap.Error(err))
		return nil, fmt.Errorf("failed to find quest by title: %w", err)
	}
	quests := []models.Quest{quest}
	if err := r.attachObjectives(ctx, quests); err != nil {
		return nil, err
	}
	return &quests[0], nil
}

// attachObjectives loads objectives for all quests in one query and fans
// them out by quest id.
func (r *pgQuestRepository) attachObjectives(ctx context.Context, quests []models.Quest) error {
	if len(quests) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(quests))
	byID := make(map[uuid.UUID]*models.Quest, len(quests))
	for i := range quests {
		ids = append(ids, quests[i].ID)
		byID[quests[i].ID] = &quests[i]
	}

	var objectives []models.QuestObjective
	if err := pgxscan.Select(ctx, r.pool, &objectives, listObjectivesQuery, ids); err != nil {
		r.logger.Error("Failed to load quest objectives", zap.Error(err))
		return fmt.Errorf("failed to load quest objectives: %w", err)
	}
	for _, obj := range objectives {
		if q, ok := byID[obj.QuestID]; ok {
			q.Objectives = append(q.Objectives, obj)
		}
	}
	return nil
}
