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

var _ SkillRepository = (*pgSkillRepository)(nil)

// Most recently learned match wins when several skill names contain the
// substring.
const findLearnedSkillQuery = `
SELECT id, player_id, name, mastery_label, learned_at
FROM player_entities
WHERE player_id = $1
  AND kind = $2
  AND lower(name) LIKE '%' || lower($3) || '%'
ORDER BY learned_at DESC
LIMIT 1`

type pgSkillRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgSkillRepository creates a PostgreSQL-backed SkillRepository over the
// player entity registry.
func NewPgSkillRepository(pool *pgxpool.Pool, logger *zap.Logger) SkillRepository {
	return &pgSkillRepository{
		pool:   pool,
		logger: logger.Named("PgSkillRepo"),
	}
}

func (r *pgSkillRepository) FindLearnedSkill(ctx context.Context, playerID uuid.UUID, nameSubstring string) (*models.LearnedSkill, error) {
	var skill models.LearnedSkill
	err := pgxscan.Get(ctx, r.pool, &skill, findLearnedSkillQuery, playerID, models.EntityKindSkill, nameSubstring)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to look up learned skill",
			zap.Stringer("playerID", playerID), zap.String("substring", nameSubstring), zap.Error(err))
		return nil, fmt.Errorf("failed to look up learned skill: %w", err)
	}
	return &skill, nil
}
