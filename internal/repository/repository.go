// Package repository holds the read-only collaborators of the decision layer
// (quest store, skill/entity registry) and the session-scoped category
// state.
package repository

import (
	"context"

	"github.com/google/uuid"

	"saga-server/internal/models"
)

// QuestRepository is the read-only quest-objective store.
type QuestRepository interface {
	// ListActiveQuests returns the player's active quests with objectives
	// ordered by position.
	ListActiveQuests(ctx context.Context, playerID uuid.UUID) ([]models.Quest, error)
	// FindActiveQuestByTitle matches by exact title and active status.
	// Returns models.ErrNotFound when no such quest exists.
	FindActiveQuestByTitle(ctx context.Context, playerID uuid.UUID, title string) (*models.Quest, error)
}

// SkillRepository is the read-only skill/entity registry.
type SkillRepository interface {
	// FindLearnedSkill matches entity names tagged as skills by
	// case-insensitive substring containment. Returns models.ErrNotFound when
	// the player has not learned a matching skill.
	FindLearnedSkill(ctx context.Context, playerID uuid.UUID, nameSubstring string) (*models.LearnedSkill, error)
}

// SessionStateRepository owns the per-session single-slot "last selected
// category". Set by the presentation layer on selection, read on the next
// rendering pass, cleared when a free-text custom action is submitted.
type SessionStateRepository interface {
	SetLastSelectedCategory(ctx context.Context, sessionID uuid.UUID, category string) error
	// GetLastSelectedCategory returns "" when the slot is empty.
	GetLastSelectedCategory(ctx context.Context, sessionID uuid.UUID) (string, error)
	ClearLastSelectedCategory(ctx context.Context, sessionID uuid.UUID) error
}
