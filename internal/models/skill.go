package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityKindSkill tags registry entities that represent learned skills.
const EntityKindSkill = "skill"

// LearnedSkill is a skill the player has learned, with its recorded mastery
// label from the entity registry.
type LearnedSkill struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PlayerID     uuid.UUID `json:"player_id" db:"player_id"`
	Name         string    `json:"name" db:"name"`
	MasteryLabel string    `json:"mastery_label" db:"mastery_label"`
	LearnedAt    time.Time `json:"learned_at" db:"learned_at"`
}

// Mastery resolves the recorded label to a tier.
func (s *LearnedSkill) Mastery() MasteryTier {
	return ParseMasteryTier(s.MasteryLabel)
}
