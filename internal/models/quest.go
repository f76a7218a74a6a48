package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

const (
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusFailed    QuestStatus = "failed"
)

// QuestObjective is one step of a quest.
type QuestObjective struct {
	ID          uuid.UUID `json:"id" db:"id"`
	QuestID     uuid.UUID `json:"quest_id" db:"quest_id"`
	Description string    `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	Position    int       `json:"position" db:"position"`
}

// Quest is a player quest with its ordered objectives.
type Quest struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	PlayerID   uuid.UUID        `json:"player_id" db:"player_id"`
	Title      string           `json:"title" db:"title"`
	Status     QuestStatus      `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	Objectives []QuestObjective `json:"objectives" db:"-"`
}

// FirstIncompleteObjective returns the first objective (by position) that is
// not completed, or nil if every objective is done.
func (q *Quest) FirstIncompleteObjective() *QuestObjective {
	for i := range q.Objectives {
		if !q.Objectives[i].Completed {
			return &q.Objectives[i]
		}
	}
	return nil
}
