package messaging

// ActionTaskPayload is the message sent to the upstream generator queue when
// a player action is dispatched.
type ActionTaskPayload struct {
	TaskID        string `json:"task_id"`
	SessionID     string `json:"session_id"`
	PlayerID      string `json:"player_id"`
	ActionText    string `json:"action_text"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Language      string `json:"language,omitempty"`
}
