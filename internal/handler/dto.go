package handler

import "encoding/json"

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// annotateChoicesRequest carries the raw generator choice strings to annotate.
type annotateChoicesRequest struct {
	Choices []string `json:"choices" binding:"required"`
}

// selectChoiceRequest carries a selected choice: the action text that will be
// dispatched and the category the selection belongs to (empty for uncategorized
// choices).
type selectChoiceRequest struct {
	ActionText string          `json:"action_text" binding:"required"`
	Category   string          `json:"category"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
}

// customActionRequest carries a free-text player action.
type customActionRequest struct {
	ActionText string          `json:"action_text" binding:"required"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
}
