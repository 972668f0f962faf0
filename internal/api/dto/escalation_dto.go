package dto

// EscalationRequest is the payload the chat frontend sends when the
// assistant could not resolve the session.
type EscalationRequest struct {
	Description string `json:"description"`
	AiResponse  string `json:"ai_response"`
}

// MatchRequest previews category routing for a description.
type MatchRequest struct {
	Description string `json:"description"`
}

// MatchResponse carries the matched category, if any.
type MatchResponse struct {
	Matched  bool              `json:"matched"`
	Category *CategoryResponse `json:"category,omitempty"`
}
