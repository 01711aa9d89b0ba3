package models

import "time"

// Event represents a moderation action or audit finding.
type Event struct {
	ID        EventID   `json:"id"`
	Type      string    `json:"type"`  // e.g., "idea.delete", "idea.score.drift"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	IdeaID    *IdeaID   `json:"ideaId,omitempty"` // Nullable for user-level events
	CreatedAt time.Time `json:"createdAt"`
}
