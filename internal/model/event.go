package model

import (
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryPipeline    = "pipeline"
	EventCategoryTranslation = "translation"
	EventCategoryEmbedding   = "embedding"
	EventCategoryImage       = "image"
	EventCategorySearch      = "search"
	EventCategorySystem      = "system"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}

// AIUsage is one logged upstream model call.
type AIUsage struct {
	Operation        string
	Provider         string
	Model            string
	Locale           string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	Success          bool
}
