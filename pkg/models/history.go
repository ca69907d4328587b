package models

import (
	"encoding/json"
	"time"
)

// HistoryItem is a past analysis kept for the current session only
type HistoryItem struct {
	ID               string
	Timestamp        int64 // Unix milliseconds
	Type             string
	Content          string // Original text or URL
	Analysis         json.RawMessage
	GeneratedContent string
	Topic            string // Topic used for generation
}

// Time returns the timestamp as local time
func (h HistoryItem) Time() time.Time {
	return time.UnixMilli(h.Timestamp).Local()
}

// HistoryUpdate is a partial update; nil fields are left unchanged
type HistoryUpdate struct {
	Type             *string
	Content          *string
	Analysis         json.RawMessage
	GeneratedContent *string
	Topic            *string
}
