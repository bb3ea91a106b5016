package model

import "time"

type ActivityKind string

const (
	ActivityQuery  ActivityKind = "query"
	ActivityUpload ActivityKind = "upload"
	ActivityDelete ActivityKind = "delete"
)

type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "success"
	ActivityFailed  ActivityStatus = "failed"
)

// ActivityEvent is one dashboard action kept for analytics.
type ActivityEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Kind      ActivityKind   `gorm:"size:16;not null;index" json:"kind"`
	Status    ActivityStatus `gorm:"size:16;not null" json:"status"`
	SessionID string         `gorm:"size:64;index" json:"session_id,omitempty"`
	Subject   string         `gorm:"type:text" json:"subject"`
	UserID    string         `gorm:"size:64;index" json:"user_id,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
